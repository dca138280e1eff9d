// Package transcript holds the visible chat transcript and drives one send at
// a time through the conversation.
package transcript

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	apierrors "github.com/diogo/samarth/internal/errors"
	"github.com/diogo/samarth/internal/models"
)

// Greeting is the assistant message seeded into new transcripts
const Greeting = "Welcome to Samarth AI. How can I help you analyze India's agricultural and climate data today?"

// ErrBusy is returned when a submission arrives while a reply is streaming
var ErrBusy = errors.New("a reply is already in progress")

// Asker streams the reply to a prompt. The channel must always be closed.
type Asker interface {
	Ask(ctx context.Context, prompt string) <-chan string
}

// EventKind identifies a transcript mutation
type EventKind int

const (
	// EventAppended fires when a message is added
	EventAppended EventKind = iota
	// EventUpdated fires when a fragment is appended to the assistant message
	EventUpdated
	// EventSettled fires when a reply finishes and the store is idle again
	EventSettled
)

func (k EventKind) String() string {
	switch k {
	case EventAppended:
		return "appended"
	case EventUpdated:
		return "updated"
	case EventSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Event describes a mutation. Message is a snapshot taken under the lock.
type Event struct {
	Kind    EventKind
	Index   int
	Message models.Message
	Busy    bool
}

// Listener is called after every mutation, outside the store lock
type Listener func(Event)

// Store is the ordered message list plus the busy flag
type Store struct {
	mu        sync.Mutex
	asker     Asker
	messages  []models.Message
	busy      bool
	listeners map[int]Listener
	nextID    int
	greeting  string
	logger    zerolog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithGreeting seeds the transcript with an assistant message
func WithGreeting(text string) Option {
	return func(s *Store) {
		s.greeting = text
	}
}

// WithLogger sets the store logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store that sends prompts through asker
func New(asker Asker, opts ...Option) *Store {
	s := &Store{
		asker:     asker,
		listeners: make(map[int]Listener),
		logger:    log.Logger.With().Str("component", "transcript").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.greeting != "" {
		s.messages = append(s.messages, models.NewMessage(models.RoleAssistant, s.greeting))
	}
	return s
}

// Messages returns a copy of the transcript
func (s *Store) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Last returns the most recent message
func (s *Store) Last() (models.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return models.Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

// LastReply returns the content of the latest assistant message
func (s *Store) LastReply() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].IsAssistant() {
			return s.messages[i].Content
		}
	}
	return ""
}

// Busy reports whether a reply is in flight
func (s *Store) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// CanSubmit reports whether input would be accepted right now
func (s *Store) CanSubmit(input string) bool {
	if strings.TrimSpace(input) == "" {
		return false
	}
	return !s.Busy()
}

// Subscribe registers a listener and returns a function removing it
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Submit validates input, appends the user message and an empty assistant
// placeholder, marks the store busy and starts the reply. Refused
// submissions leave the transcript untouched.
func (s *Store) Submit(ctx context.Context, input string) (*Turn, error) {
	if strings.TrimSpace(input) == "" {
		return nil, apierrors.NewValidationError("input", "cannot be empty")
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.busy = true
	user := models.NewMessage(models.RoleUser, input)
	s.messages = append(s.messages, user)
	userIdx := len(s.messages) - 1
	reply := models.NewMessage(models.RoleAssistant, "")
	s.messages = append(s.messages, reply)
	replyIdx := len(s.messages) - 1
	s.mu.Unlock()

	s.logger.Debug().Str("message_id", reply.ID).Int("length", len(input)).Msg("submitting prompt")

	s.notify(Event{Kind: EventAppended, Index: userIdx, Message: user, Busy: true})
	s.notify(Event{Kind: EventAppended, Index: replyIdx, Message: reply, Busy: true})

	return &Turn{
		store:     s,
		index:     replyIdx,
		id:        reply.ID,
		fragments: s.asker.Ask(ctx, input),
	}, nil
}

// Send submits input and consumes the whole reply
func (s *Store) Send(ctx context.Context, input string) (string, error) {
	turn, err := s.Submit(ctx, input)
	if err != nil {
		return "", err
	}
	return turn.Drain(), nil
}

func (s *Store) appendFragment(index int, fragment string) Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[index].Content += fragment
	return Event{Kind: EventUpdated, Index: index, Message: s.messages[index], Busy: s.busy}
}

func (s *Store) settle(index int) Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	return Event{Kind: EventSettled, Index: index, Message: s.messages[index], Busy: false}
}

func (s *Store) notify(ev Event) {
	s.mu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if l, ok := s.listeners[id]; ok {
			listeners = append(listeners, l)
		}
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(ev)
	}
}

// Turn is one reply being streamed into the transcript
type Turn struct {
	store     *Store
	index     int
	id        string
	fragments <-chan string
	done      bool
}

// MessageID returns the ID of the assistant message being filled
func (t *Turn) MessageID() string {
	return t.id
}

// Index returns the position of the assistant message in the transcript
func (t *Turn) Index() int {
	return t.index
}

// Next blocks for the next fragment and appends it. It returns false once the
// reply has settled; the store is idle from that point on.
func (t *Turn) Next() bool {
	if t.done {
		return false
	}

	fragment, ok := <-t.fragments
	if !ok {
		t.done = true
		ev := t.store.settle(t.index)
		t.store.logger.Debug().Str("message_id", t.id).Int("length", len(ev.Message.Content)).Msg("reply settled")
		t.store.notify(ev)
		return false
	}

	t.store.notify(t.store.appendFragment(t.index, fragment))
	return true
}

// Drain consumes the remaining fragments and returns the final content
func (t *Turn) Drain() string {
	for t.Next() {
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	return t.store.messages[t.index].Content
}
