// Package conversation owns the single dialogue with the remote model and
// exposes it as a stream of text fragments.
package conversation

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/diogo/samarth/internal/api"
)

// Fragments emitted in place of an error. Callers display them like any
// other model output.
const (
	TransportErrorMessage = "An error occurred while communicating with the AI. Please check the console for details."
	NotInitializedMessage = "Chat not initialized. Please try again."
)

// Streamer sends one prompt within an ongoing dialogue and streams the reply
type Streamer interface {
	SendMessageStream(ctx context.Context, prompt string, onChunk func(text string) error) (string, error)
}

// SessionFactory creates the provider-side session on first use
type SessionFactory func() (Streamer, error)

// ClientFactory adapts a GeminiClient into a SessionFactory
func ClientFactory(client *api.GeminiClient) SessionFactory {
	return func() (Streamer, error) {
		session, err := client.StartChat()
		if err != nil {
			return nil, err
		}
		return session, nil
	}
}

// Conversation lazily creates a session and streams replies from it
type Conversation struct {
	mu      sync.Mutex
	factory SessionFactory
	session Streamer
	logger  zerolog.Logger
}

// Option configures a Conversation
type Option func(*Conversation)

// WithLogger sets the logger used to report absorbed failures
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Conversation) {
		c.logger = logger
	}
}

// New creates a Conversation. No session is created until EnsureReady or Ask.
func New(factory SessionFactory, opts ...Option) *Conversation {
	c := &Conversation{
		factory: factory,
		logger:  log.Logger.With().Str("component", "conversation").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnsureReady creates the session if none exists yet. Calling it again once
// a session exists is a no-op.
func (c *Conversation) EnsureReady() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return nil
	}
	if c.factory == nil {
		return errNoFactory
	}

	session, err := c.factory()
	if err != nil {
		return err
	}
	if session == nil {
		return errNoFactory
	}
	c.session = session
	return nil
}

// Ready reports whether a session has been created
func (c *Conversation) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// Ask streams the reply to prompt. The channel delivers fragments in arrival
// order and is always closed. Failures never surface as errors: they are
// logged and replaced by a single sentinel fragment.
//
// Cancelling ctx only releases the producer when the consumer stops reading.
func (c *Conversation) Ask(ctx context.Context, prompt string) <-chan string {
	out := make(chan string)

	go func() {
		defer close(out)

		send := func(text string) error {
			select {
			case out <- text:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.EnsureReady(); err != nil {
			c.logger.Error().Err(err).Msg("failed to initialize chat session")
			_ = send(NotInitializedMessage)
			return
		}

		c.mu.Lock()
		session := c.session
		c.mu.Unlock()

		_, err := session.SendMessageStream(ctx, prompt, func(text string) error {
			if text == "" {
				return nil
			}
			return send(text)
		})
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Debug().Err(err).Msg("stream abandoned by consumer")
				return
			}
			c.logger.Error().Err(err).Msg("error sending message to gemini")
			_ = send(TransportErrorMessage)
		}
	}()

	return out
}
