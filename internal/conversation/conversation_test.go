package conversation

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/diogo/samarth/internal/api"
	apierrors "github.com/diogo/samarth/internal/errors"
)

// fakeSession replays canned chunks and then returns err
type fakeSession struct {
	chunks  []string
	err     error
	prompts []string
}

func (f *fakeSession) SendMessageStream(ctx context.Context, prompt string, onChunk func(string) error) (string, error) {
	f.prompts = append(f.prompts, prompt)
	var sb strings.Builder
	for _, c := range f.chunks {
		if err := onChunk(c); err != nil {
			return sb.String(), err
		}
		sb.WriteString(c)
	}
	return sb.String(), f.err
}

func quietLogger() Option {
	return WithLogger(zerolog.New(io.Discard))
}

func collect(t *testing.T, ch <-chan string) []string {
	t.Helper()
	var got []string
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, s)
		case <-timeout:
			t.Fatal("channel was not closed")
			return got
		}
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAsk(t *testing.T) {
	tests := []struct {
		name    string
		session *fakeSession
		want    []string
	}{
		{
			name:    "fragments in order",
			session: &fakeSession{chunks: []string{"**Summary**", "\n* a", "\n* b"}},
			want:    []string{"**Summary**", "\n* a", "\n* b"},
		},
		{
			name:    "empty fragments skipped",
			session: &fakeSession{chunks: []string{"a", "", "b"}},
			want:    []string{"a", "b"},
		},
		{
			name:    "no fragments",
			session: &fakeSession{},
			want:    nil,
		},
		{
			name:    "failure before any chunk",
			session: &fakeSession{err: apierrors.NewNetworkError("stream", "x", errors.New("offline"))},
			want:    []string{TransportErrorMessage},
		},
		{
			name:    "failure mid stream",
			session: &fakeSession{chunks: []string{"Partial"}, err: apierrors.NewAPIError(500, "x", "boom")},
			want:    []string{"Partial", TransportErrorMessage},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := New(func() (Streamer, error) { return tt.session, nil }, quietLogger())

			got := collect(t, conv.Ask(context.Background(), "question"))
			if !equal(got, tt.want) {
				t.Errorf("Ask() = %q, want %q", got, tt.want)
			}
			if len(tt.session.prompts) != 1 || tt.session.prompts[0] != "question" {
				t.Errorf("prompts = %q", tt.session.prompts)
			}
		})
	}
}

func TestAsk_NotInitialized(t *testing.T) {
	conv := New(func() (Streamer, error) {
		return nil, errors.New("no credentials")
	}, quietLogger())

	got := collect(t, conv.Ask(context.Background(), "hi"))
	if !equal(got, []string{NotInitializedMessage}) {
		t.Errorf("Ask() = %q", got)
	}
	if conv.Ready() {
		t.Error("failed initialization should not leave a session")
	}
}

func TestAsk_NilFactory(t *testing.T) {
	conv := New(nil, quietLogger())
	got := collect(t, conv.Ask(context.Background(), "hi"))
	if !equal(got, []string{NotInitializedMessage}) {
		t.Errorf("Ask() = %q", got)
	}
	if !apierrors.IsConfigurationError(conv.EnsureReady()) {
		t.Error("expected configuration error without a factory")
	}
}

func TestEnsureReady_Idempotent(t *testing.T) {
	var calls int32
	session := &fakeSession{chunks: []string{"x"}}
	conv := New(func() (Streamer, error) {
		atomic.AddInt32(&calls, 1)
		return session, nil
	}, quietLogger())

	if conv.Ready() {
		t.Fatal("session must be created lazily")
	}
	for i := 0; i < 3; i++ {
		if err := conv.EnsureReady(); err != nil {
			t.Fatalf("EnsureReady() returned error: %v", err)
		}
	}
	collect(t, conv.Ask(context.Background(), "a"))
	collect(t, conv.Ask(context.Background(), "b"))

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("factory called %d times, want 1", n)
	}
	if len(session.prompts) != 2 {
		t.Errorf("both prompts should reuse the session, got %q", session.prompts)
	}
}

func TestEnsureReady_RetriesAfterFailure(t *testing.T) {
	attempts := 0
	conv := New(func() (Streamer, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("transient")
		}
		return &fakeSession{}, nil
	}, quietLogger())

	if err := conv.EnsureReady(); err == nil {
		t.Fatal("expected first attempt to fail")
	}
	if err := conv.EnsureReady(); err != nil {
		t.Fatalf("second attempt failed: %v", err)
	}
	if !conv.Ready() {
		t.Error("expected session after successful retry")
	}
}

func TestAsk_ConsumerWalksAway(t *testing.T) {
	session := &fakeSession{chunks: []string{"a", "b", "c"}}
	conv := New(func() (Streamer, error) { return session, nil }, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	ch := conv.Ask(ctx, "q")
	if first := <-ch; first != "a" {
		t.Fatalf("first fragment = %q", first)
	}
	cancel()

	// The producer must still close the channel without a sentinel
	for s := range ch {
		if s == TransportErrorMessage {
			t.Error("abandoned stream should not emit the transport sentinel")
		}
	}
}

func TestClientFactory(t *testing.T) {
	client, err := api.NewClient("key")
	if err != nil {
		t.Fatal(err)
	}
	session, err := ClientFactory(client)()
	if err != nil || session == nil {
		t.Fatalf("ClientFactory() = %v, %v", session, err)
	}

	client.Close()
	if _, err := ClientFactory(client)(); err == nil {
		t.Error("expected error from closed client")
	}
}
