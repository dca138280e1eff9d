package api

import (
	"context"
	"strings"
	"sync"

	apierrors "github.com/diogo/samarth/internal/errors"
	"github.com/diogo/samarth/internal/models"
)

// Provider-side roles
const (
	roleUser  = "user"
	roleModel = "model"
)

// ChatSession maintains conversation context across messages
type ChatSession struct {
	client            *GeminiClient
	mu                sync.RWMutex // Protects model, history
	model             models.Model
	systemInstruction string
	history           []Content
}

// copyHistory creates a copy of the history slice to avoid races
func copyHistory(h []Content) []Content {
	if h == nil {
		return nil
	}
	result := make([]Content, len(h))
	copy(result, h)
	return result
}

// SendMessageStream sends a prompt with the running history and streams the
// reply text to onChunk. The turn is committed to the history only when the
// stream completes.
func (s *ChatSession) SendMessageStream(ctx context.Context, prompt string, onChunk func(text string) error) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", apierrors.NewValidationError("prompt", "cannot be empty")
	}

	userTurn := Content{Role: roleUser, Parts: []Part{{Text: prompt}}}

	model := s.GetModel()

	s.mu.RLock()
	req := &GenerateRequest{
		Contents: append(copyHistory(s.history), userTurn),
	}
	if s.systemInstruction != "" {
		req.SystemInstruction = &Content{Parts: []Part{{Text: s.systemInstruction}}}
	}
	s.mu.RUnlock()

	var reply strings.Builder
	err := s.client.StreamGenerateContent(ctx, model, req, func(chunk StreamChunk) error {
		if chunk.Text == "" {
			return nil
		}
		reply.WriteString(chunk.Text)
		return onChunk(chunk.Text)
	})
	if err != nil {
		return reply.String(), err
	}

	if reply.Len() > 0 {
		s.mu.Lock()
		s.history = append(s.history, userTurn, Content{Role: roleModel, Parts: []Part{{Text: reply.String()}}})
		s.mu.Unlock()

		s.client.logger.Debug().
			Str("model", model.Name).
			Int("turns", s.Turns()).
			Msg("turn committed")
	}

	return reply.String(), nil
}

// Turns returns the number of committed exchanges
func (s *ChatSession) Turns() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history) / 2
}

// GetModel returns the session's model
func (s *ChatSession) GetModel() models.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}
