package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/samarth/internal/errors"
	"github.com/diogo/samarth/internal/models"
)

// maxErrorBody limits how much of a failed response is kept for diagnostics
const maxErrorBody = 4096

// Part is a single piece of content
type Part struct {
	Text string `json:"text"`
}

// Content is one turn of the dialogue
type Content struct {
	Role  string `json:"role,omitempty"` // "user" or "model"
	Parts []Part `json:"parts"`
}

// Text concatenates the text parts of the content
func (c Content) Text() string {
	var sb strings.Builder
	for _, p := range c.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// GenerateRequest is the body of a streamGenerateContent call
type GenerateRequest struct {
	SystemInstruction *Content  `json:"systemInstruction,omitempty"`
	Contents          []Content `json:"contents"`
}

// StreamChunk is the decoded content of one server-sent event
type StreamChunk struct {
	Text         string
	FinishReason string
}

// StreamURL returns the streaming endpoint for a model
func (c *GeminiClient) StreamURL(model models.Model) string {
	return c.baseURL + fmt.Sprintf(models.EndpointStreamPath, model.Name) + "?alt=sse"
}

// StreamGenerateContent sends the request and calls onChunk for every event
// in arrival order. Returning an error from onChunk aborts the stream.
func (c *GeminiClient) StreamGenerateContent(ctx context.Context, model models.Model, greq *GenerateRequest, onChunk func(StreamChunk) error) error {
	if c.IsClosed() {
		return fmt.Errorf("client is closed")
	}
	if greq == nil || len(greq.Contents) == 0 {
		return apierrors.NewValidationError("contents", "at least one turn is required")
	}

	payload, err := json.Marshal(greq)
	if err != nil {
		return fmt.Errorf("failed to build payload: %w", err)
	}

	endpoint := c.StreamURL(model)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range models.DefaultHeaders() {
		req.Header.Set(key, value)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	c.logger.Debug().
		Str("model", model.Name).
		Int("turns", len(greq.Contents)).
		Msg("starting stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apierrors.NewNetworkError("stream generate content", endpoint, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return parseErrorBody(resp.StatusCode, endpoint, body)
	}

	reader := NewSSEReader(resp.Body)
	events := 0
	for {
		_, data, err := reader.ReadEvent()
		if err != nil {
			if err == io.EOF {
				break
			}
			return apierrors.NewNetworkError("read stream", endpoint, err)
		}

		chunk, parseErr := parseChunk(data, endpoint)
		// Text that arrived alongside a blocking finish reason is still delivered
		if parseErr == nil || chunk.Text != "" {
			events++
			if err := onChunk(chunk); err != nil {
				return err
			}
		}
		if parseErr != nil {
			return parseErr
		}
	}

	c.logger.Debug().
		Str("model", model.Name).
		Int("events", events).
		Dur("elapsed", time.Since(start)).
		Msg("stream finished")

	return nil
}

// parseChunk decodes one SSE data payload
func parseChunk(data []byte, endpoint string) (StreamChunk, error) {
	if !gjson.ValidBytes(data) {
		return StreamChunk{}, apierrors.NewParseError("invalid JSON in stream event", "")
	}

	parsed := gjson.ParseBytes(data)

	if msg := parsed.Get(PathErrorMessage); msg.Exists() {
		apiErr := apierrors.NewAPIError(int(parsed.Get(PathErrorCode).Int()), endpoint, msg.String())
		apiErr.Status = parsed.Get(PathErrorStatus).String()
		return StreamChunk{}, apiErr
	}

	if reason := parsed.Get(PathBlockReason); reason.Exists() {
		return StreamChunk{}, apierrors.NewBlockedError(reason.String())
	}

	var sb strings.Builder
	for _, text := range parsed.Get(PathCandText).Array() {
		sb.WriteString(text.String())
	}

	chunk := StreamChunk{
		Text:         sb.String(),
		FinishReason: parsed.Get(PathCandFinishReason).String(),
	}

	if blockingFinishReasons[chunk.FinishReason] {
		return chunk, apierrors.NewBlockedError(strings.ToLower(chunk.FinishReason))
	}

	return chunk, nil
}

// parseErrorBody converts a non-200 answer into an APIError
func parseErrorBody(statusCode int, endpoint string, body []byte) error {
	message := http.StatusText(statusCode)
	apiErr := apierrors.NewAPIError(statusCode, endpoint, message)

	if gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		// Some proxies wrap the error in a one-element array
		if parsed.IsArray() {
			parsed = parsed.Get("0")
		}
		if msg := parsed.Get(PathErrorMessage); msg.Exists() {
			apiErr.Message = msg.String()
		}
		apiErr.Status = parsed.Get(PathErrorStatus).String()
	} else if len(body) > 0 {
		apiErr.Message = fmt.Sprintf("%s: %s", message, strings.TrimSpace(string(body)))
	}

	return apiErr
}
