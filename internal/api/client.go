// Package api provides the Gemini API client used by the conversation session.
package api

import (
	"fmt"
	"strings"
	"sync"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	apierrors "github.com/diogo/samarth/internal/errors"
	"github.com/diogo/samarth/internal/models"
)

// Doer is the part of tls_client.HttpClient the client relies on
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// GeminiClient is the main client for interacting with the Gemini API
type GeminiClient struct {
	httpClient        Doer
	apiKey            string
	baseURL           string
	model             models.Model
	systemInstruction string
	timeout           time.Duration
	logger            zerolog.Logger
	mu                sync.RWMutex
	closed            bool
}

// ClientOption is a function that configures the client
type ClientOption func(*GeminiClient)

// WithModel sets the default model for the client
func WithModel(model models.Model) ClientOption {
	return func(c *GeminiClient) {
		c.model = model
	}
}

// WithBaseURL points the client at another API root (proxies, tests)
func WithBaseURL(baseURL string) ClientOption {
	return func(c *GeminiClient) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTimeout bounds a whole streamed request
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *GeminiClient) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithHTTPClient injects the transport, mainly for tests
func WithHTTPClient(doer Doer) ClientOption {
	return func(c *GeminiClient) {
		c.httpClient = doer
	}
}

// WithSystemInstruction replaces the analyst instruction for new chats
func WithSystemInstruction(instruction string) ClientOption {
	return func(c *GeminiClient) {
		c.systemInstruction = instruction
	}
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *GeminiClient) {
		c.logger = logger
	}
}

// NewClient creates a new GeminiClient. An empty API key is a
// ConfigurationError and is not recoverable.
func NewClient(apiKey string, opts ...ClientOption) (*GeminiClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, apierrors.NewMissingAPIKeyError()
	}

	client := &GeminiClient{
		apiKey:            apiKey,
		baseURL:           models.EndpointBase,
		model:             models.DefaultModel,
		systemInstruction: SystemInstruction,
		timeout:           300 * time.Second,
		logger:            log.Logger.With().Str("component", "gemini_client").Logger(),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(int(client.timeout / time.Second)),
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithNotFollowRedirects(),
		}

		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// Close marks the client as closed; further chats cannot be started
func (c *GeminiClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// IsClosed returns whether the client is closed
func (c *GeminiClient) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// GetModel returns the default model
func (c *GeminiClient) GetModel() models.Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// BaseURL returns the API root the client talks to
func (c *GeminiClient) BaseURL() string {
	return c.baseURL
}

// StartChat creates a new chat session carrying the model and system instruction
func (c *GeminiClient) StartChat(model ...models.Model) (*ChatSession, error) {
	if c.IsClosed() {
		return nil, fmt.Errorf("client is closed")
	}

	m := c.GetModel()
	if len(model) > 0 && model[0].Name != "" {
		m = model[0]
	}

	return &ChatSession{
		client:            c,
		model:             m,
		systemInstruction: c.systemInstruction,
	}, nil
}
