package api

import (
	"errors"
	"strings"
	"testing"
	"time"

	apierrors "github.com/diogo/samarth/internal/errors"
	"github.com/diogo/samarth/internal/models"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name      string
		apiKey    string
		expectErr bool
	}{
		{"valid key", "test-key", false},
		{"empty key", "", true},
		{"blank key", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.apiKey, WithHTTPClient(&MockDoer{}))
			if tt.expectErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !errors.Is(err, apierrors.ErrMissingAPIKey) {
					t.Errorf("expected missing key configuration error, got %v", err)
				}
				if client != nil {
					t.Error("expected nil client on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client.GetModel().Name != models.DefaultModel.Name {
				t.Errorf("default model = %s", client.GetModel().Name)
			}
			if client.BaseURL() != models.EndpointBase {
				t.Errorf("default base URL = %s", client.BaseURL())
			}
		})
	}
}

func TestNewClient_DefaultTransport(t *testing.T) {
	client, err := NewClient("test-key")
	if err != nil {
		t.Fatalf("NewClient() returned error: %v", err)
	}
	if client.httpClient == nil {
		t.Fatal("expected tls client to be created")
	}
}

func TestClientOptions(t *testing.T) {
	client, err := NewClient("k",
		WithHTTPClient(&MockDoer{}),
		WithModel(models.Model25Pro),
		WithBaseURL("http://localhost:9999/"),
		WithTimeout(10*time.Second),
		WithSystemInstruction("be brief"),
	)
	if err != nil {
		t.Fatal(err)
	}

	if client.GetModel().Name != "gemini-2.5-pro" {
		t.Errorf("model = %s", client.GetModel().Name)
	}
	if client.BaseURL() != "http://localhost:9999" {
		t.Errorf("base URL = %s", client.BaseURL())
	}
	if client.timeout != 10*time.Second {
		t.Errorf("timeout = %v", client.timeout)
	}
	if client.systemInstruction != "be brief" {
		t.Errorf("instruction = %q", client.systemInstruction)
	}

	// Zero values keep the defaults
	client, _ = NewClient("k", WithHTTPClient(&MockDoer{}), WithTimeout(0), WithBaseURL(""))
	if client.timeout != 300*time.Second || client.BaseURL() != models.EndpointBase {
		t.Error("zero-valued options should not override defaults")
	}
}

func TestGeminiClient_StartChat(t *testing.T) {
	client := newTestClient(t, &MockDoer{})

	session, err := client.StartChat()
	if err != nil {
		t.Fatalf("StartChat() returned error: %v", err)
	}
	if session.GetModel().Name != client.GetModel().Name {
		t.Errorf("session model = %s", session.GetModel().Name)
	}
	if session.systemInstruction != SystemInstruction {
		t.Error("session should carry the analyst instruction")
	}

	pro, _ := client.StartChat(models.Model25Pro)
	if pro.GetModel().Name != "gemini-2.5-pro" {
		t.Errorf("explicit model ignored: %s", pro.GetModel().Name)
	}
}

func TestGeminiClient_StartChatClosed(t *testing.T) {
	client := newTestClient(t, &MockDoer{})
	client.Close()
	client.Close()

	if !client.IsClosed() {
		t.Fatal("expected client to be closed")
	}
	if _, err := client.StartChat(); err == nil {
		t.Error("expected error starting chat on closed client")
	}
}

func TestSystemInstructionDirectives(t *testing.T) {
	for _, want := range []string{"Executive Summary", "[Source:", "<table>", "Handle Ambiguity"} {
		if !strings.Contains(SystemInstruction, want) {
			t.Errorf("system instruction missing %q", want)
		}
	}
}
