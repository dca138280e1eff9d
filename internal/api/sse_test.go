package api

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestSSEReader_ReadEvent(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantTypes []string
		wantData  []string
	}{
		{
			name:      "single event",
			input:     "data: {\"a\":1}\n\n",
			wantTypes: []string{""},
			wantData:  []string{`{"a":1}`},
		},
		{
			name:      "crlf framing",
			input:     "data: one\r\n\r\ndata: two\r\n\r\n",
			wantTypes: []string{"", ""},
			wantData:  []string{"one", "two"},
		},
		{
			name:      "named event with multi-line data",
			input:     "event: message\ndata: line1\ndata: line2\n\n",
			wantTypes: []string{"message"},
			wantData:  []string{"line1\nline2"},
		},
		{
			name:      "comments and ids ignored",
			input:     ": keep-alive\nid: 7\nretry: 100\ndata: x\n\n",
			wantTypes: []string{""},
			wantData:  []string{"x"},
		},
		{
			name:      "no space after colon",
			input:     "data:tight\n\n",
			wantTypes: []string{""},
			wantData:  []string{"tight"},
		},
		{
			name:      "trailing event without blank line",
			input:     "data: first\n\ndata: last",
			wantTypes: []string{"", ""},
			wantData:  []string{"first", "last"},
		},
		{
			name:  "empty stream",
			input: "",
		},
		{
			name:  "only blank lines",
			input: "\n\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewSSEReader(strings.NewReader(tt.input))

			var gotTypes, gotData []string
			for {
				eventType, data, err := reader.ReadEvent()
				if err == io.EOF {
					break
				}
				if err != nil {
					t.Fatalf("ReadEvent() returned error: %v", err)
				}
				gotTypes = append(gotTypes, eventType)
				gotData = append(gotData, string(data))
			}

			if len(gotData) != len(tt.wantData) {
				t.Fatalf("got %d events %q, want %d", len(gotData), gotData, len(tt.wantData))
			}
			for i := range tt.wantData {
				if gotData[i] != tt.wantData[i] {
					t.Errorf("event %d data = %q, want %q", i, gotData[i], tt.wantData[i])
				}
				if gotTypes[i] != tt.wantTypes[i] {
					t.Errorf("event %d type = %q, want %q", i, gotTypes[i], tt.wantTypes[i])
				}
			}
		})
	}
}

func TestSSEReader_ReadError(t *testing.T) {
	boom := errors.New("connection reset")
	body := NewMockResponseBody([]byte("data: partial\n"))
	body.err = boom

	reader := NewSSEReader(body)
	_, _, err := reader.ReadEvent()
	if !errors.Is(err, boom) {
		t.Errorf("expected read error to surface, got %v", err)
	}
}
