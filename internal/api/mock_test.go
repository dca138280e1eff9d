package api

import (
	"io"
	"strings"
	"testing"

	http "github.com/bogdanfinn/fhttp"
)

// MockResponseBody is a mock implementation of io.ReadCloser
type MockResponseBody struct {
	data []byte
	pos  int
	err  error // returned once data is exhausted, io.EOF when nil
}

// NewMockResponseBody creates a new MockResponseBody
func NewMockResponseBody(data []byte) *MockResponseBody {
	return &MockResponseBody{data: data, pos: 0}
}

// Read implements the io.Reader interface
func (m *MockResponseBody) Read(p []byte) (n int, err error) {
	if m.pos >= len(m.data) {
		if m.err != nil {
			return 0, m.err
		}
		return 0, io.EOF
	}
	n = copy(p, m.data[m.pos:])
	m.pos += n
	return n, nil
}

// Close implements the io.Closer interface
func (m *MockResponseBody) Close() error {
	return nil
}

// MockDoer is a mock transport recording the last request
type MockDoer struct {
	StatusCode int
	Body       string
	BodyErr    error
	Err        error

	Calls       int
	LastRequest *http.Request
	LastBody    string
}

// Do implements Doer
func (m *MockDoer) Do(req *http.Request) (*http.Response, error) {
	m.Calls++
	m.LastRequest = req
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		m.LastBody = string(b)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	status := m.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	body := NewMockResponseBody([]byte(m.Body))
	body.err = m.BodyErr
	return &http.Response{
		StatusCode: status,
		Body:       body,
		Header:     make(http.Header),
	}, nil
}

// sseBody builds an SSE stream from raw JSON payloads
func sseBody(payloads ...string) string {
	var sb strings.Builder
	for _, p := range payloads {
		sb.WriteString("data: ")
		sb.WriteString(p)
		sb.WriteString("\r\n\r\n")
	}
	return sb.String()
}

// textEvent builds a candidate payload carrying text
func textEvent(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":` + jsonString(text) + `}],"role":"model"}}]}`
}

func jsonString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}

func newTestClient(t *testing.T, doer *MockDoer, opts ...ClientOption) *GeminiClient {
	t.Helper()
	opts = append([]ClientOption{WithHTTPClient(doer), WithBaseURL("https://api.test")}, opts...)
	client, err := NewClient("test-key", opts...)
	if err != nil {
		t.Fatalf("NewClient() returned error: %v", err)
	}
	return client
}
