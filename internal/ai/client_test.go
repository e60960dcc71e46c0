package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

type ipv4Server struct {
	URL string
	srv *http.Server
	ln  net.Listener
}

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	s := &ipv4Server{
		URL: "http://" + ln.Addr().String(),
		srv: srv,
		ln:  ln,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	return s
}

func (s *ipv4Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

func okResponse(content string) GenerateResponse {
	return GenerateResponse{
		ID:      "resp-1",
		Choices: []Choice{{Message: Message{Role: "assistant", Content: content}}},
		Usage:   Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

// sequenceServer replies with the given statuses in order, repeating the
// last one; 2xx replies carry bodyOK.
func sequenceServer(t *testing.T, statuses []int, headers []http.Header, bodyOK any) *ipv4Server {
	t.Helper()
	var idx int32
	return newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		i := int(atomic.AddInt32(&idx, 1)) - 1
		if i >= len(statuses) {
			i = len(statuses) - 1
		}
		st := statuses[i]
		if headers != nil && i < len(headers) && headers[i] != nil {
			for k, vals := range headers[i] {
				for _, v := range vals {
					w.Header().Add(k, v)
				}
			}
		}
		w.WriteHeader(st)
		if st >= 200 && st < 300 {
			_ = json.NewEncoder(w).Encode(bodyOK)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "boom", "code": "test_error"},
		})
	}))
}

func newTestClient(baseURL string) *Client {
	return NewClientWithBaseURL("test-key", 5*time.Second, 3, 5*time.Millisecond, 20*time.Millisecond, baseURL)
}

func TestGenerateSuccess(t *testing.T) {
	s := sequenceServer(t, []int{http.StatusOK}, nil, okResponse("hello"))
	defer s.Close()

	c := newTestClient(s.URL)
	resp, err := c.Generate(context.Background(), GenerateRequest{
		Model:    "gpt-4o-mini",
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Content() != "hello" {
		t.Fatalf("content = %q", resp.Content())
	}
}

func TestGenerateRetriesServerError(t *testing.T) {
	s := sequenceServer(t, []int{http.StatusInternalServerError, http.StatusOK}, nil, okResponse("recovered"))
	defer s.Close()

	c := newTestClient(s.URL)
	resp, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "x"}}})
	if err != nil {
		t.Fatalf("generate after retry: %v", err)
	}
	if resp.Content() != "recovered" {
		t.Fatalf("content = %q", resp.Content())
	}
}

func TestGenerateRateLimitRespectsRetryAfter(t *testing.T) {
	hdr := http.Header{}
	hdr.Set("Retry-After", "1")
	s := sequenceServer(t, []int{http.StatusTooManyRequests, http.StatusOK}, []http.Header{hdr, nil}, okResponse("later"))
	defer s.Close()

	c := newTestClient(s.URL)
	start := time.Now()
	resp, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "x"}}})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Content() != "later" {
		t.Fatalf("content = %q", resp.Content())
	}
	if time.Since(start) < time.Second {
		t.Fatal("Retry-After not honored")
	}
}

func TestGenerateAuthErrorNotRetried(t *testing.T) {
	var calls int32
	s := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "bad key"}})
	}))
	defer s.Close()

	c := newTestClient(s.URL)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "x"}}})
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want AuthError", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("auth error retried %d times", n)
	}
}

func TestGenerateMissingKey(t *testing.T) {
	c := NewOpenAIClient("")
	if _, err := c.Generate(context.Background(), GenerateRequest{Model: "m"}); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestGenerateContextCanceled(t *testing.T) {
	s := sequenceServer(t, []int{http.StatusInternalServerError}, nil, nil)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := newTestClient(s.URL)
	_, err := c.Generate(ctx, GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "x"}}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
