package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"playchat/internal/config"
)

func TestNewClassifierWithoutKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if c := NewClassifier(config.LLMConfig{BaseURL: "http://localhost"}); c != nil {
		t.Fatal("expected nil classifier without an API key")
	}
}

func TestClassify(t *testing.T) {
	var gotAuth string
	var gotReq completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "COMMAND: goto ARGS: google.com\n"}},
			},
		})
	}))
	defer srv.Close()

	c := NewClassifier(config.LLMConfig{
		BaseURL: srv.URL + "/", // trailing slash must not double up
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
	})
	if c == nil {
		t.Fatal("classifier not constructed")
	}

	reply, err := c.Classify(context.Background(), "go to google")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if reply != "COMMAND: goto ARGS: google.com" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotReq.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected model %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Content != "go to google" {
		t.Fatalf("unexpected messages: %+v", gotReq.Messages)
	}
}

func TestClassifyAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid api key"},
		})
	}))
	defer srv.Close()

	c := NewClassifier(config.LLMConfig{BaseURL: srv.URL, APIKey: "bad"})
	_, err := c.Classify(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "classifier error: invalid api key" {
		t.Fatalf("unexpected error %q", got)
	}
}

func TestClassifyNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c := NewClassifier(config.LLMConfig{BaseURL: srv.URL, APIKey: "k"})
	if _, err := c.Classify(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
