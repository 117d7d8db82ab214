package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCompleteText(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header: got %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"product_name\":\"Tea\"}"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "gpt-4o-mini"}, nil)

	out, err := c.CompleteText(context.Background(), "extract this")
	if err != nil {
		t.Fatalf("CompleteText: %v", err)
	}
	if out != `{"product_name":"Tea"}` {
		t.Errorf("content: got %q", out)
	}

	if captured["model"] != "gpt-4o-mini" {
		t.Errorf("model: got %v", captured["model"])
	}
	// Extraction must run deterministic.
	if temp, ok := captured["temperature"].(float64); !ok || temp != 0 {
		t.Errorf("temperature: got %v", captured["temperature"])
	}
	msgs, ok := captured["messages"].([]any)
	if !ok || len(msgs) != 1 {
		t.Fatalf("messages: got %v", captured["messages"])
	}
	msg := msgs[0].(map[string]any)
	if msg["role"] != "user" || msg["content"] != "extract this" {
		t.Errorf("message: got %v", msg)
	}
}

func TestCompleteTextHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)

	_, err := c.CompleteText(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("want status error, got %v", err)
	}
}

func TestCompleteTextNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)

	if _, err := c.CompleteText(context.Background(), "prompt"); err == nil {
		t.Fatal("want error for empty choices")
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{APIKey: "k"}, nil)

	if c.cfg.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("base url: got %q", c.cfg.BaseURL)
	}
	if c.cfg.Model != "gpt-4o-mini" {
		t.Errorf("model: got %q", c.cfg.Model)
	}
	if c.cfg.Timeout <= 0 {
		t.Errorf("timeout: got %v", c.cfg.Timeout)
	}
}
