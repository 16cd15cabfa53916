package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewClient_RequiresKey(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestComplete_SendsPromptAndReturnsText(t *testing.T) {
	var gotModel, gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content any    `json:"content"`
			} `json:"messages"`
		}
		_ = json.Unmarshal(body, &req)
		gotModel = req.Model
		if n := len(req.Messages); n > 0 {
			gotPrompt, _ = req.Messages[n-1].Content.(string)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  DEPARTMENT: Sanitation  "}}]}`)
	}))
	defer srv.Close()

	c, err := NewClient(Config{APIKey: "k", BaseURL: srv.URL, Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	out, err := c.Complete(context.Background(), "classify this")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "DEPARTMENT: Sanitation" {
		t.Fatalf("unexpected output %q", out)
	}
	if gotModel != "gpt-4o-mini" || gotPrompt != "classify this" {
		t.Fatalf("unexpected request model=%q prompt=%q", gotModel, gotPrompt)
	}
}

func TestAudioExtension(t *testing.T) {
	cases := map[string]string{
		"audio/ogg; codecs=opus": ".ogg",
		"audio/mpeg":             ".mp3",
		"audio/mp4":              ".m4a",
		"":                       ".ogg",
	}
	for in, want := range cases {
		if got := audioExtension(in); got != want {
			t.Fatalf("audioExtension(%q) = %q, want %q", in, got, want)
		}
	}
}
