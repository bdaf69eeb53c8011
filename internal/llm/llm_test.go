package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/TobiSchelling/TrendCrawler/internal/config"
)

type reply struct {
	Key string `json:"key"`
	Num int    `json:"num"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"plain", `{"key": "value", "num": 42}`},
		{"json fence", "```json\n{\"key\": \"value\", \"num\": 42}\n```"},
		{"plain fence", "```\n{\"key\": \"value\", \"num\": 42}\n```"},
		{"whitespace", "  \n  {\"key\": \"value\", \"num\": 42}  \n  "},
		{"prose", "Here is the digest:\n{\"key\": \"value\", \"num\": 42}\nHope it helps."},
		{"unterminated fence", "```json\n{\"key\": \"value\", \"num\": 42}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r reply
			if err := DecodeJSON(tt.text, &r); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Key != "value" || r.Num != 42 {
				t.Errorf("unexpected result %+v", r)
			}
		})
	}
}

func TestDecodeJSONInvalid(t *testing.T) {
	var r reply
	if err := DecodeJSON("not json at all", &r); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if err := DecodeJSON("", &r); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestOllamaGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.Write([]byte(`{"models":[{"name":"qwen2.5:7b"}]}`))
		case "/api/chat":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			if body["format"] != "json" {
				t.Errorf("expected json format, got %v", body["format"])
			}
			msgs := body["messages"].([]any)
			if len(msgs) != 2 {
				t.Errorf("expected system and user messages, got %d", len(msgs))
			}
			w.Write([]byte(`{"message":{"role":"assistant","content":"hello"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewOllamaProvider("qwen2.5:7b", srv.URL+"/")
	if !p.IsConfigured() {
		t.Fatal("expected provider to be configured")
	}
	out, err := p.Generate(context.Background(), Request{System: "s", Prompt: "p", MaxTokens: 10, JSON: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello" {
		t.Errorf("expected hello, got %q", out)
	}

	missing := NewOllamaProvider("llama3", srv.URL)
	if missing.IsConfigured() {
		t.Error("expected missing model to be unconfigured")
	}
}

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key" {
			http.Error(w, "nope", http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"done"}}]}`))
	}))
	defer srv.Close()

	p := &OpenAIProvider{Model: "m", APIKey: "key", BaseURL: srv.URL, client: srv.Client()}
	out, err := p.Generate(context.Background(), Request{Prompt: "p"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "done" {
		t.Errorf("expected done, got %q", out)
	}

	p.APIKey = "wrong"
	if _, err := p.Generate(context.Background(), Request{Prompt: "p"}); err == nil {
		t.Error("expected error for rejected key")
	}
}

func TestCreateProviderNone(t *testing.T) {
	if p := CreateProvider(config.Summarization{Provider: "none"}); p != nil {
		t.Errorf("expected nil provider, got %v", p.Name())
	}
}
