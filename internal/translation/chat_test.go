package translation_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/JaimeStill/deck-translate/internal/translation"
	"github.com/JaimeStill/deck-translate/pkg/apperror"
)

func chatServer(t *testing.T, handler func(w http.ResponseWriter, body map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		handler(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func reply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
}

func newChat(url string) *translation.ChatTranslator {
	return translation.NewChatTranslator(&translation.ChatConfig{
		BaseURL: url + "/v1",
		Model:   "test-model",
		APIKey:  "secret",
		Timeout: "2s",
	}, discard())
}

func TestChatTranslator_Content(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"json", `{"translation": "Hola mundo"}`, "Hola mundo"},
		{"fenced", "```json\n{\"translation\": \"Hola\"}\n```", "Hola"},
		{"surrounded", `Sure! {"translation": "Bonjour"} Hope that helps.`, "Bonjour"},
		{"newlines", `{"translation": "uno\ndos"}`, "uno\ndos"},
		{"labelled", "Translation: Guten Tag", "Guten Tag"},
		{"plain", "Ciao", "Ciao"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, func(w http.ResponseWriter, _ map[string]any) {
				reply(w, tt.content)
			})

			got, err := newChat(srv.URL).Translate(context.Background(), "Hello", "es")
			if err != nil {
				t.Fatalf("Translate: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChatTranslator_Request(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Model != "test-model" {
			t.Errorf("model = %q", body.Model)
		}
		if len(body.Messages) != 2 || body.Messages[0].Role != "system" || body.Messages[1].Role != "user" {
			t.Fatalf("messages = %+v", body.Messages)
		}
		reply(w, `{"translation": "x"}`)
	}))
	defer srv.Close()

	if _, err := newChat(srv.URL).Translate(context.Background(), "Hello", "es"); err != nil {
		t.Fatalf("Translate: %v", err)
	}
}

func TestChatTranslator_SchemaFallback(t *testing.T) {
	var calls atomic.Int32
	srv := chatServer(t, func(w http.ResponseWriter, body map[string]any) {
		calls.Add(1)
		format, _ := body["response_format"].(map[string]any)
		if format["type"] == "json_schema" {
			http.Error(w, `{"error":"response_format not supported"}`, http.StatusBadRequest)
			return
		}
		reply(w, `{"translation": "Hallo"}`)
	})

	got, err := newChat(srv.URL).Translate(context.Background(), "Hello", "de")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "Hallo" {
		t.Errorf("got %q", got)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("calls = %d, want 2", n)
	}
}

func TestChatTranslator_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		content   string
		code      apperror.Code
		retryable bool
	}{
		{"server error", http.StatusBadGateway, "", apperror.CodeExternalService, true},
		{"throttled", http.StatusTooManyRequests, "", apperror.CodeExternalService, true},
		{"unauthorized", http.StatusUnauthorized, "", apperror.CodeTranslationFailed, false},
		{"no translation", http.StatusOK, `{"answer": "x"}`, apperror.CodeTranslationFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, func(w http.ResponseWriter, _ map[string]any) {
				if tt.status != http.StatusOK {
					http.Error(w, "nope", tt.status)
					return
				}
				reply(w, tt.content)
			})

			_, err := newChat(srv.URL).Translate(context.Background(), "Hello", "es")
			if !apperror.Is(err, tt.code) {
				t.Fatalf("err = %v, want %s", err, tt.code)
			}
			if apperror.IsRetryable(err) != tt.retryable {
				t.Errorf("retryable = %v, want %v", apperror.IsRetryable(err), tt.retryable)
			}
		})
	}
}

func TestChatTranslator_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newChat(url).Translate(context.Background(), "Hello", "es")
	if !apperror.IsRetryable(err) {
		t.Fatalf("err = %v, want retryable", err)
	}
}
