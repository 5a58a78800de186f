package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	base := []Option{
		WithSleeper(func(time.Duration) {}),
		WithRetryBackoff(time.Millisecond, 5*time.Millisecond),
	}
	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
	}, append(base, opts...)...)
}

func completionBody(content string) string {
	encoded, _ := json.Marshal(content)
	return `{"choices":[{"message":{"content":` + string(encoded) + `}}]}`
}

func TestCompleteReturnsContent(t *testing.T) {
	var gotAuth, gotModel string
	var gotMessages []map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var payload struct {
			Model    string              `json:"model"`
			Messages []map[string]string `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotModel = payload.Model
		gotMessages = payload.Messages
		w.Write([]byte(completionBody("<intro>Hola</intro>")))
	})

	content, err := client.Complete(context.Background(), "Eres un redactor.", "Escribe sobre auriculares.")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if content != "<intro>Hola</intro>" {
		t.Errorf("content = %q", content)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotModel != "test-model" {
		t.Errorf("model = %q", gotModel)
	}
	if len(gotMessages) != 2 || gotMessages[0]["role"] != "system" || gotMessages[1]["role"] != "user" {
		t.Errorf("messages = %v", gotMessages)
	}
}

func TestCompleteToleratesDeltaSchema(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"delta":{"content":"texto del delta"}}]}`))
	})

	content, err := client.Complete(context.Background(), "sistema", "usuario")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if content != "texto del delta" {
		t.Errorf("content = %q", content)
	}
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	attempts := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(completionBody("listo")))
	})

	content, err := client.Complete(context.Background(), "sistema", "usuario")
	if err != nil {
		t.Fatalf("Complete returned error after retries: %v", err)
	}
	if content != "listo" {
		t.Errorf("content = %q", content)
	}
	if attempts != 3 {
		t.Errorf("made %d attempts, want 3", attempts)
	}
}

func TestCompleteHonorsRetryAfter(t *testing.T) {
	var slept []time.Duration
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "2")
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(completionBody("listo")))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }))

	if _, err := client.Complete(context.Background(), "sistema", "usuario"); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if len(slept) != 1 || slept[0] != 2*time.Second {
		t.Errorf("slept %v, want one 2s delay from Retry-After", slept)
	}
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "bad api key", http.StatusUnauthorized)
	})

	_, err := client.Complete(context.Background(), "sistema", "usuario")
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if attempts != 1 {
		t.Errorf("made %d attempts, want 1 (no retry on 4xx)", attempts)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error %q does not carry the status code", err)
	}
}

func TestCompleteFailsAfterMaxAttempts(t *testing.T) {
	attempts := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "boom", http.StatusInternalServerError)
	}, WithRetryMaxAttempts(2))

	_, err := client.Complete(context.Background(), "sistema", "usuario")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if attempts != 2 {
		t.Errorf("made %d attempts, want 2", attempts)
	}
	if !strings.Contains(err.Error(), "failed after 2 attempts") {
		t.Errorf("error = %q", err)
	}
}

func TestCompleteRetriesEmptyContent(t *testing.T) {
	attempts := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Write([]byte(`{"choices":[{"message":{"content":"","refusal":"no puedo"}}]}`))
			return
		}
		w.Write([]byte(completionBody("recuperado")))
	})

	content, err := client.Complete(context.Background(), "sistema", "usuario")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if content != "recuperado" {
		t.Errorf("content = %q", content)
	}
}

func TestCompleteValidatesInputs(t *testing.T) {
	client := NewClient(Config{APIKey: "k", Model: "m"})
	if _, err := client.Complete(context.Background(), "", "usuario"); err == nil {
		t.Error("expected error for empty system prompt")
	}
	if _, err := client.Complete(context.Background(), "sistema", "  "); err == nil {
		t.Error("expected error for empty user prompt")
	}

	noKey := NewClient(Config{Model: "m"})
	if _, err := noKey.Complete(context.Background(), "sistema", "usuario"); err == nil {
		t.Error("expected error for missing api key")
	}
}

func TestCompleteSurfacesAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"model not found"}}`))
	})

	_, err := client.Complete(context.Background(), "sistema", "usuario")
	if err == nil || !strings.Contains(err.Error(), "model not found") {
		t.Fatalf("error = %v, want api error message", err)
	}
}

func TestHealthCheck(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionBody("OK")))
	})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}

	failing := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}, WithRetryMaxAttempts(1))
	if err := failing.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected error from failing backend")
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d, ok := parseRetryAfter("5"); !ok || d != 5*time.Second {
		t.Errorf("parseRetryAfter(5) = %v, %v", d, ok)
	}
	if _, ok := parseRetryAfter(""); ok {
		t.Error("empty value should not parse")
	}
	if _, ok := parseRetryAfter("-1"); ok {
		t.Error("negative value should not parse")
	}
	future := time.Now().Add(30 * time.Second).UTC().Format(http.TimeFormat)
	if d, ok := parseRetryAfter(future); !ok || d <= 0 {
		t.Errorf("parseRetryAfter(http date) = %v, %v", d, ok)
	}
}
