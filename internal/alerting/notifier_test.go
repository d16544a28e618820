package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSlackNotifierSuccess(t *testing.T) {
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("webhook expects POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	notifier := NewSlackNotifier(srv.URL, time.Second, zerolog.Nop())
	if err := notifier.Send(context.Background(), "📌 report body"); err != nil {
		t.Fatalf("send should succeed: %v", err)
	}
	if received["text"] != "📌 report body" {
		t.Fatalf("payload text wrong: %#v", received)
	}
}

func TestSlackNotifierHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	notifier := NewSlackNotifier(srv.URL, time.Second, zerolog.Nop())
	if err := notifier.Send(context.Background(), "body"); err == nil {
		t.Fatal("non-2xx response should error")
	}
}

func TestSlackNotifierMissingURL(t *testing.T) {
	notifier := NewSlackNotifier("", time.Second, zerolog.Nop())
	if err := notifier.Send(context.Background(), "body"); err == nil {
		t.Fatal("missing webhook url should error")
	}
}
