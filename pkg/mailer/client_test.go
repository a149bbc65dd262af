package mailer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/makao-africa/makao-backend/pkg/config"
	"github.com/makao-africa/makao-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "mailer-test", Output: io.Discard})
}

func newTestClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	client, err := NewClient(config.SendgridConfig{
		APIKey:      "sg-key",
		DefaultFrom: "bookings@makao.africa",
	}, testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	client.endpoint = endpoint
	return client
}

func TestSend(t *testing.T) {
	var gotAuth string
	var gotPayload sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.Send(context.Background(), Email{
		To:      "tenant@example.com",
		Subject: "Booking confirmed",
		Text:    "Your booking is confirmed.",
		HTML:    "<p>Your booking is confirmed.</p>",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotAuth != "Bearer sg-key" {
		t.Fatalf("unexpected authorization %q", gotAuth)
	}
	if len(gotPayload.Personalizations) != 1 || gotPayload.Personalizations[0].To[0].Email != "tenant@example.com" {
		t.Fatalf("unexpected recipients %+v", gotPayload.Personalizations)
	}
	if gotPayload.From.Email != "bookings@makao.africa" {
		t.Fatalf("unexpected from %q", gotPayload.From.Email)
	}
	if len(gotPayload.Content) != 2 {
		t.Fatalf("expected text and html parts, got %d", len(gotPayload.Content))
	}
}

func TestSendRejectedByProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"errors":[{"message":"bad api key"}]}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.Send(context.Background(), Email{To: "tenant@example.com", Subject: "x", Text: "y"})
	if err == nil {
		t.Fatal("expected error on provider rejection")
	}
}

func TestSendValidatesInput(t *testing.T) {
	client := newTestClient(t, "http://localhost:0")
	if err := client.Send(context.Background(), Email{Subject: "x", Text: "y"}); err == nil {
		t.Fatal("expected error for missing recipient")
	}
	if err := client.Send(context.Background(), Email{To: "tenant@example.com", Subject: "x"}); err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	if _, err := NewClient(config.SendgridConfig{DefaultFrom: "a@b.c"}, testLogger()); err == nil {
		t.Fatal("expected error without api key")
	}
	if _, err := NewClient(config.SendgridConfig{APIKey: "k", DefaultFrom: " "}, testLogger()); err == nil {
		t.Fatal("expected error without from address")
	}
}
