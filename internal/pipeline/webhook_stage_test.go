package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/strataweb/strata/internal/domain"
	"github.com/strataweb/strata/internal/ports"
	"github.com/strataweb/strata/internal/testutil"
)

func webhookExchange() *domain.Exchange {
	return domain.NewExchange(&domain.Request{
		Method: "GET",
		Path:   "/things",
		Header: make(http.Header),
	})
}

func TestWebhookStage_Continue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("bad webhook payload: %v", err)
		}
		if in["path"] != "/things" {
			t.Errorf("expected path /things, got %v", in["path"])
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"action":"continue"}`))
	}))
	defer srv.Close()

	stage := NewWebhookStage(WebhookStageConfig{Name: "policy", URL: srv.URL})

	action, err := stage.Inbound(context.Background(), webhookExchange())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if action != ports.ActionContinue {
		t.Errorf("expected continue, got %s", action)
	}
}

func TestWebhookStage_ShortCircuit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"action":"short_circuit","status":451,"body":"{\"blocked\":true}","header":{"X-Blocked-By":"policy"}}`))
	}))
	defer srv.Close()

	stage := NewWebhookStage(WebhookStageConfig{Name: "policy", URL: srv.URL})
	exch := webhookExchange()

	action, err := stage.Inbound(context.Background(), exch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if action != ports.ActionShortCircuit {
		t.Fatalf("expected short circuit, got %s", action)
	}
	if exch.Response.StatusCode != 451 {
		t.Errorf("expected 451, got %d", exch.Response.StatusCode)
	}
	if exch.Response.Header.Get("X-Blocked-By") != "policy" {
		t.Error("verdict headers not applied")
	}
}

func TestWebhookStage_RetriesThenFailsClosed(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	stage := NewWebhookStage(WebhookStageConfig{Name: "policy", URL: srv.URL, Retries: 2})

	_, err := stage.Inbound(context.Background(), webhookExchange())
	if err == nil {
		t.Fatal("expected error when endpoint keeps failing")
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestWebhookStage_FailOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	stage := NewWebhookStage(WebhookStageConfig{
		Name:    "policy",
		URL:     srv.URL,
		OnError: ports.ActionContinue,
	})

	action, err := stage.Inbound(context.Background(), webhookExchange())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if action != ports.ActionContinue {
		t.Errorf("expected fail-open continue, got %s", action)
	}
}

func TestWebhookStage_RecordsInteraction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"action":"continue"}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	rec := testutil.NewRecorder(t, dir, "webhook_continue")

	stage := NewWebhookStage(WebhookStageConfig{
		Name:      "policy",
		URL:       srv.URL,
		Transport: rec,
	})

	action, err := stage.Inbound(context.Background(), webhookExchange())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if action != ports.ActionContinue {
		t.Fatalf("expected continue, got %s", action)
	}

	if err := rec.Stop(); err != nil {
		t.Fatalf("stop recorder: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "webhook_continue.yaml")); err != nil {
		t.Errorf("cassette not written: %v", err)
	}
}
