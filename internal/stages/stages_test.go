package stages

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/strataweb/strata/internal/domain"
	"github.com/strataweb/strata/internal/ports"
)

func newExchange(header http.Header) *domain.Exchange {
	if header == nil {
		header = make(http.Header)
	}
	return domain.NewExchange(&domain.Request{
		Method: "GET",
		Path:   "/things",
		Header: header,
	})
}

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	s := NewRequestID()
	exch := newExchange(nil)

	action, err := s.Inbound(context.Background(), exch)
	if err != nil || action != ports.ActionContinue {
		t.Fatalf("unexpected inbound result: %s, %v", action, err)
	}

	id, ok := exch.Attributes[domain.AttrRequestID].(string)
	if !ok || id == "" {
		t.Fatal("expected a generated request id")
	}

	if err := s.Outbound(context.Background(), exch); err != nil {
		t.Fatalf("unexpected outbound error: %v", err)
	}
	if got := exch.Response.Header.Get("X-Request-ID"); got != id {
		t.Errorf("expected response header %q, got %q", id, got)
	}
}

func TestRequestID_ReusesClientHeader(t *testing.T) {
	s := NewRequestID()
	header := make(http.Header)
	header.Set("X-Request-ID", "client-chosen")
	exch := newExchange(header)

	s.Inbound(context.Background(), exch)

	if exch.Attributes[domain.AttrRequestID] != "client-chosen" {
		t.Errorf("expected client id reused, got %v", exch.Attributes[domain.AttrRequestID])
	}
}

func TestAPIKeyAuth_MissingHeader(t *testing.T) {
	s := NewAPIKeyAuth(map[string]string{"svc-a": "secret-key"})
	exch := newExchange(nil)

	action, err := s.Inbound(context.Background(), exch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if action != ports.ActionShortCircuit {
		t.Fatal("expected short circuit")
	}
	if exch.Response.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", exch.Response.StatusCode)
	}
}

func TestAPIKeyAuth_UnknownKey(t *testing.T) {
	s := NewAPIKeyAuth(map[string]string{"svc-a": "secret-key"})
	header := make(http.Header)
	header.Set("Authorization", "Bearer wrong-key")
	exch := newExchange(header)

	action, _ := s.Inbound(context.Background(), exch)
	if action != ports.ActionShortCircuit {
		t.Fatal("expected short circuit")
	}
	if exch.Response.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %d", exch.Response.StatusCode)
	}
}

func TestAPIKeyAuth_ValidKeyBindsPrincipal(t *testing.T) {
	s := NewAPIKeyAuth(map[string]string{"svc-a": "secret-key"})
	header := make(http.Header)
	header.Set("Authorization", "Bearer secret-key")
	exch := newExchange(header)

	action, err := s.Inbound(context.Background(), exch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if action != ports.ActionContinue {
		t.Fatal("expected continue")
	}
	if exch.Attributes[domain.AttrPrincipal] != "svc-a" {
		t.Errorf("expected principal svc-a, got %v", exch.Attributes[domain.AttrPrincipal])
	}
}

func TestResponseHeaders_AppliedOnOutbound(t *testing.T) {
	s := NewResponseHeaders(map[string]string{"Server": "strata", "X-Frame-Options": "DENY"})
	exch := newExchange(nil)

	if err := s.Outbound(context.Background(), exch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exch.Response.Header.Get("Server") != "strata" {
		t.Error("Server header not set")
	}
	if exch.Response.Header.Get("X-Frame-Options") != "DENY" {
		t.Error("X-Frame-Options header not set")
	}
}

func TestAccessLog_EmitsStartAndFinish(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	s := NewAccessLog(logger)
	exch := newExchange(nil)

	s.Inbound(context.Background(), exch)
	exch.Response.Write(http.StatusOK, "application/json", []byte("{}"))
	if err := s.Outbound(context.Background(), exch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !bytes.Contains(buf.Bytes(), []byte("request started")) {
		t.Errorf("missing start line: %s", out)
	}
	if !bytes.Contains(buf.Bytes(), []byte("request completed")) {
		t.Errorf("missing completion line: %s", out)
	}
}
