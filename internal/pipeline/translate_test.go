package pipeline

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/strataweb/strata/internal/domain"
)

func translateStatus(t *testing.T, err error) (*domain.Response, map[string]map[string]string) {
	t.Helper()
	resp := domain.NewResponse()
	NewTranslator().Translate(err, resp)

	var body map[string]map[string]string
	if jsonErr := json.Unmarshal(resp.Body, &body); jsonErr != nil {
		t.Fatalf("invalid error body %q: %v", resp.Body, jsonErr)
	}
	return resp, body
}

func TestTranslate_KindMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"not found", domain.ErrRouteNotFound("GET", "/x"), http.StatusNotFound, "route_not_found"},
		{"validation", domain.ErrValidation("bad"), http.StatusBadRequest, "validation"},
		{"unauthorized", domain.ErrUnauthorized("no key"), http.StatusUnauthorized, "unauthorized"},
		{"forbidden", domain.ErrForbidden("nope"), http.StatusForbidden, "forbidden"},
		{"not acceptable", domain.NewError(domain.KindNotAcceptable, "no encoder"), http.StatusNotAcceptable, "not_acceptable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := translateStatus(t, tt.err)
			if resp.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, resp.StatusCode)
			}
			if body["error"]["kind"] != tt.kind {
				t.Errorf("expected kind %q, got %q", tt.kind, body["error"]["kind"])
			}
			if resp.Header.Get("Content-Type") != "application/json" {
				t.Errorf("unexpected content type %q", resp.Header.Get("Content-Type"))
			}
		})
	}
}

func TestTranslate_GenericErrorsDoNotLeak(t *testing.T) {
	secrets := []error{
		fmt.Errorf("pq: connection to 10.1.2.3 refused"),
		domain.ErrHandlerFailed(fmt.Errorf("stack trace: main.go:42")),
		domain.ErrHookFailed("auth", fmt.Errorf("ldap bind failed for cn=admin")),
	}

	for _, err := range secrets {
		resp, body := translateStatus(t, err)
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", resp.StatusCode)
		}
		if body["error"]["message"] != "internal error" {
			t.Errorf("internal detail leaked: %q", body["error"]["message"])
		}
		if body["error"]["kind"] != "server" {
			t.Errorf("expected kind server, got %q", body["error"]["kind"])
		}
	}
}

func TestTranslate_ExplicitStatusOverride(t *testing.T) {
	err := domain.ErrValidation("too large").WithStatusCode(http.StatusRequestEntityTooLarge)
	resp, _ := translateStatus(t, err)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", resp.StatusCode)
	}
}

func TestTranslate_RespectsFinalizedResponse(t *testing.T) {
	resp := domain.NewResponse()
	resp.Write(http.StatusTeapot, "text/plain", []byte("already written"))
	resp.Finalize()

	NewTranslator().Translate(domain.ErrValidation("late"), resp)

	if resp.StatusCode != http.StatusTeapot || string(resp.Body) != "already written" {
		t.Error("translator must not perturb a finalized response")
	}
}
