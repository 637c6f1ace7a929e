package stages

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/strataweb/strata/internal/domain"
	"github.com/strataweb/strata/internal/ports"
)

// APIKeyAuth validates bearer API keys against a fixed key set and binds
// the matching principal into the attributes. Missing credentials
// short-circuit with 401, unknown keys with 403.
type APIKeyAuth struct {
	keys map[string]string // sha256 hex of key -> principal
}

// NewAPIKeyAuth creates the auth stage from principal -> plaintext key
// pairs. Keys are stored hashed; lookups compare hashes in constant time.
func NewAPIKeyAuth(keys map[string]string) *APIKeyAuth {
	s := &APIKeyAuth{keys: make(map[string]string, len(keys))}
	for principal, key := range keys {
		s.keys[hashKey(key)] = principal
	}
	return s
}

// Name returns the stage identifier.
func (s *APIKeyAuth) Name() string { return "api_key_auth" }

// Inbound checks the Authorization header.
func (s *APIKeyAuth) Inbound(ctx context.Context, exch *domain.Exchange) (ports.HookAction, error) {
	header := exch.Request.Header.Get("Authorization")
	if header == "" {
		s.reject(exch, http.StatusUnauthorized, "missing authorization header")
		return ports.ActionShortCircuit, nil
	}

	key := strings.TrimPrefix(header, "Bearer ")
	hashed := hashKey(key)

	for stored, principal := range s.keys {
		if subtle.ConstantTimeCompare([]byte(hashed), []byte(stored)) == 1 {
			exch.Attributes[domain.AttrPrincipal] = principal
			return ports.ActionContinue, nil
		}
	}

	s.reject(exch, http.StatusForbidden, "unknown api key")
	return ports.ActionShortCircuit, nil
}

// Outbound is a no-op.
func (s *APIKeyAuth) Outbound(ctx context.Context, exch *domain.Exchange) error {
	return nil
}

func (s *APIKeyAuth) reject(exch *domain.Exchange, status int, message string) {
	exch.Response.Write(status, "application/json",
		[]byte(`{"error":{"kind":"`+kindFor(status)+`","message":"`+message+`"}}`))
}

func kindFor(status int) string {
	if status == http.StatusForbidden {
		return string(domain.KindForbidden)
	}
	return string(domain.KindUnauthorized)
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

var _ ports.Stage = (*APIKeyAuth)(nil)
