package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/strataweb/strata/internal/domain"
	"github.com/strataweb/strata/internal/ports"
)

// WebhookStage delegates the inbound decision for every request to an
// external HTTP endpoint. Its outbound hook is a no-op.
type WebhookStage struct {
	name    string
	url     string
	onError ports.HookAction // verdict applied when the endpoint is unreachable
	retries int
	headers map[string]string
	client  *http.Client
}

// WebhookStageConfig configures a webhook stage.
type WebhookStageConfig struct {
	Name    string
	URL     string
	Timeout time.Duration
	// OnError is the verdict when all attempts fail: ActionContinue is
	// fail-open, anything else fails the traversal (default).
	OnError ports.HookAction
	Retries int
	Headers map[string]string
	// Transport overrides the HTTP transport, used by tests.
	Transport http.RoundTripper
}

// webhookRequest is the JSON document POSTed to the endpoint.
type webhookRequest struct {
	Method     string            `json:"method"`
	Path       string            `json:"path"`
	Header     http.Header       `json:"header"`
	Attributes domain.Attributes `json:"attributes"`
}

// webhookVerdict is the JSON reply expected from the endpoint.
type webhookVerdict struct {
	Action string            `json:"action"` // "continue" or "short_circuit"
	Status int               `json:"status,omitempty"`
	Body   string            `json:"body,omitempty"`
	Header map[string]string `json:"header,omitempty"`
}

// NewWebhookStage creates a webhook stage.
func NewWebhookStage(cfg WebhookStageConfig) *WebhookStage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &WebhookStage{
		name:    cfg.Name,
		url:     cfg.URL,
		onError: cfg.OnError,
		retries: cfg.Retries,
		headers: cfg.Headers,
		client:  &http.Client{Timeout: timeout, Transport: cfg.Transport},
	}
}

// Name returns the stage identifier.
func (s *WebhookStage) Name() string { return s.name }

// Inbound calls the endpoint and maps its verdict onto the pipeline.
func (s *WebhookStage) Inbound(ctx context.Context, exch *domain.Exchange) (ports.HookAction, error) {
	var lastErr error

	attempts := s.retries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		verdict, err := s.call(ctx, exch)
		if err == nil {
			return s.apply(verdict, exch)
		}
		lastErr = err

		// Don't retry once the request is gone.
		if ctx.Err() != nil {
			break
		}
	}

	if s.onError == ports.ActionContinue {
		return ports.ActionContinue, nil
	}
	return "", fmt.Errorf("webhook %s unreachable: %w", s.url, lastErr)
}

// Outbound is a no-op; webhook verdicts apply on the way in only.
func (s *WebhookStage) Outbound(ctx context.Context, exch *domain.Exchange) error {
	return nil
}

func (s *WebhookStage) call(ctx context.Context, exch *domain.Exchange) (*webhookVerdict, error) {
	payload, err := json.Marshal(webhookRequest{
		Method:     exch.Request.Method,
		Path:       exch.Request.Path,
		Header:     exch.Request.Header,
		Attributes: exch.Attributes,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal webhook request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read webhook response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	var verdict webhookVerdict
	if err := json.Unmarshal(body, &verdict); err != nil {
		return nil, fmt.Errorf("decode webhook verdict: %w", err)
	}
	return &verdict, nil
}

func (s *WebhookStage) apply(v *webhookVerdict, exch *domain.Exchange) (ports.HookAction, error) {
	switch v.Action {
	case "continue", "":
		return ports.ActionContinue, nil
	case "short_circuit":
		status := v.Status
		if status == 0 {
			status = http.StatusForbidden
		}
		for k, val := range v.Header {
			exch.Response.Header.Set(k, val)
		}
		exch.Response.Write(status, "application/json", []byte(v.Body))
		return ports.ActionShortCircuit, nil
	default:
		return "", fmt.Errorf("webhook %s: unknown action %q", s.name, v.Action)
	}
}

var _ ports.Stage = (*WebhookStage)(nil)
