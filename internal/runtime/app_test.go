package runtime

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/strataweb/strata/internal/config"
	"github.com/strataweb/strata/internal/domain"
	"github.com/strataweb/strata/internal/ports"
)

type orderedStage struct {
	name string
	log  *[]string
}

func (s *orderedStage) Name() string { return s.name }

func (s *orderedStage) Inbound(ctx context.Context, exch *domain.Exchange) (ports.HookAction, error) {
	*s.log = append(*s.log, s.name+".in")
	return ports.ActionContinue, nil
}

func (s *orderedStage) Outbound(ctx context.Context, exch *domain.Exchange) error {
	*s.log = append(*s.log, s.name+".out")
	return nil
}

func TestNew_AssemblesExecutorFromOptions(t *testing.T) {
	var calls []string

	app, err := New(
		WithStage(&orderedStage{name: "outer", log: &calls}, 10),
		WithStage(&orderedStage{name: "inner", log: &calls}, 20),
		WithRoute("GET", "/ping", func(ctx context.Context, req *domain.Request, attrs domain.Attributes) (any, error) {
			calls = append(calls, "handler")
			return "pong", nil
		}),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	outcome := app.Executor().Execute(context.Background(), &domain.Request{
		Method: "GET",
		Path:   "/ping",
		Header: make(http.Header),
	})

	if outcome.State != domain.OutcomeCompleted {
		t.Fatalf("unexpected state: %s (%v)", outcome.State, outcome.Err)
	}
	want := "outer.in,inner.in,handler,inner.out,outer.out"
	if got := strings.Join(calls, ","); got != want {
		t.Errorf("call order %q, want %q", got, want)
	}
}

func TestNew_AmbiguousRouteFailsAtAssembly(t *testing.T) {
	_, err := New(
		WithRoute("GET", "/a/{x}", func(ctx context.Context, req *domain.Request, attrs domain.Attributes) (any, error) {
			return nil, nil
		}),
		WithRoute("GET", "/a/{y}", func(ctx context.Context, req *domain.Request, attrs domain.Attributes) (any, error) {
			return nil, nil
		}),
	)
	if err == nil {
		t.Fatal("expected an assembly error for ambiguous routes")
	}
}

func TestNew_DefaultConfigWhenNoneGiven(t *testing.T) {
	app, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if app.cfg == nil || app.cfg.Server.Port != 8080 {
		t.Errorf("expected default config, got %+v", app.cfg)
	}
}

func TestWithConfig_Used(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Port = 9999

	app, err := New(WithConfig(cfg))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if app.cfg.Server.Port != 9999 {
		t.Errorf("expected injected config, got port %d", app.cfg.Server.Port)
	}
}
