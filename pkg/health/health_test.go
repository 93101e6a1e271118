package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func up(context.Context) error { return nil }

func down(context.Context) error { return errors.New("connection refused") }

func TestRunStatus(t *testing.T) {
	tests := []struct {
		name     string
		required Check
		optional Check
		want     Status
	}{
		{"all up", up, up, StatusUp},
		{"optional down", up, down, StatusDegraded},
		{"required down", down, up, StatusDown},
		{"both down", down, down, StatusDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker()
			c.Register("store", tt.required)
			c.RegisterOptional("samples", tt.optional)
			report := c.Run(context.Background())
			if report.Status != tt.want {
				t.Fatalf("status = %s, want %s", report.Status, tt.want)
			}
			if !report.Components["store"].Required || report.Components["samples"].Required {
				t.Fatalf("required flags wrong: %+v", report.Components)
			}
		})
	}
}

func TestRunReportsMessage(t *testing.T) {
	c := NewChecker()
	c.Register("ledger", Ping(down))
	report := c.Run(context.Background())
	if got := report.Components["ledger"].Message; got != "connection refused" {
		t.Fatalf("message = %q", got)
	}
	if names := c.Names(); len(names) != 1 || names[0] != "ledger" {
		t.Fatalf("names = %v", names)
	}
}

func TestProbeTimeout(t *testing.T) {
	c := NewChecker()
	c.Timeout = 10 * time.Millisecond
	c.Register("store", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if report := c.Run(context.Background()); report.Status != StatusDown {
		t.Fatalf("status = %s, want down after timeout", report.Status)
	}
}

func TestReadyHandler(t *testing.T) {
	c := NewChecker()
	c.Register("store", up)
	c.RegisterOptional("samples", down)

	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("degraded should still be ready, got %d", rec.Code)
	}

	c.Register("ledger", down)
	rec = httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestLiveHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker().LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
