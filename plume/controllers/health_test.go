package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

func TestHealthCheck(t *testing.T) {
	hc := NewHealthController(fakePinger{})
	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()

	hc.HealthCheck(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if rr.Body.String() != `{"status": "ok"}` {
		t.Errorf("unexpected body %q", rr.Body.String())
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected Content-Type application/json, got %v", rr.Header().Get("Content-Type"))
	}
}

func TestReadiness(t *testing.T) {
	hc := NewHealthController(fakePinger{})
	rr := httptest.NewRecorder()
	hc.Readiness(rr, httptest.NewRequest("GET", "/ready", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200 when store reachable, got %d", rr.Code)
	}

	hc = NewHealthController(fakePinger{err: errors.New("down")})
	rr = httptest.NewRecorder()
	hc.Readiness(rr, httptest.NewRequest("GET", "/ready", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when store down, got %d", rr.Code)
	}
}
