package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func do(t *testing.T, h http.HandlerFunc, path string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	return rec, resp
}

func TestLiveHandler(t *testing.T) {
	c := New()
	rec, resp := do(t, c.LiveHandler(), "/live")
	if rec.Code != http.StatusOK || resp.Status != StatusUp {
		t.Errorf("live = (%d, %s)", rec.Code, resp.Status)
	}

	c.SetShuttingDown()
	rec, resp = do(t, c.LiveHandler(), "/live")
	if rec.Code != http.StatusServiceUnavailable || resp.Status != StatusDown {
		t.Errorf("live after shutdown = (%d, %s)", rec.Code, resp.Status)
	}
}

func TestReadyHandlerChecks(t *testing.T) {
	c := New()
	c.Register("first_cycle", func() error { return nil })
	rec, resp := do(t, c.ReadyHandler(), "/ready")
	if rec.Code != http.StatusOK || resp.Components["first_cycle"] != StatusUp {
		t.Errorf("ready = (%d, %+v)", rec.Code, resp)
	}

	c.Register("target", func() error { return errors.New("unreachable") })
	rec, resp = do(t, c.ReadyHandler(), "/ready")
	if rec.Code != http.StatusServiceUnavailable || resp.Components["target"] != StatusDown {
		t.Errorf("ready with failing check = (%d, %+v)", rec.Code, resp)
	}
	if resp.Components["first_cycle"] != StatusUp {
		t.Error("healthy component must still report up")
	}
}
