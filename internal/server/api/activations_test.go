package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func seedActivations(t *testing.T, s *store.Store) {
	t.Helper()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, el := range []string{"exit", "spinning_ring", "exit"} {
		a := &store.Activation{
			ID:          "act-" + string(rune('a'+i)),
			ElementID:   el,
			Label:       el,
			ActivatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.Activations().Create(a); err != nil {
			t.Fatalf("failed to seed activation: %v", err)
		}
	}
}

func TestActivationHandler_List(t *testing.T) {
	s := newTestStore(t)
	seedActivations(t, s)
	handler := NewActivationHandler(s)

	t.Run("newest first", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/activations", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var resp listActivationsResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Activations) != 3 {
			t.Fatalf("len(activations) = %d, want 3", len(resp.Activations))
		}
		if resp.Activations[0].ID != "act-c" {
			t.Errorf("first = %s, want act-c", resp.Activations[0].ID)
		}
	})

	t.Run("limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/activations?limit=1", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		var resp listActivationsResponse
		json.NewDecoder(rec.Body).Decode(&resp)
		if len(resp.Activations) != 1 {
			t.Errorf("len(activations) = %d, want 1", len(resp.Activations))
		}
	})

	t.Run("bad limit", func(t *testing.T) {
		for _, q := range []string{"0", "-3", "lots"} {
			req := httptest.NewRequest(http.MethodGet, "/api/activations?limit="+q, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("limit=%s: status = %d, want 400", q, rec.Code)
			}
		}
	})
}

func TestActivationHandler_Empty(t *testing.T) {
	handler := NewActivationHandler(newTestStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/activations", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Body.String() != "{\"activations\":[]}\n" {
		t.Errorf("body = %q, want an empty list", rec.Body.String())
	}
}

func TestActivationHandler_Counts(t *testing.T) {
	s := newTestStore(t)
	seedActivations(t, s)

	req := httptest.NewRequest(http.MethodGet, "/api/activations/counts", nil)
	rec := httptest.NewRecorder()
	NewActivationHandler(s).ServeHTTP(rec, req)

	var resp countsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Counts["exit"] != 2 || resp.Counts["spinning_ring"] != 1 {
		t.Errorf("counts = %v", resp.Counts)
	}
}

func TestActivationHandler_Get(t *testing.T) {
	s := newTestStore(t)
	seedActivations(t, s)
	handler := NewActivationHandler(s)

	req := httptest.NewRequest(http.MethodGet, "/api/activations/act-b", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp activationResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.ElementID != "spinning_ring" {
		t.Errorf("element = %q", resp.ElementID)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/activations/missing", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestActivationHandler_MethodNotAllowed(t *testing.T) {
	handler := NewActivationHandler(newTestStore(t))
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(method, "/api/activations", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: status = %d, want 405", method, rec.Code)
		}
	}
}
