package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/store"
)

// Activation list limits.
const (
	defaultActivationLimit = 50
	maxActivationLimit     = 500
)

// ActivationHandler serves the activation log.
type ActivationHandler struct {
	store *store.Store
}

// NewActivationHandler creates a new ActivationHandler with the given store.
func NewActivationHandler(s *store.Store) *ActivationHandler {
	return &ActivationHandler{store: s}
}

type activationResponse struct {
	ID          string `json:"id"`
	SessionID   string `json:"session_id,omitempty"`
	ElementID   string `json:"element_id"`
	Label       string `json:"label"`
	ActivatedAt string `json:"activated_at"`
}

type listActivationsResponse struct {
	Activations []activationResponse `json:"activations"`
}

type countsResponse struct {
	Counts map[string]int `json:"counts"`
}

func toActivationResponse(a *store.Activation) activationResponse {
	return activationResponse{
		ID:          a.ID,
		SessionID:   a.SessionID,
		ElementID:   a.ElementID,
		Label:       a.Label,
		ActivatedAt: a.ActivatedAt.Format(time.RFC3339Nano),
	}
}

// ServeHTTP routes /api/activations, /api/activations/counts and
// /api/activations/{id}.
func (h *ActivationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/activations")
	path = strings.TrimPrefix(path, "/")

	switch path {
	case "":
		h.list(w, r)
	case "counts":
		h.counts(w)
	default:
		h.get(w, path)
	}
}

// list handles GET /api/activations?limit=N, newest first.
func (h *ActivationHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := defaultActivationLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxActivationLimit)
	}

	activations, err := h.store.Activations().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list activations")
		return
	}

	resp := listActivationsResponse{Activations: make([]activationResponse, 0, len(activations))}
	for _, a := range activations {
		resp.Activations = append(resp.Activations, toActivationResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

// counts handles GET /api/activations/counts.
func (h *ActivationHandler) counts(w http.ResponseWriter) {
	counts, err := h.store.Activations().CountByElement()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count activations")
		return
	}
	writeJSON(w, http.StatusOK, countsResponse{Counts: counts})
}

// get handles GET /api/activations/{id}.
func (h *ActivationHandler) get(w http.ResponseWriter, id string) {
	a, err := h.store.Activations().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "activation not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get activation")
		return
	}
	writeJSON(w, http.StatusOK, toActivationResponse(a))
}
