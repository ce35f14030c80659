package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/ayusman/mudra/internal/config"
)

// Settings is the live configuration the handler reads and changes.
type Settings interface {
	Settings() map[string]string
	UpdateSetting(key, value string) error
}

// SettingsHandler serves the live settings.
type SettingsHandler struct {
	settings Settings
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(s Settings) *SettingsHandler {
	return &SettingsHandler{settings: s}
}

type settingsResponse struct {
	Settings map[string]string `json:"settings"`
}

type settingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type updateSettingRequest struct {
	Value string `json:"value"`
}

// ServeHTTP routes /api/settings and /api/settings/{key}.
//
//	GET /api/settings          every live setting
//	PUT /api/settings          {"key": "value", ...} applied in key order
//	GET /api/settings/{key}    one setting
//	PUT /api/settings/{key}    {"value": "..."}
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/api/settings")
	key = strings.TrimPrefix(key, "/")

	switch r.Method {
	case http.MethodGet:
		if key == "" {
			writeJSON(w, http.StatusOK, settingsResponse{Settings: h.settings.Settings()})
			return
		}
		h.get(w, key)
	case http.MethodPut:
		if key == "" {
			h.updateMany(w, r)
			return
		}
		h.update(w, r, key)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) get(w http.ResponseWriter, key string) {
	v, ok := h.settings.Settings()[key]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown setting")
		return
	}
	writeJSON(w, http.StatusOK, settingResponse{Key: key, Value: v})
}

func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request, key string) {
	var req updateSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.settings.UpdateSetting(key, req.Value); err != nil {
		writeSettingError(w, err)
		return
	}
	h.get(w, key)
}

// updateMany applies each key in sorted order and stops at the first failure;
// keys before it stay applied.
func (h *SettingsHandler) updateMany(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	keys := make([]string, 0, len(req))
	for k := range req {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := h.settings.UpdateSetting(k, req[k]); err != nil {
			writeSettingError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, settingsResponse{Settings: h.settings.Settings()})
}

func writeSettingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, config.ErrUnknownSetting):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, config.ErrNotLive):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, config.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
