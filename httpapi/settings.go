package httpapi

import (
	"errors"
	"net/http"

	"github.com/graphitebrowser/graphite/internal/logx"
)

// Settings is the persisted preference set exposed on /api/settings.
type Settings struct {
	FilterEnabled  bool   `json:"filter_enabled"`
	HTTPSUpgrade   bool   `json:"https_upgrade"`
	HomeURL        string `json:"home_url"`
	SearchTemplate string `json:"search_template"`
}

// SettingsUpdate carries a partial settings change; nil fields keep their
// current value.
type SettingsUpdate struct {
	FilterEnabled  *bool   `json:"filter_enabled"`
	HTTPSUpgrade   *bool   `json:"https_upgrade"`
	HomeURL        *string `json:"home_url"`
	SearchTemplate *string `json:"search_template"`
}

// Preferences reads and writes the persisted user preferences.
type Preferences interface {
	Settings() Settings
	UpdateSettings(update SettingsUpdate) (Settings, error)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	log := logx.Ctx(r.Context())
	if s.prefs == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("settings unavailable"))
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.prefs.Settings())
		log.Debug("http settings ok")
	case http.MethodPost:
		var update SettingsUpdate
		if err := decodeJSON(r.Body, &update); err != nil {
			log.Warn("http settings decode failed", "err", err)
			writeError(w, http.StatusBadRequest, err)
			return
		}
		current, err := s.prefs.UpdateSettings(update)
		if err != nil {
			log.Warn("http settings update failed", "err", err)
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, current)
		log.Info("http settings update ok",
			"filter_enabled", current.FilterEnabled,
			"https_upgrade", current.HTTPSUpgrade,
		)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
