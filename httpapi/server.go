package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/graphitebrowser/graphite/core"
	"github.com/graphitebrowser/graphite/internal/agentctl"
	"github.com/graphitebrowser/graphite/internal/logx"
	"github.com/graphitebrowser/graphite/schema"
)

// Server serves the HTTP command surface for the shell UI and automation.
type Server struct {
	cfg     Config
	service core.Service
	agent   *agentctl.Control
	hub     *Hub
	prefs   Preferences
}

// NewServer constructs an HTTP server around the service.
func NewServer(cfg Config, service core.Service, agent *agentctl.Control, hub *Hub, prefs Preferences) *Server {
	if cfg.HistorySearchLimit <= 0 {
		cfg.HistorySearchLimit = 20
	}
	return &Server{
		cfg:     cfg,
		service: service,
		agent:   agent,
		hub:     hub,
		prefs:   prefs,
	}
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/sidebar", s.handleSidebar)

	mux.HandleFunc("/api/tabs", s.handleTabs)
	mux.HandleFunc("/api/tabs/close", s.handleCloseTab)
	mux.HandleFunc("/api/tabs/activate", s.handleActivateTab)

	mux.HandleFunc("/api/navigate", s.handleNavigate)
	mux.HandleFunc("/api/navigate/back", s.historyNavHandler("back", func(ctx context.Context, req schema.HistoryNavRequest) (schema.HistoryNavResponse, error) {
		return s.service.GoBack(ctx, req)
	}))
	mux.HandleFunc("/api/navigate/forward", s.historyNavHandler("forward", func(ctx context.Context, req schema.HistoryNavRequest) (schema.HistoryNavResponse, error) {
		return s.service.GoForward(ctx, req)
	}))
	mux.HandleFunc("/api/navigate/reload", s.historyNavHandler("reload", func(ctx context.Context, req schema.HistoryNavRequest) (schema.HistoryNavResponse, error) {
		return s.service.Reload(ctx, req)
	}))
	mux.HandleFunc("/api/navigate/stop", s.historyNavHandler("stop", func(ctx context.Context, req schema.HistoryNavRequest) (schema.HistoryNavResponse, error) {
		return s.service.StopLoading(ctx, req)
	}))

	mux.HandleFunc("/api/realms", s.handleCreateRealm)
	mux.HandleFunc("/api/realms/update", s.handleUpdateRealm)
	mux.HandleFunc("/api/realms/delete", s.handleDeleteRealm)
	mux.HandleFunc("/api/realms/activate", s.handleActivateRealm)
	mux.HandleFunc("/api/realms/reorder", s.handleReorderRealms)

	mux.HandleFunc("/api/docks", s.handleCreateDock)
	mux.HandleFunc("/api/docks/update", s.handleUpdateDock)
	mux.HandleFunc("/api/docks/toggle", s.handleToggleDock)
	mux.HandleFunc("/api/docks/delete", s.handleDeleteDock)
	mux.HandleFunc("/api/docks/reorder", s.handleReorderDocks)
	mux.HandleFunc("/api/docks/move", s.handleMoveDock)

	mux.HandleFunc("/api/org/placement", s.handleGetPlacement)
	mux.HandleFunc("/api/org/move-to-dock", s.handleMoveTabToDock)
	mux.HandleFunc("/api/org/move-to-loose", s.handleMoveTabToLoose)
	mux.HandleFunc("/api/org/move-to-realm", s.handleMoveTabToRealm)
	mux.HandleFunc("/api/org/pin", s.handlePinTab)
	mux.HandleFunc("/api/org/reorder-dock", s.handleReorderDockTabs)
	mux.HandleFunc("/api/org/reorder-loose", s.handleReorderLooseTabs)

	mux.HandleFunc("/api/history", s.handleHistory)

	mux.HandleFunc("/api/settings", s.handleSettings)

	mux.HandleFunc("/api/filter", s.handleFilterStats)
	mux.HandleFunc("/api/filter/reset", s.handleFilterReset)

	mux.HandleFunc("/api/agent/stop", s.agentHandler("stop", func(c *agentctl.Control) { c.Stop() }))
	mux.HandleFunc("/api/agent/pause", s.agentHandler("pause", func(c *agentctl.Control) { c.Pause() }))
	mux.HandleFunc("/api/agent/resume", s.agentHandler("resume", func(c *agentctl.Control) { c.Resume() }))
	mux.HandleFunc("/api/agent/status", s.handleAgentStatus)

	mux.HandleFunc("/api/stream", s.handleStream)

	return withRequestLogging(mux)
}

func (s *Server) handleSidebar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	resp, err := s.service.GetSidebarState(r.Context(), schema.SidebarStateRequest{})
	if err != nil {
		log.Warn("http sidebar failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp.State)
	log.Debug("http sidebar ok", "realms", len(resp.State.Realms), "tabs", len(resp.State.Tabs))
}

func (s *Server) handleTabs(w http.ResponseWriter, r *http.Request) {
	log := logx.Ctx(r.Context())
	switch r.Method {
	case http.MethodGet:
		resp, err := s.service.ListTabs(r.Context(), schema.ListTabsRequest{})
		if err != nil {
			log.Warn("http tabs list failed", "err", err)
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
		log.Info("http tabs list ok", "count", len(resp.Tabs))
	case http.MethodPost:
		var payload struct {
			URL       string `json:"url"`
			Activate  bool   `json:"activate"`
			Placement *struct {
				RealmID string `json:"realm_id"`
				DockID  string `json:"dock_id"`
				Pinned  bool   `json:"pinned"`
			} `json:"placement"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			log.Warn("http tabs decode failed", "err", err)
			writeError(w, http.StatusBadRequest, err)
			return
		}
		req := schema.CreateTabRequest{URL: payload.URL, Activate: payload.Activate}
		if payload.Placement != nil {
			req.Placement = &schema.PlacementHint{
				RealmID: schema.RealmID(payload.Placement.RealmID),
				DockID:  schema.DockID(payload.Placement.DockID),
				Pinned:  payload.Placement.Pinned,
			}
		}
		resp, err := s.service.CreateTab(r.Context(), req)
		if err != nil {
			log.Warn("http tabs create failed", "err", err)
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
		log.Info("http tabs create ok", "tab", resp.Tab.ID, "url", resp.Tab.URL)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCloseTab(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		TabID string `json:"tab_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http close decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.CloseTab(r.Context(), schema.CloseTabRequest{TabID: schema.TabID(payload.TabID)})
	if err != nil {
		log.Warn("http close failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http close ok", "tab", payload.TabID, "existed", resp.Existed)
}

func (s *Server) handleActivateTab(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		TabID string `json:"tab_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http activate decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.ActivateTab(r.Context(), schema.ActivateTabRequest{TabID: schema.TabID(payload.TabID)})
	if err != nil {
		log.Warn("http activate failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http activate ok", "tab", resp.Tab.ID)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		TabID string `json:"tab_id"`
		Input string `json:"input"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http navigate decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.Navigate(r.Context(), schema.NavigateRequest{
		TabID: schema.TabID(payload.TabID),
		Input: payload.Input,
	})
	if err != nil {
		log.Warn("http navigate failed", "err", err, "input_len", len(payload.Input))
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http navigate ok", "tab", resp.Tab.ID, "url", resp.URL)
}

func (s *Server) historyNavHandler(op string, call func(context.Context, schema.HistoryNavRequest) (schema.HistoryNavResponse, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		log := logx.Ctx(r.Context()).With("op", op)
		var payload struct {
			TabID string `json:"tab_id"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			log.Warn("http nav decode failed", "err", err)
			writeError(w, http.StatusBadRequest, err)
			return
		}
		resp, err := call(r.Context(), schema.HistoryNavRequest{TabID: schema.TabID(payload.TabID)})
		if err != nil {
			log.Warn("http nav failed", "err", err)
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
		log.Info("http nav ok", "tab", resp.Tab.ID)
	}
}

func (s *Server) handleCreateRealm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		Name     string `json:"name"`
		Icon     string `json:"icon"`
		Color    string `json:"color"`
		Template *struct {
			Docks []struct {
				Name  string `json:"name"`
				Icon  string `json:"icon"`
				Color string `json:"color"`
			} `json:"docks"`
		} `json:"template"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http realm decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req := schema.CreateRealmRequest{Name: payload.Name, Icon: payload.Icon, Color: payload.Color}
	if payload.Template != nil {
		template := &schema.RealmTemplate{}
		for _, dock := range payload.Template.Docks {
			template.Docks = append(template.Docks, schema.DockTemplate{
				Name:  dock.Name,
				Icon:  dock.Icon,
				Color: dock.Color,
			})
		}
		req.Template = template
	}
	resp, err := s.service.CreateRealm(r.Context(), req)
	if err != nil {
		log.Warn("http realm create failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http realm create ok", "realm", resp.Realm.ID, "docks", len(resp.Docks))
}

func (s *Server) handleUpdateRealm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		RealmID string  `json:"realm_id"`
		Name    *string `json:"name"`
		Icon    *string `json:"icon"`
		Color   *string `json:"color"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http realm update decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.UpdateRealm(r.Context(), schema.UpdateRealmRequest{
		RealmID: schema.RealmID(payload.RealmID),
		Name:    payload.Name,
		Icon:    payload.Icon,
		Color:   payload.Color,
	})
	if err != nil {
		log.Warn("http realm update failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http realm update ok", "realm", resp.Realm.ID)
}

func (s *Server) handleDeleteRealm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		RealmID string `json:"realm_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http realm delete decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.DeleteRealm(r.Context(), schema.DeleteRealmRequest{RealmID: schema.RealmID(payload.RealmID)})
	if err != nil {
		log.Warn("http realm delete failed", "err", err, "realm", payload.RealmID)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http realm delete ok", "realm", payload.RealmID, "active", resp.ActiveRealm)
}

func (s *Server) handleActivateRealm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		RealmID string `json:"realm_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http realm activate decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.SetActiveRealm(r.Context(), schema.SetActiveRealmRequest{RealmID: schema.RealmID(payload.RealmID)})
	if err != nil {
		log.Warn("http realm activate failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http realm activate ok", "realm", resp.ActiveRealm)
}

func (s *Server) handleReorderRealms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		Ordered []string `json:"ordered"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http realms reorder decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ordered := make([]schema.RealmID, 0, len(payload.Ordered))
	for _, id := range payload.Ordered {
		ordered = append(ordered, schema.RealmID(id))
	}
	resp, err := s.service.ReorderRealms(r.Context(), schema.ReorderRealmsRequest{Ordered: ordered})
	if err != nil {
		log.Warn("http realms reorder failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http realms reorder ok", "count", len(resp.Realms))
}

func (s *Server) handleCreateDock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		RealmID string `json:"realm_id"`
		Name    string `json:"name"`
		Icon    string `json:"icon"`
		Color   string `json:"color"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http dock decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.CreateDock(r.Context(), schema.CreateDockRequest{
		RealmID: schema.RealmID(payload.RealmID),
		Name:    payload.Name,
		Icon:    payload.Icon,
		Color:   payload.Color,
	})
	if err != nil {
		log.Warn("http dock create failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http dock create ok", "dock", resp.Dock.ID, "realm", resp.Dock.RealmID)
}

func (s *Server) handleUpdateDock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		DockID string  `json:"dock_id"`
		Name   *string `json:"name"`
		Icon   *string `json:"icon"`
		Color  *string `json:"color"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http dock update decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.UpdateDock(r.Context(), schema.UpdateDockRequest{
		DockID: schema.DockID(payload.DockID),
		Name:   payload.Name,
		Icon:   payload.Icon,
		Color:  payload.Color,
	})
	if err != nil {
		log.Warn("http dock update failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http dock update ok", "dock", resp.Dock.ID)
}

func (s *Server) handleToggleDock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		DockID string `json:"dock_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http dock toggle decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.ToggleDock(r.Context(), schema.ToggleDockRequest{DockID: schema.DockID(payload.DockID)})
	if err != nil {
		log.Warn("http dock toggle failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http dock toggle ok", "dock", resp.Dock.ID, "collapsed", resp.Dock.Collapsed)
}

func (s *Server) handleDeleteDock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		DockID string `json:"dock_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http dock delete decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := s.service.DeleteDock(r.Context(), schema.DeleteDockRequest{DockID: schema.DockID(payload.DockID)}); err != nil {
		log.Warn("http dock delete failed", "err", err, "dock", payload.DockID)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	log.Info("http dock delete ok", "dock", payload.DockID)
}

func (s *Server) handleReorderDocks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		RealmID string   `json:"realm_id"`
		Ordered []string `json:"ordered"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http docks reorder decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ordered := make([]schema.DockID, 0, len(payload.Ordered))
	for _, id := range payload.Ordered {
		ordered = append(ordered, schema.DockID(id))
	}
	resp, err := s.service.ReorderDocks(r.Context(), schema.ReorderDocksRequest{
		RealmID: schema.RealmID(payload.RealmID),
		Ordered: ordered,
	})
	if err != nil {
		log.Warn("http docks reorder failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http docks reorder ok", "realm", payload.RealmID, "count", len(resp.Docks))
}

func (s *Server) handleMoveDock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		DockID  string `json:"dock_id"`
		RealmID string `json:"realm_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http dock move decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.MoveDock(r.Context(), schema.MoveDockRequest{
		DockID:  schema.DockID(payload.DockID),
		RealmID: schema.RealmID(payload.RealmID),
	})
	if err != nil {
		log.Warn("http dock move failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http dock move ok", "dock", resp.Dock.ID, "realm", resp.Dock.RealmID)
}

func (s *Server) handleGetPlacement(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	tabID := schema.TabID(r.URL.Query().Get("tab_id"))
	resp, err := s.service.GetPlacement(r.Context(), schema.GetPlacementRequest{TabID: tabID})
	if err != nil {
		log.Warn("http placement failed", "err", err, "tab", tabID)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Debug("http placement ok", "tab", tabID)
}

func (s *Server) handleMoveTabToDock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		TabID  string `json:"tab_id"`
		DockID string `json:"dock_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http move-to-dock decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.MoveTabToDock(r.Context(), schema.MoveTabToDockRequest{
		TabID:  schema.TabID(payload.TabID),
		DockID: schema.DockID(payload.DockID),
	})
	if err != nil {
		log.Warn("http move-to-dock failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http move-to-dock ok", "tab", payload.TabID, "dock", payload.DockID)
}

func (s *Server) handleMoveTabToLoose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		TabID   string `json:"tab_id"`
		RealmID string `json:"realm_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http move-to-loose decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.MoveTabToLoose(r.Context(), schema.MoveTabToLooseRequest{
		TabID:   schema.TabID(payload.TabID),
		RealmID: schema.RealmID(payload.RealmID),
	})
	if err != nil {
		log.Warn("http move-to-loose failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http move-to-loose ok", "tab", payload.TabID)
}

func (s *Server) handleMoveTabToRealm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		TabID   string `json:"tab_id"`
		RealmID string `json:"realm_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http move-to-realm decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.MoveTabToRealm(r.Context(), schema.MoveTabToRealmRequest{
		TabID:   schema.TabID(payload.TabID),
		RealmID: schema.RealmID(payload.RealmID),
	})
	if err != nil {
		log.Warn("http move-to-realm failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http move-to-realm ok", "tab", payload.TabID, "realm", payload.RealmID)
}

func (s *Server) handlePinTab(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		TabID  string `json:"tab_id"`
		Pinned bool   `json:"pinned"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http pin decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.PinTab(r.Context(), schema.PinTabRequest{
		TabID:  schema.TabID(payload.TabID),
		Pinned: payload.Pinned,
	})
	if err != nil {
		log.Warn("http pin failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http pin ok", "tab", payload.TabID, "pinned", resp.Placement.Pinned)
}

func (s *Server) handleReorderDockTabs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		DockID  string   `json:"dock_id"`
		Ordered []string `json:"ordered"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http reorder-dock decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.ReorderDockTabs(r.Context(), schema.ReorderDockTabsRequest{
		DockID:  schema.DockID(payload.DockID),
		Ordered: tabIDs(payload.Ordered),
	})
	if err != nil {
		log.Warn("http reorder-dock failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http reorder-dock ok", "dock", payload.DockID, "count", len(resp.Placements))
}

func (s *Server) handleReorderLooseTabs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	var payload struct {
		RealmID string   `json:"realm_id"`
		Ordered []string `json:"ordered"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http reorder-loose decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.ReorderLooseTabs(r.Context(), schema.ReorderLooseTabsRequest{
		RealmID: schema.RealmID(payload.RealmID),
		Ordered: tabIDs(payload.Ordered),
	})
	if err != nil {
		log.Warn("http reorder-loose failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http reorder-loose ok", "realm", payload.RealmID, "count", len(resp.Placements))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	query := r.URL.Query().Get("q")
	limit := parseInt(r.URL.Query().Get("limit"), s.cfg.HistorySearchLimit)
	resp, err := s.service.SearchHistory(r.Context(), schema.SearchHistoryRequest{
		Query: query,
		Limit: limit,
	})
	if err != nil {
		log.Warn("http history failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Debug("http history ok", "entries", len(resp.Entries))
}

func (s *Server) handleFilterStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	resp, err := s.service.FilterStats(r.Context(), schema.FilterStatsRequest{})
	if err != nil {
		log.Warn("http filter stats failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Stats)
	log.Debug("http filter stats ok", "blocked", resp.Stats.BlockedCount)
}

func (s *Server) handleFilterReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	resp, err := s.service.ResetFilterStats(r.Context(), schema.ResetFilterStatsRequest{})
	if err != nil {
		log.Warn("http filter reset failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Stats)
	log.Info("http filter reset ok")
}

func (s *Server) agentHandler(op string, apply func(*agentctl.Control)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		log := logx.Ctx(r.Context()).With("op", op)
		if s.agent == nil {
			writeError(w, http.StatusServiceUnavailable, errors.New("agent control unavailable"))
			log.Warn("http agent op rejected")
			return
		}
		apply(s.agent)
		writeJSON(w, http.StatusOK, s.agent.Status())
		log.Info("http agent op ok")
	}
}

func (s *Server) handleAgentStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.agent == nil {
		writeJSON(w, http.StatusOK, schema.AgentStatus{})
		return
	}
	writeJSON(w, http.StatusOK, s.agent.Status())
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("stream unsupported"))
		return
	}
	log := logx.Ctx(r.Context())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	lastID := parseUint(r.Header.Get("Last-Event-ID"))

	snapshot := s.buildSnapshot(r.Context())
	_ = writeSSEvent(w, StreamEvent{
		Type:      "snapshot",
		Snapshot:  &snapshot,
		Timestamp: time.Now(),
	})
	flusher.Flush()

	replayCount := 0
	if lastID > 0 {
		replay := s.hub.Replay(lastID)
		replayCount = len(replay)
		for _, event := range replay {
			_ = writeSSEvent(w, event)
		}
		flusher.Flush()
	}

	ch, unsubscribe, _ := s.hub.Subscribe()
	defer unsubscribe()

	notify := r.Context().Done()
	log.Info("http stream opened", "last_id", lastID, "replay", replayCount, "tabs", len(snapshot.Sidebar.Tabs))
	for {
		select {
		case <-notify:
			log.Info("http stream closed")
			return
		case event := <-ch:
			_ = writeSSEvent(w, event)
			flusher.Flush()
		}
	}
}

func (s *Server) buildSnapshot(ctx context.Context) SnapshotPayload {
	payload := SnapshotPayload{}
	if resp, err := s.service.GetSidebarState(ctx, schema.SidebarStateRequest{}); err == nil {
		payload.Sidebar = resp.State
	}
	if resp, err := s.service.FilterStats(ctx, schema.FilterStatsRequest{}); err == nil {
		payload.Filter = resp.Stats
	}
	if s.agent != nil {
		payload.Agent = s.agent.Status()
	}
	return payload
}

func tabIDs(values []string) []schema.TabID {
	ids := make([]schema.TabID, 0, len(values))
	for _, value := range values {
		ids = append(ids, schema.TabID(value))
	}
	return ids
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, schema.ErrTabNotFound),
		errors.Is(err, schema.ErrRealmNotFound),
		errors.Is(err, schema.ErrDockNotFound):
		return http.StatusNotFound
	case errors.Is(err, schema.ErrEngineUnavailable),
		errors.Is(err, schema.ErrServiceClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func decodeJSON(body io.Reader, target any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeSSEvent(w http.ResponseWriter, event StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if event.Seq > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", event.Seq)
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", strings.TrimSpace(string(data)))
	return nil
}

func parseUint(value string) uint64 {
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
