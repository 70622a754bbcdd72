// Package httpstatus exposes a read-only ground-ops debug surface over the
// cached persistent state and error log, echoing spec section 7's "radio
// downlink exposes [the error log] to ground" — here served over HTTP
// instead, with go-chi/chi/v5 routing following the handler pattern from
// marmos91/dittofs's controlplane API.
package httpstatus

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cubesat-fc/satstate"
	"github.com/cubesat-fc/satstate/errorlog"
)

// CoordinatorView is the subset of *satstate.Coordinator this handler
// needs, kept as an interface so tests can substitute a fake.
type CoordinatorView interface {
	State() satstate.PersistentState
	NowSeconds() uint32
	OrbitsSinceLaunch() uint16
}

// Handler serves the read-only status surface.
type Handler struct {
	coord       CoordinatorView
	errStack    *errorlog.Stack
	snapTimeout time.Duration
}

// NewHandler returns a Handler reading from coord and errStack.
func NewHandler(coord CoordinatorView, errStack *errorlog.Stack) *Handler {
	return &Handler{coord: coord, errStack: errStack, snapTimeout: time.Second}
}

// Routes returns the chi router for this handler's endpoints, mountable
// under any prefix by the caller.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/state", h.getState)
	r.Get("/errors", h.getErrors)
	r.Get("/healthz", h.getHealthz)
	return r
}

type stateResponse struct {
	SecsSinceLaunch      uint32                          `json:"secs_since_launch"`
	RebootCount          uint8                           `json:"reboot_count"`
	SatState             string                          `json:"sat_state"`
	EventHistory         satstate.SatEventHistory        `json:"event_history"`
	ProgMemRewritten     bool                            `json:"prog_mem_rewritten"`
	RadioReviveTimestamp uint32                          `json:"radio_revive_timestamp"`
	ChargingData         satstate.PersistentChargingData `json:"charging_data"`
	NowSeconds           uint32                          `json:"now_seconds"`
	OrbitsSinceLaunch    uint16                          `json:"orbits_since_launch"`
}

func (h *Handler) getState(w http.ResponseWriter, r *http.Request) {
	s := h.coord.State()
	resp := stateResponse{
		SecsSinceLaunch:      s.SecsSinceLaunch,
		RebootCount:          s.RebootCount,
		SatState:             s.SatState.String(),
		EventHistory:         s.EventHistory,
		ProgMemRewritten:     s.ProgMemRewritten,
		RadioReviveTimestamp: s.RadioReviveTimestamp,
		ChargingData:         s.ChargingData,
		NowSeconds:           h.coord.NowSeconds(),
		OrbitsSinceLaunch:    h.coord.OrbitsSinceLaunch(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getErrors(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.errStack.Snapshot(h.snapTimeout)
	writeJSON(w, http.StatusOK, map[string]any{
		"records": snap,
		"count":   len(snap),
		"stale":   !ok,
	})
}

func (h *Handler) getHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
