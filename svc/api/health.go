package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"snipbin/svc/util"
)

type HealthResponse struct {
	Status string `json:"status"`
}
type ReadyResponse struct {
	Ready    bool   `json:"ready"`
	Degraded bool   `json:"degraded"`
	Store    string `json:"store"`
	Sessions string `json:"sessions"`
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// Ready reports the paste store and the session backend separately: a dead
// session backend degrades the service (no listings, fresh identity per
// create) but does not stop reads and creates.
func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	resp := ReadyResponse{
		Ready:    true,
		Degraded: false,
		Store:    "up",
		Sessions: "up",
	}
	dbCtx, dbCancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer dbCancel()
	if s.db == nil {
		resp.Store = "unavailable"
		resp.Ready = false
	} else if err := s.db.Ping(dbCtx); err != nil {
		util.Error().Err(err).Msg("store health check failed")
		resp.Store = "down"
		resp.Ready = false
	}
	sessCtx, sessCancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer sessCancel()
	if s.rdb == nil {
		resp.Sessions = "unavailable"
		resp.Degraded = true
	} else if err := s.rdb.Ping(sessCtx); err != nil {
		util.Error().Err(err).Msg("session backend health check failed")
		resp.Sessions = "down"
		resp.Degraded = true
	}
	w.Header().Set("Content-Type", "application/json")
	if !resp.Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(resp)
}
