package server

import (
	"encoding/json"
	"net/http"

	"tokenherald/pkg/logx"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.status.Snapshot()
	if !snap.StoreConnected {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.status.Snapshot())
}

func (s *Service) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ctx := s.base
	if ctx == nil {
		ctx = r.Context()
	}
	if err := s.agent.Start(ctx); err != nil {
		s.log.Error("agent start via api", logx.Err(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"running": s.agent.Running()})
}

func (s *Service) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.agent.Stop(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"running": s.agent.Running()})
}

func (s *Service) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	// Run synchronously so the caller sees the outcome in the next
	// status read; the tick has its own timeout.
	s.agent.ForceScan(r.Context())
	writeJSON(w, http.StatusOK, s.status.Snapshot())
}
