package api

import (
	"log/slog"
	"net/http"
	"strconv"
)

const (
	defaultBlockLimit = 10
	maxBlockLimit     = 100
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !getOnly(w, r) {
		return
	}
	writeJSON(w, s.Service.Status())
}

// handleBlocks serves GET /api/v1/blocks?limit=N, newest first.
func (s *Server) handleBlocks(w http.ResponseWriter, r *http.Request) {
	if !getOnly(w, r) {
		return
	}
	limit := defaultBlockLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxBlockLimit)
	}

	chain := s.Service.Chain()
	writeJSON(w, map[string]any{
		"blocks": chain.Blocks(limit),
		"total":  chain.Len(),
	})
}

func (s *Server) handleMine(w http.ResponseWriter, r *http.Request) {
	b, err := s.Service.MineBlock()
	if err != nil {
		slog.Error("manual mine failed", "error", err)
		http.Error(w, "mining failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if s.DB != nil {
		if err := s.DB.SaveBlock(b); err != nil {
			slog.Error("block save failed", "number", b.Number, "error", err)
			http.Error(w, "block mined but not saved", http.StatusInternalServerError)
			return
		}
	}
	slog.Info("block mined on request", "number", b.Number, "miner", b.Miner)
	writeJSON(w, b)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.StatusFile == "" {
		http.Error(w, "status file disabled", http.StatusServiceUnavailable)
		return
	}
	if err := s.Service.WriteStatusFile(s.StatusFile); err != nil {
		slog.Error("snapshot write failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	resp := map[string]any{
		"path":    s.StatusFile,
		"blocks":  s.Service.Chain().Len(),
		"message": "snapshot written",
	}
	if s.DB != nil {
		if err := s.DB.SaveChain(s.Service.Chain().Blocks(0)); err != nil {
			slog.Error("chain save failed", "error", err)
			http.Error(w, "snapshot failed", http.StatusInternalServerError)
			return
		}
		resp["persisted"] = true
	}
	if s.Eng != nil {
		resp["tick"] = s.Eng.Tick()
	}
	writeJSON(w, resp)
}
