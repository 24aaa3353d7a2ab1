// Package api provides the HTTP API for the LUXBIN codec and the quantum
// network. Codec endpoints under /v1 require an API key. Network GET
// endpoints are public; POST endpoints require the admin bearer token.
package api

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/nicheai/luxbin/internal/engine"
	"github.com/nicheai/luxbin/internal/lightshow"
	"github.com/nicheai/luxbin/internal/luxbin"
	"github.com/nicheai/luxbin/internal/morse"
	"github.com/nicheai/luxbin/internal/network"
	"github.com/nicheai/luxbin/internal/persistence"
	"github.com/nicheai/luxbin/internal/photon"
)

const (
	Version    = "1.0.0"
	DemoAPIKey = "demo_key_for_testing"

	maxBodyBytes = 1 << 20
)

// Server serves the codec and network state over HTTP.
type Server struct {
	Service     *network.Service
	Eng         *engine.Engine
	DB          *persistence.DB // optional
	Port        int
	APIKeys     []string // Bearer tokens for /v1 endpoints. Empty = demo key only.
	AdminKey    string   // Bearer token for POST endpoints. Empty = POST disabled.
	CORSOrigins []string
	RatePerMin  int
	StatusFile  string // Target of /api/v1/snapshot. Empty = snapshot disabled.

	started time.Time
	keys    map[string]bool
	limiter *RateLimiter
	http    *http.Server
}

// Handler builds the routed handler. It is called by Start and may be used
// directly in tests.
func (s *Server) Handler() http.Handler {
	s.started = time.Now()
	s.keys = make(map[string]bool, len(s.APIKeys))
	for _, k := range s.APIKeys {
		s.keys[k] = true
	}
	if len(s.keys) == 0 {
		slog.Warn("no API keys configured, accepting the demo key", "key", DemoAPIKey)
		s.keys[DemoAPIKey] = true
	}
	rate := s.RatePerMin
	if rate <= 0 {
		rate = 60
	}
	if s.limiter != nil {
		s.limiter.Close()
	}
	s.limiter = NewRateLimiter(rate, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/photon", s.handlePhoton)
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/blocks", s.handleBlocks)

	// Codec endpoints (POST, require an API key, rate limited).
	mux.HandleFunc("/v1/translate", s.codec(s.handleTranslate))
	mux.HandleFunc("/v1/quantum/encode", s.codec(s.handleQuantumEncode))
	mux.HandleFunc("/v1/quantum/ion-trap", s.codec(s.handleIonTrap))
	mux.HandleFunc("/v1/binary/encode", s.codec(s.handleBinaryEncode))
	mux.HandleFunc("/v1/satellite/transmit", s.codec(s.handleSatellite))
	mux.HandleFunc("/v1/luxbin/encode", s.codec(s.handleLuxbinEncode))
	mux.HandleFunc("/v1/luxbin/decode", s.codec(s.handleLuxbinDecode))
	mux.HandleFunc("/v1/morse/encode", s.codec(s.handleMorseEncode))

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/mine", postOnly(s.adminOnly(s.handleMine)))
	mux.HandleFunc("/api/v1/snapshot", postOnly(s.adminOnly(s.handleSnapshot)))

	return corsMiddleware(s.CORSOrigins, mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "api_keys", len(s.keys))

	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops the server started by Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Close()
	}
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed; "*" allows any origin.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range origins {
		allowedOrigins[origin] = true
	}
	wildcard := allowedOrigins["*"]

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (wildcard || allowedOrigins[origin]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(auth, "Bearer "), true
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	token, ok := bearerToken(r)
	return ok && subtle.ConstantTimeCompare([]byte(token), []byte(s.AdminKey)) == 1
}

// adminOnly wraps a handler to require the admin bearer token.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no LUXBIN_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// apiKeyOnly wraps a handler to require a configured API key.
func (s *Server) apiKeyOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			http.Error(w, "missing Authorization header", http.StatusUnauthorized)
			return
		}
		token, ok := bearerToken(r)
		if !ok {
			http.Error(w, "invalid Authorization format, use: Bearer <api_key>", http.StatusUnauthorized)
			return
		}
		if !s.keys[token] {
			http.Error(w, "invalid API key", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// codec chains the method check, API key check and rate limit.
func (s *Server) codec(next http.HandlerFunc) http.HandlerFunc {
	return postOnly(s.apiKeyOnly(RateLimitMiddleware(s.limiter, next)))
}

func postOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func getOnly(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !getOnly(w, r) {
		return
	}
	writeJSON(w, map[string]any{
		"name":              "LUXBIN Light Language API",
		"version":           Version,
		"description":       "Universal Quantum Communication Protocol",
		"quantum_optimized": true,
		"nv_center_ready":   true,
		"alphabet_size":     luxbin.Size,
		"endpoints": map[string]string{
			"photon":         "/v1/photon",
			"translate":      "/v1/translate",
			"quantum_encode": "/v1/quantum/encode",
			"ion_trap":       "/v1/quantum/ion-trap",
			"binary":         "/v1/binary/encode",
			"satellite":      "/v1/satellite/transmit",
			"luxbin_encode":  "/v1/luxbin/encode",
			"luxbin_decode":  "/v1/luxbin/decode",
			"morse":          "/v1/morse/encode",
			"status":         "/api/v1/status",
			"blocks":         "/api/v1/blocks",
		},
		"status": "operational",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !getOnly(w, r) {
		return
	}
	host := map[string]any{}
	if usage, err := cpu.Percent(0, false); err == nil && len(usage) > 0 {
		host["cpu_percent"] = usage[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		host["mem_used_percent"] = vm.UsedPercent
		host["mem_total_bytes"] = vm.Total
	}

	resp := map[string]any{
		"status":          "healthy",
		"timestamp":       unixSeconds(time.Now()),
		"quantum_systems": "operational",
		"uptime_s":        time.Since(s.started).Seconds(),
		"host":            host,
	}
	if s.Eng != nil {
		resp["engine_tick"] = s.Eng.Tick()
		resp["engine_running"] = s.Eng.Running()
	}
	writeJSON(w, resp)
}

// writeJSON encodes data before writing so an encoding failure becomes a
// 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, data any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Error("response encoding failed", "error", err)
		http.Error(w, "response encoding failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(buf.Bytes())
}

// decodeBody reads a JSON request body into dst. It writes a 400 and
// returns false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// writeError maps codec errors to 400 and everything else to 500.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, luxbin.ErrUnknownSymbol),
		errors.Is(err, luxbin.ErrOutOfRange),
		errors.Is(err, luxbin.ErrInvalidBits),
		errors.Is(err, photon.ErrInvalidWavelength),
		errors.Is(err, photon.ErrInvalidFrequency),
		errors.Is(err, lightshow.ErrEmpty),
		errors.Is(err, morse.ErrMalformed):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		slog.Error(op+" failed", "error", err)
		http.Error(w, op+" failed", http.StatusInternalServerError)
	}
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
