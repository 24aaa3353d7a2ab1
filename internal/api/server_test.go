package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicheai/luxbin/internal/ledger"
	"github.com/nicheai/luxbin/internal/network"
	"github.com/nicheai/luxbin/internal/persistence"
)

func newTestServer(t *testing.T, configure func(*Server)) (*Server, http.Handler) {
	t.Helper()
	svc := network.NewService(ledger.NewChain(), network.Options{Seed: 1})
	require.NoError(t, svc.Start(context.Background()))

	s := &Server{
		Service:    svc,
		AdminKey:   "admin-secret",
		StatusFile: filepath.Join(t.TempDir(), "status.json"),
	}
	if configure != nil {
		configure(s)
	}
	h := s.Handler()
	t.Cleanup(s.limiter.Close)
	return s, h
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRootAndHealth(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := do(t, h, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	root := decode(t, rec)
	assert.Equal(t, "operational", root["status"])
	assert.Equal(t, float64(68), root["alphabet_size"])
	assert.Contains(t, root["endpoints"], "translate")

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/nope", "", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodPost, "/", "", nil).Code)

	rec = do(t, h, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode(t, rec)
	assert.Equal(t, "healthy", health["status"])
	assert.Contains(t, health, "host")
}

func TestPhoton(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := do(t, h, http.MethodGet, "/v1/photon?wavelength=620", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode(t, rec)
	assert.InDelta(t, 4.8354e14, p["frequency_hz"], 1e11)
	assert.InDelta(t, 2.0, p["energy_ev"], 0.01)
	assert.Equal(t, "violet_sideband", p["nv_band"])
	assert.Equal(t, true, p["visible"])

	rec = do(t, h, http.MethodGet, "/v1/photon?frequency=4.706e14", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "zero_phonon", decode(t, rec)["nv_band"])

	for _, q := range []string{"", "?wavelength=1&frequency=2", "?wavelength=abc", "?wavelength=-5", "?frequency=0"} {
		assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/v1/photon"+q, "", nil).Code, q)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	_, h := newTestServer(t, nil)
	body := map[string]any{"text": "hi"}

	rec := do(t, h, http.MethodPost, "/v1/translate", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing Authorization")

	req := httptest.NewRequest(http.MethodPost, "/v1/translate", strings.NewReader(`{"text":"hi"}`))
	req.Header.Set("Authorization", "Token abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid Authorization format")

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/v1/translate", "wrong", body).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/v1/translate", DemoAPIKey, body).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/v1/translate", DemoAPIKey, nil).Code)
}

func TestConfiguredKeysReplaceDemoKey(t *testing.T) {
	_, h := newTestServer(t, func(s *Server) { s.APIKeys = []string{"k1", "k2"} })
	body := map[string]any{"text": "hi"}

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/v1/translate", DemoAPIKey, body).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/v1/translate", "k2", body).Code)
}

func TestTranslateFormats(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := do(t, h, http.MethodPost, "/v1/translate", DemoAPIKey, map[string]any{"text": "Hello World"})
	require.Equal(t, http.StatusOK, rec.Code)
	full := decode(t, rec)
	assert.Equal(t, true, full["quantum_mode"])
	show := full["light_show"].(map[string]any)
	assert.Equal(t, "HELLO WORLD", show["luxbin_text"])
	assert.Len(t, show["light_sequence"], 11)
	assert.NotNil(t, show["quantum_data"])
	first := show["light_sequence"].([]any)[0].(map[string]any)
	assert.Contains(t, first, "wavelength_nm")
	assert.Contains(t, first, "hsl")
	assert.NotContains(t, show, "satellite_operations")

	rec = do(t, h, http.MethodPost, "/v1/translate", DemoAPIKey, map[string]any{"text": "Hi", "enable_satellite": true})
	require.Equal(t, http.StatusOK, rec.Code)
	show = decode(t, rec)["light_show"].(map[string]any)
	assert.Len(t, show["satellite_operations"], 2)

	rec = do(t, h, http.MethodPost, "/v1/translate", DemoAPIKey, map[string]any{"text": "Hello World", "format": "summary", "enable_quantum": false})
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode(t, rec)
	assert.Equal(t, float64(11), summary["light_sequence_length"])
	assert.Equal(t, false, summary["nv_center_optimized"])

	rec = do(t, h, http.MethodPost, "/v1/translate", DemoAPIKey, map[string]any{"text": strings.Repeat("A", 25), "format": "compact"})
	require.Equal(t, http.StatusOK, rec.Code)
	compact := decode(t, rec)
	assert.Len(t, compact["light_sequence"], compactLimit)
	assert.Equal(t, float64(25), compact["total_length"])

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/v1/translate", DemoAPIKey, map[string]any{"text": "x", "format": "xml"}).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/v1/translate", DemoAPIKey, map[string]any{"text": "  "}).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/v1/translate", DemoAPIKey, "{not json").Code)
}

func TestTranslateFallsBackToBytes(t *testing.T) {
	_, h := newTestServer(t, nil)
	rec := do(t, h, http.MethodPost, "/v1/translate", DemoAPIKey, map[string]any{"text": "ééé"})
	require.Equal(t, http.StatusOK, rec.Code)
	show := decode(t, rec)["light_show"].(map[string]any)
	assert.NotEmpty(t, show["light_sequence"])
}

func TestQuantumEncode(t *testing.T) {
	_, h := newTestServer(t, nil)
	rec := do(t, h, http.MethodPost, "/v1/quantum/encode", DemoAPIKey, map[string]any{"text": "A B"})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)

	assert.Equal(t, "diamond", out["nv_center_type"])
	nv := out["nv_transitions"].(map[string]any)
	assert.Equal(t, float64(1), nv["zero_phonon_count"])
	assert.Equal(t, float64(2), nv["violet_sideband_count"])
	instr := out["programming_instructions"].(map[string]any)
	assert.Equal(t, "3 pulses", instr["pulse_sequence"])
	assert.Equal(t, "300μs", instr["estimated_storage_time"])
}

func TestIonTrap(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := do(t, h, http.MethodPost, "/v1/quantum/ion-trap", DemoAPIKey, map[string]any{"command": "A A"})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, float64(2), out["total_operations"])
	op := out["ion_operations"].([]any)[0].(map[string]any)
	assert.Equal(t, "calcium_40", op["ion_type"])
	assert.InDelta(t, 0.2, out["execution_time"], 1e-9)

	rec = do(t, h, http.MethodPost, "/v1/quantum/ion-trap", DemoAPIKey, map[string]any{"command": "A", "ion_type": "rubidium_87"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decode(t, rec)["total_operations"])

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/v1/quantum/ion-trap", DemoAPIKey, map[string]any{"command": "A", "ion_type": "unobtainium"}).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/v1/quantum/ion-trap", DemoAPIKey, map[string]any{"command": ""}).Code)
}

func TestBinaryEncode(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := do(t, h, http.MethodPost, "/v1/binary/encode", DemoAPIKey, map[string]any{"binary_data": "41414141414141414141"})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, float64(10), out["original_size"])
	assert.Equal(t, float64(2), out["compressed_size"])
	assert.Equal(t, float64(5), out["compression_ratio"])
	assert.NotNil(t, out["quantum_data"])

	rec = do(t, h, http.MethodPost, "/v1/binary/encode", DemoAPIKey, "{\"binary_data\":\"zz\"}")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid hex")

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/v1/binary/encode", DemoAPIKey, map[string]any{"binary_data": ""}).Code)
}

func TestSatellite(t *testing.T) {
	_, h := newTestServer(t, nil)
	rec := do(t, h, http.MethodPost, "/v1/satellite/transmit", DemoAPIKey, map[string]any{"data": "A1"})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "global", out["region"])
	assert.Equal(t, float64(2), out["total_operations"])
	assert.Equal(t, true, out["global_coverage"])
}

func TestLuxbinEncodeDecode(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := do(t, h, http.MethodPost, "/v1/luxbin/encode", DemoAPIKey, map[string]any{"text": "Hi!"})
	require.Equal(t, http.StatusOK, rec.Code)
	enc := decode(t, rec)
	assert.Equal(t, "HI!", enc["luxbin_text"])
	assert.Equal(t, []any{float64(7), float64(8), float64(39)}, enc["indices"])
	assert.Len(t, enc["binary"], 21)

	rec = do(t, h, http.MethodPost, "/v1/luxbin/decode", DemoAPIKey, map[string]any{"binary": enc["binary"]})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HI!", decode(t, rec)["text"])

	rec = do(t, h, http.MethodPost, "/v1/luxbin/decode", DemoAPIKey, map[string]any{"indices": []int{7, 8}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HI", decode(t, rec)["text"])

	rec = do(t, h, http.MethodPost, "/v1/luxbin/encode", DemoAPIKey, map[string]any{"hex": "deadbeef"})
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decode(t, rec)["payload"]
	rec = do(t, h, http.MethodPost, "/v1/luxbin/decode", DemoAPIKey, map[string]any{"payload": payload})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "deadbeef", decode(t, rec)["hex"])

	for _, body := range []map[string]any{
		{"indices": []int{99}},
		{"binary": "101"},
		{"binary": "0000000", "indices": []int{1}},
		{},
	} {
		assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/v1/luxbin/decode", DemoAPIKey, body).Code, body)
	}
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/v1/luxbin/encode", DemoAPIKey, map[string]any{"text": "a", "hex": "00"}).Code)
}

func TestMorseEncode(t *testing.T) {
	_, h := newTestServer(t, nil)
	rec := do(t, h, http.MethodPost, "/v1/morse/encode", DemoAPIKey, map[string]any{"text": "sos"})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "SOS", out["luxbin_text"])
	// Three symbols, two intra gaps each, two symbol gaps.
	assert.Len(t, out["pulses"], 17)
	assert.Equal(t, float64(135), out["stats"].(map[string]any)["total_ms"])

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/v1/morse/encode", DemoAPIKey, map[string]any{"text": "ééé"}).Code)
}

func TestRateLimit(t *testing.T) {
	_, h := newTestServer(t, func(s *Server) { s.RatePerMin = 2 })
	body := map[string]any{"text": "a"}

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/v1/luxbin/encode", DemoAPIKey, body).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/v1/luxbin/encode", DemoAPIKey, body).Code)
	rec := do(t, h, http.MethodPost, "/v1/luxbin/encode", DemoAPIKey, body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Public endpoints are not limited.
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/status", "", nil).Code)
}

func TestStatusAndBlocks(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := do(t, h, http.MethodGet, "/api/v1/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode(t, rec)
	for _, key := range []string{"network", "blockchain", "quantum", "timestamp", "_mock"} {
		assert.Contains(t, st, key)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/blocks?limit=5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, float64(1), out["total"])
	assert.Len(t, out["blocks"], 1)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/blocks?limit=0", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/blocks?limit=x", "", nil).Code)
}

func TestAdminDisabled(t *testing.T) {
	_, h := newTestServer(t, func(s *Server) { s.AdminKey = "" })
	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodPost, "/api/v1/mine", "anything", nil).Code)
}

func TestMine(t *testing.T) {
	db, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	defer db.Close()

	s, h := newTestServer(t, func(s *Server) { s.DB = db })

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/api/v1/mine", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/api/v1/mine", "nope", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/api/v1/mine", "admin-secret", nil).Code)

	rec := do(t, h, http.MethodPost, "/api/v1/mine", "admin-secret", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), decode(t, rec)["number"])
	assert.Equal(t, 2, s.Service.Chain().Len())

	stored, err := db.RecentBlocks(1)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, uint64(2), stored[0].Number)
}

func TestSnapshot(t *testing.T) {
	s, h := newTestServer(t, nil)

	rec := do(t, h, http.MethodPost, "/api/v1/snapshot", "admin-secret", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data, err := os.ReadFile(s.StatusFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "photomicCommunication")

	_, h = newTestServer(t, func(s *Server) { s.StatusFile = "" })
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodPost, "/api/v1/snapshot", "admin-secret", nil).Code)
}

func TestCORS(t *testing.T) {
	_, h := newTestServer(t, func(s *Server) { s.CORSOrigins = []string{"https://dash.example"} })

	req := httptest.NewRequest(http.MethodOptions, "/v1/translate", nil)
	req.Header.Set("Origin", "https://dash.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://dash.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	assert.Equal(t, "10.0.0.7", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(req))
}

func TestWriteJSONEncodingFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, map[string]any{"frequency_hz": math.Inf(1)})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEqual(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "response encoding failed")
}

func TestPhotonOverflowIsRejected(t *testing.T) {
	_, h := newTestServer(t, nil)
	for _, q := range []string{"?wavelength=1e-300", "?frequency=1e-300"} {
		rec := do(t, h, http.MethodGet, "/v1/photon"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		assert.NotEmpty(t, rec.Body.String(), q)
	}
}
