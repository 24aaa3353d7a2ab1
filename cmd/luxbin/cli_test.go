package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicheai/luxbin/internal/api"
	"github.com/nicheai/luxbin/internal/ledger"
	"github.com/nicheai/luxbin/internal/network"
	"github.com/nicheai/luxbin/internal/persistence"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPhotonCmd(t *testing.T) {
	out, err := execute(t, "photon", "--wavelength", "637")
	require.NoError(t, err)
	assert.Contains(t, out, "zero_phonon")
	assert.Contains(t, out, "THz")

	_, err = execute(t, "photon")
	assert.Error(t, err)
	_, err = execute(t, "photon", "--wavelength", "500", "--frequency", "1e14")
	assert.Error(t, err)
	_, err = execute(t, "photon", "--wavelength", "-1")
	assert.Error(t, err)
}

func TestEncodeDecodeCmd(t *testing.T) {
	out, err := execute(t, "--json", "encode", "hello", "world")
	require.NoError(t, err)
	var enc struct {
		Text   string `json:"luxbin_text"`
		Binary string `json:"binary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &enc))
	assert.Equal(t, "HELLO WORLD", enc.Text)

	out, err = execute(t, "decode", enc.Binary)
	require.NoError(t, err)
	assert.Equal(t, "HELLO WORLD\n", out)

	out, err = execute(t, "decode", "--indices", "7,8")
	require.NoError(t, err)
	assert.Equal(t, "HI\n", out)

	_, err = execute(t, "decode", "10101")
	assert.Error(t, err)
	_, err = execute(t, "decode")
	assert.Error(t, err)
}

func TestEncodeHexPayloadRoundTrip(t *testing.T) {
	payload, err := execute(t, "encode", "--hex", "00ff10")
	require.NoError(t, err)

	out, err := execute(t, "decode", "--payload", strings.TrimSpace(payload))
	require.NoError(t, err)
	assert.Equal(t, "00ff10\n", out)

	_, err = execute(t, "encode", "--hex", "xyz")
	assert.Error(t, err)
}

func TestMorseAndCombCmd(t *testing.T) {
	out, err := execute(t, "morse", "sos")
	require.NoError(t, err)
	assert.Contains(t, out, "9 pulses, 135 ms")

	out, err = execute(t, "comb", "550", "--lines", "4", "--element", "dash")
	require.NoError(t, err)
	assert.Contains(t, out, "efficiency")
	assert.Equal(t, 1+5+2, strings.Count(out, "\n"))

	_, err = execute(t, "comb", "550", "--element", "blink")
	assert.Error(t, err)

	_, err = execute(t, "comb", "500", "--lines", "-5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--lines")
}

func TestNetworkCmds(t *testing.T) {
	svc := network.NewService(ledger.NewChain(), network.Options{Seed: 9})
	require.NoError(t, svc.Start(context.Background()))
	srv := &api.Server{Service: svc, AdminKey: "admin"}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Shutdown(context.Background())
	})

	out, err := execute(t, "--api", ts.URL, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "online")
	assert.Contains(t, out, "803")
	assert.Contains(t, out, "ibm_fez")

	_, err = execute(t, "--api", ts.URL, "--admin-key", "", "mine")
	assert.Error(t, err)

	out, err = execute(t, "--api", ts.URL, "--admin-key", "admin", "mine")
	require.NoError(t, err)
	assert.Contains(t, out, "NUMBER")
	assert.Equal(t, 2, svc.Chain().Len())

	out, err = execute(t, "--api", ts.URL, "--json", "blocks", "-n", "5")
	require.NoError(t, err)
	var page struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 2, page.Total)
}

func TestChainVerifyCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chain.db")
	db, err := persistence.Open(path)
	require.NoError(t, err)

	chain := ledger.NewChain()
	for i := 0; i < 3; i++ {
		_, err := chain.Append("ibm_fez", uint8(i), nil)
		require.NoError(t, err)
	}
	require.NoError(t, db.SaveChain(chain.Blocks(0)))
	require.NoError(t, db.Close())

	out, err := execute(t, "chain", "verify", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "chain valid: 3 blocks")

	db, err = persistence.Open(path)
	require.NoError(t, err)
	tampered := chain.Latest()
	tampered.Miner = "ionq_aria"
	require.NoError(t, db.SaveBlock(tampered))
	require.NoError(t, db.Close())

	_, err = execute(t, "chain", "verify", "--db", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrHashMismatch)

	_, err = execute(t, "chain", "verify", "--db", filepath.Join(t.TempDir(), "missing.db"))
	assert.Error(t, err)
}
