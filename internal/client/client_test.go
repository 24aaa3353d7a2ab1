package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicheai/luxbin/internal/api"
	"github.com/nicheai/luxbin/internal/ledger"
	"github.com/nicheai/luxbin/internal/network"
)

func newDaemon(t *testing.T) (*network.Service, *httptest.Server) {
	t.Helper()
	svc := network.NewService(ledger.NewChain(), network.Options{Seed: 3})
	require.NoError(t, svc.Start(context.Background()))

	srv := &api.Server{
		Service:    svc,
		AdminKey:   "admin",
		StatusFile: filepath.Join(t.TempDir(), "status.json"),
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Shutdown(context.Background())
	})
	return svc, ts
}

func TestStatusAndBlocks(t *testing.T) {
	svc, ts := newDaemon(t)
	c := New(ts.URL + "/")
	ctx := context.Background()

	st, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "online", st.Network.Status)
	assert.Equal(t, 1, st.Blockchain.TotalBlocks)
	require.NotNil(t, st.Blockchain.LatestBlock)
	assert.Equal(t, svc.Chain().Latest().Hash, st.Blockchain.LatestBlock.Hash)

	_, err = svc.MineBlock()
	require.NoError(t, err)

	page, err := c.Blocks(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Blocks, 1)
	assert.Equal(t, uint64(2), page.Blocks[0].Number)
}

func TestAdminCalls(t *testing.T) {
	svc, ts := newDaemon(t)
	ctx := context.Background()

	c := New(ts.URL)
	_, err := c.Mine(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	c.AdminKey = "admin"
	b, err := c.Mine(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), b.Number)
	assert.Equal(t, b.ComputeHash(), b.Hash)
	assert.Equal(t, 2, svc.Chain().Len())

	snap, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Blocks)
	assert.FileExists(t, snap.Path)
}

func TestWaitReadyRetries(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer ts.Close()

	c := New(ts.URL)
	c.InitialBackoff = time.Millisecond
	c.MaxBackoff = 2 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.WaitReady(ctx))
	assert.Equal(t, int32(3), calls.Load())
}

func TestWaitReadyHonoursContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c := New(ts.URL)
	c.InitialBackoff = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := c.WaitReady(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestErrorBodyIsReported(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
	}))
	defer ts.Close()

	_, err := New(ts.URL).Blocks(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "limit must be a positive integer")
}
