// Command luxbind runs the LUXBIN quantum network daemon: it maintains the
// validator roster and block chain, writes the dashboard status file on
// every tick, and serves the codec and network HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nicheai/luxbin/internal/api"
	"github.com/nicheai/luxbin/internal/config"
	"github.com/nicheai/luxbin/internal/engine"
	"github.com/nicheai/luxbin/internal/entropy"
	"github.com/nicheai/luxbin/internal/ledger"
	"github.com/nicheai/luxbin/internal/network"
	"github.com/nicheai/luxbin/internal/persistence"
)

const metaLastTick = "last_tick"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "luxbind",
	Short:         "Run the LUXBIN quantum network daemon",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "luxbin.yaml", "path to the YAML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("luxbind failed", "error", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	slog.SetDefault(cfg.Logging.NewLogger(os.Stdout))
	slog.Info("LUXBIN quantum network starting", "config", configPath, "version", api.Version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	db, err := persistence.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.Storage.DBPath)

	chain := ledger.NewChain()
	var startTick uint64
	fresh := !db.HasChain()
	if !fresh {
		blocks, err := db.LoadChain()
		if err != nil {
			return err
		}
		if err := chain.Restore(blocks); err != nil {
			return fmt.Errorf("restore chain: %w", err)
		}
		if v, err := db.GetMeta(metaLastTick); err == nil {
			if t, err := strconv.ParseUint(v, 10, 64); err == nil {
				startTick = t
			}
		}
		slog.Info("chain restored",
			"blocks", humanize.Comma(int64(chain.Len())),
			"transactions", humanize.Comma(int64(chain.TotalTransactions())),
			"tick", startTick,
		)
	} else {
		slog.Info("no saved chain found, starting fresh")
	}

	rng := entropy.NewClient(cfg.Entropy.RandomOrgAPIKey)
	if rng.Enabled() {
		slog.Info("random.org entropy enabled")
	} else {
		slog.Info("RANDOM_ORG_API_KEY not set, using crypto/rand")
	}

	svc := network.NewService(chain, network.Options{
		Prober: network.CredentialProber{Creds: cfg.Providers},
		Source: rng,
		Seed:   cfg.Service.Seed,
	})
	if err := svc.Start(ctx); err != nil {
		return err
	}
	if fresh {
		if err := db.SaveBlock(chain.Latest()); err != nil {
			slog.Error("genesis save failed", "error", err)
		}
	}

	eng := engine.NewEngine()
	eng.Interval = cfg.Service.Interval
	eng.BlockEvery = cfg.Service.BlockEvery
	eng.SetTick(startTick)

	eng.OnTick = func(tick uint64) {
		svc.Tick(tick)
		if cfg.Service.StatusFile != "" {
			if err := svc.WriteStatusFile(cfg.Service.StatusFile); err != nil {
				slog.Error("status write failed", "error", err)
			}
		}
		if err := db.SaveMeta(metaLastTick, strconv.FormatUint(tick, 10)); err != nil {
			slog.Error("tick save failed", "error", err)
		}
	}
	eng.OnBlock = func(tick uint64) {
		b, err := svc.MineBlock()
		if err != nil {
			slog.Error("mining failed", "tick", tick, "error", err)
			return
		}
		if err := db.SaveBlock(b); err != nil {
			slog.Error("block save failed", "number", b.Number, "error", err)
		}
	}

	if cfg.Server.AdminKey == "" {
		slog.Warn("LUXBIN_ADMIN_KEY not set, admin POST endpoints will be disabled")
	}
	apiServer := &api.Server{
		Service:     svc,
		Eng:         eng,
		DB:          db,
		Port:        cfg.Server.Port,
		APIKeys:     cfg.Server.APIKeys,
		AdminKey:    cfg.Server.AdminKey,
		CORSOrigins: cfg.Server.CORSOrigins,
		RatePerMin:  cfg.Server.RatePerMin,
		StatusFile:  cfg.Service.StatusFile,
	}
	apiServer.Start()

	st := svc.Status()
	fmt.Printf("\nLUXBIN network is %s: %d validators, %s qubits, %d blocks. API on :%d\n\n",
		st.Network.Status,
		st.Network.TotalValidators,
		humanize.Comma(int64(st.Quantum.TotalQubitsAvailable)),
		st.Blockchain.TotalBlocks,
		cfg.Server.Port,
	)

	eng.Run(ctx)

	// Final save.
	slog.Info("saving chain before exit...")
	var errs []error
	if err := db.SaveChain(chain.Blocks(0)); err != nil {
		errs = append(errs, fmt.Errorf("final chain save: %w", err))
	}
	if err := db.SaveMeta(metaLastTick, strconv.FormatUint(eng.Tick(), 10)); err != nil {
		errs = append(errs, fmt.Errorf("final tick save: %w", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	slog.Info("LUXBIN network stopped",
		"tick", eng.Tick(),
		"blocks", humanize.Comma(int64(chain.Len())),
	)
	return nil
}
