// Command luxbin is the LUXBIN command-line tool: it runs the codec
// locally and inspects a running luxbind daemon or its database.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	apiURL   string
	adminKey string
	timeout  time.Duration
	jsonOut  bool
	verbose  bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "luxbin",
		Short:         "LUXBIN light language codec and network tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	root.PersistentFlags().StringVar(&opts.apiURL, "api", envOr("LUXBIN_API_URL", "http://localhost:8080"), "luxbind API base URL")
	root.PersistentFlags().StringVar(&opts.adminKey, "admin-key", os.Getenv("LUXBIN_ADMIN_KEY"), "admin bearer token")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "network operation timeout")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "print JSON instead of text")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newPhotonCmd(opts),
		newEncodeCmd(opts),
		newDecodeCmd(opts),
		newMorseCmd(opts),
		newCombCmd(opts),
		newStatusCmd(opts),
		newBlocksCmd(opts),
		newMineCmd(opts),
		newChainCmd(opts),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
