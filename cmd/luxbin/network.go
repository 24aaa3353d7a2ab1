package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nicheai/luxbin/internal/client"
	"github.com/nicheai/luxbin/internal/ledger"
	"github.com/nicheai/luxbin/internal/persistence"
)

func (o *options) client(cmd *cobra.Command) (*client.Client, context.Context, context.CancelFunc) {
	c := client.New(o.apiURL)
	c.AdminKey = o.adminKey
	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	return c, ctx, cancel
}

func newStatusCmd(opts *options) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the network status of a running luxbind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel := opts.client(cmd)
			defer cancel()
			if wait {
				if err := c.WaitReady(ctx); err != nil {
					return err
				}
			}
			st, err := c.Status(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return printJSON(out, st)
			}
			fmt.Fprintf(out, "network     %s (%d validators, consensus %d)\n",
				st.Network.Status, st.Network.TotalValidators, st.Network.ConsensusThreshold)
			fmt.Fprintf(out, "blocks      %s (%s transactions, %d pending)\n",
				humanize.Comma(int64(st.Blockchain.TotalBlocks)),
				humanize.Comma(int64(st.Blockchain.TotalTransactions)),
				st.Blockchain.PendingTransactions)
			fmt.Fprintf(out, "qubits      %s\n", humanize.Comma(int64(st.Quantum.TotalQubitsAvailable)))
			fmt.Fprintf(out, "jobs        %d active, %s completed\n",
				st.Quantum.ActiveJobs, humanize.Comma(int64(st.Quantum.CompletedJobs)))
			if lb := st.Blockchain.LatestBlock; lb != nil {
				fmt.Fprintf(out, "latest      #%d by %s, %s (%s)\n",
					lb.Number, lb.MiningBackend, humanize.Time(lb.Timestamp), lb.Hash[:16])
			}
			if st.Mock {
				fmt.Fprintln(out, "mode        simulated")
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "\nVALIDATOR\tLOCATION\tQUBITS\tQUEUE\tSTATUS")
			for _, v := range st.Network.Validators {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", v.Name, v.Location, v.Qubits, v.Queue, v.Status)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the daemon to become ready")
	return cmd
}

func newBlocksCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "blocks",
		Short: "List the newest blocks of a running luxbind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel := opts.client(cmd)
			defer cancel()
			page, err := c.Blocks(ctx, limit)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(cmd.OutOrStdout(), page)
			}
			return printBlocks(cmd, page.Blocks)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of blocks to show")
	return cmd
}

func newMineCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "Mine a block now (requires --admin-key)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.adminKey == "" {
				return errors.New("--admin-key or LUXBIN_ADMIN_KEY is required")
			}
			c, ctx, cancel := opts.client(cmd)
			defer cancel()
			b, err := c.Mine(ctx)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(cmd.OutOrStdout(), b)
			}
			return printBlocks(cmd, []ledger.Block{*b})
		},
	}
}

func newChainCmd(opts *options) *cobra.Command {
	chain := &cobra.Command{
		Use:   "chain",
		Short: "Inspect a luxbind database offline",
	}

	var dbPath string
	verify := &cobra.Command{
		Use:   "verify",
		Short: "Check block numbering, links and hashes in a database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(dbPath); err != nil {
				return fmt.Errorf("database %s: %w", dbPath, err)
			}
			db, err := persistence.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			blocks, err := db.LoadChain()
			if err != nil {
				return err
			}
			c := ledger.NewChain()
			if err := c.Restore(blocks); err != nil {
				return fmt.Errorf("chain invalid: %w", err)
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return printJSON(out, map[string]any{
					"valid":        true,
					"blocks":       c.Len(),
					"transactions": c.TotalTransactions(),
				})
			}
			fmt.Fprintf(out, "chain valid: %s blocks, %s transactions\n",
				humanize.Comma(int64(c.Len())), humanize.Comma(int64(c.TotalTransactions())))
			return nil
		},
	}
	verify.Flags().StringVar(&dbPath, "db", envOr("LUXBIN_DB", "data/luxbin.db"), "path to the luxbind database")

	chain.AddCommand(verify)
	return chain
}

func printBlocks(cmd *cobra.Command, blocks []ledger.Block) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NUMBER\tMINER\tTXS\tNONCE\tCONSENSUS\tMINED\tHASH")
	for _, b := range blocks {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d/%d\t%s\t%s\n",
			b.Number, b.Miner, b.Transactions, b.QuantumNonce,
			b.Consensus.Valid, b.Consensus.Total,
			humanize.Time(b.Timestamp), b.Hash[:16])
	}
	return tw.Flush()
}
