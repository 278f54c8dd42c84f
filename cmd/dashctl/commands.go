package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/lumina-dashboard/internal/market"
	"github.com/lumina-dashboard/internal/models"
	"github.com/lumina-dashboard/internal/portfolio"
	"github.com/lumina-dashboard/internal/storage"
	"github.com/spf13/cobra"
)

func snapshotCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Print the seeded market and the portfolio summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := newSession(cmd, opts, nil)
			if err != nil {
				return err
			}
			assets, gas := session.Store.State()
			summary, err := portfolio.Summarize(assets)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(out, map[string]interface{}{
					"assets":    assets,
					"gasPrice":  gas,
					"portfolio": summary,
				})
			}
			if err := printAssets(out, assets, gas); err != nil {
				return err
			}
			fmt.Fprintln(out)
			return printSummary(out, summary)
		},
	}
}

func simulateCmd(opts *rootOptions) *cobra.Command {
	var (
		ticks int
		seed  uint64
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run simulator ticks back to back and print the final market",
		Long: `Run N simulator ticks without waiting for the tick interval and print
the resulting snapshot. With --rand-seed the run is reproducible.

Examples:
  dashctl simulate --ticks 30
  dashctl simulate --ticks 1000 --rand-seed 42 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ticks < 0 {
				return fmt.Errorf("--ticks must not be negative")
			}

			var random market.RandomSource
			if cmd.Flags().Changed("rand-seed") {
				random = market.NewSeededRandom(seed)
			}
			session, err := newSession(cmd, opts, random)
			if err != nil {
				return err
			}

			var last models.MarketTick
			for i := 0; i < ticks; i++ {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				last = session.Simulator.Tick(cmd.Context())
			}
			assets, gas := session.Store.State()

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(out, map[string]interface{}{
					"ticks":    last.Sequence,
					"assets":   assets,
					"gasPrice": gas,
					"total":    portfolio.TotalBalance(assets),
				})
			}
			fmt.Fprintf(out, "After %d ticks:\n\n", last.Sequence)
			if err := printAssets(out, assets, gas); err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "Total balance: %s\n", usd(portfolio.TotalBalance(assets)))
			return err
		},
	}
	cmd.Flags().IntVarP(&ticks, "ticks", "n", 10, "Number of ticks to run")
	cmd.Flags().Uint64Var(&seed, "rand-seed", 0, "Seed for a reproducible random source")
	return cmd
}

func quoteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "quote FROM TO AMOUNT",
		Short: "Quote a swap at seeded prices",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[2], err)
			}
			session, err := newSession(cmd, opts, nil)
			if err != nil {
				return err
			}

			q, err := session.Quoter.Quote(args[0], args[1], amount)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(out, q)
			}
			_, err = fmt.Fprintf(out, "1 %s = %s %s\n%s %s -> %s %s\n",
				q.From, q.RateDisplay, q.To, args[2], q.From, q.ReceiveDisplay, q.To)
			return err
		},
	}
}

func transactionsCmd(opts *rootOptions) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List the activity log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := newSession(cmd, opts, nil)
			if err != nil {
				return err
			}
			txs, err := session.Ledger.Filter(kind)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(out, txs)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tASSET\tAMOUNT\tTO\tSTATUS\tDATE")
			for _, tx := range txs {
				to := "-"
				if tx.ToAsset != nil && tx.ToAmount != nil {
					to = fmt.Sprintf("%g %s", *tx.ToAmount, *tx.ToAsset)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%s\t%s\t%s\n",
					tx.ID, tx.Type, tx.Asset, tx.Amount, to, tx.Status, tx.Date)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&kind, "type", "t", "all", "Filter by type (all|send|receive|swap|stake)")
	return cmd
}

func askCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask PROMPT...",
		Short: "Ask the advisor one question about the seeded portfolio",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := newSession(cmd, opts, nil)
			if err != nil {
				return err
			}
			reply, err := session.Advisor.Chat(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(out, reply)
			}
			_, err = fmt.Fprintln(out, reply.Text)
			return err
		},
	}
}

func watchCmd(opts *rootOptions) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow ticks a running server publishes to Redis",
		Long: `Subscribe to the tick channel of a server started with REDIS_ENABLED=true
and print one line per tick. Redis connection settings come from the
same REDIS_* environment variables the server reads.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			cache, err := storage.NewRedisCache(&cfg.Redis)
			if err != nil {
				return err
			}
			defer cache.Close()

			sub, err := storage.SubscribeTicks(cmd.Context(), cache, cfg.Redis.TickChannel)
			if err != nil {
				return err
			}
			defer sub.Close()

			return printTicks(cmd, sub.Ticks(), count, opts.jsonOut)
		},
	}
	cmd.Flags().IntVarP(&count, "count", "c", 0, "Stop after this many ticks (0 = until interrupted)")
	return cmd
}

// printTicks writes one line per tick until the channel closes, the context
// ends or count ticks were printed.
func printTicks(cmd *cobra.Command, ticks <-chan models.MarketTick, count int, jsonOut bool) error {
	out := cmd.OutOrStdout()
	seen := 0
	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case tick, ok := <-ticks:
			if !ok {
				return nil
			}
			if jsonOut {
				if err := writeJSON(out, tick); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "#%d %s gas=%d total=%s\n",
					tick.Sequence, tick.At.Format("15:04:05"), tick.GasPrice, usd(portfolio.TotalBalance(tick.Assets)))
			}
			seen++
			if count > 0 && seen >= count {
				return nil
			}
		}
	}
}
