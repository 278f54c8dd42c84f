package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Rhymond/go-money"
	"github.com/lumina-dashboard/internal/config"
	"github.com/lumina-dashboard/internal/dashboard"
	"github.com/lumina-dashboard/internal/logging"
	"github.com/lumina-dashboard/internal/market"
	"github.com/lumina-dashboard/internal/models"
	"github.com/lumina-dashboard/internal/portfolio"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	seedFile string
	jsonOut  bool
	verbose  bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "dashctl",
		Short:         "Inspect and drive the simulated Lumina dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.seedFile, "seed-file", "", "YAML seed file (default: embedded seed)")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "Print JSON instead of tables")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log component activity to stderr")

	root.AddCommand(
		snapshotCmd(opts),
		simulateCmd(opts),
		quoteCmd(opts),
		transactionsCmd(opts),
		askCmd(opts),
		watchCmd(opts),
	)
	return root
}

// newSession builds a session from the environment. Background loops are
// never started; commands drive the simulator explicitly.
func newSession(cmd *cobra.Command, opts *rootOptions, random market.RandomSource) (*dashboard.Session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	logger := logging.Discard()
	if opts.verbose {
		logger = logging.NewLogger(logging.LevelDebug, logging.FormatText)
		logger.SetOutput(cmd.ErrOrStderr())
	}

	session, err := dashboard.New(cmd.Context(), dashboard.Options{
		Config: cfg,
		Random: random,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if opts.seedFile != "" {
		cfg.Seed.File = opts.seedFile
	}
	return cfg, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usd(v float64) string {
	return money.NewFromFloat(v, money.USD).Display()
}

func printAssets(w io.Writer, assets []models.Asset, gas int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tNAME\tCATEGORY\tPRICE\t24H\tBALANCE\tVALUE")
	for _, a := range assets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%+.2f%%\t%g\t%s\n",
			a.Symbol, a.Name, a.Category, usd(a.Price), a.Change24h, a.Balance, usd(a.Value()))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nGas: %d gwei\n", gas)
	return err
}

func printSummary(w io.Writer, summary portfolio.Summary) error {
	fmt.Fprintf(w, "Total balance: %s\n", usd(summary.TotalBalance))
	fmt.Fprintf(w, "Top asset:     %s (%s)\n", summary.TopAsset.Symbol, usd(summary.TopAsset.Value()))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nSYMBOL\tVALUE\tSHARE")
	for _, row := range summary.Allocations {
		fmt.Fprintf(tw, "%s\t%s\t%d%%\n", row.Symbol, usd(row.Value), row.Percent)
	}
	return tw.Flush()
}
