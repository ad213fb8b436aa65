// Package cli assembles bqport's command tree. The warehouse connection
// itself is not built here: NewClient is the single seam a concrete
// BigQuery (or compatible) binding plugs into, matching the project's
// treatment of the warehouse client as an out-of-scope collaborator.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bqport/bqport/internal/cli/output"
	"github.com/bqport/bqport/internal/warehouse"
)

// NewClient constructs the warehouse.Client a run talks to. It is nil by
// default; a concrete main package wires it to an actual client
// implementation before calling Execute.
var NewClient func(ctx context.Context) (warehouse.Client, error)

// Flags holds the persistent flag values shared by every subcommand.
type Flags struct {
	RootPath            string
	Threads             int
	Format              string
	Force               bool
	DryRun              bool
	Verbose             bool
	Labels              []string
	Parameters          []string
	MaximumBytesBilled  int64
}

// Root builds bqport's root cobra command. Flag defaults are seeded from an
// optional ./bqport.yaml project file before cobra registers them, so a
// flag's default is the config value when present and the flag's own
// literal default otherwise; either way an explicit command-line flag wins.
func Root() *cobra.Command {
	flags := &Flags{}

	cfg, err := loadConfig()
	if err != nil {
		cfg = &fileConfig{}
	}

	root := &cobra.Command{
		Use:           "bqport",
		Short:         "Deploy SQL file trees to a BigQuery-shaped warehouse",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootPath := stringOr(cfg.RootPath, ".")
	threads := intOr(cfg.Threads, 4)
	format := stringOr(cfg.Format, "console")

	root.PersistentFlags().StringVar(&flags.RootPath, "root-path", rootPath, "root of the SQL file tree")
	root.PersistentFlags().IntVar(&flags.Threads, "threads", threads, "maximum concurrent deployments (0 = unbounded)")
	root.PersistentFlags().StringVar(&flags.Format, "format", format, "output format: console or json")
	root.PersistentFlags().BoolVar(&flags.Force, "force", false, "skip the reconciliation confirmation prompt")
	root.PersistentFlags().BoolVar(&flags.DryRun, "dry-run", false, "estimate cost and plan deletions without executing them")
	root.PersistentFlags().BoolVar(&flags.Verbose, "verbose", false, "enable debug logging")
	root.PersistentFlags().StringArrayVar(&flags.Labels, "label", cfg.labelFlags(), "job label key:value, repeatable")
	root.PersistentFlags().StringArrayVar(&flags.Parameters, "parameter", nil, "query parameter name:type:value, repeatable")
	root.PersistentFlags().Int64Var(&flags.MaximumBytesBilled, "maximum_bytes_billed", cfg.MaximumBytesBilled, "abort a job if it would bill more than this many bytes (0 = no limit)")

	root.AddCommand(
		newPushCommand(flags),
		newBundleCommand(flags),
		newListCommand(flags),
		newVersionCommand(),
	)

	return root
}

// Execute runs the root command against os.Args.
func Execute() error {
	return Root().Execute()
}

func newLogger(flags *Flags) *slog.Logger {
	level := slog.LevelInfo
	if flags.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newRenderer(cmd *cobra.Command, flags *Flags) (*output.Renderer, error) {
	mode, err := output.ParseMode(flags.Format)
	if err != nil {
		return nil, err
	}
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode), nil
}

func requireClient(ctx context.Context) (warehouse.Client, error) {
	if NewClient == nil {
		return nil, fmt.Errorf("no warehouse client configured: wire cli.NewClient to a concrete implementation")
	}
	return NewClient(ctx)
}

func stringOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func intOr(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}
