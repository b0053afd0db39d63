// Package cli implements the command-line interface for vectable.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hupe1980/vectable"
	"github.com/hupe1980/vectable/internal/config"
	"github.com/hupe1980/vectable/internal/ui"
)

var (
	// Version information set at build time
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersionInfo sets the version information from build flags.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// app holds the global flags shared by all subcommands.
type app struct {
	cfgFile string
	debug   bool
}

// NewRootCmd returns the vectable command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "vectable",
		Short: "Embedded vector table store",
		Long: `vectable manages tables of a vectable database: create them from YAML or
JSON rows, add and delete rows, run filtered scans and nearest neighbour
queries, and build IVF indexes.

Examples:
  # Create a table from a schema and initial rows
  vectable create people --schema people.yaml --data people.json

  # Ten nearest rows to a vector, filtered
  vectable query people --vector 0.1,0.2,0.3 -k 10 --where "age > 30"

  # Use a database on S3
  vectable --db s3://bucket/vectors tables`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.debug {
				ui.SetDebug(true)
				log.Debug("Debug logging enabled")
			}
			if err := config.Load(a.cfgFile); err != nil {
				log.Warn("Failed to load config", "error", err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.config/vectable/config.yaml)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().String("db", "", "database URI (default is $HOME/.local/share/vectable/data)")
	root.PersistentFlags().String("log-level", "", "library log level (debug, info, warn, error)")

	_ = viper.BindPFlag("database.uri", root.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("log.level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(
		newVersionCmd(),
		newTablesCmd(a),
		newCreateCmd(a),
		newAddCmd(a),
		newScanCmd(a),
		newCountCmd(a),
		newQueryCmd(a),
		newDeleteCmd(a),
		newIndexCmd(a),
		newDropCmd(a),
		newDropDBCmd(a),
		newDemoCmd(a),
	)
	return root
}

// Execute runs the command tree. This is called by main.main().
func Execute() error {
	return NewRootCmd().Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "vectable %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}

// connect opens the configured database.
func (a *app) connect(ctx context.Context) (*vectable.Database, error) {
	return a.connectURI(ctx, config.Get().Database.URI)
}

// connectURI opens the database at uri with the configured options.
func (a *app) connectURI(ctx context.Context, uri string) (*vectable.Database, error) {
	cfg := config.Get()

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if a.debug {
		level = slog.LevelDebug
	}

	opts, err := cfg.Options(ui.LibraryLogger(level, cfg.Log.Format))
	if err != nil {
		return nil, err
	}

	log.Debug("Connecting", "uri", uri)
	db, err := vectable.Connect(ctx, uri, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", uri, err)
	}
	return db, nil
}

func (a *app) openTable(ctx context.Context, name string) (*vectable.Table, error) {
	db, err := a.connect(ctx)
	if err != nil {
		return nil, err
	}
	return db.OpenTable(ctx, name)
}
