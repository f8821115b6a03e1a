/*
main.go - rentd entry point

PURPOSE:
  Command-line front end of the rent engine. One binary serves the HTTP API,
  runs analyses from the terminal, seeds reference data and reports the
  schema version.

COMMANDS:
  serve     HTTP API with graceful shutdown
  report    Rent analysis to the terminal, XLSX or JSON
  seed      Load a JSON dataset (default: built-in sample)
  migrate   Apply migrations and print the schema version

CONFIGURATION:
  .env is loaded first when present, then config.Load reads defaults,
  ./rent.{toml,yaml,json} (or $RENT_CONFIG) and RENT_* variables.
  --db and --log-level override the loaded values.

EXAMPLES:
  rentd serve --port 3000
  rentd seed --db ":memory:"
  rentd report --from 2024-01-01 --to 2024-03-31 --xlsx q1.xlsx

SEE ALSO:
  - config/config.go: Settings and precedence
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/warp/rent-engine/config"
	"github.com/warp/rent-engine/logging"
	"github.com/warp/rent-engine/metrics"
	"github.com/warp/rent-engine/rent"
	"github.com/warp/rent-engine/report"
	"github.com/warp/rent-engine/store/sqlite"
)

// app is the state shared by subcommands after the root pre-run.
type app struct {
	cfg      config.Config
	dbPath   string
	logLevel string
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "rentd",
		Short:         "Rent calculation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				cfg.Database.Path = a.dbPath
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = a.logLevel
			}
			a.cfg = cfg
			logging.SetupFromString(cfg.Log.Level)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", `SQLite database path (":memory:" for in-memory)`)
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		serveCmd(a),
		reportCmd(a),
		seedCmd(a),
		migrateCmd(a),
	)
	return root
}

func (a *app) openStore() (*sqlite.Store, error) {
	store, err := sqlite.New(a.cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", a.cfg.Database.Path, err)
	}
	return store, nil
}

// newRunner builds the analysis runner. Each run reads through its own store
// snapshot. m may be nil.
func (a *app) newRunner(store *sqlite.Store, m *metrics.Metrics) *report.Runner {
	return &report.Runner{
		Store:     store,
		Currency:  a.cfg.Reporting.Currency,
		CompanyID: rent.ID(a.cfg.Reporting.CompanyID),
		Metrics:   m,
		Logger:    slog.Default(),
		Snapshot: func(ctx context.Context) (report.Store, error) {
			return store.Snapshot(ctx)
		},
	}
}
