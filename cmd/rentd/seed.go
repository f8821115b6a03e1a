package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/rent-engine/factory"
)

func seedCmd(a *app) *cobra.Command {
	var (
		file  string
		reset bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load reference data and contracts from a JSON dataset",
		Long: `Load currencies, rates, taxes, groups, rental objects, contracts and
revenue from a JSON dataset. Without --file the built-in sample is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data := factory.Sample
			if file != "" {
				b, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				data = b
			}
			ds, err := factory.Parse(data)
			if err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			if reset {
				if err := store.Reset(ctx); err != nil {
					return fmt.Errorf("reset: %w", err)
				}
				slog.Info("database reset", "db", a.cfg.Database.Path)
			}

			loaded, err := factory.Load(ctx, store, ds)
			if err != nil {
				return err
			}
			slog.Info("dataset loaded",
				"currencies", len(loaded.Currencies),
				"groups", len(loaded.Groups),
				"rental_objects", len(loaded.RentalObjects),
				"contracts", len(loaded.Contracts),
				"revenues", loaded.Revenues,
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "dataset path (default: built-in sample)")
	cmd.Flags().BoolVar(&reset, "reset", false, "delete all data before loading")
	return cmd
}

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations and print the schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening the store applies pending migrations.
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			version, dirty, err := store.SchemaVersion(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	}
}
