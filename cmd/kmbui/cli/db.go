package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the backing database",
		Long:  "Initialize and inspect the database that holds requests, keys, and content.",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBPathCmd())
	cmd.AddCommand(newDBPingCmd())

	return cmd
}

// ---------- db init ----------

func newDBInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database and run migrations",
		Long: `Open the configured database and apply the schema. Safe to run more than
once: migrations only create what is missing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			cfg := storeConfig()
			if cfg.Driver == "sqlite" && cfg.DataDir != "" {
				fmt.Printf("Initialized SQLite database at %s\n", filepath.Join(cfg.DataDir, "kmbui.db"))
			} else {
				fmt.Printf("Initialized %s database\n", cfg.Driver)
			}
			return nil
		},
	}
}

// ---------- db path ----------

func newDBPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the resolved database location",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := storeConfig()
			switch {
			case cfg.Driver == "sqlite" && cfg.DataDir != "":
				fmt.Println(filepath.Join(cfg.DataDir, "kmbui.db"))
			case cfg.DSN != "":
				fmt.Printf("%s: %s\n", cfg.Driver, cfg.DSN)
			default:
				fmt.Printf("%s: in-memory\n", cfg.Driver)
			}
			return nil
		},
	}
}

// ---------- db ping ----------

func newDBPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the database is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			if err := st.Ping(context.Background()); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
			fmt.Println("ok")
			return nil
		},
	}
}
