package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/kmbui/kmbui-backend/internal/config"
	"github.com/kmbui/kmbui-backend/internal/store"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// resolveDataDir returns the data directory from the --data-dir flag,
// KMBUI_DATA_DIR env var, or ~/.kmbui as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("KMBUI_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".kmbui")
}

// loadFileConfig reads the typed configuration file. A missing file is
// not an error: the defaults apply and flags or env variables fill in
// the rest.
func loadFileConfig() *config.Config {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("kmbui.yaml"); err == nil {
			path = "kmbui.yaml"
		}
	}
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v, using defaults\n", err)
		return config.Default()
	}
	return cfg
}

// storeConfig builds the store configuration from viper keys, falling
// back to a SQLite database under the data directory.
func storeConfig() store.Config {
	cfg := store.Config{
		Driver: viper.GetString("store.driver"),
		DSN:    viper.GetString("store.dsn"),
	}
	if cfg.Driver == "" || cfg.Driver == "sqlite" {
		cfg.Driver = "sqlite"
		if cfg.DSN == "" {
			cfg.DataDir = resolveDataDir()
		}
	}
	return cfg
}

// openStore opens the configured database and runs migrations.
func openStore() (*store.Store, error) {
	return store.Open(storeConfig())
}
