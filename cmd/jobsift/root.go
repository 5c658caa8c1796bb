package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"jobsift-engine/internal/config"
	"jobsift-engine/internal/store"
)

type appFlags struct {
	dataDir    string
	configPath string
}

func newRootCmd() *cobra.Command {
	flags := &appFlags{}

	root := &cobra.Command{
		Use:           "jobsift",
		Short:         "Discover, extract, and score job postings against your profile",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default $JOBSIFT_DATA_DIR or ./data)")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default <data-dir>/config.yml)")

	root.AddCommand(
		newRunCmd(flags),
		newRetryCmd(flags),
		newWatchCmd(flags),
		newStatsCmd(flags),
		newUsageCmd(flags),
		newSecretCmd(flags),
	)
	return root
}

// app holds everything a command needs after setup.
type app struct {
	cfg     config.Config
	dataDir string
	db      *store.DB
	lock    *flock.Flock
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.lock != nil {
		_ = a.lock.Unlock()
	}
}

// setup resolves the data dir, bootstraps and validates config, takes the
// single-run lock, and opens the database.
func setup(flags *appFlags) (*app, error) {
	dataDir := flags.dataDir
	if dataDir == "" {
		dataDir = os.Getenv("JOBSIFT_DATA_DIR")
	}
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	cfgPath := flags.configPath
	if cfgPath == "" {
		var err error
		cfgPath, err = config.EnsureUserConfig(dataDir, filepath.Join("config", "config.yml"))
		if err != nil {
			return nil, fmt.Errorf("config bootstrap: %w", err)
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("config load (%s): %w", cfgPath, err)
	}
	cfg = config.Defaults(cfg)

	cfg, validation := config.NormalizeAndValidate(cfg)
	for _, w := range validation.Warnings {
		log.Printf("[config] warning: %s", w)
	}
	if !validation.OK() {
		for _, e := range validation.Errors {
			log.Printf("[config] error: %s", e)
		}
		return nil, fmt.Errorf("config has %d error(s)", len(validation.Errors))
	}

	// One run at a time per data dir; concurrent runs would fight over the
	// sqlite writer and double-spend API quota.
	lock := flock.New(filepath.Join(dataDir, "jobsift.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("run lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another jobsift run is already active in %s", dataDir)
	}

	db, err := store.Open(filepath.Join(dataDir, "jobsift.db"))
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open db: %w", err)
	}

	return &app{cfg: cfg, dataDir: dataDir, db: db, lock: lock}, nil
}
