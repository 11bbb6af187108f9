// Package cli implements the memgarden CLI commands.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"memgarden/internal/config"
	"memgarden/internal/media"
	"memgarden/internal/memory"
	"memgarden/internal/store"
)

var (
	dataDir string
	verbose bool
	logger  *zap.Logger
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "memgarden",
	Short: "Anchored memories for the AR garden",
	Long:  "Inspect and manage a memory garden data directory: memory records, spatial anchors, media blobs, and the tracking snapshot.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dataDir, "data", "d", "", "Garden data directory (default: $MEMGARDEN_DATA, config data_dir, or ~/.memgarden)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func getDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if env := os.Getenv("MEMGARDEN_DATA"); env != "" {
		return env
	}
	if cfg, err := config.Load(config.DefaultPath()); err == nil && cfg.DataDir != "" {
		return cfg.DataDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".memgarden")
}

// garden bundles the stores opened against one data directory.
type garden struct {
	dir     string
	blobs   *media.BlobStore
	anchors *store.JSONAnchorStore
	service *memory.Service
}

func openGarden() (*garden, error) {
	dir := getDataDir()
	blobs := media.NewBlobStore(dir, logger)
	records, err := store.NewJSONMemoryStore(dir, blobs, logger)
	if err != nil {
		return nil, err
	}
	anchors, err := store.NewJSONAnchorStore(dir, logger)
	if err != nil {
		return nil, err
	}
	return &garden{
		dir:     dir,
		blobs:   blobs,
		anchors: anchors,
		service: memory.NewService(records, blobs, logger),
	}, nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
