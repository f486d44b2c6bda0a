// Package main provides the refstore CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/orneryd/refstore/refstore/config"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "refstore",
		Short: "refstore manages a content-addressed version-control reference store",
		Long: `refstore reads and writes the named references (branches, tags,
HEAD, and friends) of a content-addressed object store, the same way a
version-control system's own reference database does: one file per
reference, an append-only log of how each one changed, and atomic,
lock-protected commits.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("data-dir", "", "store root (overrides REFSTORE_DATA_DIR)")
	root.PersistentFlags().String("config", "", "path to a YAML config overlay (overrides REFSTORE_CONFIG_FILE)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("refstore v%s (%s)\n", version, commit)
		},
	})
	root.AddCommand(newUpdateRefCmd())
	root.AddCommand(newDeleteRefCmd())
	root.AddCommand(newShowRefCmd())
	root.AddCommand(newReflogCmd())

	return root
}

// loadConfig applies the persistent --config/--data-dir flags on top
// of whatever LoadFromEnv already resolved from the environment, then
// validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if configPath, _ := cmd.Flags().GetString("config"); configPath != "" {
		if err := os.Setenv("REFSTORE_CONFIG_FILE", configPath); err != nil {
			return nil, err
		}
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}
	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.Store.DataDir = dataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Logging.Format == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Logging.Output != "" {
		zcfg.OutputPaths = []string{cfg.Logging.Output}
	}
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err == nil {
		zcfg.Level = level
	}
	return zcfg.Build()
}
