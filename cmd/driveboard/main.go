package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/driveboard/driveboard/internal/config"
	"github.com/driveboard/driveboard/internal/logger"
	"github.com/driveboard/driveboard/internal/version"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:     "driveboard",
	Short:   "Fleet dashboard backend bridging Firebase sign-in to signed data sessions",
	Version: version.GetInfo(),
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.toml")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func loadConfig() (config.Config, error) {
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
