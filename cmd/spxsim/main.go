package main

import (
	"fmt"
	"os"

	"spxsim/internal/cli"
	"spxsim/internal/config"
	"spxsim/internal/logging"
)

func main() {
	cfg, err := config.Load(os.Getenv("SPXSIM_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.DefaultLogConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Console = cfg.Logging.Console
	logCfg.File = cfg.Logging.File
	if cfg.Logging.Path != "" {
		logCfg.FilePath = cfg.Logging.Path
	}
	logger := logging.NewLoggerWithConfig(logCfg)

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
