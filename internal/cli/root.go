package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"spxsim/internal/config"
	"spxsim/internal/logging"
	"spxsim/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  store.Store
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	db, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, run commands will be unavailable")
	} else {
		app.Store = db
		logger.Debug().Str("path", cfg.Store.Path).Msg("SQLite store initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "spxsim",
		Short: "SPX 0DTE/1DTE spread paper-trading simulator",
		Long: `spxsim runs dual-window SPX option-spread trading sessions against
simulated fills: mechanical participants place vertical, iron condor,
iron fly and butterfly spreads, a paper broker fills them with
deterministic slippage, and expiring positions cash-settle at the close.

All state persists to SQLite, so an interrupted run resumes where it
stopped.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newLeaderboardCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("spxsim v%s\n", Version)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Simulation")
	output.Printf("  Starting Capital: %.2f\n", cfg.Simulation.StartingCapital)
	output.Printf("  Spread Width:     %.0f\n", cfg.Simulation.SpreadWidth)
	output.Printf("  Base Seed:        %d\n", cfg.Simulation.BaseSeed)
	output.Printf("  Sessions Per Run: %d\n", cfg.Simulation.SessionsPerRun)
	output.Printf("  Risk-Free Annual: %.2f%%\n", cfg.Simulation.RiskFreeAnnual*100)
	output.Println()

	output.Bold("Risk Limits")
	output.Printf("  Max Concurrent:   %d\n", cfg.Risk.MaxConcurrentSpreads)
	output.Printf("  Per-Trade Risk:   %.0f%%\n", cfg.Risk.MaxRiskPerTradePct*100)
	output.Printf("  Account Risk:     %.0f%%\n", cfg.Risk.MaxAccountRiskPct*100)
	output.Printf("  BP Reserve:       %.0f%%\n", cfg.Risk.MinReservePct*100)
	output.Println()

	output.Bold("Commission")
	output.Printf("  Per Contract:     %.2f\n", cfg.Commission.PerContract)
	output.Printf("  Regulatory Fee:   %.2f\n", cfg.Commission.RegulatoryFee)
	output.Println()

	output.Bold("Store")
	output.Printf("  Path:             %s\n", cfg.Store.Path)

	return nil
}
