package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"spxsim/internal/engine"
	"spxsim/internal/market"
	"spxsim/internal/orchestrator"
	"spxsim/internal/participant"
)

func newRunCmd(app *App) *cobra.Command {
	var (
		sessions  int
		startDate string
		baseLevel float64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run trading sessions against synthetic chain data",
		Long: `Run dual-window sessions for the mechanical participants against the
deterministic synthetic chain generator. Progress persists to the store;
re-running the command resumes from the first incomplete session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}
			if sessions > 0 {
				app.Config.Simulation.SessionsPerRun = sessions
			}

			start, err := time.Parse("2006-01-02", startDate)
			if err != nil {
				return fmt.Errorf("bad --start date %q: %w", startDate, err)
			}

			cfg := app.Config
			sched := orchestrator.NewScheduler(orchestrator.SchedulerConfig{
				Config:       cfg,
				Store:        app.Store,
				Provider:     market.NewSyntheticProvider(cfg.Simulation.BaseSeed, baseLevel),
				Participants: defaultParticipants(app),
				Logger:       app.Logger,
			})

			dates := market.TradingDates(start, cfg.Simulation.SessionsPerRun)
			summary, err := sched.Run(cmd.Context(), dates)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"sessions_completed": summary.SessionsCompleted,
					"total_completed":    summary.TotalCompleted,
				})
			}
			output.Success("Completed %d session(s), %d total", summary.SessionsCompleted, summary.TotalCompleted)
			for _, rep := range summary.Reports {
				output.Printf("Session %d (%s): SPX %.2f → %.2f\n",
					rep.SessionID, rep.TradingDate, rep.IndexOpen, rep.IndexClose)
				ids := make([]string, 0, len(rep.Participants))
				for id := range rep.Participants {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				for _, id := range ids {
					output.Dim("  %-24s %s", id, rep.Participants[id].DecisionText())
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&sessions, "sessions", 0, "number of sessions to run (default from config)")
	cmd.Flags().StringVar(&startDate, "start", time.Now().Format("2006-01-02"), "first trading date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&baseLevel, "base-level", 6000, "synthetic SPX base level")
	return cmd
}

// defaultParticipants builds the mechanical roster. RandomEntry runs
// behind the risk guard so its occasional oversized orders are clamped
// instead of rejected.
func defaultParticipants(app *App) []participant.Participant {
	cfg := app.Config
	width := cfg.Simulation.SpreadWidth
	validator := engine.NewRiskValidator(cfg.Risk, cfg.Simulation.Multiplier)
	return []participant.Participant{
		participant.NewMechanicalIC(width),
		participant.NewRiskGuard(
			participant.NewRandomEntry(width, cfg.Simulation.BaseSeed),
			validator, app.Logger),
		participant.NewHoldCash(),
		participant.NewRegimeBot(width),
	}
}
