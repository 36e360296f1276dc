package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"spxsim/internal/report"
)

func newLeaderboardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Show participant standings",
		Long:  "Show every participant's latest balance, realized P&L and return, best first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}
			rows, err := app.Store.Leaderboard(cmd.Context())
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(rows)
			}
			if len(rows) == 0 {
				output.Warning("No sessions recorded yet. Run 'spxsim run' first.")
				return nil
			}
			output.Printf("%s", report.FormatLeaderboard(rows))
			return nil
		},
	}
}
