package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Queue matching runs for specific graduates or jobs",
}

var matchGraduateCmd = &cobra.Command{
	Use:   "graduate <id> [<id>...]",
	Short: "Re-score the given graduates against active job postings",
	Args:  cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		app, err := buildApp()
		if err != nil {
			log.Fatal(err)
		}
		defer app.Close()

		for _, id := range args {
			app.Orchestrator.QueueGraduateMatching(id)
		}

		app.Logger.Info("graduate matching queued", zap.Int("count", len(args)))
	},
}

var matchJobCmd = &cobra.Command{
	Use:   "job <id> [<id>...]",
	Short: "Re-score all eligible graduates against the given job postings",
	Args:  cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		app, err := buildApp()
		if err != nil {
			log.Fatal(err)
		}
		defer app.Close()

		for _, id := range args {
			app.Orchestrator.QueueJobMatching(id)
		}

		app.Logger.Info("job matching queued", zap.Int("count", len(args)))
	},
}

func init() {
	matchCmd.AddCommand(matchGraduateCmd)
	matchCmd.AddCommand(matchJobCmd)
	rootCmd.AddCommand(matchCmd)
}
