package cmd

import (
	"fmt"
	"log"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var rematchCmd = &cobra.Command{
	Use:   "rematch",
	Short: "Re-score every graduate (or every active job with --jobs) that has a stored embedding",
	Run: func(cmd *cobra.Command, _ []string) {
		app, err := buildApp()
		if err != nil {
			log.Fatal(err)
		}
		defer app.Close()

		forJobs, err := cmd.Flags().GetBool("jobs")
		if err != nil {
			log.Fatal(err)
		}
		yes, err := cmd.Flags().GetBool("yes")
		if err != nil {
			log.Fatal(err)
		}

		var ids []string
		kind := "graduates"

		if forJobs {
			kind = "jobs"
			jobs, err := app.Jobs.ListActiveWithEmbeddings(viper.GetInt("matching.max-jobs"))
			if err != nil {
				log.Fatal(err)
			}
			for _, j := range jobs {
				ids = append(ids, j.ID)
			}
		} else {
			graduates, err := app.Graduates.ListWithEmbeddings(viper.GetInt("matching.max-graduates"))
			if err != nil {
				log.Fatal(err)
			}
			for _, g := range graduates {
				ids = append(ids, g.ID)
			}
		}

		if len(ids) == 0 {
			app.Logger.Info("nothing to rematch", zap.String("kind", kind))
			return
		}

		if !yes {
			prompt := promptui.Select{
				Label: fmt.Sprintf("Queue matching for %d %s?", len(ids), kind),
				Items: []string{"Yes", "No"},
			}

			_, answer, err := prompt.Run()
			if err != nil {
				log.Fatal(err)
			}
			if answer != "Yes" {
				app.Logger.Info("rematch cancelled")
				return
			}
		}

		for _, id := range ids {
			if forJobs {
				app.Orchestrator.QueueJobMatching(id)
			} else {
				app.Orchestrator.QueueGraduateMatching(id)
			}
		}

		app.Logger.Info("bulk matching queued",
			zap.String("kind", kind),
			zap.Int("count", len(ids)),
		)
	},
}

func init() {
	rematchCmd.Flags().Bool("jobs", false, "rematch active jobs instead of graduates")
	rematchCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(rematchCmd)
}
