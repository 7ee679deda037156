package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/talenthub/ai-gateway/internal/aiservice"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <graduateID> <jobID>",
	Short: "Generate a skill gap analysis for a graduate against a job posting",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		app, err := buildApp()
		if err != nil {
			log.Fatal(err)
		}
		defer app.Close()

		grad, err := app.Graduates.Get(args[0])
		if err != nil {
			log.Fatal(err)
		}

		posting, err := app.Jobs.Get(args[1])
		if err != nil {
			log.Fatal(err)
		}

		language, err := cmd.Flags().GetString("language")
		if err != nil {
			log.Fatal(err)
		}

		var opts *aiservice.FeedbackOptions
		if language != "" {
			opts = &aiservice.FeedbackOptions{Language: language}
		}

		result, err := app.Gateway.GenerateFeedback(context.Background(),
			aiservice.GraduateProfile{
				Skills:     grad.Skills,
				Education:  grad.Education,
				Experience: grad.Experience,
			},
			aiservice.JobRequirements{
				Skills:     posting.Skills,
				Education:  posting.Education,
				Experience: posting.Requirements,
			},
			opts,
		)
		if err != nil {
			log.Fatal(err)
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatal(err)
		}

		fmt.Println(string(out))
	},
}

func init() {
	feedbackCmd.Flags().StringP("language", "l", "", "feedback language")
	rootCmd.AddCommand(feedbackCmd)
}
