package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/talenthub/ai-gateway/internal/aiservice"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Generate assessment questions for a skill list or a stored graduate",
	Run: func(cmd *cobra.Command, _ []string) {
		app, err := buildApp()
		if err != nil {
			log.Fatal(err)
		}
		defer app.Close()

		skills, err := cmd.Flags().GetStringSlice("skills")
		if err != nil {
			log.Fatal(err)
		}
		graduateID, err := cmd.Flags().GetString("graduate")
		if err != nil {
			log.Fatal(err)
		}
		count, err := cmd.Flags().GetInt("count")
		if err != nil {
			log.Fatal(err)
		}
		attempt, err := cmd.Flags().GetInt("attempt")
		if err != nil {
			log.Fatal(err)
		}
		language, err := cmd.Flags().GetString("language")
		if err != nil {
			log.Fatal(err)
		}

		// --graduate pulls skills from the stored profile and targets the
		// graduate's next attempt so retakes get varied questions.
		if graduateID != "" {
			grad, err := app.Graduates.Get(graduateID)
			if err != nil {
				log.Fatal(err)
			}
			skills = grad.Skills
			if attempt == 0 {
				attempt = grad.Assessment.Attempts + 1
			}
		}

		questions, err := app.Gateway.GenerateAssessmentQuestions(context.Background(), skills,
			&aiservice.QuestionOptions{
				Attempt:      attempt,
				NumQuestions: count,
				Language:     language,
			})
		if err != nil {
			log.Fatal(err)
		}

		out, err := json.MarshalIndent(questions, "", "  ")
		if err != nil {
			log.Fatal(err)
		}

		fmt.Println(string(out))
	},
}

func init() {
	questionsCmd.Flags().StringSliceP("skills", "s", nil, "skills to cover (comma-separated)")
	questionsCmd.Flags().StringP("graduate", "g", "", "take skills from this stored graduate")
	questionsCmd.Flags().IntP("count", "c", 0, "number of questions (service default when 0)")
	questionsCmd.Flags().IntP("attempt", "a", 0, "attempt number, used to vary questions across retakes")
	questionsCmd.Flags().StringP("language", "l", "", "question language")
	rootCmd.AddCommand(questionsCmd)
}
