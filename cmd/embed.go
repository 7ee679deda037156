package cmd

import (
	"context"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/talenthub/ai-gateway/internal/logger"
	"github.com/talenthub/ai-gateway/internal/store"
)

var embedCmd = &cobra.Command{
	Use:   "embed <id> [<id>...]",
	Short: "Generate and store embeddings for graduates (or jobs with --job), then queue matching",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app, err := buildApp()
		if err != nil {
			log.Fatal(err)
		}
		defer app.Close()

		forJobs, err := cmd.Flags().GetBool("job")
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		for _, id := range args {
			if forJobs {
				err = embedJob(ctx, app, id)
			} else {
				err = embedGraduate(ctx, app, id)
			}
			if err != nil {
				app.Logger.Error("embedding failed", zap.String("id", id), zap.Error(err))
			}
		}
	},
}

func embedGraduate(ctx context.Context, app *application, id string) error {
	grad, err := app.Graduates.Get(id)
	if err != nil {
		return err
	}

	vector, err := app.Gateway.GenerateProfileEmbedding(ctx, profileText(grad))
	if err != nil {
		return err
	}

	if err := app.Graduates.SetEmbedding(id, vector); err != nil {
		return err
	}

	app.Logger.Info("graduate embedding stored",
		zap.String(logger.FieldGraduate, id),
		zap.Int("dimensions", len(vector)),
	)

	app.Orchestrator.QueueGraduateMatching(id)
	return nil
}

func embedJob(ctx context.Context, app *application, id string) error {
	posting, err := app.Jobs.Get(id)
	if err != nil {
		return err
	}

	vector, err := app.Gateway.GenerateJobEmbedding(ctx, jobText(posting))
	if err != nil {
		return err
	}

	if err := app.Jobs.SetEmbedding(id, vector); err != nil {
		return err
	}

	app.Logger.Info("job embedding stored",
		zap.String(logger.FieldJob, id),
		zap.Int("dimensions", len(vector)),
	)

	app.Orchestrator.QueueJobMatching(id)
	return nil
}

// profileText flattens a graduate record into the text the embedding model
// sees. Field order is stable so identical profiles hit the embedding cache.
func profileText(g *store.Graduate) string {
	parts := []string{
		"Skills: " + strings.Join(g.Skills, ", "),
		"Education: " + g.Education,
		"Experience: " + g.Experience,
	}

	for _, entry := range g.WorkHistory {
		if entry.Title == "" {
			continue
		}
		line := entry.Title
		if entry.Company != "" {
			line += " at " + entry.Company
		}
		parts = append(parts, line)
	}

	return strings.Join(parts, "\n")
}

func jobText(j *store.Job) string {
	return strings.Join([]string{
		"Title: " + j.Title,
		"Skills: " + strings.Join(j.Skills, ", "),
		"Education: " + j.Education,
		"Requirements: " + j.Requirements,
	}, "\n")
}

func init() {
	embedCmd.Flags().Bool("job", false, "embed job postings instead of graduate profiles")
	rootCmd.AddCommand(embedCmd)
}
