package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the AI service's health endpoint",
	Run: func(_ *cobra.Command, _ []string) {
		app, err := buildApp()
		if err != nil {
			log.Fatal(err)
		}
		defer app.Close()

		health, err := app.Gateway.Health(context.Background())
		if err != nil {
			log.Fatal(err)
		}

		fmt.Printf("status: %s\n", health.Status)
		if health.Message != "" {
			fmt.Printf("message: %s\n", health.Message)
		}
		fmt.Printf("openai configured: %t\n", health.OpenAIConfigured)

		if health.Status != "healthy" {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
