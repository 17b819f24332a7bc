package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/zatekoja/medanalyzer/pkg/client"
)

const (
	msgMissingFields  = "please fill in all required fields"
	msgAnalysisFailed = "something went wrong while analyzing the symptoms, please try again"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "medanalyzer",
		Short:         "MedAnalyzer symptom analysis client",
		Long:          `medanalyzer submits a symptom form to a MedAnalyzer server and prints the analysis.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(analyzeCmd())

	return rootCmd
}

// analyzeCmd returns the command that submits one symptom form.
func analyzeCmd() *cobra.Command {
	var (
		server   string
		timeout  time.Duration
		sub      client.Submission
		gender   string
		duration string
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a set of symptoms",
		Long: `Submit patient age, gender, main complaint, additional symptoms and
duration to the server and print the five analysis sections.

Examples:
  medanalyzer analyze --age 30 --gender male --complaint headache --symptom fever --duration 1-3_days
  medanalyzer analyze --server http://localhost:8080 --age 45 --gender female \
    --complaint "dry cough" --symptom fatigue --symptom chills --duration 1-2_weeks`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sub.Gender = client.Gender(gender)
			sub.Duration = client.Duration(duration)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			result, err := client.New(server, timeout).Analyze(ctx, &sub)
			if err != nil {
				if verbose {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
				}
				if errors.Is(err, client.ErrInvalidSubmission) {
					return errors.New(msgMissingFields)
				}
				return errors.New(msgAnalysisFailed)
			}

			return client.RenderText(cmd.OutOrStdout(), result)
		},
	}

	defaultServer := os.Getenv("MEDANALYZER_URL")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}

	cmd.Flags().StringVarP(&server, "server", "s", defaultServer, "MedAnalyzer server URL (env MEDANALYZER_URL)")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Request timeout")
	cmd.Flags().StringVarP(&sub.Age, "age", "a", "", "Patient age (required)")
	cmd.Flags().StringVarP(&gender, "gender", "g", "", "Patient gender: male or female (required)")
	cmd.Flags().StringVarP(&sub.MainComplaint, "complaint", "c", "", "Main complaint (required)")
	cmd.Flags().StringArrayVar(&sub.AdditionalSymptoms, "symptom", nil, "Additional symptom, repeatable (at least one required)")
	cmd.Flags().StringVarP(&duration, "duration", "d", "", "Duration: less_than_day, 1-3_days, 4-7_days, 1-2_weeks, more_than_month (required)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print the underlying error")

	return cmd
}
