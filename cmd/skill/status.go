package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status job-id",
	Short: "Show the status of a vetting job",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("%q is not a job id", args[0])
	}

	client, _, err := loadClient(cmd)
	if err != nil {
		return err
	}

	job, err := client.Job(cmd.Context(), id)
	if err != nil {
		return err
	}

	fmt.Printf("Job %s: %s\n", job.ID, job.Status)
	if job.Message != "" {
		fmt.Printf("  %s\n", job.Message)
	}
	return nil
}
