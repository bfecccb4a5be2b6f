package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/skregdev/skreg/internal/skill/pack"
)

var publishCmd = &cobra.Command{
	Use:   "publish [dir|artifact.skill]",
	Short: "Publish a skill package for vetting",
	Long: `Upload a packed artifact to the registry and wait for the vetting
pipeline to reach a verdict.

A directory argument is packed first; a .skill file is uploaded as-is.
Publishing requires an API key from "skill login".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().Bool("no-wait", false, "Return after upload without polling the vetting job")
	publishCmd.Flags().Duration("poll-interval", 2*time.Second, "Vetting job poll interval")

	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	client, cfg, err := loadClient(cmd)
	if err != nil {
		return err
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("no API key configured, run \"skill login\" first")
	}

	target := "."
	if len(args) == 1 {
		target = args[0]
	}

	artifact, err := readArtifact(target)
	if err != nil {
		return err
	}

	result, err := client.Publish(cmd.Context(), artifact)
	if err != nil {
		return err
	}
	fmt.Printf("Upload accepted, vetting job %s\n", result.JobID)

	if noWait, _ := cmd.Flags().GetBool("no-wait"); noWait {
		return nil
	}

	interval, _ := cmd.Flags().GetDuration("poll-interval")
	job, err := client.WaitForJob(cmd.Context(), result.JobID, interval)
	if err != nil {
		return err
	}

	switch job.Status {
	case "pass":
		fmt.Println("Vetting passed, package is published and signed.")
		return nil
	case "quarantined":
		return fmt.Errorf("vetting quarantined the upload: %s", job.Message)
	default:
		return fmt.Errorf("vetting failed: %s", job.Message)
	}
}

// readArtifact returns the artifact bytes for target: a .skill file is
// read directly, a directory is packed into a temp file first.
func readArtifact(target string) ([]byte, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, environment(err)
	}

	if !info.IsDir() {
		if !strings.HasSuffix(target, ".skill") {
			return nil, fmt.Errorf("%s is not a directory or a .skill artifact", target)
		}
		return os.ReadFile(target)
	}

	tmp, err := os.MkdirTemp("", "skill-publish-*")
	if err != nil {
		return nil, environment(err)
	}
	defer os.RemoveAll(tmp)

	out := filepath.Join(tmp, "artifact.skill")
	if err := pack.DirectoryWithDigest(target, out); err != nil {
		return nil, err
	}
	return os.ReadFile(out)
}
