package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/skregdev/skreg/internal/skill"
	"github.com/skregdev/skreg/internal/skill/pack"
)

var packCmd = &cobra.Command{
	Use:   "pack [dir]",
	Short: "Pack a skill directory into a publishable artifact",
	Long: `Pack a skill directory into a gzipped tarball with the manifest's
sha256 field stamped to the archive's own canonical digest.

The directory must contain SKILL.md and manifest.json.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPack,
}

func init() {
	packCmd.Flags().StringP("output", "o", "", "Output path (default {name}.skill)")

	rootCmd.AddCommand(packCmd)
}

// readSourceManifest parses manifest.json from an unpacked skill
// directory.
func readSourceManifest(dir string) (*skill.Manifest, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m skill.Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func runPack(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	manifest, err := readSourceManifest(dir)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = fmt.Sprintf("%s.skill", manifest.Name)
	}

	if err := pack.DirectoryWithDigest(dir, output); err != nil {
		return err
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return environment(err)
	}
	sum := sha256.Sum256(data)

	fmt.Printf("Packed %s/%s@%s\n", manifest.Namespace, manifest.Name, manifest.Version)
	fmt.Printf("  artifact: %s\n", output)
	fmt.Printf("  sha256:   %s\n", hex.EncodeToString(sum[:]))
	return nil
}
