// Package main is the skill CLI: pack, publish, and install signed
// skill packages.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
	Commit  = "unknown"
)

// envError marks failures of the local environment (filesystem,
// home directory, config file) as opposed to user input or registry
// responses.
type envError struct {
	err error
}

func (e *envError) Error() string { return e.err.Error() }
func (e *envError) Unwrap() error { return e.err }

func environment(err error) error {
	if err == nil {
		return nil
	}
	return &envError{err: err}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var env *envError
		if errors.As(err, &env) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "skill",
	Short: "Client for the skreg skill package registry",
	Long: `skill packs skill directories into signed artifacts, publishes them
to a skreg registry for vetting, and installs verified packages onto
the local machine.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"skill version %s\nCommit: %s\n",
		Version, Commit,
	))

	rootCmd.PersistentFlags().String("registry", "", "Registry base URL (overrides config)")
}
