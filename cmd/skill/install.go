package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/skregdev/skreg/internal/installer"
	"github.com/skregdev/skreg/internal/signing"
	"github.com/skregdev/skreg/internal/skill"
)

var installCmd = &cobra.Command{
	Use:   "install namespace/name[@version]",
	Short: "Download, verify, and install a skill package",
	Long: `Resolve a package reference against the registry, verify its digest
and signature against the registry CA, and extract it under the
install root.

An omitted version installs the latest non-yanked release.`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall namespace/name[@version]",
	Short: "Remove an installed skill package",
	Long: `Remove an installed version, or every installed version of the
package when no version is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runUninstall,
}

func init() {
	installCmd.Flags().String("root", "", "Install root (default ~/.skill/skills)")
	installCmd.Flags().String("crl-url", "", "Fetch a revocation list from this URL before verifying")
	uninstallCmd.Flags().String("root", "", "Install root (default ~/.skill/skills)")

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
}

// installRoot resolves the --root flag, defaulting under the home
// directory.
func installRoot(cmd *cobra.Command) (string, error) {
	if root, _ := cmd.Flags().GetString("root"); root != "" {
		return root, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", environment(fmt.Errorf("resolving home directory: %w", err))
	}
	return filepath.Join(home, ".skill", "skills"), nil
}

func runInstall(cmd *cobra.Command, args []string) error {
	ref, err := skill.ParseRef(args[0])
	if err != nil {
		return err
	}

	client, _, err := loadClient(cmd)
	if err != nil {
		return err
	}

	root, err := installRoot(cmd)
	if err != nil {
		return err
	}

	var revoked signing.RevocationStore = signing.NewMemoryRevocationStore()
	if crlURL, _ := cmd.Flags().GetString("crl-url"); crlURL != "" {
		crl := signing.NewCRLRevocationStore(crlURL, time.Hour, slogDiscard())
		if err := crl.Refresh(cmd.Context()); err != nil {
			return fmt.Errorf("fetching revocation list: %w", err)
		}
		revoked = crl
	}

	verifier, err := signing.NewVerifier(revoked)
	if err != nil {
		return environment(err)
	}

	installed, err := installer.New(client, verifier, root).Install(cmd.Context(), ref)
	if err != nil {
		return err
	}

	fmt.Printf("Installed %s\n", installed.Ref)
	fmt.Printf("  path:   %s\n", installed.InstallPath)
	fmt.Printf("  sha256: %s\n", installed.SHA256)
	fmt.Printf("  signer: %s\n", installed.Signer)
	return nil
}

func runUninstall(cmd *cobra.Command, args []string) error {
	ref, err := skill.ParseRef(args[0])
	if err != nil {
		return err
	}

	root, err := installRoot(cmd)
	if err != nil {
		return err
	}

	if err := installer.New(nil, nil, root).Uninstall(ref); err != nil {
		return err
	}
	fmt.Printf("Removed %s\n", ref)
	return nil
}

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
