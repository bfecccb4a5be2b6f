package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Register a namespace and save its API key",
	Long: `Register a namespace slug with the registry and store the returned
one-time API key in the CLI config file.

The key is shown exactly once by the registry; losing the config file
means registering a new namespace.`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().String("namespace", "", "Namespace slug to register (required)")
	loginCmd.Flags().String("email", "", "Contact email for the namespace (required)")
	_ = loginCmd.MarkFlagRequired("namespace")
	_ = loginCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	client, cfg, err := loadClient(cmd)
	if err != nil {
		return err
	}

	slug, _ := cmd.Flags().GetString("namespace")
	email, _ := cmd.Flags().GetString("email")

	grant, err := client.RegisterNamespace(cmd.Context(), slug, email)
	if err != nil {
		return err
	}

	cfg.Namespace = grant.Slug
	cfg.APIKey = grant.APIKey
	if override, _ := cmd.Flags().GetString("registry"); override != "" {
		cfg.Registry = override
	}
	if err := cliconfigSave(cfg); err != nil {
		return err
	}

	fmt.Printf("Registered namespace %q\n", grant.Slug)
	fmt.Println("API key saved to the CLI config file.")
	return nil
}
