package main

import (
	"github.com/spf13/cobra"

	"github.com/skregdev/skreg/internal/cliconfig"
	"github.com/skregdev/skreg/internal/registry"
)

// loadClient builds a registry client from the config file and the
// --registry override. The returned config is the loaded file, so
// callers can persist changes back.
func loadClient(cmd *cobra.Command) (*registry.Client, *cliconfig.Config, error) {
	cfg, err := cliconfig.Load()
	if err != nil {
		return nil, nil, environment(err)
	}

	base := cfg.Registry
	if override, _ := cmd.Flags().GetString("registry"); override != "" {
		base = override
	}

	client := registry.New(base)
	if cfg.APIKey != "" {
		client = client.WithAPIKey(cfg.APIKey)
	}
	return client, cfg, nil
}

func cliconfigSave(cfg *cliconfig.Config) error {
	return environment(cliconfig.Save(cfg))
}
