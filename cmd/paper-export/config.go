// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-export/pkg/types"
)

const redacted = "<redacted>"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Config resolves flags, environment variables, the config file and
.secrets/ exactly as an export run would, and prints the result. The access
token is never printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(viper.GetViper(), loadedSecrets)
		if err != nil {
			return err
		}
		return writeConfig(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// writeConfig marshals cfg to w with the token replaced.
func writeConfig(w io.Writer, cfg types.ExportConfig) error {
	if cfg.Dropbox.Token != "" {
		cfg.Dropbox.Token = redacted
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_, err = w.Write(data)
	return err
}
