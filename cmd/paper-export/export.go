// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-export/internal/dropbox"
	"github.com/pdiddy/paper-export/internal/export"
	"github.com/pdiddy/paper-export/internal/httputil"
	"github.com/pdiddy/paper-export/internal/secrets"
	"github.com/pdiddy/paper-export/pkg/types"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultUserAgent   = "paper-export/0.1"
	defaultDropboxRoot = "~/Dropbox"

	// tokenEnv is the conventional Dropbox credential variable.
	tokenEnv = "DROPBOX_ACCESS_TOKEN"
)

// errNoToken is the configuration error reported when no credential source
// yields a token.
var errNoToken = errors.New("Dropbox access token missing: provide --dropbox-token, set " +
	tokenEnv + ", or write it to " + secretsDir + secrets.DropboxTokenKey)

// flagKeys maps command-line flags to their viper keys.
var flagKeys = map[string]string{
	"paper-dir":      "paper_dir",
	"output-dir":     "output_dir",
	"format":         "format",
	"dropbox-root":   "dropbox_root",
	"dropbox-token":  "dropbox_token",
	"workers":        "workers",
	"rate":           "rate",
	"timeout":        "timeout",
	"title-header":   "title_header",
	"sanitize-html":  "sanitize_html",
	"local-markdown": "local_markdown",
	"content-url":    "content_url",
}

func registerExportFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.String("paper-dir", "", "directory containing .paper files (processed recursively, required)")
	f.String("output-dir", "", "directory where converted files are written (required)")
	f.String("format", string(types.FormatMarkdown), "export format: markdown or html")
	f.String("dropbox-root", defaultDropboxRoot, "local Dropbox root used to compute remote paths")
	f.String("dropbox-token", "", "Dropbox API access token (falls back to "+tokenEnv+")")
	f.Int("workers", 1, "number of documents exported concurrently")
	f.Float64("rate", 0, "maximum export requests per second (0 = unlimited)")
	f.Duration("timeout", defaultTimeout, "HTTP request timeout")
	f.Bool("title-header", false, "prepend the document title as a Markdown heading")
	f.Bool("sanitize-html", false, "strip scripts and unsafe attributes from HTML output")
	f.Bool("local-markdown", false, "request HTML from Dropbox and convert it to Markdown locally")
	f.String("content-url", dropbox.DefaultContentURL, "Dropbox content API base URL")
	f.MarkHidden("content-url")

	for flag, key := range flagKeys {
		viper.BindPFlag(key, f.Lookup(flag))
	}
	viper.BindEnv("dropbox_token", tokenEnv, "PAPER_EXPORT_DROPBOX_TOKEN")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return err
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}
	cmd.SilenceUsage = true

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	doer := httputil.NewThrottledClient(&http.Client{Timeout: cfg.Dropbox.Timeout}, cfg.Dropbox.RequestsPerSecond, 1)
	client, err := dropbox.NewClient(doer, cfg.Dropbox)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	_, err = export.New(client, cfg, cmd.OutOrStdout()).Run(ctx)
	return err
}

// resolveConfig assembles an ExportConfig from v. The token comes from the
// flag, then the environment, then the config file (all through v), and
// finally from the secrets directory.
func resolveConfig(v *viper.Viper, loaded map[string]string) (types.ExportConfig, error) {
	format, err := types.ParseFormat(v.GetString("format"))
	if err != nil {
		return types.ExportConfig{}, err
	}

	token, _ := secrets.FirstNonEmpty(v.GetString("dropbox_token"), loaded[secrets.DropboxTokenKey])

	timeout := v.GetDuration("timeout")
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	root := v.GetString("dropbox_root")
	if root == "" {
		root = defaultDropboxRoot
	}

	return types.ExportConfig{
		PaperDir:      expandHome(v.GetString("paper_dir")),
		OutputDir:     expandHome(v.GetString("output_dir")),
		DropboxRoot:   expandHome(root),
		Format:        format,
		Workers:       max(v.GetInt("workers"), 1),
		TitleHeader:   v.GetBool("title_header"),
		SanitizeHTML:  v.GetBool("sanitize_html"),
		LocalMarkdown: v.GetBool("local_markdown"),
		Dropbox: types.DropboxConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   timeout,
				UserAgent: defaultUserAgent,
			},
			Token:             token,
			ContentURL:        v.GetString("content_url"),
			RequestsPerSecond: v.GetFloat64("rate"),
		},
	}, nil
}

// validateConfig reports configuration errors that must stop the run before
// any file is touched.
func validateConfig(cfg types.ExportConfig) error {
	if cfg.PaperDir == "" {
		return fmt.Errorf("--paper-dir is required")
	}
	if cfg.OutputDir == "" {
		return fmt.Errorf("--output-dir is required")
	}
	info, err := os.Stat(cfg.PaperDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("--paper-dir must point to a directory: %s", cfg.PaperDir)
	}
	if _, err := os.ReadDir(cfg.PaperDir); err != nil {
		return fmt.Errorf("--paper-dir is not readable: %w", err)
	}
	if cfg.Dropbox.Token == "" {
		return errNoToken
	}
	if cfg.Dropbox.RequestsPerSecond < 0 {
		return fmt.Errorf("--rate must not be negative")
	}
	return nil
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
