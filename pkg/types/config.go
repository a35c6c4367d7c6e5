package types

import (
	"fmt"
	"strings"
	"time"
)

// Format selects both the export format requested from Dropbox and the
// extension of the written file.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat validates a user-supplied format name. Matching is
// case-insensitive; the empty string selects Markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(FormatMarkdown):
		return FormatMarkdown, nil
	case string(FormatHTML):
		return FormatHTML, nil
	}
	return "", fmt.Errorf("invalid format %q: must be markdown or html", s)
}

// Extension returns the output file extension for the format, including
// the leading dot.
func (f Format) Extension() string {
	if f == FormatHTML {
		return ".html"
	}
	return ".md"
}

// HTTPConfig holds shared HTTP settings for the Dropbox client.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-export/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// DropboxConfig holds settings for the Dropbox document service.
type DropboxConfig struct {
	HTTPConfig `yaml:",inline"`

	// Token is the Dropbox API access token.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	// ContentURL is the base URL of the Dropbox content API
	// (default https://content.dropboxapi.com).
	ContentURL string `json:"content_url" yaml:"content_url"`

	// RequestsPerSecond paces export requests. Zero disables pacing.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
}

// ExportConfig groups everything one export run needs.
type ExportConfig struct {
	// PaperDir is the directory searched recursively for .paper files.
	PaperDir string `json:"paper_dir" yaml:"paper_dir"`

	// OutputDir is the root under which converted files are written.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// DropboxRoot is the local directory that corresponds to the root of the
	// Dropbox namespace. Remote paths are computed relative to it.
	DropboxRoot string `json:"dropbox_root" yaml:"dropbox_root"`

	// Format selects markdown or html output.
	Format Format `json:"format" yaml:"format"`

	// Workers is the number of files exported concurrently (default 1).
	Workers int `json:"workers" yaml:"workers"`

	// TitleHeader prepends "# <title>" to Markdown output.
	TitleHeader bool `json:"title_header" yaml:"title_header"`

	// SanitizeHTML strips unsafe markup from HTML output.
	SanitizeHTML bool `json:"sanitize_html" yaml:"sanitize_html"`

	// LocalMarkdown requests HTML from Dropbox and converts it to Markdown
	// locally instead of using the service's Markdown export.
	LocalMarkdown bool `json:"local_markdown" yaml:"local_markdown"`

	Dropbox DropboxConfig `json:"dropbox" yaml:"dropbox"`
}

// RemoteFormat returns the format to request from the document service.
func (c ExportConfig) RemoteFormat() Format {
	if c.Format == FormatMarkdown && c.LocalMarkdown {
		return FormatHTML
	}
	return c.Format
}
