// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dropbox exports Dropbox Paper documents through the Dropbox API v2
// files/export endpoint.
package dropbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"unicode/utf16"

	"github.com/pdiddy/paper-export/internal/httputil"
	"github.com/pdiddy/paper-export/internal/pathmap"
	"github.com/pdiddy/paper-export/pkg/types"
)

const (
	// DefaultContentURL is the Dropbox content API host.
	DefaultContentURL = "https://content.dropboxapi.com"

	exportEndpoint  = "/2/files/export"
	apiArgHeader    = "Dropbox-API-Arg"
	apiResultHeader = "Dropbox-API-Result"

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 64 << 10
)

// ErrNoToken is returned by NewClient when no access token is configured.
var ErrNoToken = errors.New("missing Dropbox access token")

// Document is a successfully exported Paper document.
type Document struct {
	// Name is the document title without the .paper extension.
	Name       string
	RemotePath string
	Format     types.Format
	Content    []byte
}

// Client calls the Dropbox export endpoint. The zero value is not usable;
// construct with NewClient.
type Client struct {
	http       httputil.Doer
	token      string
	contentURL string
	userAgent  string
}

// NewClient builds a client from cfg. The token is bound at construction
// and never read from the environment afterwards.
func NewClient(doer httputil.Doer, cfg types.DropboxConfig) (*Client, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, ErrNoToken
	}
	base := strings.TrimSuffix(cfg.ContentURL, "/")
	if base == "" {
		base = DefaultContentURL
	}
	return &Client{
		http:       doer,
		token:      token,
		contentURL: base,
		userAgent:  cfg.UserAgent,
	}, nil
}

type exportArg struct {
	Path         string `json:"path"`
	ExportFormat string `json:"export_format,omitempty"`
}

type exportResult struct {
	FileMetadata struct {
		Name        string `json:"name"`
		PathDisplay string `json:"path_display"`
	} `json:"file_metadata"`
}

// Export downloads the document at remotePath in the given format. Every
// failure is returned as a *ServiceError. Export sends exactly one request.
func (c *Client) Export(ctx context.Context, remotePath string, format types.Format) (*Document, error) {
	arg, err := json.Marshal(exportArg{Path: remotePath, ExportFormat: string(format)})
	if err != nil {
		return nil, &ServiceError{Kind: KindOther, Path: remotePath, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.contentURL+exportEndpoint, nil)
	if err != nil {
		return nil, &ServiceError{Kind: KindOther, Path: remotePath, Summary: "creating request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set(apiArgHeader, headerSafe(string(arg)))
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ServiceError{Kind: KindNetwork, Path: remotePath, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp, remotePath)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ServiceError{Kind: KindMalformed, Path: remotePath, Status: resp.StatusCode, Summary: "reading body", Err: err}
	}

	name := pathmap.StripExt(path.Base(remotePath))
	if raw := resp.Header.Get(apiResultHeader); raw != "" {
		var res exportResult
		if err := json.Unmarshal([]byte(raw), &res); err != nil {
			return nil, &ServiceError{
				Kind:    KindMalformed,
				Path:    remotePath,
				Status:  resp.StatusCode,
				Summary: "invalid " + apiResultHeader + " header",
				Err:     err,
			}
		}
		if res.FileMetadata.Name != "" {
			name = pathmap.StripExt(res.FileMetadata.Name)
		}
	}

	return &Document{
		Name:       name,
		RemotePath: remotePath,
		Format:     format,
		Content:    content,
	}, nil
}

// responseError turns a non-200 response into a *ServiceError.
func responseError(resp *http.Response, remotePath string) *ServiceError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	summary := strings.TrimSpace(string(body))
	var ae apiError
	if json.Unmarshal(body, &ae) == nil && ae.ErrorSummary != "" {
		summary = ae.ErrorSummary
	}

	kind := classify(resp.StatusCode, summary)
	if kind == KindRateLimited {
		if d := httputil.RetryAfter(resp); d > 0 {
			summary = strings.TrimSpace(fmt.Sprintf("%s (retry after %v)", summary, d))
		}
	}

	return &ServiceError{
		Kind:    kind,
		Path:    remotePath,
		Status:  resp.StatusCode,
		Summary: summary,
	}
}

// headerSafe escapes non-ASCII characters so the JSON argument can travel
// in an HTTP header, as the Dropbox API requires.
func headerSafe(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < 0x7f {
			b.WriteRune(r)
			continue
		}
		if r > 0xffff {
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(&b, `\u%04x\u%04x`, hi, lo)
			continue
		}
		fmt.Fprintf(&b, `\u%04x`, r)
	}
	return b.String()
}
