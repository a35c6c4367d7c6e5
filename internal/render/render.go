// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render turns exported document content into the bytes written to
// disk. Rendering is deterministic: the same document always yields the same
// output.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"

	"github.com/pdiddy/paper-export/pkg/types"
)

// Options controls post-processing of exported content.
type Options struct {
	// Format is the format of the written file.
	Format types.Format

	// TitleHeader prepends "# <title>" to Markdown output.
	TitleHeader bool

	// SanitizeHTML strips scripts, event handlers and other unsafe markup
	// from HTML output.
	SanitizeHTML bool
}

// Renderer converts exported content. It is safe for concurrent use.
type Renderer struct {
	opts   Options
	md     *converter.Converter
	policy *bluemonday.Policy
}

// New creates a Renderer for opts.
func New(opts Options) *Renderer {
	r := &Renderer{opts: opts}
	if opts.Format == types.FormatMarkdown {
		r.md = converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		)
	}
	if opts.SanitizeHTML {
		r.policy = bluemonday.UGCPolicy()
	}
	return r
}

// Render returns the file contents for a document with the given title whose
// content was exported in the from format. Invalid UTF-8 is replaced with
// U+FFFD. HTML content is converted to Markdown when the output format is
// Markdown.
func (r *Renderer) Render(title string, from types.Format, content []byte) ([]byte, error) {
	content = bytes.ToValidUTF8(content, []byte("�"))

	switch r.opts.Format {
	case types.FormatMarkdown:
		body := string(content)
		if from == types.FormatHTML {
			md, err := r.md.ConvertString(body)
			if err != nil {
				return nil, fmt.Errorf("converting HTML to Markdown: %w", err)
			}
			body = md
		}
		if r.opts.TitleHeader {
			body = titleHeader(title) + body
		}
		return []byte(body), nil

	case types.FormatHTML:
		if from != types.FormatHTML {
			return nil, fmt.Errorf("cannot render %s content as html", from)
		}
		if r.policy != nil {
			content = r.policy.SanitizeBytes(content)
		}
		return content, nil
	}
	return nil, fmt.Errorf("unknown output format %q", r.opts.Format)
}

// titleHeader builds the Markdown heading for title. Newlines in the title
// would break the heading, so they are folded into spaces.
func titleHeader(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return ""
	}
	return "# " + title + "\n\n"
}
