// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pathmap

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-export/pkg/types"
)

func TestMap(t *testing.T) {
	root := filepath.FromSlash("/home/ada/Dropbox")
	out := filepath.FromSlash("/tmp/exports")

	tests := []struct {
		name       string
		source     string
		format     types.Format
		wantRemote string
		wantOutput string
	}{
		{
			name:       "nested markdown",
			source:     "/home/ada/Dropbox/Notes/Trip.paper",
			format:     types.FormatMarkdown,
			wantRemote: "/Notes/Trip",
			wantOutput: "/tmp/exports/Notes/Trip.md",
		},
		{
			name:       "top level html",
			source:     "/home/ada/Dropbox/Ideas.paper",
			format:     types.FormatHTML,
			wantRemote: "/Ideas",
			wantOutput: "/tmp/exports/Ideas.html",
		},
		{
			name:       "multiple dots keep inner dots",
			source:     "/home/ada/Dropbox/Plans/v1.2.draft.paper",
			format:     types.FormatMarkdown,
			wantRemote: "/Plans/v1.2.draft",
			wantOutput: "/tmp/exports/Plans/v1.2.draft.md",
		},
		{
			name:       "no extension stays bare",
			source:     "/home/ada/Dropbox/README",
			format:     types.FormatMarkdown,
			wantRemote: "/README",
			wantOutput: "/tmp/exports/README.md",
		},
		{
			name:       "uppercase extension stripped",
			source:     "/home/ada/Dropbox/Shout.PAPER",
			format:     types.FormatMarkdown,
			wantRemote: "/Shout",
			wantOutput: "/tmp/exports/Shout.md",
		},
		{
			name:       "root compared case-insensitively",
			source:     "/home/ada/dropbox/Team/Weekly Sync.paper",
			format:     types.FormatMarkdown,
			wantRemote: "/Team/Weekly Sync",
			wantOutput: "/tmp/exports/Team/Weekly Sync.md",
		},
		{
			name:       "unclean source path",
			source:     "/home/ada/Dropbox/Notes/../Notes/./Trip.paper",
			format:     types.FormatMarkdown,
			wantRemote: "/Notes/Trip",
			wantOutput: "/tmp/exports/Notes/Trip.md",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Map(filepath.FromSlash(tt.source), root, out, tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRemote, m.RemotePath)
			assert.Equal(t, filepath.FromSlash(tt.wantOutput), m.OutputPath)
		})
	}
}

func TestMap_OutsideRoot(t *testing.T) {
	root := filepath.FromSlash("/home/ada/Dropbox")

	tests := []struct {
		name   string
		source string
	}{
		{"sibling directory", "/home/ada/Other/Stray.paper"},
		{"textual prefix only", "/home/ada/Dropboxx/Notes/Trip.paper"},
		{"the root itself", "/home/ada/Dropbox"},
		{"parent of root", "/home/ada/Stray.paper"},
		{"escapes with dot-dot", "/home/ada/Dropbox/../Stray.paper"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Map(filepath.FromSlash(tt.source), root, "out", types.FormatMarkdown)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrOutsideRoot))

			var skip *SkipError
			require.True(t, errors.As(err, &skip))
			assert.Contains(t, skip.Error(), "outside Dropbox root")
			assert.Contains(t, skip.Error(), root)
		})
	}
}

func TestMap_RelativeOutputRoot(t *testing.T) {
	root := filepath.FromSlash("/srv/Dropbox")
	m, err := Map(filepath.FromSlash("/srv/Dropbox/a/b/c.paper"), root, "exports", types.FormatHTML)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("exports", "a", "b", "c.html"), m.OutputPath)
	assert.Equal(t, filepath.Join("a", "b", "c.paper"), m.Relative)
	assert.Equal(t, "/a/b/c", m.RemotePath)
}

func TestStripExt(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Trip.paper", "Trip"},
		{"Trip.Paper", "Trip"},
		{"a.b.paper", "a.b"},
		{"notes.md", "notes.md"},
		{"bare", "bare"},
		{".paper", ".paper"},
		{"paper", "paper"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, StripExt(tt.in))
		})
	}
}

func TestIsPaper(t *testing.T) {
	assert.True(t, IsPaper("Trip.paper"))
	assert.True(t, IsPaper("Trip.PAPER"))
	assert.False(t, IsPaper("Trip.md"))
	assert.False(t, IsPaper(".paper"))
}
