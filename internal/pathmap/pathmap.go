// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pathmap maps a local .paper file to the Dropbox path used to
// export it and to the file the export is written to.
//
// Mapping is pure string work. Callers resolve symbolic links before
// calling Map if they need links followed.
package pathmap

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pdiddy/paper-export/pkg/types"
)

// PaperExt is the extension of Dropbox Paper placeholder files.
const PaperExt = ".paper"

// ErrOutsideRoot is returned (wrapped in a *SkipError) when a source file
// is not a descendant of the Dropbox root.
var ErrOutsideRoot = errors.New("file lies outside Dropbox root")

// SkipError reports a source file that cannot be mapped and must be skipped.
type SkipError struct {
	Source string
	Root   string
	Err    error
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("%v %s", e.Err, e.Root)
}

func (e *SkipError) Unwrap() error { return e.Err }

// Mapping is the result of mapping one source file.
type Mapping struct {
	// Source is the cleaned absolute source path.
	Source string

	// Relative is the source path relative to the Dropbox root, using the
	// local separator and keeping the .paper extension.
	Relative string

	// RemotePath is the Dropbox document path, always "/"-separated and
	// rooted, without the .paper extension.
	RemotePath string

	// OutputPath is where the exported document is written.
	OutputPath string
}

// Map computes the remote and output paths for sourceFile. It returns a
// *SkipError wrapping ErrOutsideRoot when sourceFile is not strictly inside
// dropboxRoot. Components are compared case-insensitively, so a root of
// /Dropbox does not contain /Dropboxx/a.paper.
func Map(sourceFile, dropboxRoot, outputRoot string, format types.Format) (Mapping, error) {
	src, err := filepath.Abs(sourceFile)
	if err != nil {
		return Mapping{}, fmt.Errorf("resolving %s: %w", sourceFile, err)
	}
	root, err := filepath.Abs(dropboxRoot)
	if err != nil {
		return Mapping{}, fmt.Errorf("resolving Dropbox root %s: %w", dropboxRoot, err)
	}

	rel, ok := relativeParts(root, src)
	if !ok {
		return Mapping{}, &SkipError{Source: src, Root: root, Err: ErrOutsideRoot}
	}

	last := len(rel) - 1
	base := StripExt(rel[last])

	remote := make([]string, len(rel))
	copy(remote, rel)
	remote[last] = base

	out := make([]string, 0, len(rel)+1)
	out = append(out, outputRoot)
	out = append(out, rel[:last]...)
	out = append(out, base+format.Extension())

	return Mapping{
		Source:     src,
		Relative:   filepath.Join(rel...),
		RemotePath: "/" + strings.Join(remote, "/"),
		OutputPath: filepath.Join(out...),
	}, nil
}

// StripExt removes a trailing .paper extension (any case) from name.
// Other dots are left alone, and a name without the extension is returned
// unchanged. A name that is exactly ".paper" is a hidden file with no
// document name and is returned unchanged.
func StripExt(name string) string {
	if len(name) > len(PaperExt) && strings.EqualFold(name[len(name)-len(PaperExt):], PaperExt) {
		return name[:len(name)-len(PaperExt)]
	}
	return name
}

// IsPaper reports whether name carries the .paper extension after a
// non-empty stem, so ".paper" itself is not a document.
func IsPaper(name string) bool {
	return StripExt(name) != name
}

// relativeParts returns the components of path below root. ok is false
// unless path is a strict descendant of root.
func relativeParts(root, path string) (parts []string, ok bool) {
	if !strings.EqualFold(filepath.VolumeName(root), filepath.VolumeName(path)) {
		return nil, false
	}
	rootParts := split(root)
	pathParts := split(path)
	if len(pathParts) <= len(rootParts) {
		return nil, false
	}
	for i, p := range rootParts {
		if !strings.EqualFold(p, pathParts[i]) {
			return nil, false
		}
	}
	return pathParts[len(rootParts):], true
}

// split breaks a cleaned absolute path into its non-empty components,
// accepting either separator.
func split(p string) []string {
	p = filepath.ToSlash(p[len(filepath.VolumeName(p)):])
	var parts []string
	for _, s := range strings.Split(p, "/") {
		if s != "" && s != "." {
			parts = append(parts, s)
		}
	}
	return parts
}
