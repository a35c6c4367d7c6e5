// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/pdiddy/paper-export/internal/pathmap"
)

// Discover lazily yields every <name>.paper file under root in lexical
// order, depth first. Symbolic links to files and directories are followed; a
// directory reached twice through links is walked once. Directories that
// cannot be read are yielded as errors and the walk continues.
func Discover(root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		walk(root, make(map[string]bool), yield)
	}
}

func walk(dir string, visited map[string]bool, yield func(string, error) bool) bool {
	resolved := Resolve(dir)
	if visited[resolved] {
		return true
	}
	visited[resolved] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		return yield("", fmt.Errorf("reading directory %s: %w", dir, err))
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		mode := entry.Type()
		if mode&fs.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil {
				if !yield("", fmt.Errorf("following link %s: %w", path, err)) {
					return false
				}
				continue
			}
			mode = info.Mode().Type()
		}

		switch {
		case mode.IsDir():
			if !walk(path, visited, yield) {
				return false
			}
		case mode.IsRegular() && pathmap.IsPaper(entry.Name()):
			if !yield(path, nil) {
				return false
			}
		}
	}
	return true
}

// Resolve returns the absolute, symlink-free form of path. If links cannot
// be evaluated (for example because path does not exist yet) the cleaned
// absolute path is returned.
func Resolve(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
