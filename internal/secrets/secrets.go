// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key
// name and the file contents (trimmed) are the value.
//
// The only key paper-export reads is DropboxTokenKey.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DropboxTokenKey is the file holding a Dropbox API access token.
const DropboxTokenKey = "dropbox-access-token"

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := entry.Name()

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// FirstNonEmpty returns the first candidate that is not blank, trimmed, and
// reports which position it came from. It returns -1 when all are blank.
func FirstNonEmpty(candidates ...string) (string, int) {
	for i, c := range candidates {
		if v := strings.TrimSpace(c); v != "" {
			return v, i
		}
	}
	return "", -1
}
