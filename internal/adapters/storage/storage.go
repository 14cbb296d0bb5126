// Package storage provides dataset source adapters for local directories,
// S3, Azure Blob Storage and plain HTTP servers.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// saveFile streams r into dest through a temporary file in the same
// directory, so an interrupted download never leaves a partial dataset.
func saveFile(dest string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

// relativeKey strips the configured prefix from an object key.
func relativeKey(key, prefix string) string {
	key = strings.TrimPrefix(key, prefix)
	return strings.TrimPrefix(key, "/")
}

// joinKey prepends the prefix to a relative key.
func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return strings.TrimSuffix(prefix, "/") + "/" + key
}
