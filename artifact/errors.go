package artifact

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/andishehs/MetaGen/core"
)

var (
	// ErrNotFound is returned when an artifact for the given namespace / name
	// pair does not exist in the underlying store.
	ErrNotFound = fmt.Errorf("artifact %w", core.ErrNotFound)

	// ErrInvalidName is returned for empty names or names that would escape
	// their namespace.
	ErrInvalidName = errors.New("invalid artifact name")
)

func checkName(namespace, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	for _, part := range []string{namespace, name} {
		if strings.ContainsAny(part, `/\`) || part == ".." || filepath.IsAbs(part) {
			return fmt.Errorf("%w: %q", ErrInvalidName, part)
		}
	}
	return nil
}

// FileName turns a display name into a file name stem: surrounding spaces are
// trimmed and inner spaces become underscores.
func FileName(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
}
