package files

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// LocalStore writes files under a base directory and returns the stored
// filename as the locator. Filenames are prefixed with a ULID so listings
// sort by creation time and a suggested name can never collide or escape
// the directory.
type LocalStore struct {
	dir string
}

// NewLocalStore creates a local file store rooted at dir
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Store writes data and returns an opaque locator for it
func (s *LocalStore) Store(ctx context.Context, data []byte, suggestedName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader)
	name := id.String()
	if base := sanitizeName(suggestedName); base != "" {
		name = name + "_" + base
	}

	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return name, nil
}

// Open returns the file behind a locator
func (s *LocalStore) Open(locator string) (*os.File, error) {
	if sanitizeName(locator) != locator {
		return nil, fmt.Errorf("invalid locator %q", locator)
	}
	return os.Open(filepath.Join(s.dir, locator))
}

// Remove deletes the file behind a locator. Callers use it to undo a
// Store when the surrounding database transaction fails.
func (s *LocalStore) Remove(locator string) error {
	if sanitizeName(locator) != locator {
		return fmt.Errorf("invalid locator %q", locator)
	}
	return os.Remove(filepath.Join(s.dir, locator))
}

// Path returns the on-disk path behind a locator
func (s *LocalStore) Path(locator string) string {
	return filepath.Join(s.dir, locator)
}

// sanitizeName strips path separators and parent references from a
// suggested filename
func sanitizeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return ""
	}
	return name
}
