// Package tempfile owns the per-request scratch files of a conversion: the
// staged SQL script and the generated workbook.
//
// Files are created with unpredictable names and removed with a bounded
// retry, because on some platforms a file cannot be unlinked while another
// process (the database CLI client) still holds it open. Removal problems are
// logged, never returned.
package tempfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/JonMunkholm/sql2xlsx/internal/logging"
)

// ErrRetryExhausted is logged when a locked file is still present after every
// delete attempt.
var ErrRetryExhausted = errors.New("tempfile: delete retries exhausted")

// DefaultAttempts is how many times a locked file is tried before giving up.
const DefaultAttempts = 5

// DefaultDelay is the pause between two delete attempts.
const DefaultDelay = time.Second

// Store creates and removes scratch files inside one directory.
type Store struct {
	dir      string
	attempts int
	delay    time.Duration

	// swapped in tests
	remove func(string) error
	sleep  func(time.Duration)
}

// NewStore returns a store rooted at dir (os.TempDir() when empty).
// Non-positive attempts and negative delays fall back to the defaults.
func NewStore(dir string, attempts int, delay time.Duration) *Store {
	if dir == "" {
		dir = os.TempDir()
	}
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if delay < 0 {
		delay = DefaultDelay
	}

	return &Store{
		dir:      dir,
		attempts: attempts,
		delay:    delay,
		remove:   os.Remove,
		sleep:    time.Sleep,
	}
}

// Dir returns the directory files are created in.
func (s *Store) Dir() string {
	return s.dir
}

// Create opens a new, uniquely named file "<prefix><random><suffix>".
// The caller owns the handle and must close it.
func (s *Store) Create(prefix, suffix string) (*os.File, error) {
	f, err := os.CreateTemp(s.dir, prefix+"*"+suffix)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return f, nil
}

// Remove deletes path and reports whether it is gone. A path that does not
// exist counts as removed. Failures are logged against ctx.
func (s *Store) Remove(ctx context.Context, path string) bool {
	if path == "" {
		return true
	}

	err := s.removeWithRetry(path)
	if err == nil {
		return true
	}

	logger := logging.FromContext(ctx)
	if errors.Is(err, ErrRetryExhausted) {
		logger.Warn("could not remove temp file",
			"path", path,
			"attempts", s.attempts,
			"error", err,
		)
	} else {
		logger.Error("error removing temp file",
			"path", path,
			"error", err,
		)
	}
	return false
}

// removeWithRetry retries only on permission errors, the way a lock held by
// another process surfaces.
func (s *Store) removeWithRetry(path string) error {
	var err error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		err = s.remove(path)
		switch {
		case err == nil, errors.Is(err, fs.ErrNotExist):
			return nil
		case !errors.Is(err, fs.ErrPermission):
			return err
		}

		if attempt < s.attempts {
			s.sleep(s.delay)
		}
	}
	return fmt.Errorf("%w: %s after %d attempts: %v", ErrRetryExhausted, path, s.attempts, err)
}
