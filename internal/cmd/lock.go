package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const documentLockTimeout = 5 * time.Second

// lockDocument takes the lock file next to the document database. Readers
// share it; a writer holds it alone.
func lockDocument(ctx context.Context, dbPath string, exclusive bool) (*flock.Flock, error) {
	lockPath := dbPath + ".lock"

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	lock := flock.New(lockPath)
	ctx, cancel := context.WithTimeout(ctx, documentLockTimeout)
	defer cancel()

	var locked bool
	var err error
	if exclusive {
		locked, err = lock.TryLockContext(ctx, 100*time.Millisecond)
	} else {
		locked, err = lock.TryRLockContext(ctx, 100*time.Millisecond)
	}
	if err != nil {
		return nil, fmt.Errorf("acquiring lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("timeout waiting for %s", lockPath)
	}
	return lock, nil
}
