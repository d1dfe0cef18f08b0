package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	backupPrefix     = "bot-"
	backupSuffix     = ".db"
	backupTimeLayout = "20060102T150405Z"
)

// Backup writes a full copy of the database into dir and prunes the oldest
// copies so that at most keep remain. It returns the path of the new backup.
func (s *Store) Backup(ctx context.Context, dir string, keep int) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &StorageError{Op: "backup", Err: err}
	}

	path := filepath.Join(dir, backupPrefix+s.now().Format(backupTimeLayout)+backupSuffix)

	// VACUUM INTO refuses to overwrite an existing file.
	if _, err := os.Stat(path); err == nil {
		return "", &StorageError{Op: "backup", Err: fmt.Errorf("backup %s already exists", path)}
	}

	ctx, cancel := context.WithTimeout(ctx, 5*s.timeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return "", &StorageError{Op: "backup", Err: err}
	}

	removed, err := PruneBackups(dir, keep)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("dir", dir).
			Msg("Failed to prune old backups")
	}

	s.logger.Info().
		Str("path", path).
		Int("pruned", len(removed)).
		Msg("Database backup created")

	return path, nil
}

// ListBackups returns backup file paths in dir, oldest first
func ListBackups(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, backupPrefix), backupSuffix)
		if _, err := time.Parse(backupTimeLayout, stamp); err != nil {
			continue
		}
		names = append(names, name)
	}

	// The timestamp layout sorts lexically in chronological order.
	sort.Strings(names)

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}

// PruneBackups deletes the oldest backups in dir until at most keep remain
func PruneBackups(dir string, keep int) ([]string, error) {
	paths, err := ListBackups(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) <= keep {
		return nil, nil
	}

	var removed []string
	for _, path := range paths[:len(paths)-keep] {
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("failed to remove backup %s: %w", path, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}
