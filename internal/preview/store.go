package preview

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"go.uber.org/zap"
)

var (
	ErrArtifactNotFound = errors.New("preview artifact not found")
	ErrInvalidName      = errors.New("invalid artifact name")
)

var safeNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Store keeps preview artifacts as plain files in one directory.
type Store struct {
	dir    string
	logger *zap.Logger
}

func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create preview dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

func (s *Store) path(name string) (string, error) {
	if !safeNameRe.MatchString(name) || filepath.Base(name) != name {
		return "", fmt.Errorf("%w: %s", ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name), nil
}

// Save writes an artifact through a temp file and an atomic rename so a
// concurrent reader never sees a torn image.
func (s *Store) Save(name string, data []byte) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".preview-*")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to store artifact: %w", err)
	}

	s.logger.Debug("preview artifact saved", zap.String("name", name), zap.Int("bytes", len(data)))
	return nil
}

func (s *Store) Exists(name string) bool {
	path, err := s.path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (s *Store) Read(name string) ([]byte, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return data, nil
}

// Path returns the on-disk location of an existing artifact, for handlers
// that serve the file directly.
func (s *Store) Path(name string) (string, error) {
	path, err := s.path(name)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", ErrArtifactNotFound
		}
		return "", fmt.Errorf("failed to stat artifact: %w", err)
	}
	return path, nil
}

func (s *Store) Delete(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrArtifactNotFound
		}
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	return nil
}

// CleanupResult reports what a cleanup pass removed.
type CleanupResult struct {
	Deleted int
	Errors  []string
}

// CleanupOlderThan removes artifacts whose modification time is older than
// the given number of days.
func (s *Store) CleanupOlderThan(days int) (CleanupResult, error) {
	var result CleanupResult
	cutoff := time.Now().AddDate(0, 0, -days)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return result, fmt.Errorf("failed to read preview dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", entry.Name(), err))
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", entry.Name(), err))
			continue
		}
		result.Deleted++
	}

	if result.Deleted > 0 {
		s.logger.Info("preview cleanup finished",
			zap.Int("deleted", result.Deleted),
			zap.Int("errors", len(result.Errors)),
			zap.Int("days", days))
	}
	return result, nil
}

// Stats returns the artifact count and their combined size in bytes.
func (s *Store) Stats() (int, int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read preview dir: %w", err)
	}

	var count int
	var total int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		count++
		total += info.Size()
	}
	return count, total, nil
}

// HumanSize formats a byte count the way the status endpoint reports it.
func HumanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
