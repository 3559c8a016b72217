package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pfrederiksen/screening-watch/internal/showing"
)

const (
	// TimestampLayout is fixed width, so lexical order of names is time order
	TimestampLayout = "2006-01-02T15-04-05.000000000Z"
	snapshotExt     = ".csv"
)

var (
	// ErrWrite wraps failures to encode or write a snapshot
	ErrWrite = errors.New("snapshot write failed")
	// ErrNotFound is returned when a listed snapshot disappears before it is read
	ErrNotFound = errors.New("snapshot not found")
	// ErrCorrupt wraps snapshot lines that cannot be decoded
	ErrCorrupt = errors.New("snapshot corrupt")
)

// Snapshot describes one snapshot file
type Snapshot struct {
	Name    string
	Path    string
	TakenAt time.Time
}

// Storage handles persistence of showing snapshots
type Storage struct {
	dataDir string
	now     func() time.Time
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
		now:     time.Now,
	}, nil
}

// Dir returns the snapshot directory
func (s *Storage) Dir() string {
	return s.dataDir
}

// Persist writes m to a new snapshot file and returns its path. Showings are
// sorted by time within each date before encoding; m itself is not modified.
func (s *Storage) Persist(m showing.ByDate) (string, error) {
	sorted := m.Clone()
	sorted.SortByTime()

	var buf bytes.Buffer
	if err := Encode(&buf, sorted); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}

	name := s.now().UTC().Format(TimestampLayout) + snapshotExt
	path := filepath.Join(s.dataDir, name)

	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%w: %s already exists", ErrWrite, name)
	}

	tmp, err := os.CreateTemp(s.dataDir, ".snapshot-*.tmp")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}

	return path, nil
}

// List returns the snapshot files in ascending time order. Files whose names
// do not carry a timestamp are skipped.
func (s *Storage) List() ([]Snapshot, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	snapshots := make([]Snapshot, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), snapshotExt) {
			continue
		}
		takenAt, err := time.Parse(TimestampLayout, strings.TrimSuffix(entry.Name(), snapshotExt))
		if err != nil {
			continue
		}
		snapshots = append(snapshots, Snapshot{
			Name:    entry.Name(),
			Path:    filepath.Join(s.dataDir, entry.Name()),
			TakenAt: takenAt,
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].TakenAt.Before(snapshots[j].TakenAt)
	})

	return snapshots, nil
}

// Load decodes the snapshot at path
func (s *Storage) Load(path string) (showing.ByDate, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
		}
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// LoadMostRecent decodes the newest snapshot. With no snapshots on disk it
// returns an empty collection and no error.
func (s *Storage) LoadMostRecent() (showing.ByDate, error) {
	snapshots, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return make(showing.ByDate), nil
	}

	return s.Load(snapshots[len(snapshots)-1].Path)
}
