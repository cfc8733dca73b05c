// Package store is the durable local mirror of GitHub organizations and
// repositories plus the append-only usage log. Two backends implement the
// same Store interface: the default SQLite file and, behind the "bolt"
// build tag, a bbolt file.
package store

import (
	"path/filepath"

	"github.com/frankwiles/gg/internal/application"
	"github.com/frankwiles/gg/internal/model"
)

// Store defines the cache operations used by the app.
type Store interface {
	// Refresh replaces the org/repo set with the supplied snapshot.
	// All-or-nothing: on any error the prior contents are untouched.
	// Usage events are preserved regardless of which repositories survive.
	Refresh(snap model.Snapshot) error

	// RecordUsage appends one usage event with the current timestamp.
	RecordUsage(target string, kind model.TargetKind, action string) error

	// Candidates returns every organization and repository as search
	// candidates, in a consistent (alphabetical) order. Ranking reorders.
	Candidates() ([]model.Candidate, error)

	// Usage returns the full usage event log, oldest first.
	Usage() ([]model.UsageEvent, error)

	// Clear removes all organizations, repositories and usage events.
	Clear() error

	// Status reports entity counts, last refresh time and file size.
	Status() (*model.CacheStatus, error)

	// Export returns a faithful serialization of all current entities.
	Export() (*model.Export, error)

	// Path returns the store file path on disk.
	Path() string

	Close() error
}

// DefaultPath returns the cache file location inside the gg config directory.
func DefaultPath() (string, error) {
	dir, err := application.GetApplicationDirectory()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, cacheFileName), nil
}

// Open opens or creates the cache store at path. The backend is selected
// at build time; see sqlite.go and bolt.go.
func Open(path string) (Store, error) {
	return initStore(path)
}
