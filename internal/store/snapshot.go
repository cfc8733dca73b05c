package store

import (
	"fmt"

	"github.com/frankwiles/gg/internal/model"
)

// validateSnapshot rejects incomplete or inconsistent snapshots before any
// write happens. Full names must be unique; a duplicate is a provider
// defect and never silently deduplicated into the cache.
func validateSnapshot(snap model.Snapshot) error {
	if snap.FetchedAt.IsZero() {
		return &SyncError{Reason: "missing fetch timestamp"}
	}

	logins := make(map[string]struct{}, len(snap.Orgs))

	for _, org := range snap.Orgs {
		if org.Login == "" {
			return &SyncError{Reason: "organization with empty login"}
		}

		if _, dup := logins[org.Login]; dup {
			return &SyncError{Reason: fmt.Sprintf("duplicate organization %q", org.Login)}
		}

		logins[org.Login] = struct{}{}
	}

	fullNames := make(map[string]struct{}, len(snap.Repos))

	for _, repo := range snap.Repos {
		if repo.FullName == "" || repo.Name == "" || repo.OwnerLogin == "" {
			return &SyncError{Reason: "repository with incomplete identity"}
		}

		if _, dup := fullNames[repo.FullName]; dup {
			return &SyncError{Reason: fmt.Sprintf("duplicate repository %q", repo.FullName)}
		}

		fullNames[repo.FullName] = struct{}{}
	}

	return nil
}
