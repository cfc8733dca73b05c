//go:build !bolt

package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/frankwiles/gg/internal/model"
)

func setupTestStore(t *testing.T) Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test-cache.db")

	st, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}

	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Logf("failed to close store: %v", err)
		}
	})

	return st
}

func testSnapshot() model.Snapshot {
	return model.Snapshot{
		Orgs: []model.Org{
			{ID: 1, Login: "frankwiles"},
			{ID: 2, Login: "acme"},
		},
		Repos: []model.Repo{
			{ID: 10, Name: "gg", FullName: "frankwiles/gg", OwnerLogin: "frankwiles"},
			{ID: 11, Name: "blog", FullName: "frankwiles/blog", OwnerLogin: "frankwiles", Private: true},
			{ID: 12, Name: "widget", FullName: "acme/widget", OwnerLogin: "acme", Language: "Go"},
		},
		FetchedAt: time.Now().UTC(),
	}
}

func TestStore_RefreshAndCandidates(t *testing.T) {
	st := setupTestStore(t)

	require.NoError(t, st.Refresh(testSnapshot()))

	candidates, err := st.Candidates()
	require.NoError(t, err)

	// 3 repos plus 2 org pseudo-entries
	require.Len(t, candidates, 5)

	byName := make(map[string]model.Candidate, len(candidates))
	for _, c := range candidates {
		byName[c.FullName] = c
	}

	require.Contains(t, byName, "frankwiles/gg")
	require.Contains(t, byName, "frankwiles/")
	require.Equal(t, model.TargetOrg, byName["frankwiles/"].Kind)
	require.Equal(t, model.TargetRepo, byName["acme/widget"].Kind)
	require.Equal(t, "Go", byName["acme/widget"].Language)
	require.True(t, byName["frankwiles/blog"].Private)
}

func TestStore_RefreshIsIdempotent(t *testing.T) {
	st := setupTestStore(t)
	snap := testSnapshot()

	require.NoError(t, st.Refresh(snap))
	require.NoError(t, st.RecordUsage("frankwiles/gg", model.TargetRepo, "overview"))

	eventsBefore, err := st.Usage()
	require.NoError(t, err)

	require.NoError(t, st.Refresh(snap))

	status, err := st.Status()
	require.NoError(t, err)
	require.Equal(t, 2, status.Orgs)
	require.Equal(t, 3, status.Repos)

	eventsAfter, err := st.Usage()
	require.NoError(t, err)
	require.Equal(t, eventsBefore, eventsAfter)
}

func TestStore_RefreshRemovesStaleEntities(t *testing.T) {
	st := setupTestStore(t)

	require.NoError(t, st.Refresh(testSnapshot()))
	require.NoError(t, st.RecordUsage("acme/widget", model.TargetRepo, "issues"))

	next := model.Snapshot{
		Orgs: []model.Org{
			{ID: 1, Login: "frankwiles"},
		},
		Repos: []model.Repo{
			{ID: 10, Name: "gg", FullName: "frankwiles/gg", OwnerLogin: "frankwiles"},
		},
		FetchedAt: time.Now().UTC(),
	}

	require.NoError(t, st.Refresh(next))

	candidates, err := st.Candidates()
	require.NoError(t, err)

	for _, c := range candidates {
		require.NotEqual(t, "acme/widget", c.FullName, "stale repo survived refresh")
		require.NotEqual(t, "acme/", c.FullName, "stale org survived refresh")
	}

	// The event referencing the removed repo is orphaned but retained
	export, err := st.Export()
	require.NoError(t, err)
	require.Len(t, export.UsageEvents, 1)
	require.Equal(t, "acme/widget", export.UsageEvents[0].Target)
}

func TestStore_RefreshUpdatesInPlace(t *testing.T) {
	st := setupTestStore(t)

	require.NoError(t, st.Refresh(testSnapshot()))

	next := testSnapshot()
	next.Repos[0].Description = "fuzzy repo jumper"
	next.FetchedAt = time.Now().UTC()

	require.NoError(t, st.Refresh(next))

	status, err := st.Status()
	require.NoError(t, err)
	require.Equal(t, 3, status.Repos)

	candidates, err := st.Candidates()
	require.NoError(t, err)

	for _, c := range candidates {
		if c.FullName == "frankwiles/gg" {
			require.Equal(t, "fuzzy repo jumper", c.Description)
		}
	}
}

func TestStore_RefreshRejectsBadSnapshots(t *testing.T) {
	st := setupTestStore(t)

	require.NoError(t, st.Refresh(testSnapshot()))

	tests := []struct {
		name string
		snap model.Snapshot
	}{
		{
			name: "missing fetch timestamp",
			snap: model.Snapshot{Orgs: []model.Org{{ID: 1, Login: "a"}}},
		},
		{
			name: "duplicate full name",
			snap: model.Snapshot{
				Repos: []model.Repo{
					{ID: 1, Name: "b", FullName: "a/b", OwnerLogin: "a"},
					{ID: 2, Name: "b", FullName: "a/b", OwnerLogin: "a"},
				},
				FetchedAt: time.Now(),
			},
		},
		{
			name: "repo without identity",
			snap: model.Snapshot{
				Repos:     []model.Repo{{ID: 1}},
				FetchedAt: time.Now(),
			},
		},
		{
			name: "org without login",
			snap: model.Snapshot{
				Orgs:      []model.Org{{ID: 1}},
				FetchedAt: time.Now(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := st.Refresh(tt.snap)

			var syncErr *SyncError
			require.ErrorAs(t, err, &syncErr)

			// Refresh is all-or-nothing: the prior cache is untouched
			status, statusErr := st.Status()
			require.NoError(t, statusErr)
			require.Equal(t, 2, status.Orgs)
			require.Equal(t, 3, status.Repos)
		})
	}
}

func TestStore_RefreshFailsFastWhenLocked(t *testing.T) {
	st := setupTestStore(t)

	lockPath := st.Path() + ".lock"
	require.NoError(t, os.WriteFile(lockPath, []byte("12345\n"), 0o644))

	defer func() { _ = os.Remove(lockPath) }()

	err := st.Refresh(testSnapshot())

	var lockedErr *LockedError
	require.ErrorAs(t, err, &lockedErr)
}

func TestStore_StaleLockIsReplaced(t *testing.T) {
	st := setupTestStore(t)

	lockPath := st.Path() + ".lock"
	require.NoError(t, os.WriteFile(lockPath, []byte("12345\n"), 0o644))

	old := time.Now().Add(-lockStaleAfter - time.Minute)
	require.NoError(t, os.Chtimes(lockPath, old, old))

	require.NoError(t, st.Refresh(testSnapshot()))

	// Lock released after a successful refresh
	_, err := os.Stat(lockPath)
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestStore_RecordUsage(t *testing.T) {
	st := setupTestStore(t)

	require.NoError(t, st.Refresh(testSnapshot()))
	require.NoError(t, st.RecordUsage("frankwiles/gg", model.TargetRepo, "pulls"))
	require.NoError(t, st.RecordUsage("frankwiles/", model.TargetOrg, "overview"))

	events, err := st.Usage()
	require.NoError(t, err)
	require.Len(t, events, 2)

	require.Equal(t, "frankwiles/gg", events[0].Target)
	require.Equal(t, model.TargetRepo, events[0].TargetKind)
	require.Equal(t, "pulls", events[0].Action)
	require.NotEmpty(t, events[0].UID)
	require.False(t, events[0].CreatedAt.IsZero())

	require.Equal(t, model.TargetOrg, events[1].TargetKind)
}

func TestStore_ClearResetsEverything(t *testing.T) {
	st := setupTestStore(t)

	require.NoError(t, st.Refresh(testSnapshot()))
	require.NoError(t, st.RecordUsage("frankwiles/gg", model.TargetRepo, "overview"))

	require.NoError(t, st.Clear())

	status, err := st.Status()
	require.NoError(t, err)
	require.Equal(t, 0, status.Orgs)
	require.Equal(t, 0, status.Repos)
	require.Equal(t, 0, status.UsageEvents)
	require.True(t, status.LastRefresh.IsZero())
}

func TestStore_Status(t *testing.T) {
	st := setupTestStore(t)

	snap := testSnapshot()
	require.NoError(t, st.Refresh(snap))

	status, err := st.Status()
	require.NoError(t, err)

	require.Equal(t, 2, status.Orgs)
	require.Equal(t, 3, status.Repos)
	require.Equal(t, st.Path(), status.Path)
	require.Greater(t, status.SizeBytes, int64(0))
	require.WithinDuration(t, snap.FetchedAt, status.LastRefresh, time.Second)
}

func TestStore_Export(t *testing.T) {
	st := setupTestStore(t)

	require.NoError(t, st.Refresh(testSnapshot()))
	require.NoError(t, st.RecordUsage("frankwiles/gg", model.TargetRepo, "overview"))

	export, err := st.Export()
	require.NoError(t, err)

	require.Len(t, export.Orgs, 2)
	require.Len(t, export.Repos, 3)
	require.Len(t, export.UsageEvents, 1)
	require.False(t, export.ExportedAt.IsZero())
	require.False(t, export.LastRefresh.IsZero())
}

func TestStore_OpenFailsOnBadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing-dir", "cache.db"))

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
}
