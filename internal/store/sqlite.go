//go:build !bolt

package store

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/frankwiles/gg/internal/model"
)

const cacheFileName = "cache.db"

const metaLastRefresh = "last_refresh"

type sqliteStore struct {
	db   *sql.DB
	path string
}

func initStore(path string) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StorageError{Path: path, Err: err}
	}

	// WAL keeps usage-event appends from blocking candidate reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, &StorageError{Path: path, Err: err}
	}

	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		_ = db.Close()
		return nil, &StorageError{Path: path, Err: err}
	}

	s := &sqliteStore{db: db, path: path}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, &StorageError{Path: path, Err: err}
	}

	return s, nil
}

func (s *sqliteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var currentVersion int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, `
			CREATE TABLE IF NOT EXISTS metadata (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS orgs (
				id INTEGER PRIMARY KEY,
				login TEXT UNIQUE NOT NULL
			);

			CREATE TABLE IF NOT EXISTS repos (
				id INTEGER PRIMARY KEY,
				name TEXT NOT NULL,
				full_name TEXT UNIQUE NOT NULL,
				owner_login TEXT NOT NULL,
				private BOOLEAN NOT NULL DEFAULT 0,
				description TEXT,
				language TEXT,
				default_branch TEXT,
				synced_at TEXT NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_repos_full_name ON repos(full_name);

			CREATE TABLE IF NOT EXISTS usage_events (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				uid TEXT UNIQUE NOT NULL,
				target TEXT NOT NULL,
				target_kind TEXT NOT NULL,
				action TEXT NOT NULL,
				created_at TEXT NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_usage_events_target ON usage_events(target);
		`},
	}

	for _, m := range migrations {
		if m.version > currentVersion {
			if _, err := s.db.Exec(m.sql); err != nil {
				return fmt.Errorf("failed to apply migration %d: %w", m.version, err)
			}

			if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
				return fmt.Errorf("failed to record migration %d: %w", m.version, err)
			}
		}
	}

	return nil
}

func (s *sqliteStore) Refresh(snap model.Snapshot) error {
	if err := validateSnapshot(snap); err != nil {
		return err
	}

	lock, err := acquireRefreshLock(s.path)
	if err != nil {
		return err
	}
	defer lock.release()

	tx, err := s.db.Begin()
	if err != nil {
		return &StorageError{Path: s.path, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if err := replaceOrgs(tx, snap.Orgs); err != nil {
		return &StorageError{Path: s.path, Err: err}
	}

	if err := replaceRepos(tx, snap.Repos); err != nil {
		return &StorageError{Path: s.path, Err: err}
	}

	refreshedAt := snap.FetchedAt.UTC().Format(time.RFC3339Nano)
	if _, err := tx.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		metaLastRefresh, refreshedAt,
	); err != nil {
		return &StorageError{Path: s.path, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Path: s.path, Err: err}
	}

	return nil
}

func replaceOrgs(tx *sql.Tx, orgs []model.Org) error {
	if len(orgs) == 0 {
		if _, err := tx.Exec("DELETE FROM orgs"); err != nil {
			return err
		}
	} else {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(orgs)), ",")
		args := make([]any, 0, len(orgs))

		for _, org := range orgs {
			args = append(args, org.Login)
		}

		if _, err := tx.Exec("DELETE FROM orgs WHERE login NOT IN ("+placeholders+")", args...); err != nil {
			return err
		}
	}

	for _, org := range orgs {
		if _, err := tx.Exec(
			"INSERT INTO orgs (id, login) VALUES (?, ?) ON CONFLICT(login) DO UPDATE SET id = excluded.id",
			org.ID, org.Login,
		); err != nil {
			return err
		}
	}

	return nil
}

func replaceRepos(tx *sql.Tx, repos []model.Repo) error {
	if len(repos) == 0 {
		if _, err := tx.Exec("DELETE FROM repos"); err != nil {
			return err
		}
	} else {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(repos)), ",")
		args := make([]any, 0, len(repos))

		for _, repo := range repos {
			args = append(args, repo.FullName)
		}

		if _, err := tx.Exec("DELETE FROM repos WHERE full_name NOT IN ("+placeholders+")", args...); err != nil {
			return err
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	for _, repo := range repos {
		if _, err := tx.Exec(`
			INSERT INTO repos (id, name, full_name, owner_login, private, description, language, default_branch, synced_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(full_name) DO UPDATE SET
				id = excluded.id,
				name = excluded.name,
				owner_login = excluded.owner_login,
				private = excluded.private,
				description = excluded.description,
				language = excluded.language,
				default_branch = excluded.default_branch,
				synced_at = excluded.synced_at`,
			repo.ID, repo.Name, repo.FullName, repo.OwnerLogin, repo.Private,
			repo.Description, repo.Language, repo.DefaultBranch, now,
		); err != nil {
			return err
		}
	}

	return nil
}

func (s *sqliteStore) RecordUsage(target string, kind model.TargetKind, action string) error {
	_, err := s.db.Exec(
		"INSERT INTO usage_events (uid, target, target_kind, action, created_at) VALUES (?, ?, ?, ?, ?)",
		uuid.New().String(), target, string(kind), action, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return &StorageError{Path: s.path, Err: err}
	}

	return nil
}

func (s *sqliteStore) Candidates() ([]model.Candidate, error) {
	repos, err := s.loadRepos()
	if err != nil {
		return nil, err
	}

	orgs, err := s.loadOrgs()
	if err != nil {
		return nil, err
	}

	out := make([]model.Candidate, 0, len(repos)+len(orgs))

	for _, repo := range repos {
		out = append(out, model.CandidateForRepo(repo))
	}

	for _, org := range orgs {
		out = append(out, model.CandidateForOrg(org))
	}

	return out, nil
}

func (s *sqliteStore) loadOrgs() ([]model.Org, error) {
	rows, err := s.db.Query("SELECT id, login FROM orgs ORDER BY login")
	if err != nil {
		return nil, &StorageError{Path: s.path, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var out []model.Org

	for rows.Next() {
		var org model.Org
		if err := rows.Scan(&org.ID, &org.Login); err != nil {
			return nil, &StorageError{Path: s.path, Err: err}
		}

		out = append(out, org)
	}

	if err := rows.Err(); err != nil {
		return nil, &StorageError{Path: s.path, Err: err}
	}

	return out, nil
}

func (s *sqliteStore) loadRepos() ([]model.Repo, error) {
	rows, err := s.db.Query(`
		SELECT id, name, full_name, owner_login, private,
		       COALESCE(description, ''), COALESCE(language, ''), COALESCE(default_branch, ''), synced_at
		FROM repos ORDER BY full_name`)
	if err != nil {
		return nil, &StorageError{Path: s.path, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var out []model.Repo

	for rows.Next() {
		var (
			repo     model.Repo
			syncedAt string
		)

		if err := rows.Scan(&repo.ID, &repo.Name, &repo.FullName, &repo.OwnerLogin, &repo.Private,
			&repo.Description, &repo.Language, &repo.DefaultBranch, &syncedAt); err != nil {
			return nil, &StorageError{Path: s.path, Err: err}
		}

		repo.SyncedAt, _ = time.Parse(time.RFC3339Nano, syncedAt)
		out = append(out, repo)
	}

	if err := rows.Err(); err != nil {
		return nil, &StorageError{Path: s.path, Err: err}
	}

	return out, nil
}

func (s *sqliteStore) Usage() ([]model.UsageEvent, error) {
	rows, err := s.db.Query("SELECT uid, target, target_kind, action, created_at FROM usage_events ORDER BY id")
	if err != nil {
		return nil, &StorageError{Path: s.path, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var out []model.UsageEvent

	for rows.Next() {
		var (
			ev        model.UsageEvent
			kind      string
			createdAt string
		)

		if err := rows.Scan(&ev.UID, &ev.Target, &kind, &ev.Action, &createdAt); err != nil {
			return nil, &StorageError{Path: s.path, Err: err}
		}

		ev.TargetKind = model.TargetKind(kind)
		ev.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, &StorageError{Path: s.path, Err: err}
	}

	return out, nil
}

func (s *sqliteStore) Clear() error {
	for _, table := range []string{"usage_events", "repos", "orgs", "metadata"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return &StorageError{Path: s.path, Err: err}
		}
	}

	return nil
}

func (s *sqliteStore) Status() (*model.CacheStatus, error) {
	status := &model.CacheStatus{Path: s.path}

	counts := []struct {
		query string
		dst   *int
	}{
		{"SELECT COUNT(*) FROM orgs", &status.Orgs},
		{"SELECT COUNT(*) FROM repos", &status.Repos},
		{"SELECT COUNT(*) FROM usage_events", &status.UsageEvents},
	}

	for _, c := range counts {
		if err := s.db.QueryRow(c.query).Scan(c.dst); err != nil {
			return nil, &StorageError{Path: s.path, Err: err}
		}
	}

	if t, ok := s.lastRefresh(); ok {
		status.LastRefresh = t
	}

	if info, err := os.Stat(s.path); err == nil {
		status.SizeBytes = info.Size()
	}

	return status, nil
}

func (s *sqliteStore) lastRefresh() (time.Time, bool) {
	var value string

	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", metaLastRefresh).Scan(&value)
	if err != nil {
		return time.Time{}, false
	}

	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

func (s *sqliteStore) Export() (*model.Export, error) {
	orgs, err := s.loadOrgs()
	if err != nil {
		return nil, err
	}

	repos, err := s.loadRepos()
	if err != nil {
		return nil, err
	}

	events, err := s.Usage()
	if err != nil {
		return nil, err
	}

	export := &model.Export{
		ExportedAt:  time.Now().UTC(),
		Orgs:        orgs,
		Repos:       repos,
		UsageEvents: events,
	}

	if t, ok := s.lastRefresh(); ok {
		export.LastRefresh = t
	}

	return export, nil
}

func (s *sqliteStore) Path() string {
	return s.path
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
