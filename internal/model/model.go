package model

import "time"

// TargetKind identifies what kind of entity a usage event or search
// candidate refers to.
type TargetKind string

const (
	TargetOrg  TargetKind = "org"
	TargetRepo TargetKind = "repo"
)

// Org is a GitHub organization (or user account) the token can see.
type Org struct {
	// ID is the stable GitHub identifier
	ID int64 `json:"id"`

	// Login is the organization login name
	Login string `json:"login"`
}

// Repo is a GitHub repository mirrored into the local cache.
type Repo struct {
	// ID is the stable GitHub identifier
	ID int64 `json:"id"`

	// Name is the short repository name
	Name string `json:"name"`

	// FullName is "owner/name", unique within the cache
	FullName string `json:"full_name"`

	// OwnerLogin is the owning organization login
	OwnerLogin string `json:"owner_login"`

	// Private indicates repository visibility
	Private bool `json:"private"`

	Description   string `json:"description,omitempty"`
	Language      string `json:"language,omitempty"`
	DefaultBranch string `json:"default_branch,omitempty"`

	// SyncedAt is when this row was last written by a refresh
	SyncedAt time.Time `json:"synced_at"`
}

// UsageEvent records that a given view of a given target was opened.
// Events are append-only and survive refreshes, even when the target
// they reference no longer exists.
type UsageEvent struct {
	UID        string     `json:"uid"`
	Target     string     `json:"target"` // full name ("owner/name" or "login/")
	TargetKind TargetKind `json:"target_kind"`
	Action     string     `json:"action"` // view kind that was opened
	CreatedAt  time.Time  `json:"created_at"`
}

// Snapshot is a full org/repo listing fetched from GitHub, fed to the
// store's Refresh.
type Snapshot struct {
	Orgs      []Org     `json:"orgs"`
	Repos     []Repo    `json:"repos"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Candidate is a single entry eligible to appear in search results.
// Organizations show up as "login/" pseudo-entries alongside repositories.
type Candidate struct {
	Kind        TargetKind `json:"kind"`
	FullName    string     `json:"full_name"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Language    string     `json:"language,omitempty"`
	Private     bool       `json:"private,omitempty"`
}

// CandidateForRepo builds the search candidate for a repository.
func CandidateForRepo(r Repo) Candidate {
	return Candidate{
		Kind:        TargetRepo,
		FullName:    r.FullName,
		Name:        r.Name,
		Description: r.Description,
		Language:    r.Language,
		Private:     r.Private,
	}
}

// CandidateForOrg builds the "login/" pseudo-candidate for an organization.
func CandidateForOrg(o Org) Candidate {
	return Candidate{
		Kind:     TargetOrg,
		FullName: o.Login + "/",
		Name:     o.Login,
	}
}

// CacheStatus summarizes the cache contents for the status command.
type CacheStatus struct {
	Orgs        int       `json:"orgs"`
	Repos       int       `json:"repos"`
	UsageEvents int       `json:"usage_events"`
	LastRefresh time.Time `json:"last_refresh,omitempty"`
	Path        string    `json:"path"`
	SizeBytes   int64     `json:"size_bytes"`
}

// Export is the full serialization of the cache produced by the export
// command. It is read-only and faithful to the stored rows.
type Export struct {
	ExportedAt  time.Time    `json:"exported_at"`
	LastRefresh time.Time    `json:"last_refresh,omitempty"`
	Orgs        []Org        `json:"orgs"`
	Repos       []Repo       `json:"repos"`
	UsageEvents []UsageEvent `json:"usage_events"`
}
