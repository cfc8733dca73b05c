// Package browse maps search targets and view kinds to github.com URLs and
// opens them in the system browser.
package browse

import (
	"fmt"
	"strings"

	"github.com/frankwiles/gg/internal/model"
)

// ViewKind is the fixed set of repository views gg can jump to. The set is
// closed; URLFor handles every member exhaustively.
type ViewKind int

const (
	ViewOverview ViewKind = iota
	ViewIssues
	ViewPulls
	ViewActions
	ViewMilestones
	ViewSettings
)

func (v ViewKind) String() string {
	switch v {
	case ViewOverview:
		return "overview"
	case ViewIssues:
		return "issues"
	case ViewPulls:
		return "pulls"
	case ViewActions:
		return "actions"
	case ViewMilestones:
		return "milestones"
	case ViewSettings:
		return "settings"
	}

	return fmt.Sprintf("ViewKind(%d)", int(v))
}

const baseURL = "https://github.com"

// URLFor builds the web address for a view of a candidate. Organization
// candidates always resolve to the organization page; only repositories
// have per-view pages.
func URLFor(c model.Candidate, view ViewKind) string {
	if c.Kind == model.TargetOrg {
		return fmt.Sprintf("%s/%s", baseURL, strings.TrimSuffix(c.FullName, "/"))
	}

	repoURL := fmt.Sprintf("%s/%s", baseURL, c.FullName)

	switch view {
	case ViewOverview:
		return repoURL
	case ViewIssues:
		return repoURL + "/issues"
	case ViewPulls:
		return repoURL + "/pulls"
	case ViewActions:
		return repoURL + "/actions"
	case ViewMilestones:
		return repoURL + "/milestones"
	case ViewSettings:
		return repoURL + "/settings"
	}

	return repoURL
}
