// Package git answers two read-only questions about the working directory:
// which GitHub repository does origin point at, and which branch is
// checked out.
package git

import (
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// Repo identifies a GitHub repository derived from the origin remote.
type Repo struct {
	Owner string
	Name  string
}

func (r Repo) FullName() string {
	return r.Owner + "/" + r.Name
}

// CurrentBranch returns the checked-out branch of the working directory.
func CurrentBranch() (string, error) {
	out, err := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD").Output()
	if err != nil {
		return "", fmt.Errorf("failed to determine current branch (not a git repository?): %w", err)
	}

	return strings.TrimSpace(string(out)), nil
}

// CurrentRepo parses the origin remote URL into owner and name.
func CurrentRepo() (Repo, error) {
	out, err := exec.Command("git", "remote", "get-url", "origin").Output()
	if err != nil {
		return Repo{}, fmt.Errorf("failed to read origin remote (not a git repository?): %w", err)
	}

	return ParseRemote(strings.TrimSpace(string(out)))
}

// remotePattern matches both SSH (git@github.com:owner/name.git) and HTTPS
// (https://github.com/owner/name.git) GitHub remote forms.
var remotePattern = regexp.MustCompile(`github\.com[:/]([^/]+)/([^/]+?)(?:\.git)?$`)

// ParseRemote extracts owner/name from a GitHub remote URL.
func ParseRemote(remote string) (Repo, error) {
	m := remotePattern.FindStringSubmatch(remote)
	if m == nil {
		return Repo{}, fmt.Errorf("origin remote %q is not a GitHub repository", remote)
	}

	return Repo{Owner: m[1], Name: m[2]}, nil
}
