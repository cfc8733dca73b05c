package gh

import (
	"context"
	"fmt"

	"github.com/google/go-github/v82/github"

	"github.com/frankwiles/gg/internal/watch"
)

// RunStatusProvider adapts the GitHub Actions API to the watcher's
// StatusProvider interface. One provider watches one repository.
type RunStatusProvider struct {
	client *github.Client
	owner  string
	repo   string
}

func NewRunStatusProvider(client *github.Client, owner, repo string) *RunStatusProvider {
	return &RunStatusProvider{client: client, owner: owner, repo: repo}
}

// LocateRun returns the most recent workflow run for the branch.
func (p *RunStatusProvider) LocateRun(ctx context.Context, branch string) (*watch.RunInfo, error) {
	runs, _, err := p.client.Actions.ListRepositoryWorkflowRuns(ctx, p.owner, p.repo, &github.ListWorkflowRunsOptions{
		Branch:      branch,
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return nil, mapRateLimit(err)
	}

	if len(runs.WorkflowRuns) == 0 {
		return nil, watch.ErrNotFound
	}

	run := runs.WorkflowRuns[0]

	return &watch.RunInfo{
		ID:       run.GetID(),
		Workflow: run.GetName(),
		Branch:   run.GetHeadBranch(),
		URL:      run.GetHTMLURL(),
	}, nil
}

// PollRun fetches the current status of a run and collapses GitHub's
// status/conclusion pair into the watcher's status set.
func (p *RunStatusProvider) PollRun(ctx context.Context, runID int64) (watch.RunStatus, error) {
	run, _, err := p.client.Actions.GetWorkflowRunByID(ctx, p.owner, p.repo, runID)
	if err != nil {
		return "", mapRateLimit(err)
	}

	return collapseStatus(run.GetStatus(), run.GetConclusion()), nil
}

func collapseStatus(status, conclusion string) watch.RunStatus {
	if status != "completed" {
		if status == "in_progress" {
			return watch.StatusInProgress
		}

		// queued, waiting, pending, requested
		return watch.StatusQueued
	}

	switch conclusion {
	case "success":
		return watch.StatusSuccess
	case "cancelled":
		return watch.StatusCancelled
	default:
		// failure, timed_out, action_required, startup_failure
		return watch.StatusFailure
	}
}

func mapRateLimit(err error) error {
	if wait, ok := rateLimitWait(err); ok {
		return &watch.RateLimitedError{RetryAfter: wait}
	}

	return fmt.Errorf("github api request failed: %w", err)
}
