// Package watch drives the CI run polling state machine: locate the most
// recent run for a repo/branch, then poll it with increasing backoff until
// it reaches a terminal status, a failure threshold, a timeout or the user
// cancels.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// RunStatus is a CI run status as reported by the status provider.
type RunStatus string

const (
	StatusQueued     RunStatus = "queued"
	StatusInProgress RunStatus = "in_progress"
	StatusSuccess    RunStatus = "success"
	StatusFailure    RunStatus = "failure"
	StatusCancelled  RunStatus = "cancelled"
)

// Terminal reports whether the status ends the run.
func (s RunStatus) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailure, StatusCancelled:
		return true
	}

	return false
}

// ErrNotFound is returned by a StatusProvider when no run exists for the
// requested branch.
var ErrNotFound = errors.New("no workflow run found for branch")

// RateLimitedError signals the provider was throttled. The watcher widens
// its polling interval instead of counting a failure.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// RunInfo identifies a located workflow run.
type RunInfo struct {
	ID       int64
	Workflow string
	Branch   string
	URL      string
}

// StatusProvider is the external run-status collaborator. A provider is
// bound to one repository; only the branch varies per watch.
type StatusProvider interface {
	// LocateRun returns the most recent run for the branch, or ErrNotFound.
	LocateRun(ctx context.Context, branch string) (*RunInfo, error)

	// PollRun returns the current status of the run.
	PollRun(ctx context.Context, runID int64) (RunStatus, error)
}

// Phase identifies the watcher state a notification was emitted from.
type Phase int

const (
	PhaseLocating Phase = iota
	PhasePolling
	PhaseCompleted
	PhaseFailed
)

// FailReason is the specific reason attached to a Failed terminal state.
type FailReason string

const (
	ReasonNotFound     FailReason = "not_found"
	ReasonTimeout      FailReason = "timeout"
	ReasonNetworkError FailReason = "network_error"
	ReasonCancelled    FailReason = "cancelled"
)

// Notification is one state update emitted while watching. The last
// notification on the channel is always PhaseCompleted or PhaseFailed.
type Notification struct {
	Phase      Phase
	Run        *RunInfo // nil until a run has been located
	Attempt    int
	Status     RunStatus // last observed status, when polling
	Conclusion RunStatus // set on PhaseCompleted
	Reason     FailReason
	Err        error
	NextPoll   time.Duration // wait before the next poll, when polling continues
}

// Schedule maps a zero-based poll attempt to the wait before the next poll.
// It is a pure function so backoff behavior is testable without waiting.
type Schedule func(attempt int) time.Duration

const (
	defaultBaseInterval     = 2 * time.Second
	defaultMaxInterval      = 30 * time.Second
	defaultMaxElapsed       = 30 * time.Minute
	defaultFailureThreshold = 3
)

// DefaultSchedule doubles from 2s and caps at 30s.
func DefaultSchedule(attempt int) time.Duration {
	d := defaultBaseInterval
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= defaultMaxInterval {
			return defaultMaxInterval
		}
	}

	return d
}

// Watcher polls a StatusProvider for one run until it terminates.
type Watcher struct {
	provider         StatusProvider
	logger           *slog.Logger
	schedule         Schedule
	maxElapsed       time.Duration
	failureThreshold int
	now              func() time.Time
}

// New creates a watcher with default backoff, timeout and failure limits.
func New(provider StatusProvider) *Watcher {
	return &Watcher{
		provider:         provider,
		logger:           slog.Default(),
		schedule:         DefaultSchedule,
		maxElapsed:       defaultMaxElapsed,
		failureThreshold: defaultFailureThreshold,
		now:              time.Now,
	}
}

// WithLogger sets the logger for the watcher.
func (w *Watcher) WithLogger(logger *slog.Logger) *Watcher {
	w.logger = logger
	return w
}

// WithSchedule overrides the backoff schedule.
func (w *Watcher) WithSchedule(s Schedule) *Watcher {
	w.schedule = s
	return w
}

// WithMaxElapsed overrides the overall wall-clock budget.
func (w *Watcher) WithMaxElapsed(d time.Duration) *Watcher {
	w.maxElapsed = d
	return w
}

// WithFailureThreshold overrides the consecutive transient failure limit.
func (w *Watcher) WithFailureThreshold(n int) *Watcher {
	w.failureThreshold = n
	return w
}

// Watch runs the state machine and streams notifications. The channel is
// closed after the terminal notification. Cancel ctx to abort; cancellation
// is checked between polls, never mid-request.
func (w *Watcher) Watch(ctx context.Context, branch string) <-chan Notification {
	ch := make(chan Notification, 8)

	go func() {
		defer close(ch)
		w.run(ctx, branch, ch)
	}()

	return ch
}

func (w *Watcher) run(ctx context.Context, branch string, ch chan<- Notification) {
	started := w.now()

	ch <- Notification{Phase: PhaseLocating}

	info, err := w.provider.LocateRun(ctx, branch)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			ch <- Notification{Phase: PhaseFailed, Reason: ReasonNotFound, Err: err}
		case ctx.Err() != nil:
			ch <- Notification{Phase: PhaseFailed, Reason: ReasonCancelled, Err: ctx.Err()}
		default:
			ch <- Notification{Phase: PhaseFailed, Reason: ReasonNetworkError, Err: err}
		}

		return
	}

	w.logger.Info("watching workflow run",
		"workflow", info.Workflow,
		"branch", info.Branch,
		"run_id", info.ID,
		"url", info.URL)

	var (
		failures int
		status   RunStatus
	)

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			ch <- Notification{Phase: PhaseFailed, Run: info, Reason: ReasonCancelled, Err: ctx.Err()}
			return
		}

		if w.now().Sub(started) > w.maxElapsed {
			ch <- Notification{Phase: PhaseFailed, Run: info, Reason: ReasonTimeout}
			return
		}

		status, err = w.provider.PollRun(ctx, info.ID)

		wait := w.schedule(attempt)

		switch {
		case err == nil:
			failures = 0

			if status.Terminal() {
				ch <- Notification{Phase: PhasePolling, Run: info, Attempt: attempt, Status: status}
				ch <- Notification{Phase: PhaseCompleted, Run: info, Conclusion: status}

				return
			}

		case ctx.Err() != nil:
			ch <- Notification{Phase: PhaseFailed, Run: info, Reason: ReasonCancelled, Err: ctx.Err()}
			return

		default:
			var rl *RateLimitedError
			if errors.As(err, &rl) {
				// Throttling is backpressure, not failure
				if rl.RetryAfter > wait {
					wait = rl.RetryAfter
				}

				w.logger.Warn("rate limited", "run_id", info.ID, "wait", wait)
			} else {
				failures++

				w.logger.Warn("poll failed",
					"run_id", info.ID,
					"consecutive_failures", failures,
					"error", err)

				if failures >= w.failureThreshold {
					ch <- Notification{Phase: PhaseFailed, Run: info, Reason: ReasonNetworkError, Err: err}
					return
				}
			}
		}

		ch <- Notification{
			Phase:    PhasePolling,
			Run:      info,
			Attempt:  attempt,
			Status:   status,
			Err:      err,
			NextPoll: wait,
		}

		select {
		case <-ctx.Done():
			ch <- Notification{Phase: PhaseFailed, Run: info, Reason: ReasonCancelled, Err: ctx.Err()}
			return
		case <-time.After(wait):
		}
	}
}
