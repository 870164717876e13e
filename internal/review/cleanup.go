package review

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"edops/internal/github"
	"edops/internal/metadata"
)

// Collaborator is the external repository host invoked during cleanup. Calls
// are best-effort: each returns a Result, never an error, and failures do not
// roll back local metadata changes.
type Collaborator interface {
	HasToken() bool
	PullRequestURL(prNumber int) string
	ClosePullRequest(ctx context.Context, prNumber int) github.Result
	DeleteBranch(ctx context.Context, branch string) github.Result
}

// CleanupOptions control the cleanup flow. Confirm is consulted only when
// neither DryRun nor Force is set; it receives the planned report and returns
// whether to proceed.
type CleanupOptions struct {
	DryRun  bool
	Force   bool
	Confirm func(r *CleanupReport) (bool, error)
	GitHub  Collaborator
}

// CleanupReport records each observable step of a cleanup so the CLI can
// narrate what happened (or, for a dry run, what would happen).
type CleanupReport struct {
	Submission *metadata.Submission
	Path       string

	// User is the author's record; nil when the user file is absent.
	User *metadata.User
	// UserNeedsUpdate is true when the user's activeSubmissionId points at
	// this submission and the back-reference must be cleared.
	UserNeedsUpdate bool

	DryRun      bool
	Cancelled   bool
	Deleted     bool
	UserUpdated bool

	PRResult     github.Result
	BranchResult github.Result
}

// Cleanup deletes a submission and repairs the author's back-reference, then
// best-effort closes the associated PR and deletes the branch. The submission
// path is derived from the ID, not found by scan; an ID that does not parse
// fails with metadata.ErrInvalidSubmissionID before any I/O. Steps 5-7 are
// not transactional: the local deletion is authoritative and remote state may
// need manual follow-up.
func (e *Engine) Cleanup(ctx context.Context, submissionID string, opts CleanupOptions) (*CleanupReport, error) {
	stored, err := e.store.GetSubmission(submissionID)
	if err != nil {
		return nil, err
	}
	sub := stored.Submission

	report := &CleanupReport{
		Submission: sub,
		Path:       stored.Path,
		DryRun:     opts.DryRun,
	}

	user, err := e.store.LoadUser(sub.AuthorID)
	switch {
	case err == nil:
		report.User = user
		report.UserNeedsUpdate = user.ActiveSubmissionID != nil && *user.ActiveSubmissionID == submissionID
	case errors.Is(err, metadata.ErrNotFound):
		// Missing user file is a warning, not a failure.
		e.log.Warn("author user record missing", zap.String("author", sub.AuthorID))
	default:
		return nil, err
	}

	if opts.DryRun {
		return report, nil
	}

	if !opts.Force {
		if opts.Confirm == nil {
			return nil, fmt.Errorf("cleanup of %s requires confirmation or --force", submissionID)
		}
		ok, err := opts.Confirm(report)
		if err != nil {
			return nil, err
		}
		if !ok {
			report.Cancelled = true
			return report, nil
		}
	}

	if err := e.store.DeleteSubmission(stored); err != nil {
		return nil, err
	}
	report.Deleted = true
	e.log.Info("submission deleted",
		zap.String("submission", submissionID),
		zap.String("path", stored.Path))

	if report.UserNeedsUpdate {
		user.ActiveSubmissionID = nil
		if user.SubmissionCount > 0 {
			user.SubmissionCount--
		}
		user.UpdatedAt = e.now()
		if err := e.store.SaveUser(sub.AuthorID, user); err != nil {
			return nil, err
		}
		report.UserUpdated = true
	}

	if opts.GitHub != nil {
		report.PRResult = opts.GitHub.ClosePullRequest(ctx, sub.PRNumber)
		report.BranchResult = opts.GitHub.DeleteBranch(ctx, sub.BranchName)
	}

	return report, nil
}
