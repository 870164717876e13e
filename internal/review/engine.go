// Package review owns the review-slot lifecycle of a submission: claiming a
// slot, releasing slots whose claim timed out, checking for a user's active
// submission, and the admin cleanup flow. Every mutation appends one slot
// history entry and one timeline event, keeps reviewSlots.filled equal to the
// number of non-expired reviewers, and persists the record in one write.
package review

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"edops/internal/metadata"
)

// DefaultTimeout is the claim timeout applied when no override is given.
const DefaultTimeout = 14 * 24 * time.Hour

var (
	// ErrSlotsFull means every review slot on the submission is occupied.
	ErrSlotsFull = errors.New("all review slots are filled")
	// ErrAlreadyClaimed means the user already holds a slot on the
	// submission, whatever its status.
	ErrAlreadyClaimed = errors.New("user already claimed a slot for this submission")
)

// Engine applies slot mutations to submissions loaded from a Store.
type Engine struct {
	store metadata.Store
	log   *zap.Logger
	now   func() time.Time
}

// NewEngine creates an engine over the given store.
func NewEngine(store metadata.Store, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: store, log: log, now: time.Now}
}

// Claim assigns a review slot on a submission to a user. Preconditions are
// checked in order; the first failure wins: the submission must exist, a free
// slot must remain, and the user must not already hold a slot.
func (e *Engine) Claim(submissionID, userID string) (*metadata.Submission, error) {
	stored, err := e.store.FindSubmission(submissionID)
	if err != nil {
		return nil, err
	}
	sub := stored.Submission
	slots := &sub.ReviewSlots

	if slots.Filled >= slots.Total {
		return nil, fmt.Errorf("submission %s: %w", submissionID, ErrSlotsFull)
	}
	for _, r := range slots.Reviewers {
		if r.UserID == userID {
			return nil, fmt.Errorf("submission %s: %w", submissionID, ErrAlreadyClaimed)
		}
	}

	now := e.now()
	slots.Reviewers = append(slots.Reviewers, metadata.Reviewer{
		UserID:    userID,
		Status:    metadata.ReviewerClaimed,
		ClaimedAt: now,
	})
	slots.Filled++
	slots.History = append(slots.History, metadata.SlotHistoryEntry{
		UserID:    userID,
		Action:    metadata.ActionClaim,
		Timestamp: now,
	})
	sub.Timelines = append(sub.Timelines, metadata.TimelineEvent{
		Event:     metadata.EventSlotClaimed,
		Timestamp: now,
		Actor:     userID,
		Details:   map[string]any{"slotNumber": slots.Filled},
	})
	sub.UpdatedAt = now

	if err := e.store.SaveSubmission(stored); err != nil {
		return nil, err
	}
	e.log.Info("review slot claimed",
		zap.String("submission", submissionID),
		zap.String("reviewer", userID),
		zap.Int("filled", slots.Filled),
		zap.Int("total", slots.Total))
	return sub, nil
}

// ReleasedSlot describes one slot freed by a sweep.
type ReleasedSlot struct {
	SubmissionTitle string
	PRNumber        int
	Reviewer        string
}

// SweepReport summarizes one timeout sweep pass.
type SweepReport struct {
	ReleasedCount int
	Released      []ReleasedSlot
}

// Sweep expires every claimed slot older than timeout across all active
// submissions. Reviewers already submitted or expired are skipped, so a
// second pass right after the first releases nothing. The boundary is strict:
// a claim exactly timeout old survives. Each modified submission is written
// once.
func (e *Engine) Sweep(timeout time.Duration) (*SweepReport, error) {
	all, err := e.store.ListSubmissions()
	if err != nil {
		return nil, err
	}

	now := e.now()
	report := &SweepReport{}

	for _, stored := range all {
		sub := stored.Submission
		if !sub.IsActive() {
			continue
		}

		modified := false
		slots := &sub.ReviewSlots
		for i := range slots.Reviewers {
			r := &slots.Reviewers[i]
			if r.Status == metadata.ReviewerSubmitted || r.Status == metadata.ReviewerExpired {
				continue
			}
			elapsed := now.Sub(r.ClaimedAt)
			if elapsed <= timeout {
				continue
			}

			expiredAt := now
			r.Status = metadata.ReviewerExpired
			r.ExpiredAt = &expiredAt
			slots.Filled--

			slots.History = append(slots.History, metadata.SlotHistoryEntry{
				UserID:    r.UserID,
				Action:    metadata.ActionTimeoutRelease,
				Timestamp: now,
			})
			sub.Timelines = append(sub.Timelines, metadata.TimelineEvent{
				Event:     metadata.EventSlotTimeout,
				Timestamp: now,
				Actor:     "system",
				Details: map[string]any{
					"reviewer":    r.UserID,
					"claimedAt":   r.ClaimedAt,
					"daysElapsed": int(elapsed.Hours() / 24),
				},
			})

			modified = true
			report.ReleasedCount++
			report.Released = append(report.Released, ReleasedSlot{
				SubmissionTitle: sub.Title,
				PRNumber:        sub.PRNumber,
				Reviewer:        r.UserID,
			})
			e.log.Info("review slot timed out",
				zap.String("submission", sub.ID),
				zap.String("reviewer", r.UserID),
				zap.Duration("elapsed", elapsed))
		}

		if modified {
			sub.UpdatedAt = now
			if err := e.store.SaveSubmission(stored); err != nil {
				return nil, err
			}
		}
	}

	return report, nil
}

// ActiveSubmission returns the submission a user currently has in the review
// pipeline, or nil. The username index may be stale: an entry pointing at a
// missing or no-longer-active submission counts as no active submission.
func (e *Engine) ActiveSubmission(username string) (*metadata.Submission, error) {
	idx, err := e.store.LoadIndex()
	if err != nil {
		return nil, err
	}
	entry, ok := idx.Index[username]
	if !ok || entry.ActiveSubmissionID == nil || *entry.ActiveSubmissionID == "" {
		return nil, nil
	}

	stored, err := e.store.FindSubmission(*entry.ActiveSubmissionID)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !stored.Submission.IsActive() {
		return nil, nil
	}
	return stored.Submission, nil
}
