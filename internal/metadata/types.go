// Package metadata models the JSON metadata store backing the editorial
// workflow: one record per submission partitioned by year-month, one record
// per user, and a username index. The package owns record shapes, submission
// ID parsing, and store access; business rules live in internal/review.
package metadata

import "time"

// Submission statuses. Only the active ones participate in slot timeouts.
const (
	StatusUnderReview     = "under-review"
	StatusPendingRevision = "pending-revision"
	StatusAccepted        = "accepted"
	StatusRejected        = "rejected"
	StatusDraft           = "draft"
)

// Reviewer statuses within a submission's slot list.
const (
	ReviewerClaimed   = "claimed"
	ReviewerSubmitted = "submitted"
	ReviewerExpired   = "expired"
)

// Slot history actions.
const (
	ActionClaim          = "claim"
	ActionTimeoutRelease = "timeout_release"
)

// Timeline event names emitted by slot mutations.
const (
	EventSlotClaimed = "review_slot_claimed"
	EventSlotTimeout = "review_slot_timeout"
)

// Submission is one manuscript record. Field names match the JSON files on
// disk exactly; records are rewritten whole on every mutation.
type Submission struct {
	ID                   string          `json:"id"`
	Title                string          `json:"title"`
	AuthorID             string          `json:"authorId"`
	AuthorDisplayName    string          `json:"authorDisplayName"`
	AuthorGithubUsername string          `json:"authorGithubUsername"`
	Status               string          `json:"status"`
	PRNumber             int             `json:"prNumber"`
	BranchName           string          `json:"branchName"`
	ReviewSlots          ReviewSlots     `json:"reviewSlots"`
	Timelines            []TimelineEvent `json:"timelines"`
	CreatedAt            time.Time       `json:"createdAt,omitzero"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

// IsActive reports whether the submission is still in the review pipeline.
func (s *Submission) IsActive() bool {
	return s.Status == StatusUnderReview || s.Status == StatusPendingRevision
}

// ReviewSlots is the reviewer capacity aggregate embedded in a submission.
// Filled counts reviewers whose status is not expired; it never exceeds Total.
type ReviewSlots struct {
	Total     int                `json:"total"`
	Filled    int                `json:"filled"`
	Reviewers []Reviewer         `json:"reviewers"`
	History   []SlotHistoryEntry `json:"history"`
}

// Reviewer is one occupied (or formerly occupied) review slot. UserID is
// unique within a submission.
type Reviewer struct {
	UserID    string     `json:"userId"`
	Status    string     `json:"status"`
	ClaimedAt time.Time  `json:"claimedAt"`
	ExpiredAt *time.Time `json:"expiredAt,omitempty"`
}

// SlotHistoryEntry is one append-only audit line in reviewSlots.history.
type SlotHistoryEntry struct {
	UserID    string    `json:"userId"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// TimelineEvent is one append-only workflow event on a submission.
type TimelineEvent struct {
	Event     string         `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
	Actor     string         `json:"actor"`
	Details   map[string]any `json:"details,omitempty"`
}

// User is one author record. ActiveSubmissionID is a denormalized
// back-reference to the submission the user currently owns; nil when none.
type User struct {
	ID                 string    `json:"id,omitempty"`
	ActiveSubmissionID *string   `json:"activeSubmissionId"`
	SubmissionCount    int       `json:"submissionCount"`
	UpdatedAt          time.Time `json:"updatedAt,omitzero"`
}

// UserSubmissionIndex maps a GitHub username to its active submission.
// Stored at indexes/user_submissions.json.
type UserSubmissionIndex struct {
	Index map[string]IndexEntry `json:"index"`
}

// IndexEntry is one row of the username index.
type IndexEntry struct {
	ActiveSubmissionID *string `json:"activeSubmissionId"`
}

// StoredSubmission pairs a parsed submission with the path it was read from,
// so mutating operations can write it back to the same file.
type StoredSubmission struct {
	Submission *Submission
	Path       string
}
