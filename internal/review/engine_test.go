package review

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edops/internal/metadata"
)

var testNow = time.Date(2025, 12, 21, 12, 0, 0, 0, time.UTC)

func newTestEngine(store metadata.Store) *Engine {
	e := NewEngine(store, nil)
	e.now = func() time.Time { return testNow }
	return e
}

func activeSubmission(id string, total, filled int, reviewers ...metadata.Reviewer) *metadata.Submission {
	return &metadata.Submission{
		ID:          id,
		Title:       "A Study of Nothing",
		AuthorID:    "alice",
		Status:      metadata.StatusUnderReview,
		PRNumber:    42,
		BranchName:  "submission/" + id,
		ReviewSlots: metadata.ReviewSlots{Total: total, Filled: filled, Reviewers: reviewers},
	}
}

func TestClaim(t *testing.T) {
	t.Run("claims a free slot", func(t *testing.T) {
		store := metadata.NewMemStore()
		store.PutSubmission(activeSubmission("sub_2025_12_AAA", 3, 1,
			metadata.Reviewer{UserID: "alice", Status: metadata.ReviewerClaimed, ClaimedAt: testNow.Add(-48 * time.Hour)}))

		sub, err := newTestEngine(store).Claim("sub_2025_12_AAA", "bob")
		require.NoError(t, err)

		assert.Equal(t, 2, sub.ReviewSlots.Filled)
		require.Len(t, sub.ReviewSlots.Reviewers, 2)
		added := sub.ReviewSlots.Reviewers[1]
		assert.Equal(t, "bob", added.UserID)
		assert.Equal(t, metadata.ReviewerClaimed, added.Status)
		assert.Equal(t, testNow, added.ClaimedAt)

		require.Len(t, sub.ReviewSlots.History, 1)
		assert.Equal(t, metadata.ActionClaim, sub.ReviewSlots.History[0].Action)
		assert.Equal(t, "bob", sub.ReviewSlots.History[0].UserID)

		require.Len(t, sub.Timelines, 1)
		event := sub.Timelines[0]
		assert.Equal(t, metadata.EventSlotClaimed, event.Event)
		assert.Equal(t, "bob", event.Actor)
		assert.Equal(t, map[string]any{"slotNumber": 2}, event.Details)

		assert.Equal(t, testNow, sub.UpdatedAt)
		assert.Equal(t, 1, store.SaveCount)
	})

	t.Run("unknown submission", func(t *testing.T) {
		store := metadata.NewMemStore()
		_, err := newTestEngine(store).Claim("sub_2025_12_ZZZ", "bob")
		assert.ErrorIs(t, err, metadata.ErrNotFound)
		assert.Zero(t, store.SaveCount)
	})

	t.Run("slots full", func(t *testing.T) {
		store := metadata.NewMemStore()
		store.PutSubmission(activeSubmission("sub_2025_12_AAA", 1, 1,
			metadata.Reviewer{UserID: "alice", Status: metadata.ReviewerClaimed, ClaimedAt: testNow}))

		_, err := newTestEngine(store).Claim("sub_2025_12_AAA", "bob")
		assert.ErrorIs(t, err, ErrSlotsFull)

		sub := store.Submissions["sub_2025_12_AAA"]
		assert.Len(t, sub.ReviewSlots.Reviewers, 1)
		assert.Empty(t, sub.ReviewSlots.History)
		assert.Zero(t, store.SaveCount, "a rejected claim must not persist anything")
	})

	t.Run("duplicate reviewer", func(t *testing.T) {
		store := metadata.NewMemStore()
		store.PutSubmission(activeSubmission("sub_2025_12_AAA", 3, 1,
			metadata.Reviewer{UserID: "bob", Status: metadata.ReviewerClaimed, ClaimedAt: testNow}))

		_, err := newTestEngine(store).Claim("sub_2025_12_AAA", "bob")
		assert.ErrorIs(t, err, ErrAlreadyClaimed)
		assert.Len(t, store.Submissions["sub_2025_12_AAA"].ReviewSlots.Reviewers, 1)
	})

	t.Run("expired reviewer still blocks re-claim", func(t *testing.T) {
		store := metadata.NewMemStore()
		store.PutSubmission(activeSubmission("sub_2025_12_AAA", 3, 0,
			metadata.Reviewer{UserID: "bob", Status: metadata.ReviewerExpired, ClaimedAt: testNow.Add(-30 * 24 * time.Hour)}))

		_, err := newTestEngine(store).Claim("sub_2025_12_AAA", "bob")
		assert.ErrorIs(t, err, ErrAlreadyClaimed)
	})

	t.Run("slots-full wins over duplicate", func(t *testing.T) {
		store := metadata.NewMemStore()
		store.PutSubmission(activeSubmission("sub_2025_12_AAA", 1, 1,
			metadata.Reviewer{UserID: "bob", Status: metadata.ReviewerClaimed, ClaimedAt: testNow}))

		_, err := newTestEngine(store).Claim("sub_2025_12_AAA", "bob")
		assert.ErrorIs(t, err, ErrSlotsFull)
	})

	t.Run("filled matches non-expired reviewer count", func(t *testing.T) {
		store := metadata.NewMemStore()
		store.PutSubmission(activeSubmission("sub_2025_12_AAA", 3, 0))
		e := newTestEngine(store)

		for _, user := range []string{"bob", "carol", "dave"} {
			_, err := e.Claim("sub_2025_12_AAA", user)
			require.NoError(t, err)
		}
		_, err := e.Claim("sub_2025_12_AAA", "erin")
		assert.ErrorIs(t, err, ErrSlotsFull)

		sub := store.Submissions["sub_2025_12_AAA"]
		claimed := 0
		for _, r := range sub.ReviewSlots.Reviewers {
			if r.Status == metadata.ReviewerClaimed {
				claimed++
			}
		}
		assert.Equal(t, claimed, sub.ReviewSlots.Filled)
		assert.Equal(t, sub.ReviewSlots.Total, sub.ReviewSlots.Filled)
	})
}

func TestSweep(t *testing.T) {
	timeout := 14 * 24 * time.Hour

	t.Run("releases timed-out claim", func(t *testing.T) {
		store := metadata.NewMemStore()
		claimedAt := testNow.Add(-20 * 24 * time.Hour)
		store.PutSubmission(activeSubmission("sub_2025_12_AAA", 3, 1,
			metadata.Reviewer{UserID: "alice", Status: metadata.ReviewerClaimed, ClaimedAt: claimedAt}))

		report, err := newTestEngine(store).Sweep(timeout)
		require.NoError(t, err)
		assert.Equal(t, 1, report.ReleasedCount)
		require.Len(t, report.Released, 1)
		assert.Equal(t, "alice", report.Released[0].Reviewer)
		assert.Equal(t, 42, report.Released[0].PRNumber)

		sub := store.Submissions["sub_2025_12_AAA"]
		reviewer := sub.ReviewSlots.Reviewers[0]
		assert.Equal(t, metadata.ReviewerExpired, reviewer.Status)
		require.NotNil(t, reviewer.ExpiredAt)
		assert.Equal(t, testNow, *reviewer.ExpiredAt)
		assert.Equal(t, 0, sub.ReviewSlots.Filled)

		require.Len(t, sub.ReviewSlots.History, 1)
		assert.Equal(t, metadata.ActionTimeoutRelease, sub.ReviewSlots.History[0].Action)

		require.Len(t, sub.Timelines, 1)
		event := sub.Timelines[0]
		assert.Equal(t, metadata.EventSlotTimeout, event.Event)
		assert.Equal(t, "system", event.Actor)
		assert.Equal(t, "alice", event.Details["reviewer"])
		assert.Equal(t, claimedAt, event.Details["claimedAt"])
		assert.Equal(t, 20, event.Details["daysElapsed"])

		assert.Equal(t, testNow, sub.UpdatedAt)
		assert.Equal(t, 1, store.SaveCount, "one write per modified submission")
	})

	t.Run("strict timeout boundary", func(t *testing.T) {
		store := metadata.NewMemStore()
		store.PutSubmission(activeSubmission("sub_2025_12_AAA", 3, 2,
			metadata.Reviewer{UserID: "atlimit", Status: metadata.ReviewerClaimed, ClaimedAt: testNow.Add(-timeout)},
			metadata.Reviewer{UserID: "pastlimit", Status: metadata.ReviewerClaimed, ClaimedAt: testNow.Add(-timeout - time.Microsecond)}))

		report, err := newTestEngine(store).Sweep(timeout)
		require.NoError(t, err)
		assert.Equal(t, 1, report.ReleasedCount)
		assert.Equal(t, "pastlimit", report.Released[0].Reviewer)

		sub := store.Submissions["sub_2025_12_AAA"]
		assert.Equal(t, metadata.ReviewerClaimed, sub.ReviewSlots.Reviewers[0].Status)
		assert.Equal(t, metadata.ReviewerExpired, sub.ReviewSlots.Reviewers[1].Status)
	})

	t.Run("second pass releases nothing", func(t *testing.T) {
		store := metadata.NewMemStore()
		store.PutSubmission(activeSubmission("sub_2025_12_AAA", 3, 1,
			metadata.Reviewer{UserID: "alice", Status: metadata.ReviewerClaimed, ClaimedAt: testNow.Add(-20 * 24 * time.Hour)}))
		e := newTestEngine(store)

		first, err := e.Sweep(timeout)
		require.NoError(t, err)
		require.Equal(t, 1, first.ReleasedCount)

		second, err := e.Sweep(timeout)
		require.NoError(t, err)
		assert.Zero(t, second.ReleasedCount)
		assert.Equal(t, 0, store.Submissions["sub_2025_12_AAA"].ReviewSlots.Filled, "filled must not go below the first release")
	})

	t.Run("submitted reviewers are never swept", func(t *testing.T) {
		store := metadata.NewMemStore()
		store.PutSubmission(activeSubmission("sub_2025_12_AAA", 3, 1,
			metadata.Reviewer{UserID: "alice", Status: metadata.ReviewerSubmitted, ClaimedAt: testNow.Add(-60 * 24 * time.Hour)}))

		report, err := newTestEngine(store).Sweep(timeout)
		require.NoError(t, err)
		assert.Zero(t, report.ReleasedCount)
		assert.Equal(t, 1, store.Submissions["sub_2025_12_AAA"].ReviewSlots.Filled)
	})

	t.Run("inactive submissions are skipped", func(t *testing.T) {
		store := metadata.NewMemStore()
		sub := activeSubmission("sub_2025_12_AAA", 3, 1,
			metadata.Reviewer{UserID: "alice", Status: metadata.ReviewerClaimed, ClaimedAt: testNow.Add(-60 * 24 * time.Hour)})
		sub.Status = metadata.StatusAccepted
		store.PutSubmission(sub)

		report, err := newTestEngine(store).Sweep(timeout)
		require.NoError(t, err)
		assert.Zero(t, report.ReleasedCount)
		assert.Zero(t, store.SaveCount)
	})

	t.Run("pending-revision submissions are swept", func(t *testing.T) {
		store := metadata.NewMemStore()
		sub := activeSubmission("sub_2025_12_AAA", 3, 1,
			metadata.Reviewer{UserID: "alice", Status: metadata.ReviewerClaimed, ClaimedAt: testNow.Add(-20 * 24 * time.Hour)})
		sub.Status = metadata.StatusPendingRevision
		store.PutSubmission(sub)

		report, err := newTestEngine(store).Sweep(timeout)
		require.NoError(t, err)
		assert.Equal(t, 1, report.ReleasedCount)
	})
}

func TestActiveSubmission(t *testing.T) {
	active := "sub_2025_12_AAA"

	t.Run("no index entry", func(t *testing.T) {
		store := metadata.NewMemStore()
		sub, err := newTestEngine(store).ActiveSubmission("alice")
		require.NoError(t, err)
		assert.Nil(t, sub)
	})

	t.Run("null entry", func(t *testing.T) {
		store := metadata.NewMemStore()
		store.Index.Index["alice"] = metadata.IndexEntry{}
		sub, err := newTestEngine(store).ActiveSubmission("alice")
		require.NoError(t, err)
		assert.Nil(t, sub)
	})

	t.Run("active submission found", func(t *testing.T) {
		store := metadata.NewMemStore()
		store.PutSubmission(activeSubmission(active, 3, 0))
		store.Index.Index["alice"] = metadata.IndexEntry{ActiveSubmissionID: &active}

		sub, err := newTestEngine(store).ActiveSubmission("alice")
		require.NoError(t, err)
		require.NotNil(t, sub)
		assert.Equal(t, active, sub.ID)
	})

	t.Run("stale index to completed submission", func(t *testing.T) {
		store := metadata.NewMemStore()
		done := activeSubmission(active, 3, 0)
		done.Status = metadata.StatusAccepted
		store.PutSubmission(done)
		store.Index.Index["alice"] = metadata.IndexEntry{ActiveSubmissionID: &active}

		sub, err := newTestEngine(store).ActiveSubmission("alice")
		require.NoError(t, err)
		assert.Nil(t, sub)
	})

	t.Run("dangling index entry", func(t *testing.T) {
		store := metadata.NewMemStore()
		store.Index.Index["alice"] = metadata.IndexEntry{ActiveSubmissionID: &active}

		sub, err := newTestEngine(store).ActiveSubmission("alice")
		require.NoError(t, err)
		assert.Nil(t, sub)
	})
}
