package metadata

import "errors"

// Store errors. Wrapped variants carry the offending ID or path; callers
// branch with errors.Is.
var (
	// ErrNotFound means the requested submission or user record is absent.
	ErrNotFound = errors.New("record not found")
	// ErrMalformedRecord means a metadata file failed to parse. Scans abort
	// on the first malformed file rather than skipping it.
	ErrMalformedRecord = errors.New("malformed metadata record")
)

// Store is the capability surface over the metadata tree. FileStore is the
// real implementation; MemStore substitutes for it in tests.
//
// FindSubmission is the exhaustive scan (linear over every partition);
// GetSubmission is the deterministic-path read derived from the ID itself.
// They are separate operations so each caller's cost is visible.
type Store interface {
	FindSubmission(id string) (*StoredSubmission, error)
	GetSubmission(id string) (*StoredSubmission, error)
	ListSubmissions() ([]*StoredSubmission, error)
	SaveSubmission(s *StoredSubmission) error
	DeleteSubmission(s *StoredSubmission) error

	LoadUser(userID string) (*User, error)
	SaveUser(userID string, u *User) error

	LoadIndex() (*UserSubmissionIndex, error)
}
