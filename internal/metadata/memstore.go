package metadata

import (
	"fmt"
	"sort"
)

// MemStore is an in-memory Store used by tests. Paths are synthesized from
// the submission ID so engine code that round-trips StoredSubmission.Path
// behaves the same as with FileStore.
type MemStore struct {
	Submissions map[string]*Submission
	Users       map[string]*User
	Index       *UserSubmissionIndex

	// SaveCount and DeleteCount track mutations for assertions.
	SaveCount   int
	DeleteCount int
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		Submissions: map[string]*Submission{},
		Users:       map[string]*User{},
		Index:       &UserSubmissionIndex{Index: map[string]IndexEntry{}},
	}
}

// PutSubmission seeds a submission record.
func (m *MemStore) PutSubmission(s *Submission) {
	m.Submissions[s.ID] = s
}

func (m *MemStore) stored(s *Submission) (*StoredSubmission, error) {
	path, err := SubmissionPath("mem", s.ID)
	if err != nil {
		path = "mem/" + s.ID + ".json"
	}
	return &StoredSubmission{Submission: s, Path: path}, nil
}

// FindSubmission locates a submission by ID.
func (m *MemStore) FindSubmission(id string) (*StoredSubmission, error) {
	s, ok := m.Submissions[id]
	if !ok {
		return nil, fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	return m.stored(s)
}

// GetSubmission behaves like the deterministic-path read: the ID must parse.
func (m *MemStore) GetSubmission(id string) (*StoredSubmission, error) {
	if _, _, err := ParseSubmissionID(id); err != nil {
		return nil, err
	}
	return m.FindSubmission(id)
}

// ListSubmissions returns every record in stable ID order.
func (m *MemStore) ListSubmissions() ([]*StoredSubmission, error) {
	ids := make([]string, 0, len(m.Submissions))
	for id := range m.Submissions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*StoredSubmission, 0, len(ids))
	for _, id := range ids {
		s, err := m.stored(m.Submissions[id])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// SaveSubmission records the mutation.
func (m *MemStore) SaveSubmission(s *StoredSubmission) error {
	m.Submissions[s.Submission.ID] = s.Submission
	m.SaveCount++
	return nil
}

// DeleteSubmission removes the record.
func (m *MemStore) DeleteSubmission(s *StoredSubmission) error {
	if _, ok := m.Submissions[s.Submission.ID]; !ok {
		return fmt.Errorf("submission %s: %w", s.Submission.ID, ErrNotFound)
	}
	delete(m.Submissions, s.Submission.ID)
	m.DeleteCount++
	return nil
}

// LoadUser returns a seeded user record.
func (m *MemStore) LoadUser(userID string) (*User, error) {
	u, ok := m.Users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return u, nil
}

// SaveUser stores a user record.
func (m *MemStore) SaveUser(userID string, u *User) error {
	m.Users[userID] = u
	return nil
}

// LoadIndex returns the seeded username index.
func (m *MemStore) LoadIndex() (*UserSubmissionIndex, error) {
	return m.Index, nil
}
