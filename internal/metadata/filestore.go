package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// FileStore reads and writes the on-disk metadata layout:
//
//	<root>/submissions/<YYYY>-<MM>/<id>.json
//	<root>/users/<userId>.json
//	<root>/indexes/user_submissions.json
//
// Records are rewritten whole with two-space indentation on every save.
type FileStore struct {
	root string
}

// NewFileStore creates a store rooted at the metadata directory.
func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// Root returns the metadata directory this store operates on.
func (fs *FileStore) Root() string {
	return fs.root
}

// ListSubmissions scans every year-month partition and parses every file
// matching the submission naming convention. A single malformed file aborts
// the whole scan.
func (fs *FileStore) ListSubmissions() ([]*StoredSubmission, error) {
	submissionsDir := filepath.Join(fs.root, "submissions")

	partitions, err := os.ReadDir(submissionsDir)
	if err != nil {
		if os.IsNotExist(err) {
			// The tree may not exist yet; an empty store is not an error.
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read submissions dir: %w", err)
	}

	var out []*StoredSubmission
	for _, partition := range partitions {
		if !partition.IsDir() {
			continue
		}
		partitionDir := filepath.Join(submissionsDir, partition.Name())
		files, err := os.ReadDir(partitionDir)
		if err != nil {
			return nil, fmt.Errorf("failed to read partition %s: %w", partition.Name(), err)
		}
		for _, f := range files {
			if f.IsDir() || !SubmissionFilename(f.Name()) {
				continue
			}
			path := filepath.Join(partitionDir, f.Name())
			sub, err := readSubmission(path)
			if err != nil {
				return nil, err
			}
			out = append(out, &StoredSubmission{Submission: sub, Path: path})
		}
	}

	// ReadDir sorts per directory; sorting partitions keeps scan order stable
	// across platforms.
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// FindSubmission locates a submission by ID via exhaustive scan.
func (fs *FileStore) FindSubmission(id string) (*StoredSubmission, error) {
	all, err := fs.ListSubmissions()
	if err != nil {
		return nil, err
	}
	for _, s := range all {
		if s.Submission.ID == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("submission %s: %w", id, ErrNotFound)
}

// GetSubmission reads the single file the ID's embedded year-month points at.
func (fs *FileStore) GetSubmission(id string) (*StoredSubmission, error) {
	path, err := SubmissionPath(fs.root, id)
	if err != nil {
		return nil, err
	}
	sub, err := readSubmission(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("submission %s (%s): %w", id, path, ErrNotFound)
		}
		return nil, err
	}
	return &StoredSubmission{Submission: sub, Path: path}, nil
}

// SaveSubmission overwrites the record at its stored path.
func (fs *FileStore) SaveSubmission(s *StoredSubmission) error {
	return writeJSON(s.Path, s.Submission)
}

// DeleteSubmission removes the record file from the store.
func (fs *FileStore) DeleteSubmission(s *StoredSubmission) error {
	if err := os.Remove(s.Path); err != nil {
		return fmt.Errorf("failed to delete submission file: %w", err)
	}
	return nil
}

// LoadUser reads a user record; ErrNotFound when the file is absent.
func (fs *FileStore) LoadUser(userID string) (*User, error) {
	path := UserPath(fs.root, userID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read user file: %w", err)
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, path, err)
	}
	return &u, nil
}

// SaveUser overwrites a user record.
func (fs *FileStore) SaveUser(userID string, u *User) error {
	return writeJSON(UserPath(fs.root, userID), u)
}

// LoadIndex reads the username index. A missing index file yields an empty
// index rather than an error.
func (fs *FileStore) LoadIndex() (*UserSubmissionIndex, error) {
	data, err := os.ReadFile(IndexPath(fs.root))
	if err != nil {
		if os.IsNotExist(err) {
			return &UserSubmissionIndex{Index: map[string]IndexEntry{}}, nil
		}
		return nil, fmt.Errorf("failed to read user index: %w", err)
	}
	var idx UserSubmissionIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("%w: user index: %v", ErrMalformedRecord, err)
	}
	if idx.Index == nil {
		idx.Index = map[string]IndexEntry{}
	}
	return &idx, nil
}

func readSubmission(path string) (*Submission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read submission file %s: %w", path, err)
	}
	var sub Submission
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, path, err)
	}
	return &sub, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metadata dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
