package metadata

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrInvalidSubmissionID is returned when a submission ID does not match the
// sub_<year>_<month>_<token> format.
var ErrInvalidSubmissionID = fmt.Errorf("invalid submission ID format")

var submissionIDPattern = regexp.MustCompile(`^sub_(\d{4})_(\d{2})_\w+$`)

// ParseSubmissionID extracts the year and month embedded in a submission ID.
// The ID format determines which year-month partition holds the record.
func ParseSubmissionID(id string) (year, month string, err error) {
	m := submissionIDPattern.FindStringSubmatch(id)
	if m == nil {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidSubmissionID, id)
	}
	return m[1], m[2], nil
}

// SubmissionFilename reports whether name follows the submission file naming
// convention. Scans skip anything else in a partition directory.
func SubmissionFilename(name string) bool {
	return strings.HasPrefix(name, "sub_") && strings.HasSuffix(name, ".json")
}

// SubmissionPath derives the deterministic record path for an ID relative to
// the metadata root. Unlike FindSubmission this does not scan; it is the
// cheap single-file read used by cleanup.
func SubmissionPath(root, id string) (string, error) {
	year, month, err := ParseSubmissionID(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "submissions", year+"-"+month, id+".json"), nil
}

// UserPath derives the user record path for a user ID.
func UserPath(root, userID string) string {
	return filepath.Join(root, "users", userID+".json")
}

// IndexPath derives the username index path.
func IndexPath(root string) string {
	return filepath.Join(root, "indexes", "user_submissions.json")
}
