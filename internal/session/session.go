// Package session provides durable work sessions on the filesystem.
//
// A session is one unit of work: an exclusive workspace directory
// holding a repository checkout plus up to two correlation markers that
// tie the session to externally assigned issue and PR numbers.
package session

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"
)

// CorrelationKind names the two classes of correlation marker a
// session can carry. The marker file in the workspace is named after
// the kind and holds a bare decimal value.
type CorrelationKind string

const (
	KindIssue CorrelationKind = "issue"
	KindPR    CorrelationKind = "pr"
)

// RepoDirName is the directory inside a workspace holding the clone.
const RepoDirName = "repo"

// Session is a durable unit of work.
type Session struct {
	// ID is opaque but lexicographically sortable by creation time.
	ID string `json:"id"`

	// Workspace is this session's exclusive directory.
	Workspace string `json:"workspace"`

	// Repository is the code host reference the workspace was cloned
	// from. Populated on creation; sessions rehydrated from disk leave
	// it empty.
	Repository string `json:"repository,omitempty"`

	// CreatedAt is derived from the ID.
	CreatedAt time.Time `json:"created_at"`
}

// RepoDir returns the path of the repository checkout.
func (s Session) RepoDir() string {
	return filepath.Join(s.Workspace, RepoDirName)
}

// Session IDs look like s-20260829-174205-012345678: UTC date, time,
// and zero-padded nanoseconds, so string order is creation order.
var idPattern = regexp.MustCompile(`^s-\d{8}-\d{6}-\d{9}$`)

const idTimeLayout = "20060102-150405"

// IsSessionID reports whether raw matches the session id convention.
func IsSessionID(raw string) bool {
	return idPattern.MatchString(raw)
}

func newID(now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("s-%s-%09d", now.Format(idTimeLayout), now.Nanosecond())
}

func idCreatedAt(id string) time.Time {
	if !IsSessionID(id) {
		return time.Time{}
	}
	t, err := time.Parse(idTimeLayout, id[2:17])
	if err != nil {
		return time.Time{}
	}
	var nanos int
	fmt.Sscanf(id[18:], "%d", &nanos)
	return t.Add(time.Duration(nanos)).UTC()
}

// NotFoundError reports that an identifier matched no session.
type NotFoundError struct {
	Identifier string
	Kind       CorrelationKind
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("no session found for %q (%s)", e.Identifier, e.Kind)
}
