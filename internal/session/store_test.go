package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// fakeCloner materializes a repository by dropping a single file,
// or fails when told to.
type fakeCloner struct {
	fail  bool
	calls int
}

func (c *fakeCloner) Clone(ctx context.Context, repo, dir string) error {
	c.calls++
	if c.fail {
		return errors.New("remote unreachable")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "README.md"), []byte(repo+"\n"), 0644)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(t.TempDir(), &fakeCloner{})
}

func mustCreate(t *testing.T, s *Store) Session {
	t.Helper()
	sess, err := s.Create(context.Background(), "octo/spoon")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return sess
}

func TestCreateMaterializesWorkspace(t *testing.T) {
	s := newTestStore(t)
	sess := mustCreate(t, s)

	if !IsSessionID(sess.ID) {
		t.Errorf("id %q does not match the session id convention", sess.ID)
	}
	if sess.Repository != "octo/spoon" {
		t.Errorf("repository = %q", sess.Repository)
	}
	if _, err := os.Stat(filepath.Join(sess.RepoDir(), "README.md")); err != nil {
		t.Errorf("repository not materialized: %v", err)
	}
	if sess.CreatedAt.IsZero() {
		t.Error("CreatedAt not derived from id")
	}
}

func TestCreateIDsStrictlyIncreasing(t *testing.T) {
	s := newTestStore(t)

	var prev string
	for i := 0; i < 10; i++ {
		sess := mustCreate(t, s)
		if sess.ID <= prev {
			t.Fatalf("id %q not greater than %q", sess.ID, prev)
		}
		prev = sess.ID
	}
}

func TestCreateCloneFailure(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, &fakeCloner{fail: true})

	_, err := s.Create(context.Background(), "octo/spoon")
	if !errors.Is(err, ErrRepositoryFetch) {
		t.Fatalf("err = %v, want ErrRepositoryFetch", err)
	}

	// The failed workspace stays on disk for inspection but must not
	// be resolvable through the listing.
	sessions, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("failed session leaked into listing: %+v", sessions)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected the failed workspace to remain, got %d entries", len(entries))
	}
}

func TestAttachAndReadCorrelation(t *testing.T) {
	s := newTestStore(t)
	sess := mustCreate(t, s)

	if _, ok := s.ReadCorrelation(sess, KindIssue); ok {
		t.Fatal("unexpected issue marker on fresh session")
	}

	if err := s.AttachCorrelation(sess, KindIssue, "42"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	got, ok := s.ReadCorrelation(sess, KindIssue)
	if !ok || got != "42" {
		t.Errorf("issue marker = %q, %v; want 42, true", got, ok)
	}

	// PR marker is independent.
	if _, ok := s.ReadCorrelation(sess, KindPR); ok {
		t.Error("pr marker should still be absent")
	}

	// A second write for the same kind overwrites (logged upstream,
	// not an error).
	if err := s.AttachCorrelation(sess, KindIssue, "43"); err != nil {
		t.Fatalf("second attach: %v", err)
	}
	got, _ = s.ReadCorrelation(sess, KindIssue)
	if got != "43" {
		t.Errorf("issue marker after overwrite = %q, want 43", got)
	}
}

func TestReadCorrelationNeverErrors(t *testing.T) {
	s := newTestStore(t)

	// Session whose workspace does not exist at all.
	ghost := s.Get("s-20240101-000000-000000000")
	if v, ok := s.ReadCorrelation(ghost, KindIssue); ok {
		t.Errorf("got %q for ghost session", v)
	}
}

func TestListDescendingOrder(t *testing.T) {
	s := newTestStore(t)

	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, mustCreate(t, s).ID)
	}

	sessions, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != len(ids) {
		t.Fatalf("listed %d sessions, want %d", len(sessions), len(ids))
	}
	for i, sess := range sessions {
		want := ids[len(ids)-1-i]
		if sess.ID != want {
			t.Errorf("sessions[%d] = %s, want %s", i, sess.ID, want)
		}
	}
}

func TestListSkipsForeignEntries(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, &fakeCloner{})
	sess := mustCreate(t, s)

	// Stray content that must not be mistaken for sessions.
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644)
	os.Mkdir(filepath.Join(dir, "scratch"), 0755)
	os.Mkdir(filepath.Join(dir, sess.ID+".failed"), 0755)
	s.Invalidate()

	sessions, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != sess.ID {
		t.Errorf("listing = %+v, want only %s", sessions, sess.ID)
	}
}

func TestListEmptyBaseDir(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "does-not-exist-yet"), &fakeCloner{})
	sessions, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("got %d sessions from missing base dir", len(sessions))
	}
}

func TestListCacheInvalidatedOnWrite(t *testing.T) {
	s := newTestStore(t)

	if sessions, _ := s.List(); len(sessions) != 0 {
		t.Fatalf("unexpected sessions: %v", sessions)
	}

	sess := mustCreate(t, s)

	sessions, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != sess.ID {
		t.Errorf("cache not invalidated by create: %+v", sessions)
	}
}

func TestIsSessionID(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"s-20260829-174205-012345678", true},
		{"s-20260829-174205-012345678.failed", false},
		{"42", false},
		{"", false},
		{"session-1", false},
		{"s-2026-174205-012345678", false},
	}
	for _, tt := range tests {
		if got := IsSessionID(tt.raw); got != tt.want {
			t.Errorf("IsSessionID(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestIDCreatedAtRoundTrip(t *testing.T) {
	s := newTestStore(t)
	sess := mustCreate(t, s)

	got := idCreatedAt(sess.ID)
	if got.IsZero() {
		t.Fatalf("could not parse creation time from %q", sess.ID)
	}
	if fmt.Sprintf("%09d", got.Nanosecond()) != sess.ID[18:] {
		t.Errorf("nanos mismatch: %s vs %s", got, sess.ID)
	}
}
