package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lazyai/lazyai/internal/git"
	"github.com/lazyai/lazyai/internal/oplog"
)

// ErrRepositoryFetch marks session creation failures caused by the
// repository clone rather than the store itself.
var ErrRepositoryFetch = errors.New("repository fetch failed")

// Store keeps sessions as directories under a base directory. The
// filesystem is the source of truth; the store caches its listing and
// invalidates on writes (and on external changes via Watch).
type Store struct {
	baseDir string
	cloner  git.Cloner

	mu     sync.Mutex
	cache  []Session // descending id order
	dirty  bool
	lastID string
}

// New creates a Store over baseDir. The directory is created lazily on
// first session creation.
func New(baseDir string, cloner git.Cloner) *Store {
	return &Store{baseDir: baseDir, cloner: cloner, dirty: true}
}

// BaseDir returns the directory sessions live under.
func (s *Store) BaseDir() string { return s.baseDir }

// Create allocates a new session: a fresh time-ordered id, a workspace
// directory, and a repository checkout under it. On clone failure the
// workspace is renamed aside so it stays inspectable without being
// resolvable, and the error wraps ErrRepositoryFetch.
func (s *Store) Create(ctx context.Context, repository string) (Session, error) {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return Session{}, fmt.Errorf("create base directory: %w", err)
	}

	id := s.nextID()
	workspace := filepath.Join(s.baseDir, id)
	if err := os.Mkdir(workspace, 0755); err != nil {
		return Session{}, fmt.Errorf("create workspace: %w", err)
	}

	sess := Session{
		ID:         id,
		Workspace:  workspace,
		Repository: repository,
		CreatedAt:  idCreatedAt(id),
	}

	if err := s.cloner.Clone(ctx, repository, sess.RepoDir()); err != nil {
		// Keep the directory for inspection but out of the id namespace.
		if renameErr := os.Rename(workspace, workspace+".failed"); renameErr != nil {
			oplog.Log.Warn("could not set aside failed workspace", "session", id, "error", renameErr)
		}
		return Session{}, fmt.Errorf("%w: %v", ErrRepositoryFetch, err)
	}

	s.Invalidate()
	oplog.Log.Info("session created", "session", id, "repository", repository)
	return sess, nil
}

// nextID returns a fresh id strictly greater than any id this store
// has handed out.
func (s *Store) nextID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := newID(time.Now())
	for id <= s.lastID {
		time.Sleep(time.Nanosecond)
		id = newID(time.Now())
	}
	s.lastID = id
	return id
}

// Get returns the session with the given id, whether or not its
// workspace exists. Existence surfaces on first use, not here.
func (s *Store) Get(id string) Session {
	return Session{
		ID:        id,
		Workspace: filepath.Join(s.baseDir, id),
		CreatedAt: idCreatedAt(id),
	}
}

// Exists reports whether the session's workspace is present on disk.
func (s *Store) Exists(sess Session) bool {
	info, err := os.Stat(sess.Workspace)
	return err == nil && info.IsDir()
}

// AttachCorrelation durably records value as the session's marker of
// the given kind. A second write for the same kind overwrites; that is
// a logic fault upstream, so it is logged rather than rejected.
func (s *Store) AttachCorrelation(sess Session, kind CorrelationKind, value string) error {
	path := s.markerPath(sess, kind)
	if prev, err := os.ReadFile(path); err == nil {
		oplog.Log.Warn("correlation marker overwritten",
			"session", sess.ID, "kind", kind,
			"old", strings.TrimSpace(string(prev)), "new", value)
	}
	if err := os.WriteFile(path, []byte(value+"\n"), 0644); err != nil {
		return fmt.Errorf("write %s marker: %w", kind, err)
	}
	s.Invalidate()
	return nil
}

// ReadCorrelation returns the stored marker value of the given kind.
// A missing or unreadable marker is reported as absent, never an error.
func (s *Store) ReadCorrelation(sess Session, kind CorrelationKind) (string, bool) {
	data, err := os.ReadFile(s.markerPath(sess, kind))
	if err != nil {
		return "", false
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", false
	}
	return value, true
}

func (s *Store) markerPath(sess Session, kind CorrelationKind) string {
	return filepath.Join(sess.Workspace, string(kind))
}

// List enumerates all sessions, most recently created first. The
// listing is cached until the next write or watcher event.
func (s *Store) List() ([]Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty && s.cache != nil {
		return append([]Session(nil), s.cache...), nil
	}

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			s.cache = []Session{}
			s.dirty = false
			return nil, nil
		}
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var sessions []Session
	for _, entry := range entries {
		if !entry.IsDir() || !IsSessionID(entry.Name()) {
			continue
		}
		sessions = append(sessions, Session{
			ID:        entry.Name(),
			Workspace: filepath.Join(s.baseDir, entry.Name()),
			CreatedAt: idCreatedAt(entry.Name()),
		})
	}

	// IDs embed creation time, so descending string order is
	// most-recent-first.
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].ID > sessions[j].ID
	})

	s.cache = sessions
	s.dirty = false
	return append([]Session(nil), sessions...), nil
}

// Invalidate drops the cached listing.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}
