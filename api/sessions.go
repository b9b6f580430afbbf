package api

import (
	"context"
	"sync"
	"time"

	"taskboard/board"
	"taskboard/domain"
)

// maxPending bounds the changes queued for a session between requests. A
// session that falls further behind reloads its project instead.
const maxPending = 256

// BoardFactory builds the board of a newly seen user.
type BoardFactory func(userID string) *board.Board

// Sessions keeps one board per user. Requests of one user are serialised on
// the session lock so the board only ever sees a single writer. Changes made
// by other users are queued per session and folded in on the next request.
type Sessions struct {
	factory BoardFactory
	now     func() time.Time

	mu     sync.Mutex
	byUser map[string]*session
}

type session struct {
	// mu serialises use of board; project is only touched with it held.
	mu      sync.Mutex
	board   *board.Board
	project string

	// Guarded by Sessions.mu.
	watching string
	pending  []domain.Change
	stale    bool
	inUse    int
	lastUsed time.Time
}

func NewSessions(factory BoardFactory) *Sessions {
	if factory == nil {
		panic("api.NewSessions: factory is required")
	}
	return &Sessions{factory: factory, now: time.Now, byUser: make(map[string]*session)}
}

// Acquire locks the user's board with projectID active, opening the project
// first when the session is on another one or fell behind. Queued changes of
// other users are applied before it returns. The caller must call release.
func (s *Sessions) Acquire(ctx context.Context, userID, projectID string) (b *board.Board, release func(), err error) {
	s.mu.Lock()
	sess, ok := s.byUser[userID]
	if !ok {
		sess = &session{board: s.factory(userID)}
		s.byUser[userID] = sess
	}
	sess.inUse++
	s.mu.Unlock()

	sess.mu.Lock()
	release = func() {
		sess.mu.Unlock()
		s.mu.Lock()
		sess.inUse--
		sess.lastUsed = s.now()
		s.mu.Unlock()
	}

	s.mu.Lock()
	reopen := sess.project != projectID || sess.stale
	if reopen {
		// Changes arriving while the project loads are queued and replayed on top.
		sess.watching = projectID
		sess.pending = nil
		sess.stale = false
	}
	s.mu.Unlock()

	if reopen {
		sess.project = ""
		if err := sess.board.Open(ctx, projectID); err != nil {
			s.mu.Lock()
			sess.watching = ""
			sess.pending = nil
			s.mu.Unlock()
			release()
			return nil, nil, err
		}
		sess.board.Store().Retain(projectID)
		sess.project = projectID
	}

	s.mu.Lock()
	pending := sess.pending
	sess.pending = nil
	s.mu.Unlock()
	for _, c := range pending {
		sess.board.Apply(c)
	}
	return sess.board, release, nil
}

// Broadcast queues c for every session showing the change's project, except
// the session of the user who made it.
func (s *Sessions) Broadcast(c domain.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, sess := range s.byUser {
		if userID == c.UserID || sess.stale || sess.watching == "" || sess.watching != c.Task.ProjectID {
			continue
		}
		if len(sess.pending) >= maxPending {
			sess.pending = nil
			sess.stale = true
			continue
		}
		sess.pending = append(sess.pending, c)
	}
}

// Follow broadcasts every change read from changes until the channel closes
// or ctx ends.
func (s *Sessions) Follow(ctx context.Context, changes <-chan domain.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			s.Broadcast(c)
		}
	}
}

// EvictIdle drops sessions unused for longer than maxIdle and returns how many
// were removed. Sessions with a request in flight are kept.
func (s *Sessions) EvictIdle(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for userID, sess := range s.byUser {
		if sess.inUse > 0 || sess.lastUsed.After(cutoff) {
			continue
		}
		delete(s.byUser, userID)
		n++
	}
	return n
}

// Sweep runs EvictIdle every interval until ctx ends.
func (s *Sessions) Sweep(ctx context.Context, interval, maxIdle time.Duration) {
	if interval <= 0 || maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictIdle(maxIdle)
		}
	}
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byUser)
}
