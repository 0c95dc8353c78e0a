package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kiranshivaraju/autodesign/internal/cache"
)

// ErrUnavailable wraps failures of the backing cache.
var ErrUnavailable = errors.New("session store unavailable")

// Store loads and saves sessions through a cache.Cache, refreshing the TTL on
// every save.
type Store struct {
	cache    cache.Cache
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock serializes Updates of one session id. It is removed from
// Store.locks once no Update holds or waits for it.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewStore creates a Store. interval is the poll interval given to sessions
// created on first load.
func NewStore(c cache.Cache, ttl, interval time.Duration) *Store {
	return &Store{
		cache:    c,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
		locks:    make(map[string]*sessionLock),
	}
}

// Load returns the stored session, or a fresh one when none exists or the
// stored value cannot be decoded. The bool reports whether a stored session
// was used.
func (s *Store) Load(ctx context.Context, id string) (*Session, bool, error) {
	data, found, err := s.cache.Get(ctx, cache.SessionKey(id))
	if err != nil {
		return nil, false, fmt.Errorf("%w: load: %w", ErrUnavailable, err)
	}
	if !found {
		return New(id, s.interval), false, nil
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		slog.Warn("discarding undecodable session", "session_id", id, "error", err)
		return New(id, s.interval), false, nil
	}
	return &sess, true, nil
}

func (s *Store) Save(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = s.now().UTC()
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", sess.ID, err)
	}
	if err := s.cache.Set(ctx, cache.SessionKey(sess.ID), data, s.ttl); err != nil {
		return fmt.Errorf("%w: save: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, cache.SessionKey(id))
}

func (s *Store) Ping(ctx context.Context) error {
	return s.cache.Ping(ctx)
}

// Update runs fn against the session under a lock held for that session id
// only, and saves the result. Updates of different sessions never wait on
// each other. The session is saved even when fn returns an error so that state
// transitions made before the error are kept; fn's error is returned.
//
// The lock is process-local. With a shared Redis backend two replicas may
// still interleave requests for the same session.
func (s *Store) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	unlock := s.lock(id)
	defer unlock()

	sess, _, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	fnErr := fn(sess)
	if err := s.Save(ctx, sess); err != nil {
		return sess, err
	}
	return sess, fnErr
}

// lock acquires the lock for id and returns its release function.
func (s *Store) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}
