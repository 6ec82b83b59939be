// Package viewsession keeps short-lived snapshots that viewers can open on
// demand, keyed by owner and snapshot kind.
package viewsession

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/memohai/chatmanager/internal/snapshot"
)

const defaultShards = 32

// Session is one stored snapshot.
type Session struct {
	OwnerID   uuid.UUID
	Kind      snapshot.Kind
	Snapshot  snapshot.Snapshot
	CreatedAt time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithShards sets the number of lock shards.
func WithShards(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.shards = make([]*shard, n)
		}
	}
}

// Store holds at most one session per (owner, kind). Owners are spread
// across independently locked shards, and a sweep locks one shard at a time.
type Store struct {
	shards []*shard
	now    func() time.Time
}

type shard struct {
	mu     sync.RWMutex
	owners map[uuid.UUID]map[snapshot.Kind]Session
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		shards: make([]*shard, defaultShards),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	for i := range s.shards {
		s.shards[i] = &shard{owners: map[uuid.UUID]map[snapshot.Kind]Session{}}
	}
	return s
}

func (s *Store) shardFor(owner uuid.UUID) *shard {
	h := binary.BigEndian.Uint64(owner[8:]) ^ binary.BigEndian.Uint64(owner[:8])
	return s.shards[h%uint64(len(s.shards))]
}

// Put stores a copy of snap, replacing any session of the same owner and kind.
func (s *Store) Put(owner uuid.UUID, kind snapshot.Kind, snap snapshot.Snapshot) {
	session := Session{
		OwnerID:   owner,
		Kind:      kind,
		Snapshot:  snap.Clone(),
		CreatedAt: s.now(),
	}
	sh := s.shardFor(owner)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	kinds, ok := sh.owners[owner]
	if !ok {
		kinds = map[snapshot.Kind]Session{}
		sh.owners[owner] = kinds
	}
	kinds[kind] = session
}

// Get returns a copy of the stored snapshot. A miss means the session expired
// or never existed. Get does not extend a session's lifetime.
func (s *Store) Get(owner uuid.UUID, kind snapshot.Kind) (snapshot.Snapshot, bool) {
	sh := s.shardFor(owner)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	session, ok := sh.owners[owner][kind]
	if !ok {
		return snapshot.Snapshot{}, false
	}
	return session.Snapshot.Clone(), true
}

// Sweep removes sessions older than ttl and owners left without sessions.
// It returns the number of sessions removed.
func (s *Store) Sweep(ttl time.Duration) int {
	now := s.now()
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for owner, kinds := range sh.owners {
			for kind, session := range kinds {
				if now.Sub(session.CreatedAt) > ttl {
					delete(kinds, kind)
					removed++
				}
			}
			if len(kinds) == 0 {
				delete(sh.owners, owner)
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, kinds := range sh.owners {
			n += len(kinds)
		}
		sh.mu.RUnlock()
	}
	return n
}
