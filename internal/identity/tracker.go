package identity

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrAlreadyOnline is returned when an identity id or name is already tracked.
var ErrAlreadyOnline = errors.New("identity already online")

// Tracker is the concurrent set of online identities.
type Tracker struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]Identity
	byName map[string]uuid.UUID
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		byID:   map[uuid.UUID]Identity{},
		byName: map[string]uuid.UUID{},
	}
}

// Add registers an identity after validating its name.
func (t *Tracker) Add(id Identity) error {
	if err := ValidateName(id.Name()); err != nil {
		return err
	}
	key := strings.ToLower(id.Name())
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byID[id.ID()]; ok {
		return ErrAlreadyOnline
	}
	if _, ok := t.byName[key]; ok {
		return ErrAlreadyOnline
	}
	t.byID[id.ID()] = id
	t.byName[key] = id.ID()
	return nil
}

// Remove forgets the identity with the given id.
func (t *Tracker) Remove(id uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.byID[id]; ok {
		delete(t.byName, strings.ToLower(cur.Name()))
		delete(t.byID, id)
	}
}

// Get returns the identity with the given id.
func (t *Tracker) Get(id uuid.UUID) (Identity, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cur, ok := t.byID[id]
	return cur, ok
}

// Lookup finds an online identity by name, ignoring case.
func (t *Tracker) Lookup(name string) (Identity, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return t.byID[id], true
}

// Online returns every tracked identity ordered by name.
func (t *Tracker) Online() []Identity {
	t.mu.RLock()
	out := make([]Identity, 0, len(t.byID))
	for _, id := range t.byID {
		out = append(out, id)
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name()) < strings.ToLower(out[j].Name())
	})
	return out
}

// Len returns the number of online identities.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}
