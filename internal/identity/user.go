package identity

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/memohai/chatmanager/internal/snapshot"
)

// ErrInvalidName is returned for names outside the allowed charset.
var ErrInvalidName = errors.New("invalid identity name")

// ValidateName enforces the player name charset: 1-16 letters, digits or '_'.
func ValidateName(name string) error {
	if name == "" || len(name) > 16 {
		return fmt.Errorf("%w: %q must be 1-16 characters", ErrInvalidName, name)
	}
	for _, r := range name {
		if r != '_' && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}

// Player is an in-memory player. Mutable state is guarded so chat rendering
// can read it while the owner updates it.
type Player struct {
	id   uuid.UUID
	name string

	mu          sync.RWMutex
	displayName string
	locale      string
	position    Position
	level       int
	inventory   snapshot.Inventory
}

// NewPlayer creates a player whose display name defaults to its name.
func NewPlayer(id uuid.UUID, name string) *Player {
	return &Player{id: id, name: name, displayName: name, locale: "en_us"}
}

func (p *Player) ID() uuid.UUID { return p.id }
func (p *Player) Name() string  { return p.name }
func (p *Player) Kind() string  { return KindPlayer }

func (p *Player) DisplayName() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.displayName
}

func (p *Player) SetDisplayName(name string) {
	p.mu.Lock()
	p.displayName = name
	p.mu.Unlock()
}

func (p *Player) Locale() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.locale
}

func (p *Player) SetLocale(locale string) {
	p.mu.Lock()
	p.locale = locale
	p.mu.Unlock()
}

func (p *Player) Position() Position {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.position
}

func (p *Player) MoveTo(pos Position) {
	p.mu.Lock()
	p.position = pos
	p.mu.Unlock()
}

func (p *Player) Level() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.level
}

func (p *Player) SetLevel(level int) {
	p.mu.Lock()
	p.level = level
	p.mu.Unlock()
}

// Inventory returns a deep copy of the player's items.
func (p *Player) Inventory() snapshot.Inventory {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.inventory.Clone()
}

// SetInventory replaces the player's items with a copy of inv.
func (p *Player) SetInventory(inv snapshot.Inventory) {
	p.mu.Lock()
	p.inventory = inv.Clone()
	p.mu.Unlock()
}

// HeldItem returns the item in the selected hotbar slot.
func (p *Player) HeldItem() (snapshot.Item, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.inventory.Held().Clone(), true
}

// Console is the server console. It has no position and no items.
type Console struct{}

func (Console) ID() uuid.UUID       { return uuid.Nil }
func (Console) Name() string        { return "Console" }
func (Console) DisplayName() string { return "Console" }
func (Console) Kind() string        { return KindConsole }
