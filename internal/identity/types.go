// Package identity models the acting and receiving parties of chat: players
// with a name, display name, position and items, and the console.
package identity

import (
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/memohai/chatmanager/internal/snapshot"
)

// Identity kinds: a connected player or the server console.
const (
	KindPlayer  = "player"
	KindConsole = "console"
)

// IsConsoleKind checks if the kind names the console.
func IsConsoleKind(kind string) bool {
	return strings.EqualFold(strings.TrimSpace(kind), KindConsole)
}

// Identity is the minimum every chat party provides.
type Identity interface {
	ID() uuid.UUID
	Name() string
	DisplayName() string
	Kind() string
}

// HeldItemHolder is implemented by identities that hold items.
type HeldItemHolder interface {
	HeldItem() (snapshot.Item, bool)
}

// InventoryHolder is implemented by identities whose items can be captured.
type InventoryHolder interface {
	Identity
	snapshot.Subject
}

// Localized is implemented by identities with a client locale such as "en_us".
type Localized interface {
	Locale() string
}

// Positioned is implemented by identities that exist in a world.
type Positioned interface {
	Position() Position
}

// Position is a point in a named world.
type Position struct {
	World string
	X     float64
	Y     float64
	Z     float64
}

// Distance returns the euclidean distance to o, or +Inf across worlds.
func (p Position) Distance(o Position) float64 {
	if !strings.EqualFold(p.World, o.World) {
		return math.Inf(1)
	}
	dx, dy, dz := p.X-o.X, p.Y-o.Y, p.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Within reports whether o is at most radius away from p.
func (p Position) Within(o Position, radius float64) bool {
	return p.Distance(o) <= radius
}
