// Package snapshot captures read-only, deep-copied views of an identity's
// items: the held item, the ender storage or the full inventory.
package snapshot

import (
	"fmt"
	"slices"
	"strings"
)

// Item is one stack of a material.
type Item struct {
	Material string
	Name     string
	Amount   int
	Lore     []string
}

// IsEmpty reports whether the slot holds nothing.
func (i Item) IsEmpty() bool {
	m := strings.ToLower(strings.TrimSpace(i.Material))
	return m == "" || m == "air" || i.Amount <= 0
}

// Clone returns a deep copy.
func (i Item) Clone() Item {
	out := i
	out.Lore = slices.Clone(i.Lore)
	return out
}

// Kind selects what a snapshot shows.
type Kind string

const (
	KindItem      Kind = "item"
	KindEnder     Kind = "ender"
	KindInventory Kind = "inventory"
)

var kindAliases = map[string]Kind{
	"item":           KindItem,
	"hand":           KindItem,
	"show_item":      KindItem,
	"ender":          KindEnder,
	"enderchest":     KindEnder,
	"ender_chest":    KindEnder,
	"show_ender":     KindEnder,
	"inv":            KindInventory,
	"inventory":      KindInventory,
	"full_inventory": KindInventory,
	"show_inv":       KindInventory,
}

// ParseKind resolves a snapshot kind, accepting the common aliases.
func ParseKind(raw string) (Kind, bool) {
	k, ok := kindAliases[strings.ToLower(strings.TrimSpace(raw))]
	return k, ok
}

// Sizes of the generated views.
const (
	ItemSize      = 9
	EnderSize     = 27
	InventorySize = 54
)

// Inventory is the live item state of an identity. Storage holds the hotbar
// in slots 0-8 and the main inventory in slots 9-35.
type Inventory struct {
	Storage    []Item
	Ender      []Item
	Helmet     Item
	Chestplate Item
	Leggings   Item
	Boots      Item
	Offhand    Item
	HeldSlot   int
}

// Held returns the item in the selected hotbar slot.
func (inv Inventory) Held() Item {
	if inv.HeldSlot < 0 || inv.HeldSlot >= len(inv.Storage) {
		return Item{}
	}
	return inv.Storage[inv.HeldSlot]
}

// Clone returns a deep copy.
func (inv Inventory) Clone() Inventory {
	out := inv
	out.Storage = cloneItems(inv.Storage)
	out.Ender = cloneItems(inv.Ender)
	out.Helmet = inv.Helmet.Clone()
	out.Chestplate = inv.Chestplate.Clone()
	out.Leggings = inv.Leggings.Clone()
	out.Boots = inv.Boots.Clone()
	out.Offhand = inv.Offhand.Clone()
	return out
}

func cloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

// Subject is anything whose items can be captured.
type Subject interface {
	Name() string
	Inventory() Inventory
	Level() int
}

// Snapshot is an immutable copy of a subject's items laid out for display.
type Snapshot struct {
	Kind  Kind
	Title string
	Size  int
	Slots []Item
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Slots = cloneItems(s.Slots)
	return out
}

// Filler is the pane used for slots that carry no item.
var Filler = Item{Material: "gray_stained_glass_pane", Name: " ", Amount: 1}

// Capture copies the subject's items into a view of the given kind. Later
// changes to the subject never reach the returned snapshot.
func Capture(subject Subject, kind Kind, title string) (Snapshot, error) {
	if subject == nil {
		return Snapshot{}, fmt.Errorf("capture %s: no subject", kind)
	}
	inv := subject.Inventory().Clone()
	if strings.TrimSpace(title) == "" {
		title = "Inventory of " + subject.Name()
	}
	snap := Snapshot{Kind: kind, Title: title}
	switch kind {
	case KindItem:
		snap.Size = ItemSize
		snap.Slots = fill(ItemSize, Filler)
		snap.Slots[4] = inv.Held()
	case KindEnder:
		snap.Size = EnderSize
		snap.Slots = make([]Item, EnderSize)
		copy(snap.Slots, inv.Ender)
	case KindInventory:
		snap.Size = InventorySize
		snap.Slots = inventoryLayout(subject, inv)
	default:
		return Snapshot{}, fmt.Errorf("capture: unknown snapshot kind %q", kind)
	}
	return snap, nil
}

func fill(n int, item Item) []Item {
	out := make([]Item, n)
	for i := range out {
		out[i] = item.Clone()
	}
	return out
}

// inventoryLayout builds the 54 slot view: a header row with head, level,
// armor and offhand, a filler row, the main inventory and the hotbar. Empty
// header slots show the filler.
func inventoryLayout(subject Subject, inv Inventory) []Item {
	slots := fill(InventorySize, Filler)
	header := map[int]Item{
		0: {Material: "player_head", Name: subject.Name(), Amount: 1},
		1: {Material: "experience_bottle", Name: fmt.Sprintf("Level %d", subject.Level()), Amount: 1},
		3: inv.Helmet,
		4: inv.Chestplate,
		5: inv.Leggings,
		6: inv.Boots,
		8: inv.Offhand,
	}
	for slot, item := range header {
		if !item.IsEmpty() {
			slots[slot] = item
		}
	}
	for i := 0; i < 36; i++ {
		target := 45 + i
		if i >= 9 {
			target = 18 + i - 9
		}
		slots[target] = Item{}
		if i < len(inv.Storage) {
			slots[target] = inv.Storage[i]
		}
	}
	return slots
}
