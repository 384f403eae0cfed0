// Package item defines the pickups a player can carry through the ward.
// This package is PURE and must NOT import any infrastructure packages.
package item

import "errors"

// ItemType represents the kind of pickup.
type ItemType string

const (
	ItemSanityPills   ItemType = "SANITY_PILLS" // Restores sanity
	ItemSedative      ItemType = "SEDATIVE"     // Large sanity restore, rare
	ItemBattery       ItemType = "BATTERY"      // Recharges the flashlight
	ItemGeneratorFuse ItemType = "FUSE"         // Consumed to start the generator
)

// Effect says which meter an item feeds.
type Effect int

const (
	EffectNone Effect = iota
	EffectSanity
	EffectBattery
)

// ItemDefinition provides metadata about an item type.
type ItemDefinition struct {
	Name        string
	Description string
	Effect      Effect
	Amount      float64 // Restored on use
	MaxStack    int
}

// Registry contains all known items and their properties.
var Registry = map[ItemType]ItemDefinition{
	ItemSanityPills: {
		Name:        "Pastillas",
		Description: "Un frasco sin etiqueta. Calma los nervios un rato.",
		Effect:      EffectSanity,
		Amount:      20,
		MaxStack:    5,
	},
	ItemSedative: {
		Name:        "Sedante",
		Description: "Jeringuilla de la enfermería. Silencia las voces.",
		Effect:      EffectSanity,
		Amount:      50,
		MaxStack:    2,
	},
	ItemBattery: {
		Name:        "Pila",
		Description: "Pila alcalina medio gastada.",
		Effect:      EffectBattery,
		Amount:      25,
		MaxStack:    4,
	},
	ItemGeneratorFuse: {
		Name:        "Fusible",
		Description: "Fusible de repuesto del cuarto del generador.",
		Effect:      EffectNone,
		MaxStack:    1,
	},
}

var (
	ErrUnknownItem = errors.New("unknown item")
	ErrNotCarried  = errors.New("item not in inventory")
	ErrStackFull   = errors.New("stack full")
)

// GetItem returns the definition for an item type.
func GetItem(t ItemType) (ItemDefinition, bool) {
	def, ok := Registry[t]
	return def, ok
}

// Inventory holds item counts for the player.
type Inventory struct {
	counts map[ItemType]int
}

// NewInventory creates an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{counts: make(map[ItemType]int)}
}

// Add stores one item. Fails when the stack limit is reached.
func (inv *Inventory) Add(t ItemType) error {
	def, ok := GetItem(t)
	if !ok {
		return ErrUnknownItem
	}
	if inv.counts[t] >= def.MaxStack {
		return ErrStackFull
	}
	inv.counts[t]++
	return nil
}

// Take removes one item and returns its definition.
func (inv *Inventory) Take(t ItemType) (ItemDefinition, error) {
	def, ok := GetItem(t)
	if !ok {
		return ItemDefinition{}, ErrUnknownItem
	}
	if inv.counts[t] == 0 {
		return ItemDefinition{}, ErrNotCarried
	}
	inv.counts[t]--
	return def, nil
}

// Count returns how many of t are carried.
func (inv *Inventory) Count(t ItemType) int {
	return inv.counts[t]
}

// Has reports whether at least one t is carried.
func (inv *Inventory) Has(t ItemType) bool {
	return inv.counts[t] > 0
}
