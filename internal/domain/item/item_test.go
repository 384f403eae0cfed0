package item

import (
	"errors"
	"testing"
)

func TestInventoryTakeRequiresItem(t *testing.T) {
	inv := NewInventory()

	if _, err := inv.Take(ItemSanityPills); !errors.Is(err, ErrNotCarried) {
		t.Fatalf("Take on empty inventory: err = %v, want ErrNotCarried", err)
	}

	if err := inv.Add(ItemSanityPills); err != nil {
		t.Fatalf("Add: %v", err)
	}
	def, err := inv.Take(ItemSanityPills)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if def.Effect != EffectSanity || def.Amount != 20 {
		t.Errorf("pills definition = %+v", def)
	}
	if inv.Has(ItemSanityPills) {
		t.Error("pills still carried after use")
	}
}

func TestInventoryStackLimit(t *testing.T) {
	inv := NewInventory()
	if err := inv.Add(ItemGeneratorFuse); err != nil {
		t.Fatal(err)
	}
	if err := inv.Add(ItemGeneratorFuse); !errors.Is(err, ErrStackFull) {
		t.Errorf("second fuse: err = %v, want ErrStackFull", err)
	}
	if inv.Count(ItemGeneratorFuse) != 1 {
		t.Errorf("fuse count = %d", inv.Count(ItemGeneratorFuse))
	}
}

func TestUnknownItem(t *testing.T) {
	inv := NewInventory()
	if err := inv.Add(ItemType("PHONE")); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("err = %v, want ErrUnknownItem", err)
	}
}
