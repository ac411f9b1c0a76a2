package npc

import "fmt"

// BerryDrop defines the range of berries an enemy drops on defeat.
type BerryDrop struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// ItemDrop defines a single item entry in a loot table with a drop chance.
type ItemDrop struct {
	ItemID string `yaml:"item"`
	// Chance is a probability in (0, 1.0].
	Chance float64 `yaml:"chance"`
	MinQty int     `yaml:"min_qty"`
	MaxQty int     `yaml:"max_qty"`
}

// LootTable defines the possible loot drops for an enemy template.
type LootTable struct {
	Berries *BerryDrop `yaml:"berries"`
	Items   []ItemDrop `yaml:"items"`
}

// Validate checks that the loot table satisfies its invariants.
//
// Precondition: lt must not be nil.
// Postcondition: Returns nil iff all berry and item constraints hold;
// an empty loot table (no berries, no items) is valid.
func (lt *LootTable) Validate() error {
	if lt.Berries != nil {
		if lt.Berries.Min < 0 {
			return fmt.Errorf("loot table: berries min must be >= 0, got %d", lt.Berries.Min)
		}
		if lt.Berries.Min > lt.Berries.Max {
			return fmt.Errorf("loot table: berries min (%d) must be <= max (%d)", lt.Berries.Min, lt.Berries.Max)
		}
	}
	for i, item := range lt.Items {
		if item.ItemID == "" {
			return fmt.Errorf("loot table: item[%d] must have a non-empty item id", i)
		}
		if item.Chance <= 0 || item.Chance > 1.0 {
			return fmt.Errorf("loot table: item[%d] chance must be in (0, 1.0], got %f", i, item.Chance)
		}
		if item.MinQty < 1 {
			return fmt.Errorf("loot table: item[%d] min_qty must be >= 1, got %d", i, item.MinQty)
		}
		if item.MinQty > item.MaxQty {
			return fmt.Errorf("loot table: item[%d] min_qty (%d) must be <= max_qty (%d)", i, item.MinQty, item.MaxQty)
		}
	}
	return nil
}
