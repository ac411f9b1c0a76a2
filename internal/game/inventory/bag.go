package inventory

import (
	"errors"
	"fmt"
)

// ErrOutOfStock is returned when consuming an item the bag does not hold.
var ErrOutOfStock = errors.New("item out of stock")

// ConsumptionNotifier is told about every item used in battle so the owning
// inventory system can mirror the change.
type ConsumptionNotifier interface {
	ItemConsumed(itemID string, remaining int)
}

// Stack is a quantity of one item definition.
type Stack struct {
	Def      *ItemDef
	Quantity int
}

// Bag holds one side's battle items in the order they were first added.
// It is not safe for concurrent use.
type Bag struct {
	reg      *Registry
	stacks   []*Stack
	notifier ConsumptionNotifier
}

// NewBag returns an empty bag that resolves item IDs through reg.
//
// Precondition: reg must be non-nil.
func NewBag(reg *Registry) *Bag {
	return &Bag{reg: reg}
}

// SetNotifier registers n to receive consumption notifications. A nil n disables them.
func (b *Bag) SetNotifier(n ConsumptionNotifier) {
	b.notifier = n
}

// Add places quantity units of itemID in the bag.
//
// Precondition: quantity > 0.
// Postcondition: on success Count(itemID) grows by quantity; on error the bag is unchanged.
func (b *Bag) Add(itemID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("bag: quantity must be > 0, got %d", quantity)
	}
	def, ok := b.reg.Item(itemID)
	if !ok {
		return fmt.Errorf("bag: %w: %q", ErrUnknownItem, itemID)
	}
	if s := b.find(itemID); s != nil {
		s.Quantity += quantity
		return nil
	}
	b.stacks = append(b.stacks, &Stack{Def: def, Quantity: quantity})
	return nil
}

// Def returns the definition for itemID from the bag's registry.
func (b *Bag) Def(itemID string) (*ItemDef, error) {
	def, ok := b.reg.Item(itemID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownItem, itemID)
	}
	return def, nil
}

// Count returns how many units of itemID the bag holds.
func (b *Bag) Count(itemID string) int {
	if s := b.find(itemID); s != nil {
		return s.Quantity
	}
	return 0
}

// Consume removes one unit of itemID and notifies the registered notifier.
//
// Postcondition: on success Count(itemID) decreased by one; on error nothing changed.
func (b *Bag) Consume(itemID string) error {
	s := b.find(itemID)
	if s == nil || s.Quantity == 0 {
		return fmt.Errorf("bag: %w: %q", ErrOutOfStock, itemID)
	}
	s.Quantity--
	if b.notifier != nil {
		b.notifier.ItemConsumed(itemID, s.Quantity)
	}
	return nil
}

// Stacks returns copies of every non-empty stack in insertion order.
func (b *Bag) Stacks() []Stack {
	out := make([]Stack, 0, len(b.stacks))
	for _, s := range b.stacks {
		if s.Quantity > 0 {
			out = append(out, *s)
		}
	}
	return out
}

func (b *Bag) find(itemID string) *Stack {
	for _, s := range b.stacks {
		if s.Def.ID == itemID {
			return s
		}
	}
	return nil
}
