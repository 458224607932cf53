package session

import (
	"github.com/appetiteclub/apt"
)

// Cart is the diner-side staging area for items not yet committed to a
// session. It is never persisted; committing it (create or extras append)
// clears it, and recovering into an existing session always starts it empty
// so previously submitted items are never re-shown as staged.
type Cart struct {
	items  []LineItem
	closed bool
}

func NewCart() *Cart {
	return &Cart{items: []LineItem{}}
}

// SetClosed marks the cart's session as closed; further additions are
// rejected until Reset.
func (c *Cart) SetClosed(closed bool) {
	c.closed = closed
}

// AddItem stages a menu selection at its current price. Items with the same
// name and portion merge by quantity; anything else appends a new line with
// a fresh id.
func (c *Cart) AddItem(name, portion string, price float64, quantity int, spiceLevel string) error {
	if c.closed {
		return ErrSessionClosed
	}
	if quantity <= 0 {
		return &ValidationError{Field: "quantity", Reason: "must be greater than zero"}
	}

	for i := range c.items {
		if c.items[i].Name == name && c.items[i].Portion == portion {
			c.items[i].Quantity += quantity
			return nil
		}
	}

	c.items = append(c.items, LineItem{
		ID:         apt.GenerateNewID().String(),
		Name:       name,
		Portion:    portion,
		Price:      price,
		Quantity:   quantity,
		SpiceLevel: spiceLevel,
	})
	return nil
}

// RemoveItem drops a staged line by id. Removing from a closed cart or an
// unknown id is a no-op.
func (c *Cart) RemoveItem(lineID string) {
	if c.closed {
		return
	}
	for i := range c.items {
		if c.items[i].ID == lineID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// Total recomputes the staged sum on every call; it is never cached.
func (c *Cart) Total() float64 {
	return ItemsTotal(c.items)
}

// Items returns a copy of the staged lines in insertion order.
func (c *Cart) Items() []LineItem {
	items := make([]LineItem, len(c.items))
	copy(items, c.items)
	return items
}

func (c *Cart) Len() int {
	return len(c.items)
}

// Clear empties the staged lines, keeping the closed flag.
func (c *Cart) Clear() {
	c.items = c.items[:0]
}

// Reset empties the cart and reopens it for a brand-new order.
func (c *Cart) Reset() {
	c.items = c.items[:0]
	c.closed = false
}
