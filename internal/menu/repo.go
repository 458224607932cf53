package menu

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrMenuItemNotFound signals a catalog id that does not exist.
var ErrMenuItemNotFound = errors.New("menu item not found")

// MenuItemRepo defines the repository interface for menu items
type MenuItemRepo interface {
	Create(ctx context.Context, item *MenuItem) error
	Get(ctx context.Context, id uuid.UUID) (*MenuItem, error)
	List(ctx context.Context) ([]*MenuItem, error)
	ListByCategory(ctx context.Context, category string) ([]*MenuItem, error)
	Save(ctx context.Context, item *MenuItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ReplaceAll clears the catalog and inserts the given items, returning
	// the deleted and inserted counts.
	ReplaceAll(ctx context.Context, items []*MenuItem) (int, int, error)
}
