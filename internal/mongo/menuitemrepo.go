package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tabletap/tabletap/internal/menu"
)

type MenuItemRepo struct {
	collection *mongo.Collection
}

func NewMenuItemRepo(db *mongo.Database) *MenuItemRepo {
	return &MenuItemRepo{
		collection: db.Collection("menu_items"),
	}
}

func (r *MenuItemRepo) Create(ctx context.Context, item *menu.MenuItem) error {
	if item == nil {
		return fmt.Errorf("menu item is nil")
	}

	if _, err := r.collection.InsertOne(ctx, item); err != nil {
		return fmt.Errorf("cannot create menu item: %w", err)
	}

	return nil
}

func (r *MenuItemRepo) Get(ctx context.Context, id uuid.UUID) (*menu.MenuItem, error) {
	var item menu.MenuItem
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get menu item: %w", err)
	}
	return &item, nil
}

func (r *MenuItemRepo) List(ctx context.Context) ([]*menu.MenuItem, error) {
	return r.list(ctx, bson.M{})
}

func (r *MenuItemRepo) ListByCategory(ctx context.Context, category string) ([]*menu.MenuItem, error) {
	return r.list(ctx, bson.M{"category": category})
}

func (r *MenuItemRepo) list(ctx context.Context, filter bson.M) ([]*menu.MenuItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list menu items: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*menu.MenuItem
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode menu items: %w", err)
	}

	return result, nil
}

// Save replaces the stored document so that clearing an optional field
// (description, image, translations) actually removes the old value.
func (r *MenuItemRepo) Save(ctx context.Context, item *menu.MenuItem) error {
	if item == nil {
		return fmt.Errorf("menu item is nil")
	}

	filter := bson.M{"_id": item.ID}
	opts := options.Replace().SetUpsert(false)

	result, err := r.collection.ReplaceOne(ctx, filter, item, opts)
	if err != nil {
		return fmt.Errorf("cannot update menu item: %w", err)
	}

	if result.MatchedCount == 0 {
		return menu.ErrMenuItemNotFound
	}

	return nil
}

func (r *MenuItemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("cannot delete menu item: %w", err)
	}

	if result.DeletedCount == 0 {
		return menu.ErrMenuItemNotFound
	}

	return nil
}

// ReplaceAll clears the catalog and inserts the given items. Deletion runs
// one document at a time so a midway failure reports how far it got.
func (r *MenuItemRepo) ReplaceAll(ctx context.Context, items []*menu.MenuItem) (int, int, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return 0, 0, fmt.Errorf("cannot list menu items: %w", err)
	}

	var existing []struct {
		ID uuid.UUID `bson:"_id"`
	}
	if err := cursor.All(ctx, &existing); err != nil {
		return 0, 0, fmt.Errorf("cannot decode menu item ids: %w", err)
	}

	var deleted int
	for _, doc := range existing {
		if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": doc.ID}); err != nil {
			return deleted, 0, fmt.Errorf("cannot delete menu item %s: %w", doc.ID, err)
		}
		deleted++
	}

	var added int
	for _, item := range items {
		if _, err := r.collection.InsertOne(ctx, item); err != nil {
			return deleted, added, fmt.Errorf("cannot insert menu item %q: %w", item.Name, err)
		}
		added++
	}

	return deleted, added, nil
}
