package menu

import (
	"context"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/seed"
	"go.mongodb.org/mongo-driver/mongo"
)

const menuSeedApplication = "menu"

// Seeds returns all seeds for the menu catalog.
func Seeds(repo MenuItemRepo, logger apt.Logger) []seed.Seed {
	return []seed.Seed{
		{
			ID:          "2025-06-14_menu_house_catalog",
			Description: "Load the house menu catalog",
			Run: func(ctx context.Context) error {
				return seedHouseCatalog(ctx, repo, logger)
			},
		},
	}
}

// ApplySeeds loads the house catalog on first start, tracked so it never
// re-runs and clobbers chef edits.
func ApplySeeds(ctx context.Context, repo MenuItemRepo, db *mongo.Database, logger apt.Logger) error {
	tracker := seed.NewMongoTracker(db)

	logger.Info("Applying menu seeds")
	if err := seed.Apply(ctx, tracker, Seeds(repo, logger), menuSeedApplication); err != nil {
		return err
	}
	logger.Info("Menu seeds applied successfully")
	return nil
}

func seedHouseCatalog(ctx context.Context, repo MenuItemRepo, logger apt.Logger) error {
	existing, err := repo.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Info("Menu catalog already populated, skipping seed", "count", len(existing))
		return nil
	}

	items := HouseCatalog()
	for _, item := range items {
		item.BeforeCreate()
		if err := repo.Create(ctx, item); err != nil {
			return err
		}
	}

	logger.Info("House menu catalog seeded", "count", len(items))
	return nil
}

type catalogEntry struct {
	name     string
	price    float64
	category string
}

// HouseCatalog builds the standard menu. Every item is single-portion with
// the same amount in both price fields, matching how the catalog was first
// loaded in production.
func HouseCatalog() []*MenuItem {
	entries := []catalogEntry{
		// Starters
		{"Roasted Papad", 45, CategoryStarter},
		{"Masala Papad", 70, CategoryStarter},
		{"Finger Chips", 110, CategoryStarter},
		{"Veg. Manchurian", 200, CategoryStarter},
		{"Gobi Manchurian", 200, CategoryStarter},
		{"Lemon Gobi Manchurian", 220, CategoryStarter},
		{"Chinese Bhel", 190, CategoryStarter},
		{"Potato Pops", 200, CategoryStarter},
		{"Harabhara Kabab", 220, CategoryStarter},
		{"Veg 65", 200, CategoryStarter},
		{"Cheese Corn Nuggets", 200, CategoryStarter},
		{"Veg. Crispy", 220, CategoryStarter},
		{"Baby Corn Crispy", 220, CategoryStarter},
		{"Baby Corn Chilly", 220, CategoryStarter},
		{"Paneer Pakoda", 270, CategoryStarter},
		{"Paneer Tikka", 270, CategoryStarter},
		{"Paneer Crispy", 270, CategoryStarter},
		{"Paneer Pahadi Kabab", 270, CategoryStarter},
		{"Paneer Malai Kabab", 270, CategoryStarter},
		{"Paneer Manchurian", 270, CategoryStarter},
		{"Paneer Chilly", 270, CategoryStarter},

		// Indian bread
		{"Chapati", 30, CategoryIndianBread},
		{"Bhakari", 35, CategoryIndianBread},
		{"Roti", 35, CategoryIndianBread},
		{"Butter Roti", 40, CategoryIndianBread},
		{"Naan", 45, CategoryIndianBread},
		{"Butter Naan", 50, CategoryIndianBread},
		{"Paratha", 45, CategoryIndianBread},
		{"Butter Paratha", 50, CategoryIndianBread},
		{"Garlic Naan", 60, CategoryIndianBread},
		{"Butter Garlic Naan", 70, CategoryIndianBread},
		{"Cheese Garlic Naan", 120, CategoryIndianBread},
		{"Aaloo Paratha", 110, CategoryIndianBread},

		// Rice
		{"Veg. Fried Rice", 210, CategoryRice},
		{"Singapori Fried Rice", 210, CategoryRice},
		{"Schezwan Fried Rice", 210, CategoryRice},
		{"Triple Schezwan Fried Rice", 240, CategoryRice},

		// Dal
		{"Dal Fry", 160, CategoryDal},
		{"Dal Tadka", 180, CategoryDal},
		{"Dal Kolhapuri", 190, CategoryDal},
		{"Butter Dal Fry", 200, CategoryDal},

		// Raita and salads
		{"Green Salad", 80, CategoryRaita},
		{"Mix Raita", 95, CategoryRaita},
		{"Pineapple Raita", 100, CategoryRaita},

		// Noodles
		{"Veg. Hakka Noodles", 220, CategoryNoodles},
		{"Veg. Schezwan", 220, CategoryNoodles},
		{"Veg. Singapori", 220, CategoryNoodles},
		{"Veg. American Chopsuey", 240, CategoryNoodles},

		// Ice creams
		{"Vanilla / Mango / Pista", 65, CategoryIceCream},
		{"Butter Scotch", 70, CategoryIceCream},
		{"Mataka Kulfi", 80, CategoryIceCream},
		{"Cassatta", 80, CategoryIceCream},
		{"Fruit Salad with Ice Cream", 140, CategoryIceCream},
	}

	items := make([]*MenuItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, &MenuItem{
			Name:      e.name,
			Price:     Price{Full: e.price, Half: e.price},
			NoPortion: true,
			Category:  e.category,
			Image:     "/images/default.jpg",
		})
	}
	return items
}

// SeedingFunc returns a lifecycle OnStart-compatible function for catalog seeding.
func SeedingFunc(seedCtx context.Context, repo MenuItemRepo, db *mongo.Database, logger apt.Logger) func(ctx context.Context) error {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	return func(ctx context.Context) error {
		logger.Info("Starting menu catalog seeding in background")
		go func() {
			if err := ApplySeeds(seedCtx, repo, db, logger); err != nil {
				logger.Errorf("❌ Menu seeds failed: %v", err)
			}
		}()
		return nil
	}
}
