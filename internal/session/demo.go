package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/seed"
	"go.mongodb.org/mongo-driver/mongo"
)

const sessionDemoSeedApplication = "session_demo"

// ApplyDemoSeeds creates realistic demo sessions in every lifecycle stage so
// the dashboard has something to show on a fresh install.
func ApplyDemoSeeds(ctx context.Context, repo SessionRepo, db *mongo.Database, logger apt.Logger) error {
	if db == nil {
		return errors.New("database is required for demo seeding")
	}

	demoSeeds := buildDemoSessionSeeds(repo, logger)
	if len(demoSeeds) == 0 {
		logger.Info("No demo session seeds to apply")
		return nil
	}

	tracker := seed.NewMongoTracker(db)

	logger.Info("Applying demo session seeds")
	if err := seed.Apply(ctx, tracker, demoSeeds, sessionDemoSeedApplication); err != nil {
		return err
	}
	logger.Info("Demo session seeds applied successfully")
	return nil
}

func buildDemoSessionSeeds(repo SessionRepo, logger apt.Logger) []seed.Seed {
	return []seed.Seed{
		{
			ID:          "2025-06-14_demo_sessions_v1",
			Description: "Create demo table sessions across lifecycle stages",
			Run: func(ctx context.Context) error {
				return seedDemoSessions(ctx, repo, logger)
			},
		},
	}
}

func seedDemoSessions(ctx context.Context, repo SessionRepo, logger apt.Logger) error {
	now := time.Now()

	if err := seedActiveWithExtras(ctx, repo, now, logger); err != nil {
		return fmt.Errorf("seed active session: %w", err)
	}
	if err := seedBillRequested(ctx, repo, now, logger); err != nil {
		return fmt.Errorf("seed bill-requested session: %w", err)
	}
	if err := seedClosed(ctx, repo, now, logger); err != nil {
		return fmt.Errorf("seed closed session: %w", err)
	}

	logger.Info("Demo sessions created successfully")
	return nil
}

// Active session on table 3, mid-meal, with one extras batch already in the
// kitchen queue.
func seedActiveWithExtras(ctx context.Context, repo SessionRepo, now time.Time, logger apt.Logger) error {
	s, err := NewSession(3, "Asha", 2, []LineItem{
		{Name: "Paneer Tikka", Portion: PortionFull, Price: 220, Quantity: 1, SpiceLevel: "Medium"},
		{Name: "Butter Naan", Portion: PortionNone, Price: 40, Quantity: 2, SpiceLevel: "Mild"},
		{Name: "Dal Tadka", Portion: PortionHalf, Price: 90, Quantity: 1, SpiceLevel: "Medium"},
	})
	if err != nil {
		return err
	}
	s.Status = KitchenPreparing
	s.CreatedAt = now.Add(-40 * time.Minute)
	s.UpdatedAt = now.Add(-40 * time.Minute)

	if err := repo.Create(ctx, s); err != nil {
		return err
	}

	batch, err := NewExtraBatch([]LineItem{
		{Name: "Jeera Rice", Portion: PortionFull, Price: 150, Quantity: 1, SpiceLevel: "Mild"},
		{Name: "Boondi Raita", Portion: PortionNone, Price: 60, Quantity: 1, SpiceLevel: "Mild"},
	})
	if err != nil {
		return err
	}
	if _, err := repo.AppendBatch(ctx, s.ID, batch); err != nil {
		return err
	}

	logger.Info("Created demo active session", "session_id", s.ID, "table", s.TableNumber)
	return nil
}

// Bill-requested session on table 7, waiting for the chef to accept.
func seedBillRequested(ctx context.Context, repo SessionRepo, now time.Time, logger apt.Logger) error {
	s, err := NewSession(7, "Rahul", 4, []LineItem{
		{Name: "Veg Hakka Noodles", Portion: PortionFull, Price: 160, Quantity: 2, SpiceLevel: "Spicy"},
		{Name: "Steamed Rice", Portion: PortionFull, Price: 120, Quantity: 1, SpiceLevel: "Mild"},
		{Name: "Vanilla Ice Cream", Portion: PortionNone, Price: 80, Quantity: 4, SpiceLevel: "Mild"},
	})
	if err != nil {
		return err
	}
	s.Status = KitchenServed
	s.CreatedAt = now.Add(-90 * time.Minute)
	s.UpdatedAt = now.Add(-90 * time.Minute)
	if err := s.RequestBill(); err != nil {
		return err
	}

	if err := repo.Create(ctx, s); err != nil {
		return err
	}

	logger.Info("Created demo bill-requested session", "session_id", s.ID, "table", s.TableNumber)
	return nil
}

// Closed session on table 5, fully settled, exercises the cleared-on-clear
// path of the dashboard.
func seedClosed(ctx context.Context, repo SessionRepo, now time.Time, logger apt.Logger) error {
	s, err := NewSession(5, "Meera", 3, []LineItem{
		{Name: "Veg Spring Rolls", Portion: PortionNone, Price: 130, Quantity: 1, SpiceLevel: "Medium"},
		{Name: "Dal Makhani", Portion: PortionFull, Price: 180, Quantity: 1, SpiceLevel: "Mild"},
		{Name: "Tandoori Roti", Portion: PortionNone, Price: 25, Quantity: 4, SpiceLevel: "Mild"},
	})
	if err != nil {
		return err
	}
	s.Status = KitchenServed
	s.CreatedAt = now.Add(-3 * time.Hour)
	s.UpdatedAt = now.Add(-3 * time.Hour)
	if err := s.RequestBill(); err != nil {
		return err
	}
	if err := s.AcceptBill(); err != nil {
		return err
	}
	if err := s.MarkDownloaded(); err != nil {
		return err
	}

	if err := repo.Create(ctx, s); err != nil {
		return err
	}

	logger.Info("Created demo closed session", "session_id", s.ID, "table", s.TableNumber)
	return nil
}

// DemoSeedingFunc returns a lifecycle OnStart-compatible function for demo seeding.
func DemoSeedingFunc(seedCtx context.Context, repo SessionRepo, db *mongo.Database, logger apt.Logger) func(ctx context.Context) error {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	return func(ctx context.Context) error {
		logger.Info("Starting demo session seeding in background")
		go func() {
			if err := ApplyDemoSeeds(seedCtx, repo, db, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("❌ Demo session seeds failed: %v", err)
			} else if err == nil {
				logger.Info("✓ Demo session seeding completed successfully")
			}
		}()
		return nil
	}
}
