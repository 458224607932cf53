package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"

	"github.com/tabletap/tabletap/internal/menu"
	tapmongo "github.com/tabletap/tabletap/internal/mongo"
	"github.com/tabletap/tabletap/internal/session"
)

// SeedDemo loads the menu catalog and creates sample sessions across every
// lifecycle stage. Both seed sets are tracked, so re-running is a no-op.
func SeedDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Starting demo seeding process...")

	client, db, err := connect(ctx, config)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	logger.Info("Connected to MongoDB")

	menuRepo := tapmongo.NewMenuItemRepo(db)
	if err := menu.ApplySeeds(ctx, menuRepo, db, logger); err != nil {
		return fmt.Errorf("seed menu catalog: %w", err)
	}

	sessionRepo := tapmongo.NewSessionRepo(db)
	if err := session.ApplyDemoSeeds(ctx, sessionRepo, db, logger); err != nil {
		return fmt.Errorf("seed demo sessions: %w", err)
	}

	return nil
}
