package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"
)

// Recovery keys of the sessions created by demo seeding.
var demoSessionKeys = []string{
	"table3_asha",
	"table7_rahul",
	"table5_meera",
}

// ClearDemo removes the seeded demo sessions and their seed-tracker entry so
// seed-demo can run again. The menu catalog is left alone; chefs may have
// edited it.
func ClearDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Starting demo data cleanup...")

	client, db, err := connect(ctx, config)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	logger.Info("Connected to MongoDB")

	sessions := db.Collection("sessions")
	result, err := sessions.DeleteMany(ctx, bson.M{"sessionId": bson.M{"$in": demoSessionKeys}})
	if err != nil {
		return fmt.Errorf("delete demo sessions: %w", err)
	}
	logger.Info("Deleted demo sessions", "count", result.DeletedCount)

	seeds := db.Collection("_seeds")
	if _, err := seeds.DeleteMany(ctx, bson.M{"_id": "2025-06-14_demo_sessions_v1"}); err != nil {
		logger.Infof("⚠️  Failed to clear demo seed tracker: %v", err)
	}

	return nil
}
