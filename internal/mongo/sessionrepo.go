package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tabletap/tabletap/internal/session"
)

type SessionRepo struct {
	collection *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) *SessionRepo {
	return &SessionRepo{
		collection: db.Collection("sessions"),
	}
}

func (r *SessionRepo) Create(ctx context.Context, s *session.Session) error {
	if s == nil {
		return fmt.Errorf("session is nil")
	}

	if _, err := r.collection.InsertOne(ctx, s); err != nil {
		return &session.SyncError{Op: "create", Err: err}
	}

	return nil
}

func (r *SessionRepo) Get(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	var s session.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get session: %w", err)
	}
	session.Normalize(&s)
	return &s, nil
}

func (r *SessionRepo) List(ctx context.Context) ([]*session.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*session.Session
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode sessions: %w", err)
	}

	for _, s := range result {
		session.Normalize(s)
	}
	return result, nil
}

func (r *SessionRepo) LatestByTable(ctx context.Context, tableNumber int, customerName string) (*session.Session, error) {
	filter := bson.M{"tableNumber": tableNumber}
	if customerName != "" {
		filter["sessionId"] = session.SessionKeyFor(tableNumber, customerName)
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var s session.Session
	err := r.collection.FindOne(ctx, filter, opts).Decode(&s)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot find latest session: %w", err)
	}
	session.Normalize(&s)
	return &s, nil
}

// AppendBatch pushes an extras batch onto an active session in one guarded
// update, so concurrent appends from two phones at the same table both land.
// When no document matches, a follow-up read tells a closed session apart
// from a missing one.
func (r *SessionRepo) AppendBatch(ctx context.Context, id uuid.UUID, batch session.ExtraBatch) (*session.Session, error) {
	filter := bson.M{"_id": id, "sessionStatus": session.StatusActive}
	update := bson.M{
		"$push": bson.M{"extrasBatches": batch},
		"$inc":  bson.M{"sessionTotal": batch.BatchTotal},
		"$set": bson.M{
			"status":       session.KitchenWaiting,
			"hasNewExtras": true,
			"updatedAt":    time.Now(),
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var s session.Session
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&s)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			existing, getErr := r.Get(ctx, id)
			if getErr != nil {
				return nil, getErr
			}
			if existing == nil {
				return nil, session.ErrSessionNotFound
			}
			return nil, session.ErrSessionClosed
		}
		return nil, &session.SyncError{Op: "append batch", Err: err}
	}

	session.Normalize(&s)
	return &s, nil
}

// Save replaces the whole stored document. A partial $set would silently keep
// old values for any cleared field the bson tags omit, hasNewExtras above all.
func (r *SessionRepo) Save(ctx context.Context, s *session.Session) error {
	if s == nil {
		return fmt.Errorf("session is nil")
	}

	filter := bson.M{"_id": s.ID}
	opts := options.Replace().SetUpsert(false)

	result, err := r.collection.ReplaceOne(ctx, filter, s, opts)
	if err != nil {
		return &session.SyncError{Op: "save", Err: err}
	}

	if result.MatchedCount == 0 {
		return session.ErrSessionNotFound
	}

	return nil
}

func (r *SessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return &session.SyncError{Op: "delete", Err: err}
	}

	if result.DeletedCount == 0 {
		return session.ErrSessionNotFound
	}

	return nil
}
