package session

import (
	"context"

	"github.com/google/uuid"
)

// SessionRepo is the session document store. Every write is a single
// document-level merge; AppendBatch is the one operation that must be an
// atomic read-modify-write on the server, because two tabs of the same diner
// can append concurrently and a blind last-write-wins append would drop one
// batch.
type SessionRepo interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	// List returns all sessions, most recently updated first.
	List(ctx context.Context) ([]*Session, error)
	// LatestByTable returns the most recently created session for the
	// table, additionally filtered by customer name when non-empty, or nil
	// when the table has none.
	LatestByTable(ctx context.Context, tableNumber int, customerName string) (*Session, error)
	// AppendBatch atomically appends an extras batch, increments
	// sessionTotal by the batch total, resets kitchen status to waiting and
	// raises hasNewExtras — guarded on sessionStatus == active. It returns
	// the post-append document, ErrSessionClosed when the session no longer
	// accepts orders, or ErrSessionNotFound.
	AppendBatch(ctx context.Context, id uuid.UUID, batch ExtraBatch) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id uuid.UUID) error
}
