package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// Session lifecycle states. Transitions only move forward; a closed session
// is superseded by creating a brand-new session for the same table.
const (
	StatusActive        = "active"
	StatusBillRequested = "bill-requested"
	StatusClosed        = "closed"
)

// Kitchen progress for the most recent batch. Advisory only: the chef may
// set any value at any time, independent of the session lifecycle.
const (
	KitchenWaiting   = "waiting"
	KitchenPreparing = "preparing"
	KitchenServed    = "served"
)

// Bill approval sub-protocol. BillNone encodes the wire contract's null.
const (
	BillNone       = ""
	BillPending    = "pending"
	BillAccepted   = "accepted"
	BillDownloaded = "downloaded"
)

// Portion sizes carried on a line item. PortionNone covers dishes sold in a
// single size.
const (
	PortionHalf = "Half"
	PortionFull = "Full"
	PortionNone = "N/A"
)

// LineItem is a priced menu selection embedded in a session. The price is
// captured when the item is added to the cart and never re-read from the
// menu afterwards.
type LineItem struct {
	ID         string  `json:"id" bson:"id"`
	Name       string  `json:"name" bson:"name"`
	Portion    string  `json:"portion" bson:"portion"` // Half, Full or N/A
	Price      float64 `json:"price" bson:"price"`
	Quantity   int     `json:"quantity" bson:"quantity"`
	SpiceLevel string  `json:"spiceLevel,omitempty" bson:"spiceLevel,omitempty"`
}

// ExtraBatch is an immutable snapshot of items added after the initial
// order. Once appended to a session it is never edited.
type ExtraBatch struct {
	BatchID    string     `json:"batchId" bson:"batchId"`
	Items      []LineItem `json:"items" bson:"items"`
	BatchTotal float64    `json:"batchTotal" bson:"batchTotal"`
	Timestamp  time.Time  `json:"timestamp" bson:"timestamp"`
}

// Session is one table-visit order record, from first order to closure.
// Field names match the persisted document shape consumed by the existing
// diner and dashboard clients, so both JSON and BSON tags use the wire names.
type Session struct {
	ID              uuid.UUID    `json:"id" bson:"_id"`
	CustomerName    string       `json:"customerName" bson:"customerName"`
	NumberOfPeople  int          `json:"numberOfPeople" bson:"numberOfPeople"`
	TableNumber     int          `json:"tableNumber" bson:"tableNumber"`
	SessionKey      string       `json:"sessionId" bson:"sessionId"` // derived recovery key, e.g. "table5_asha"
	SessionStatus   string       `json:"sessionStatus" bson:"sessionStatus"`
	SessionItems    []LineItem   `json:"sessionItems" bson:"sessionItems"` // initial order only, never mutated
	SessionTotal    float64      `json:"sessionTotal" bson:"sessionTotal"`
	Status          string       `json:"status" bson:"status"` // kitchen progress for the latest batch
	ExtrasBatches   []ExtraBatch `json:"extrasBatches" bson:"extrasBatches"`
	BillStatus      string       `json:"billStatus,omitempty" bson:"billStatus,omitempty"`
	HasNewExtras    bool         `json:"hasNewExtras,omitempty" bson:"hasNewExtras"`
	CreatedAt       time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt" bson:"updatedAt"`
	BillRequestedAt *time.Time   `json:"billRequestedAt,omitempty" bson:"billRequestedAt,omitempty"`
	BillGeneratedAt *time.Time   `json:"billGeneratedAt,omitempty" bson:"billGeneratedAt,omitempty"`
}

func (s *Session) GetID() uuid.UUID {
	return s.ID
}

func (s *Session) ResourceType() string {
	return "session"
}

// SessionKeyFor derives the recovery key from a table number and customer
// name: lowercase, runs of whitespace collapsed to underscores.
func SessionKeyFor(tableNumber int, customerName string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(customerName)), "_")
	return fmt.Sprintf("table%d_%s", tableNumber, normalized)
}

// NewSession validates the create preconditions and builds an active session
// whose initial items become the immutable base layer.
func NewSession(tableNumber int, customerName string, numberOfPeople int, items []LineItem) (*Session, error) {
	customerName = strings.TrimSpace(customerName)

	if tableNumber <= 0 {
		return nil, &ValidationError{Field: "tableNumber", Reason: "must be a positive table number"}
	}
	if customerName == "" {
		return nil, &ValidationError{Field: "customerName", Reason: "must not be empty"}
	}
	if numberOfPeople <= 0 {
		return nil, &ValidationError{Field: "numberOfPeople", Reason: "must be greater than zero"}
	}
	if len(items) == 0 {
		return nil, &ValidationError{Field: "items", Reason: "initial order must contain at least one item"}
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, &ValidationError{Field: "items", Reason: fmt.Sprintf("item %q has non-positive quantity", item.Name)}
		}
	}

	now := time.Now()
	return &Session{
		ID:             apt.GenerateNewID(),
		CustomerName:   customerName,
		NumberOfPeople: numberOfPeople,
		TableNumber:    tableNumber,
		SessionKey:     SessionKeyFor(tableNumber, customerName),
		SessionStatus:  StatusActive,
		SessionItems:   items,
		SessionTotal:   ItemsTotal(items),
		Status:         KitchenWaiting,
		ExtrasBatches:  []ExtraBatch{},
		BillStatus:     BillNone,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// NewExtraBatch snapshots cart items into an immutable batch with a fresh id.
func NewExtraBatch(items []LineItem) (ExtraBatch, error) {
	if len(items) == 0 {
		return ExtraBatch{}, &ValidationError{Field: "items", Reason: "extra batch must contain at least one item"}
	}
	snapshot := make([]LineItem, len(items))
	copy(snapshot, items)
	return ExtraBatch{
		BatchID:    apt.GenerateNewID().String(),
		Items:      snapshot,
		BatchTotal: ItemsTotal(snapshot),
		Timestamp:  time.Now(),
	}, nil
}

// ItemsTotal sums price*quantity over a line item sequence.
func ItemsTotal(items []LineItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

func (s *Session) BeforeUpdate() {
	s.UpdatedAt = time.Now()
}

// CanOrder reports whether new items may still be committed to the session.
func (s *Session) CanOrder() bool {
	return s.SessionStatus == StatusActive
}

// RequestBill moves an active session to bill-requested and opens the bill
// approval sub-protocol at pending.
func (s *Session) RequestBill() error {
	if s.SessionStatus != StatusActive {
		return ErrSessionClosed
	}
	now := time.Now()
	s.SessionStatus = StatusBillRequested
	s.BillStatus = BillPending
	s.BillRequestedAt = &now
	s.UpdatedAt = now
	return nil
}

// AcceptBill records chef approval. The session stays in bill-requested so
// the diner's view keeps showing the bill flow until download.
func (s *Session) AcceptBill() error {
	if s.SessionStatus != StatusBillRequested {
		return ErrSessionClosed
	}
	if s.BillStatus != BillPending {
		return fmt.Errorf("bill is %q, only a pending bill can be accepted: %w", s.BillStatus, ErrBillOutOfOrder)
	}
	s.BillStatus = BillAccepted
	s.UpdatedAt = time.Now()
	return nil
}

// MarkDownloaded finalizes the bill after the diner generated the invoice,
// closing the session.
func (s *Session) MarkDownloaded() error {
	if s.BillStatus != BillAccepted {
		return fmt.Errorf("bill is %q, only an accepted bill can be downloaded: %w", s.BillStatus, ErrBillOutOfOrder)
	}
	now := time.Now()
	s.BillStatus = BillDownloaded
	s.SessionStatus = StatusClosed
	s.BillGeneratedAt = &now
	s.UpdatedAt = now
	return nil
}

// ForceClose is the chef override: it closes the session from any state and
// leaves billStatus untouched. Guarding an already-downloaded bill is a
// confirmation concern for the dashboard, not a state machine rule.
func (s *Session) ForceClose() {
	s.SessionStatus = StatusClosed
	s.UpdatedAt = time.Now()
}

// SetKitchenStatus assigns the advisory kitchen stage. Any of the three
// values may be set at any time; only unknown values are rejected.
func (s *Session) SetKitchenStatus(status string) error {
	switch status {
	case KitchenWaiting, KitchenPreparing, KitchenServed:
	default:
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown kitchen status %q", status)}
	}
	s.Status = status
	s.UpdatedAt = time.Now()
	return nil
}

// AcknowledgeExtras clears the new-extras flag after the chef has seen the
// latest batch.
func (s *Session) AcknowledgeExtras() {
	s.HasNewExtras = false
	s.UpdatedAt = time.Now()
}

// Normalize is the single decode step applied to every session read from the
// store. Documents written by earlier clients may omit fields entirely; each
// absent field maps to a fixed default rather than being probed ad hoc.
func Normalize(s *Session) {
	if s.SessionStatus == "" {
		s.SessionStatus = StatusActive
	}
	if s.Status == "" {
		s.Status = KitchenWaiting
	}
	if s.SessionItems == nil {
		s.SessionItems = []LineItem{}
	}
	if s.ExtrasBatches == nil {
		s.ExtrasBatches = []ExtraBatch{}
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}
	if s.SessionKey == "" && s.TableNumber > 0 {
		s.SessionKey = SessionKeyFor(s.TableNumber, s.CustomerName)
	}
}
