package bill

import (
	"math"
	"strings"
	"time"

	"github.com/tabletap/tabletap/internal/session"
)

// GST is split into equal central and state halves; the service charge sits
// on top. All three apply to the subtotal, never to each other.
const (
	CGSTRate          = 0.025
	SGSTRate          = 0.025
	ServiceChargeRate = 0.05
)

// Bill is the computed settlement view of a session. Amounts are kept at
// full float precision; rounding happens only when rendering.
type Bill struct {
	InvoiceNumber string             `json:"invoiceNumber"`
	InvoiceDate   time.Time          `json:"invoiceDate"`
	CustomerName  string             `json:"customerName"`
	TableNumber   int                `json:"tableNumber"`
	Items         []session.LineItem `json:"items"`
	Subtotal      float64            `json:"subtotal"`
	CGST          float64            `json:"cgst"`
	SGST          float64            `json:"sgst"`
	ServiceCharge float64            `json:"serviceCharge"`
	GrandTotal    float64            `json:"grandTotal"`
}

// Compute derives the bill from a session. The stored session total is the
// authoritative subtotal; the flattened item list is carried for display.
func Compute(s *session.Session) Bill {
	subtotal := s.SessionTotal
	cgst := subtotal * CGSTRate
	sgst := subtotal * SGSTRate
	service := subtotal * ServiceChargeRate

	return Bill{
		InvoiceNumber: InvoiceNumber(s),
		InvoiceDate:   s.UpdatedAt,
		CustomerName:  s.CustomerName,
		TableNumber:   s.TableNumber,
		Items:         AllItems(s),
		Subtotal:      subtotal,
		CGST:          cgst,
		SGST:          sgst,
		ServiceCharge: service,
		GrandTotal:    subtotal + cgst + sgst + service,
	}
}

// AllItems flattens the initial order and every extras batch into one
// display sequence, in commit order.
func AllItems(s *session.Session) []session.LineItem {
	items := make([]session.LineItem, 0, len(s.SessionItems))
	items = append(items, s.SessionItems...)
	for _, batch := range s.ExtrasBatches {
		items = append(items, batch.Items...)
	}
	return items
}

// ItemsSubtotal recomputes the subtotal from line items, used to reconcile
// the stored total against its parts.
func ItemsSubtotal(s *session.Session) float64 {
	return session.ItemsTotal(AllItems(s))
}

// Reconcile reports whether the stored session total matches the sum of its
// line items within a float tolerance.
func Reconcile(s *session.Session) bool {
	return math.Abs(s.SessionTotal-ItemsSubtotal(s)) < 0.005
}

// InvoiceNumber derives the display invoice number from the session id,
// prefix plus the first six hex characters uppercased.
func InvoiceNumber(s *session.Session) string {
	id := strings.ReplaceAll(s.ID.String(), "-", "")
	if len(id) > 6 {
		id = id[:6]
	}
	return "DB-" + strings.ToUpper(id)
}

// Round2 rounds to two decimals for rendering.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
