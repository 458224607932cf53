package session

import "strings"

// Recovery outcome states for a returning diner scanning the table QR again.
const (
	RecoveryNone    = "none"    // no usable session, stay in pre-session state
	RecoveryResumed = "resumed" // an active or bill-requested session continues
	RecoveryClosed  = "closed"  // latest session ended; requires explicit dismissal
)

type Recovery struct {
	State   string   `json:"state"`
	Session *Session `json:"session,omitempty"`
}

// ResolveRecovery applies the recovery policy to the most recent session
// found for a table. When no customer name accompanies the lookup the latest
// session wins regardless of which diner it belongs to; with concurrent
// diners at one physical table this can resume the wrong customer's session.
// That ambiguity is inherited behavior the existing clients rely on, so it is
// kept rather than papered over here.
func ResolveRecovery(latest *Session, customerName string) Recovery {
	if latest == nil {
		return Recovery{State: RecoveryNone}
	}

	switch latest.SessionStatus {
	case StatusActive, StatusBillRequested:
		return Recovery{State: RecoveryResumed, Session: latest}
	}

	if latest.SessionStatus == StatusClosed || latest.BillStatus == BillDownloaded {
		// Only the diner the closed session belonged to gets the closed
		// screen; a new customer at the same table starts fresh.
		name := strings.TrimSpace(customerName)
		if name != "" && strings.EqualFold(latest.CustomerName, name) {
			return Recovery{State: RecoveryClosed, Session: latest}
		}
	}

	return Recovery{State: RecoveryNone}
}
