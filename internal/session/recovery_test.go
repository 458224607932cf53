package session

import "testing"

func TestResolveRecovery(t *testing.T) {
	active := mustSession(t, StatusActive, BillNone)
	billRequested := mustSession(t, StatusBillRequested, BillPending)
	closed := mustSession(t, StatusClosed, BillDownloaded)

	tests := []struct {
		name         string
		latest       *Session
		customerName string
		wantState    string
		wantSession  bool
	}{
		{"noSession", nil, "Asha", RecoveryNone, false},
		{"activeResumes", active, "Asha", RecoveryResumed, true},
		{"activeResumesWithoutName", active, "", RecoveryResumed, true},
		{"billRequestedResumes", billRequested, "Asha", RecoveryResumed, true},
		{"closedWithMatchingName", closed, "Asha", RecoveryClosed, true},
		{"closedWithDifferentName", closed, "Rahul", RecoveryNone, false},
		{"closedWithoutName", closed, "", RecoveryNone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveRecovery(tt.latest, tt.customerName)
			if got.State != tt.wantState {
				t.Errorf("State = %q, want %q", got.State, tt.wantState)
			}
			if (got.Session != nil) != tt.wantSession {
				t.Errorf("Session presence = %v, want %v", got.Session != nil, tt.wantSession)
			}
		})
	}
}

func mustSession(t *testing.T, sessionStatus, billStatus string) *Session {
	t.Helper()
	s, err := NewSession(5, "Asha", 2, []LineItem{
		{Name: "Paneer Tikka", Price: 270, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("cannot build session: %v", err)
	}
	s.SessionStatus = sessionStatus
	s.BillStatus = billStatus
	return s
}
