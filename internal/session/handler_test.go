package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func newTestHandler(t *testing.T) (*Handler, *MockSessionRepo, *MockPublisher, *chi.Mux) {
	t.Helper()
	repo := NewMockSessionRepo()
	publisher := NewMockPublisher()
	hub := NewEventHub(apt.NewNoopLogger())

	h := NewHandler(HandlerDeps{
		SessionRepo: repo,
		Publisher:   publisher,
		Hub:         hub,
	}, apt.NewConfig(), apt.NewNoopLogger())

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return h, repo, publisher, r
}

func TestNewHandler(t *testing.T) {
	tests := []struct {
		name   string
		deps   HandlerDeps
		logger apt.Logger
	}{
		{"withAllDependencies", HandlerDeps{SessionRepo: NewMockSessionRepo(), Publisher: NewMockPublisher()}, apt.NewNoopLogger()},
		{"withNilLogger", HandlerDeps{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if h := NewHandler(tt.deps, apt.NewConfig(), tt.logger); h == nil {
				t.Error("NewHandler() returned nil")
			}
		})
	}
}

func TestCreateSessionHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{
			name:           "valid",
			body:           `{"tableNumber":5,"customerName":"Asha","numberOfPeople":2,"items":[{"name":"Paneer Tikka","portion":"Full","price":270,"quantity":1}]}`,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missingItems",
			body:           `{"tableNumber":5,"customerName":"Asha","numberOfPeople":2,"items":[]}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "zeroTable",
			body:           `{"tableNumber":0,"customerName":"Asha","numberOfPeople":2,"items":[{"name":"Naan","price":45,"quantity":1}]}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalidJSON",
			body:           `{nope`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, repo, publisher, r := newTestHandler(t)

			req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d, body: %s", w.Code, tt.expectedStatus, w.Body.String())
			}
			if tt.expectedStatus == http.StatusCreated {
				if repo.Count() != 1 {
					t.Errorf("repo count = %d, want 1", repo.Count())
				}
				if len(publisher.Published()) != 1 {
					t.Errorf("published events = %d, want 1", len(publisher.Published()))
				}
			}
		})
	}
}

func TestGetSessionHandler(t *testing.T) {
	_, repo, _, r := newTestHandler(t)
	s := newTestSession(t)
	repo.AddSession(s)

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+s.ID.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}

	// Unknown id
	req = httptest.NewRequest(http.MethodGet, "/sessions/"+uuid.NewString(), nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}

	// Invalid id
	req = httptest.NewRequest(http.MethodGet, "/sessions/not-a-uuid", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRecoverSessionHandler(t *testing.T) {
	_, repo, _, r := newTestHandler(t)
	s := newTestSession(t)
	repo.AddSession(s)

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedState  string
	}{
		{"resumesActive", "?table=5&customer=Asha", http.StatusOK, RecoveryResumed},
		{"noSessionOnOtherTable", "?table=9&customer=Asha", http.StatusOK, RecoveryNone},
		{"missingTable", "?customer=Asha", http.StatusBadRequest, ""},
		{"badTable", "?table=zero", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/sessions/recover"+tt.query, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d, body: %s", w.Code, tt.expectedStatus, w.Body.String())
			}
			if tt.expectedState == "" {
				return
			}

			var resp struct {
				Data Recovery `json:"data"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("cannot decode response: %v", err)
			}
			if resp.Data.State != tt.expectedState {
				t.Errorf("recovery state = %q, want %q", resp.Data.State, tt.expectedState)
			}
		})
	}
}

func TestAppendExtraBatchHandler(t *testing.T) {
	_, repo, publisher, r := newTestHandler(t)
	s := newTestSession(t)
	repo.AddSession(s)

	body := `{"items":[{"name":"Jeera Rice","portion":"Full","price":150,"quantity":2}]}`
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+s.ID.String()+"/extras", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}

	updated, _ := repo.Get(req.Context(), s.ID)
	if len(updated.ExtrasBatches) != 1 {
		t.Fatalf("batches = %d, want 1", len(updated.ExtrasBatches))
	}
	if updated.SessionTotal != 270+300 {
		t.Errorf("SessionTotal = %v, want 570", updated.SessionTotal)
	}
	if !updated.HasNewExtras {
		t.Error("HasNewExtras should be set")
	}
	if updated.Status != KitchenWaiting {
		t.Errorf("kitchen status = %q, want waiting", updated.Status)
	}
	if len(publisher.Published()) != 1 {
		t.Errorf("published events = %d, want 1", len(publisher.Published()))
	}
}

func TestAppendExtraBatchToClosedSession(t *testing.T) {
	_, repo, _, r := newTestHandler(t)
	s := newTestSession(t)
	s.ForceClose()
	repo.AddSession(s)

	body := `{"items":[{"name":"Jeera Rice","price":150,"quantity":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+s.ID.String()+"/extras", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409, body: %s", w.Code, w.Body.String())
	}
}

// Two diners at the same table committing extras at the same time must both
// land, with the total reflecting both batches.
func TestAppendExtraBatchConcurrent(t *testing.T) {
	_, repo, _, r := newTestHandler(t)
	s := newTestSession(t)
	repo.AddSession(s)

	bodies := []string{
		`{"items":[{"name":"Jeera Rice","price":150,"quantity":1}]}`,
		`{"items":[{"name":"Mix Raita","price":95,"quantity":1}]}`,
	}

	var wg sync.WaitGroup
	for _, body := range bodies {
		wg.Add(1)
		go func(payload string) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/sessions/"+s.ID.String()+"/extras", bytes.NewBufferString(payload))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", w.Code)
			}
		}(body)
	}
	wg.Wait()

	updated, _ := repo.Get(context.Background(), s.ID)
	if len(updated.ExtrasBatches) != 2 {
		t.Fatalf("batches = %d, want 2", len(updated.ExtrasBatches))
	}
	if updated.SessionTotal != 270+150+95 {
		t.Errorf("SessionTotal = %v, want 515", updated.SessionTotal)
	}
}

func TestBillRequestHandler(t *testing.T) {
	_, repo, _, r := newTestHandler(t)
	s := newTestSession(t)
	repo.AddSession(s)

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+s.ID.String()+"/bill-request", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}

	updated, _ := repo.Get(req.Context(), s.ID)
	if updated.SessionStatus != StatusBillRequested || updated.BillStatus != BillPending {
		t.Errorf("session = %q/%q, want bill-requested/pending", updated.SessionStatus, updated.BillStatus)
	}

	// Second request conflicts.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sessions/"+s.ID.String()+"/bill-request", nil))
	if w.Code != http.StatusConflict {
		t.Errorf("second request status = %d, want 409", w.Code)
	}
}

func TestBillApprovalFlow(t *testing.T) {
	_, repo, _, r := newTestHandler(t)
	s := newTestSession(t)
	repo.AddSession(s)

	post := func(path string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
		return w.Code
	}

	base := "/sessions/" + s.ID.String()

	// Download before accept is rejected.
	if code := post(base + "/bill-downloaded"); code != http.StatusConflict {
		t.Errorf("premature download status = %d, want 409", code)
	}

	if code := post(base + "/bill-request"); code != http.StatusOK {
		t.Fatalf("bill-request status = %d", code)
	}
	if code := post(base + "/bill-accept"); code != http.StatusOK {
		t.Fatalf("bill-accept status = %d", code)
	}
	if code := post(base + "/bill-downloaded"); code != http.StatusOK {
		t.Fatalf("bill-downloaded status = %d", code)
	}

	final, _ := repo.Get(context.Background(), s.ID)
	if final.SessionStatus != StatusClosed || final.BillStatus != BillDownloaded {
		t.Errorf("final session = %q/%q, want closed/downloaded", final.SessionStatus, final.BillStatus)
	}
}

func TestUpdateKitchenStatusHandler(t *testing.T) {
	_, repo, _, r := newTestHandler(t)
	s := newTestSession(t)
	repo.AddSession(s)

	body := `{"status":"preparing"}`
	req := httptest.NewRequest(http.MethodPatch, "/sessions/"+s.ID.String()+"/kitchen-status", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}
	updated, _ := repo.Get(req.Context(), s.ID)
	if updated.Status != KitchenPreparing {
		t.Errorf("kitchen status = %q, want preparing", updated.Status)
	}

	// Unknown value rejected.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/sessions/"+s.ID.String()+"/kitchen-status", bytes.NewBufferString(`{"status":"burnt"}`)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestForceCloseHandler(t *testing.T) {
	_, repo, _, r := newTestHandler(t)
	s := newTestSession(t)
	repo.AddSession(s)

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+s.ID.String()+"/close", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}
	updated, _ := repo.Get(req.Context(), s.ID)
	if updated.SessionStatus != StatusClosed {
		t.Errorf("SessionStatus = %q, want closed", updated.SessionStatus)
	}
	if updated.BillStatus != BillNone {
		t.Errorf("BillStatus = %q, force close must not touch it", updated.BillStatus)
	}
}

func TestAcknowledgeExtrasHandler(t *testing.T) {
	_, repo, _, r := newTestHandler(t)
	s := newTestSession(t)
	s.HasNewExtras = true
	repo.AddSession(s)

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+s.ID.String()+"/extras-ack", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	updated, _ := repo.Get(req.Context(), s.ID)
	if updated.HasNewExtras {
		t.Error("HasNewExtras should be cleared")
	}
}

func TestClearClosedHandler(t *testing.T) {
	_, repo, publisher, r := newTestHandler(t)

	open := newTestSession(t)
	repo.AddSession(open)

	closed1 := newTestSession(t)
	closed1.ForceClose()
	repo.AddSession(closed1)

	closed2 := newTestSession(t)
	closed2.ForceClose()
	repo.AddSession(closed2)

	req := httptest.NewRequest(http.MethodDelete, "/sessions/closed", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data map[string]int `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("cannot decode response: %v", err)
	}
	if resp.Data["cleared"] != 2 || resp.Data["failed"] != 0 {
		t.Errorf("cleared/failed = %d/%d, want 2/0", resp.Data["cleared"], resp.Data["failed"])
	}
	if repo.Count() != 1 {
		t.Errorf("repo count = %d, want 1", repo.Count())
	}
	if len(publisher.Published()) != 2 {
		t.Errorf("published deleted events = %d, want 2", len(publisher.Published()))
	}
}

func TestListSessionsHandler(t *testing.T) {
	_, repo, _, r := newTestHandler(t)
	repo.AddSession(newTestSession(t))
	repo.AddSession(newTestSession(t))

	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("cannot decode response: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Errorf("sessions = %d, want 2", len(resp.Data))
	}
}
