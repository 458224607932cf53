package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tabletap/tabletap/internal/event"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	logger      apt.Logger
	config      *apt.Config
	tlm         *telemetry.HTTP
	sessionRepo SessionRepo
	publisher   events.Publisher
	hub         *EventHub
	chefGuard   func(http.Handler) http.Handler
}

type HandlerDeps struct {
	SessionRepo SessionRepo
	Publisher   events.Publisher
	Hub         *EventHub
	// ChefGuard wraps the dashboard-only routes; nil leaves them open,
	// which only tests should do.
	ChefGuard func(http.Handler) http.Handler
}

func NewHandler(hd HandlerDeps, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		logger:      logger,
		config:      config,
		tlm:         telemetry.NewHTTP(),
		sessionRepo: hd.SessionRepo,
		publisher:   hd.Publisher,
		hub:         hd.Hub,
		chefGuard:   hd.ChefGuard,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		// Diner-facing
		r.Post("/", h.CreateSession)
		r.Get("/recover", h.RecoverSession)
		r.Get("/{id}", h.GetSession)
		r.Post("/{id}/extras", h.AppendExtraBatch)
		r.Post("/{id}/bill-request", h.RequestBill)
		r.Post("/{id}/bill-downloaded", h.MarkDownloaded)

		// Dashboard-only
		r.Group(func(r chi.Router) {
			if h.chefGuard != nil {
				r.Use(h.chefGuard)
			}
			r.Get("/", h.ListSessions)
			r.Get("/stream", h.StreamSessions)
			r.Patch("/{id}/kitchen-status", h.UpdateKitchenStatus)
			r.Post("/{id}/bill-accept", h.AcceptBill)
			r.Post("/{id}/close", h.ForceClose)
			r.Post("/{id}/extras-ack", h.AcknowledgeExtras)
			r.Delete("/closed", h.ClearClosed)
		})
	})
}

// Diner handlers

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateSession")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	req, ok := h.decodeSessionCreatePayload(w, r, log)
	if !ok {
		return
	}

	assignLineIDs(req.Items)

	s, err := NewSession(req.TableNumber, req.CustomerName, req.NumberOfPeople, req.Items)
	if err != nil {
		log.Debug("invalid create session request", "error", err)
		h.respondDomainError(w, err, "Could not create session")
		return
	}

	if err := h.sessionRepo.Create(ctx, s); err != nil {
		log.Error("cannot create session", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not create session")
		return
	}

	h.publishSessionEvent(ctx, event.EventSessionCreated, s)

	links := apt.RESTfulLinksFor(s)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, s, links...)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetSession")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	s, err := h.sessionRepo.Get(ctx, id)
	if err != nil {
		log.Error("error loading session", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Session not found")
		return
	}
	if s == nil {
		apt.RespondError(w, http.StatusNotFound, "Session not found")
		return
	}

	links := apt.RESTfulLinksFor(s)
	apt.RespondSuccess(w, s, links...)
}

// RecoverSession looks up the most recent session for a table, optionally
// narrowed by customer name, and reports whether the diner resumes it, sees
// a closed-session screen, or starts fresh.
func (h *Handler) RecoverSession(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RecoverSession")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	tableStr := r.URL.Query().Get("table")
	tableNumber, err := strconv.Atoi(tableStr)
	if err != nil || tableNumber <= 0 {
		log.Debug("invalid table parameter", "table", tableStr)
		apt.RespondError(w, http.StatusBadRequest, "table must be a positive integer")
		return
	}

	customerName := r.URL.Query().Get("customer")

	latest, err := h.sessionRepo.LatestByTable(ctx, tableNumber, customerName)
	if err != nil {
		log.Error("cannot look up latest session", "error", err, "table", tableNumber)
		apt.RespondError(w, http.StatusInternalServerError, "Could not look up session")
		return
	}

	recovery := ResolveRecovery(latest, customerName)
	apt.RespondSuccess(w, recovery)
}

// AppendExtraBatch commits staged extras to an active session. The append is
// a guarded read-modify-write in the repo: the batch lands on the latest
// server-side document, so two concurrent appends both survive.
func (h *Handler) AppendExtraBatch(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AppendExtraBatch")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	req, ok := h.decodeExtrasPayload(w, r, log)
	if !ok {
		return
	}

	assignLineIDs(req.Items)

	batch, err := NewExtraBatch(req.Items)
	if err != nil {
		log.Debug("invalid extras batch", "error", err)
		h.respondDomainError(w, err, "Could not append extras")
		return
	}

	s, err := h.sessionRepo.AppendBatch(ctx, id, batch)
	if err != nil {
		log.Info("cannot append extras batch", "error", err, "id", id.String())
		h.respondDomainError(w, err, "Could not append extras")
		return
	}

	h.publishSessionEvent(ctx, event.EventSessionUpdated, s)

	log.Info("extras batch appended", "session_id", id.String(), "batch_id", batch.BatchID, "batch_total", batch.BatchTotal)
	links := apt.RESTfulLinksFor(s)
	apt.RespondSuccess(w, s, links...)
}

func (h *Handler) RequestBill(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RequestBill")
	defer finish()

	log := h.log(r)
	h.transition(w, r, log, "request bill", func(s *Session) error {
		return s.RequestBill()
	})
}

// MarkDownloaded records a successful invoice download and closes the
// session. It only succeeds once the chef has accepted the bill.
func (h *Handler) MarkDownloaded(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.MarkDownloaded")
	defer finish()

	log := h.log(r)
	h.transition(w, r, log, "mark bill downloaded", func(s *Session) error {
		return s.MarkDownloaded()
	})
}

// Dashboard handlers

func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListSessions")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	sessions, err := h.sessionRepo.List(ctx)
	if err != nil {
		log.Error("error retrieving sessions", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve sessions")
		return
	}

	apt.RespondCollection(w, sessions, "session")
}

func (h *Handler) UpdateKitchenStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateKitchenStatus")
	defer finish()

	log := h.log(r)

	req, ok := h.decodeKitchenStatusPayload(w, r, log)
	if !ok {
		return
	}

	h.transition(w, r, log, "update kitchen status", func(s *Session) error {
		return s.SetKitchenStatus(req.Status)
	})
}

func (h *Handler) AcceptBill(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AcceptBill")
	defer finish()

	log := h.log(r)
	h.transition(w, r, log, "accept bill", func(s *Session) error {
		return s.AcceptBill()
	})
}

func (h *Handler) ForceClose(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ForceClose")
	defer finish()

	log := h.log(r)
	h.transition(w, r, log, "force close", func(s *Session) error {
		s.ForceClose()
		return nil
	})
}

func (h *Handler) AcknowledgeExtras(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AcknowledgeExtras")
	defer finish()

	log := h.log(r)
	h.transition(w, r, log, "acknowledge extras", func(s *Session) error {
		s.AcknowledgeExtras()
		return nil
	})
}

// ClearClosed archives the dashboard by deleting every closed session, one
// delete per document so a single failure doesn't abort the sweep.
func (h *Handler) ClearClosed(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ClearClosed")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	sessions, err := h.sessionRepo.List(ctx)
	if err != nil {
		log.Error("error retrieving sessions", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve sessions")
		return
	}

	var cleared, failed int
	for _, s := range sessions {
		if s.SessionStatus != StatusClosed {
			continue
		}
		if err := h.sessionRepo.Delete(ctx, s.ID); err != nil {
			log.Error("cannot delete closed session", "error", err, "id", s.ID.String())
			failed++
			continue
		}
		h.publishSessionEvent(ctx, event.EventSessionDeleted, s)
		cleared++
	}

	log.Info("closed sessions cleared", "cleared", cleared, "failed", failed)
	apt.Respond(w, http.StatusOK, map[string]int{"cleared": cleared, "failed": failed}, nil)
}

// StreamSessions pushes session events to the dashboard over SSE. The first
// frame is a snapshot of every session so a reconnecting client re-derives
// its full view before applying live events.
func (h *Handler) StreamSessions(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	ctx := r.Context()

	flusher, ok := w.(http.Flusher)
	if !ok {
		apt.RespondError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	sessions, err := h.sessionRepo.List(ctx)
	if err != nil {
		log.Error("cannot load sessions for stream snapshot", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve sessions")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	snapshot, err := json.Marshal(sessions)
	if err != nil {
		log.Error("cannot marshal session snapshot", "error", err)
		return
	}
	fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", snapshot)
	flusher.Flush()

	ch, cancel := h.hub.Subscribe(64)
	defer cancel()

	log.Info("dashboard stream connected")
	for {
		select {
		case <-ctx.Done():
			log.Info("dashboard stream disconnected")
			return
		case evt, open := <-ch:
			if !open {
				return
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				log.Error("cannot marshal session event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.EventType, payload)
			flusher.Flush()
		}
	}
}

// transition runs the load-mutate-save cycle shared by the simple overwrite
// operations. These are single-field merges and idempotent-safe to retry, so
// no read-modify-write guard is needed beyond loading the current document.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, log apt.Logger, name string, mutate func(*Session) error) {
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	s, err := h.sessionRepo.Get(ctx, id)
	if err != nil {
		log.Error("error loading session", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not load session")
		return
	}
	if s == nil {
		apt.RespondError(w, http.StatusNotFound, "Session not found")
		return
	}

	if err := mutate(s); err != nil {
		log.Info("transition rejected", "operation", name, "error", err, "id", id.String(), "session_status", s.SessionStatus)
		h.respondDomainError(w, err, "Could not "+name)
		return
	}

	if err := h.sessionRepo.Save(ctx, s); err != nil {
		log.Error("cannot save session", "error", err, "operation", name, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not "+name)
		return
	}

	h.publishSessionEvent(ctx, event.EventSessionUpdated, s)

	log.Info("session transition applied", "operation", name, "id", id.String(), "session_status", s.SessionStatus, "bill_status", s.BillStatus)
	links := apt.RESTfulLinksFor(s)
	apt.RespondSuccess(w, s, links...)
}

func (h *Handler) publishSessionEvent(ctx context.Context, eventType string, s *Session) {
	doc, err := json.Marshal(s)
	if err != nil {
		h.logger.Error("cannot marshal session for event", "error", err, "id", s.ID.String())
		return
	}

	evt := event.SessionEvent{
		EventType:     eventType,
		OccurredAt:    time.Now().UTC(),
		SessionID:     s.ID.String(),
		TableNumber:   s.TableNumber,
		SessionStatus: s.SessionStatus,
		KitchenStatus: s.Status,
		Session:       doc,
	}

	if h.hub != nil {
		h.hub.Broadcast(evt)
	}

	if h.publisher == nil {
		return
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("cannot marshal session event", "error", err)
		return
	}
	if err := h.publisher.Publish(ctx, event.SessionUpdatesTopic, payload); err != nil {
		h.logger.Error("cannot publish session event", "error", err, "event_type", eventType)
	}
}

func (h *Handler) respondDomainError(w http.ResponseWriter, err error, fallback string) {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		apt.RespondError(w, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, ErrSessionClosed):
		apt.RespondError(w, http.StatusConflict, "Session is closed; start a new session to keep ordering")
	case errors.Is(err, ErrBillOutOfOrder):
		apt.RespondError(w, http.StatusConflict, "Bill is not at the right step for this action")
	case errors.Is(err, ErrSessionNotFound):
		apt.RespondError(w, http.StatusNotFound, "Session not found")
	default:
		apt.RespondError(w, http.StatusInternalServerError, fallback)
	}
}

// Helper methods

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, log apt.Logger) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	if idStr == "" {
		log.Debug("missing id parameter")
		apt.RespondError(w, http.StatusBadRequest, "Missing id parameter")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Debug("invalid id parameter", "id", idStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}

	return id, true
}

func assignLineIDs(items []LineItem) {
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = apt.GenerateNewID().String()
		}
	}
}

// Payload decoders

type SessionCreateRequest struct {
	TableNumber    int        `json:"tableNumber"`
	CustomerName   string     `json:"customerName"`
	NumberOfPeople int        `json:"numberOfPeople"`
	Items          []LineItem `json:"items"`
}

type ExtrasRequest struct {
	Items []LineItem `json:"items"`
}

type KitchenStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) decodeSessionCreatePayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (SessionCreateRequest, bool) {
	var req SessionCreateRequest
	if !h.decodeBody(w, r, log, &req) {
		return SessionCreateRequest{}, false
	}
	return req, true
}

func (h *Handler) decodeExtrasPayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (ExtrasRequest, bool) {
	var req ExtrasRequest
	if !h.decodeBody(w, r, log, &req) {
		return ExtrasRequest{}, false
	}
	return req, true
}

func (h *Handler) decodeKitchenStatusPayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (KitchenStatusRequest, bool) {
	var req KitchenStatusRequest
	if !h.decodeBody(w, r, log, &req) {
		return KitchenStatusRequest{}, false
	}
	return req, true
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, log apt.Logger, out interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return false
	}

	if err := json.Unmarshal(body, out); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return false
	}

	return true
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}
