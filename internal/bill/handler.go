package bill

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tabletap/tabletap/internal/session"
)

type Handler struct {
	logger      apt.Logger
	tlm         *telemetry.HTTP
	sessionRepo session.SessionRepo
}

func NewHandler(sessionRepo session.SessionRepo, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		logger:      logger,
		tlm:         telemetry.NewHTTP(),
		sessionRepo: sessionRepo,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{id}/bill", h.GetBill)
	r.Get("/sessions/{id}/invoice", h.GetInvoicePDF)
}

// GetBill returns the computed bill for a session. Available from the moment
// the bill is requested so the diner can preview totals while waiting for
// chef approval.
func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetBill")
	defer finish()

	log := h.log(r)

	s, ok := h.loadSession(w, r, log)
	if !ok {
		return
	}

	if s.BillStatus == session.BillNone {
		apt.RespondError(w, http.StatusConflict, "Bill has not been requested for this session")
		return
	}

	b := Compute(s)
	if !Reconcile(s) {
		log.Error("session total does not match line items", "id", s.ID.String(), "stored", s.SessionTotal, "computed", ItemsSubtotal(s))
	}

	apt.RespondSuccess(w, b)
}

// GetInvoicePDF renders the downloadable tax invoice. Only an accepted or
// already-downloaded bill may be rendered; a pending bill is still awaiting
// chef approval.
func (h *Handler) GetInvoicePDF(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetInvoicePDF")
	defer finish()

	log := h.log(r)

	s, ok := h.loadSession(w, r, log)
	if !ok {
		return
	}

	switch s.BillStatus {
	case session.BillAccepted, session.BillDownloaded:
	default:
		apt.RespondError(w, http.StatusConflict, "Bill must be accepted before the invoice can be generated")
		return
	}

	b := Compute(s)

	var buf bytes.Buffer
	if err := RenderInvoicePDF(&buf, b); err != nil {
		log.Error("cannot render invoice", "error", err, "id", s.ID.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not render invoice")
		return
	}

	filename := fmt.Sprintf("invoice-table%d-%s.pdf", s.TableNumber, s.CustomerName)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Error("cannot write invoice response", "error", err)
	}

	log.Info("invoice rendered", "id", s.ID.String(), "invoice_number", b.InvoiceNumber)
}

func (h *Handler) loadSession(w http.ResponseWriter, r *http.Request, log apt.Logger) (*session.Session, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Debug("invalid id parameter", "id", idStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid id parameter")
		return nil, false
	}

	s, err := h.sessionRepo.Get(r.Context(), id)
	if err != nil {
		log.Error("error loading session", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not load session")
		return nil, false
	}
	if s == nil {
		apt.RespondError(w, http.StatusNotFound, "Session not found")
		return nil, false
	}
	return s, true
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}
