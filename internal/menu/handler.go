package menu

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	logger    apt.Logger
	tlm       *telemetry.HTTP
	repo      MenuItemRepo
	chefGuard func(http.Handler) http.Handler
}

func NewHandler(repo MenuItemRepo, chefGuard func(http.Handler) http.Handler, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		logger:    logger,
		tlm:       telemetry.NewHTTP(),
		repo:      repo,
		chefGuard: chefGuard,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/menu/items", func(r chi.Router) {
		// Diner-facing catalog reads
		r.Get("/", h.ListMenuItems)
		r.Get("/{id}", h.GetMenuItem)

		// Catalog management
		r.Group(func(r chi.Router) {
			if h.chefGuard != nil {
				r.Use(h.chefGuard)
			}
			r.Post("/", h.CreateMenuItem)
			r.Put("/{id}", h.UpdateMenuItem)
			r.Delete("/{id}", h.DeleteMenuItem)
			r.Post("/bulk-import", h.BulkImport)
		})
	})
}

func (h *Handler) ListMenuItems(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListMenuItems")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	category := r.URL.Query().Get("category")

	var (
		items []*MenuItem
		err   error
	)
	if category != "" {
		if !validCategory(category) {
			apt.RespondError(w, http.StatusBadRequest, "Unknown category")
			return
		}
		items, err = h.repo.ListByCategory(ctx, category)
	} else {
		items, err = h.repo.List(ctx)
	}
	if err != nil {
		log.Error("error retrieving menu items", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve menu items")
		return
	}

	apt.RespondCollection(w, items, "menu/item")
}

func (h *Handler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetMenuItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	item, err := h.repo.Get(ctx, id)
	if err != nil {
		log.Error("error loading menu item", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not load menu item")
		return
	}
	if item == nil {
		apt.RespondError(w, http.StatusNotFound, "Menu item not found")
		return
	}

	links := apt.RESTfulLinksFor(item)
	apt.RespondSuccess(w, item, links...)
}

func (h *Handler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateMenuItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var item MenuItem
	if !h.decodeBody(w, r, log, &item) {
		return
	}

	if vErrs := ValidateCreateMenuItem(&item); len(vErrs) > 0 {
		apt.Respond(w, http.StatusBadRequest, map[string]interface{}{"errors": vErrs}, nil)
		return
	}

	item.BeforeCreate()
	if err := h.repo.Create(ctx, &item); err != nil {
		log.Error("cannot create menu item", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not create menu item")
		return
	}

	log.Info("menu item created", "id", item.ID, "name", item.Name, "category", item.Category)
	links := apt.RESTfulLinksFor(&item)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, &item, links...)
}

func (h *Handler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateMenuItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	existing, err := h.repo.Get(ctx, id)
	if err != nil {
		log.Error("error loading menu item", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not load menu item")
		return
	}
	if existing == nil {
		apt.RespondError(w, http.StatusNotFound, "Menu item not found")
		return
	}

	var item MenuItem
	if !h.decodeBody(w, r, log, &item) {
		return
	}
	item.ID = id
	item.CreatedAt = existing.CreatedAt

	if vErrs := ValidateUpdateMenuItem(&item); len(vErrs) > 0 {
		apt.Respond(w, http.StatusBadRequest, map[string]interface{}{"errors": vErrs}, nil)
		return
	}

	item.BeforeUpdate()
	if err := h.repo.Save(ctx, &item); err != nil {
		log.Error("cannot save menu item", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not save menu item")
		return
	}

	log.Info("menu item updated", "id", item.ID, "name", item.Name)
	links := apt.RESTfulLinksFor(&item)
	apt.RespondSuccess(w, &item, links...)
}

func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteMenuItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	if err := h.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrMenuItemNotFound) {
			apt.RespondError(w, http.StatusNotFound, "Menu item not found")
			return
		}
		log.Error("cannot delete menu item", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not delete menu item")
		return
	}

	log.Info("menu item deleted", "id", id.String())
	apt.Respond(w, http.StatusNoContent, nil, nil)
}

// BulkImport replaces the whole catalog with the posted items. An empty body
// loads the built-in house catalog instead.
func (h *Handler) BulkImport(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.BulkImport")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var items []*MenuItem
	if len(body) > 0 {
		if err := json.Unmarshal(body, &items); err != nil {
			log.Debug("failed to decode request body", "error", err)
			apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
			return
		}
	}
	if len(items) == 0 {
		items = HouseCatalog()
	}

	for i, item := range items {
		if vErrs := ValidateCreateMenuItem(item); len(vErrs) > 0 {
			log.Debug("invalid bulk import item", "index", i, "name", item.Name)
			apt.Respond(w, http.StatusBadRequest, map[string]interface{}{"index": i, "errors": vErrs}, nil)
			return
		}
		item.BeforeCreate()
	}

	deleted, added, err := h.repo.ReplaceAll(ctx, items)
	if err != nil {
		log.Error("cannot replace menu catalog", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not replace menu catalog")
		return
	}

	log.Info("menu catalog replaced", "deleted", deleted, "added", added)
	apt.Respond(w, http.StatusOK, map[string]int{"deletedCount": deleted, "addedCount": added}, nil)
}

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
