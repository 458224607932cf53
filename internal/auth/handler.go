package auth

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
)

const MaxBodyBytes = 1 << 20

// Default credential used when none is configured.
const (
	DefaultChefEmail    = "chef@restaurant.com"
	DefaultChefPassword = "chef123"
)

type Handler struct {
	logger  apt.Logger
	tlm     *telemetry.HTTP
	service *Service

	chefEmail    string
	chefPassword string
}

func NewHandler(service *Service, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		logger:       logger,
		tlm:          telemetry.NewHTTP(),
		service:      service,
		chefEmail:    config.GetStringOrDef("auth.chef.email", DefaultChefEmail),
		chefPassword: config.GetStringOrDef("auth.chef.password", DefaultChefPassword),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Login checks the shared chef credential and returns a dashboard token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Login")
	defer finish()

	log := h.log(r)

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var req LoginRequest
	if err := json.Unmarshal(body, &req); err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	emailMatch := subtle.ConstantTimeCompare([]byte(req.Email), []byte(h.chefEmail))
	passwordMatch := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.chefPassword))
	if emailMatch&passwordMatch != 1 {
		log.Info("login rejected", "email", req.Email)
		apt.RespondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.service.GenerateToken(req.Email)
	if err != nil {
		log.Error("cannot generate token", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not generate token")
		return
	}

	log.Info("chef logged in", "email", req.Email)
	apt.RespondSuccess(w, LoginResponse{Token: token, Email: req.Email, Role: RoleChef})
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}
