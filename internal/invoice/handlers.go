package invoice

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-salon/internal/billing"
	"github.com/noah-isme/backend-salon/internal/common"
)

// Handler exposes invoice submission and retrieval endpoints.
type Handler struct {
	service      *Service
	defaultLimit int
	maxLimit     int
}

// NewHandler constructs a Handler.
func NewHandler(service *Service, defaultLimit, maxLimit int) *Handler {
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	return &Handler{service: service, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// Routes mounts invoice endpoints. submitGuards wrap the mutating routes;
// the caller passes the idempotency and rate limit middlewares in.
func (h *Handler) Routes(r chi.Router, submitGuards ...func(http.Handler) http.Handler) {
	r.Get("/invoices", h.List)
	r.Get("/invoices/{id}", h.Get)
	guarded := r.With(submitGuards...)
	guarded.Post("/invoices", h.Create)
	guarded.Put("/invoices/{id}", h.Update)
}

// Create handles POST /api/v1/invoices.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload billing.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid JSON body", nil)
		return
	}
	inv, err := h.service.Create(r.Context(), payload)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, inv)
}

// Update handles PUT /api/v1/invoices/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "id must be a valid UUID", nil)
		return
	}
	var payload billing.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid JSON body", nil)
		return
	}
	inv, err := h.service.Update(r.Context(), id, payload)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, inv)
}

// Get handles GET /api/v1/invoices/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "id must be a valid UUID", nil)
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, inv)
}

// List handles GET /api/v1/invoices with pagination.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, h.defaultLimit)
	if perPage > h.maxLimit {
		perPage = h.maxLimit
	}
	rows, total, err := h.service.List(r.Context(), perPage, (page-1)*perPage)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       rows,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: int(total)},
	})
}
