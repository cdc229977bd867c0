package staff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/repo"
)

type staffStore interface {
	List(ctx context.Context, activeOnly bool) ([]repo.StaffRecord, error)
	Get(ctx context.Context, id uuid.UUID) (repo.StaffRecord, error)
	Create(ctx context.Context, rec repo.StaffRecord) (repo.StaffRecord, error)
	Update(ctx context.Context, rec repo.StaffRecord) (repo.StaffRecord, error)
}

// Member is the public staff payload.
type Member struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position,omitempty"`
	Active   bool   `json:"active"`
}

type upsertRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=120"`
	Position string `json:"position" validate:"max=120"`
	Active   *bool  `json:"active"`
}

// Handler exposes staff reference-data endpoints.
type Handler struct {
	store    staffStore
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(store staffStore, validate *validator.Validate) *Handler {
	if validate == nil {
		validate = validator.New()
	}
	return &Handler{store: store, validate: validate}
}

// Routes mounts staff endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/staff", h.List)
	r.Post("/staff", h.Create)
	r.Put("/staff/{id}", h.Update)
}

// List handles GET /api/v1/staff. By default only active members are returned.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := !strings.EqualFold(r.URL.Query().Get("include_inactive"), "true")
	rows, err := h.store.List(r.Context(), activeOnly)
	if err != nil {
		common.WriteError(w, fmt.Errorf("list staff: %w", err))
		return
	}
	out := make([]Member, 0, len(rows))
	for _, rec := range rows {
		out = append(out, toMember(rec))
	}
	common.JSONData(w, http.StatusOK, out)
}

// Create handles POST /api/v1/staff.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	rec, err := h.store.Create(r.Context(), repo.StaffRecord{
		Name:     strings.TrimSpace(req.Name),
		Position: strings.TrimSpace(req.Position),
		Active:   active,
	})
	if err != nil {
		common.WriteError(w, fmt.Errorf("create staff: %w", err))
		return
	}
	common.JSONData(w, http.StatusCreated, toMember(rec))
}

// Update handles PUT /api/v1/staff/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "id must be a valid UUID", nil)
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	current, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "staff member not found", nil)
			return
		}
		common.WriteError(w, fmt.Errorf("get staff: %w", err))
		return
	}
	current.Name = strings.TrimSpace(req.Name)
	current.Position = strings.TrimSpace(req.Position)
	if req.Active != nil {
		current.Active = *req.Active
	}
	rec, err := h.store.Update(r.Context(), current)
	if err != nil {
		common.WriteError(w, fmt.Errorf("update staff: %w", err))
		return
	}
	common.JSONData(w, http.StatusOK, toMember(rec))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (upsertRequest, bool) {
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid JSON body", nil)
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "validation failed", validationDetails(err))
		return req, false
	}
	return req, true
}

func toMember(rec repo.StaffRecord) Member {
	return Member{
		ID:       rec.ID.String(),
		Name:     rec.Name,
		Position: rec.Position,
		Active:   rec.Active,
	}
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return map[string]any{"fields": fields}
}
