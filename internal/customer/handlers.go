package customer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/repo"
)

type customerStore interface {
	Get(ctx context.Context, id uuid.UUID) (repo.CustomerRecord, error)
	SearchByPhone(ctx context.Context, prefix string, limit int) ([]repo.CustomerRecord, error)
	List(ctx context.Context, limit, offset int) ([]repo.CustomerRecord, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, rec repo.CustomerRecord) (repo.CustomerRecord, error)
	Update(ctx context.Context, rec repo.CustomerRecord) (repo.CustomerRecord, error)
}

// Customer is the public customer payload.
type Customer struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Phone string  `json:"phone"`
	Email *string `json:"email,omitempty"`
}

type upsertRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=120"`
	Phone string `json:"phone" validate:"required,min=5,max=32"`
	Email string `json:"email" validate:"omitempty,email"`
}

// Handler exposes customer registry endpoints. The phone lookup route is
// expected to sit behind the sliding-window rate limiter.
type Handler struct {
	store        customerStore
	validate     *validator.Validate
	defaultLimit int
	maxLimit     int
}

// NewHandler constructs a Handler.
func NewHandler(store customerStore, validate *validator.Validate, defaultLimit, maxLimit int) *Handler {
	if validate == nil {
		validate = validator.New()
	}
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	return &Handler{store: store, validate: validate, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// Routes mounts customer endpoints on the given router. lookupLimiter, when
// non-nil, wraps only the phone lookup route.
func (h *Handler) Routes(r chi.Router, lookupLimiter func(http.Handler) http.Handler) {
	if lookupLimiter != nil {
		r.With(lookupLimiter).Get("/customers/lookup", h.Lookup)
	} else {
		r.Get("/customers/lookup", h.Lookup)
	}
	r.Get("/customers", h.List)
	r.Post("/customers", h.Create)
	r.Get("/customers/{id}", h.Get)
	r.Put("/customers/{id}", h.Update)
}

// Lookup handles GET /api/v1/customers/lookup?phone=<prefix>.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	phone := strings.TrimSpace(r.URL.Query().Get("phone"))
	if len(phone) < 3 {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "phone prefix must be at least 3 characters", nil)
		return
	}
	rows, err := h.store.SearchByPhone(r.Context(), phone, 10)
	if err != nil {
		common.WriteError(w, fmt.Errorf("lookup customers: %w", err))
		return
	}
	out := make([]Customer, 0, len(rows))
	for _, rec := range rows {
		out = append(out, toCustomer(rec))
	}
	common.JSONData(w, http.StatusOK, out)
}

// List handles GET /api/v1/customers with pagination.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, h.defaultLimit)
	if perPage > h.maxLimit {
		perPage = h.maxLimit
	}
	total, err := h.store.Count(r.Context())
	if err != nil {
		common.WriteError(w, fmt.Errorf("count customers: %w", err))
		return
	}
	rows, err := h.store.List(r.Context(), perPage, (page-1)*perPage)
	if err != nil {
		common.WriteError(w, fmt.Errorf("list customers: %w", err))
		return
	}
	out := make([]Customer, 0, len(rows))
	for _, rec := range rows {
		out = append(out, toCustomer(rec))
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       out,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: int(total)},
	})
}

// Get handles GET /api/v1/customers/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "id must be a valid UUID", nil)
		return
	}
	rec, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "customer not found", nil)
			return
		}
		common.WriteError(w, fmt.Errorf("get customer: %w", err))
		return
	}
	common.JSONData(w, http.StatusOK, toCustomer(rec))
}

// Create handles POST /api/v1/customers.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	rec, err := h.store.Create(r.Context(), recordFromRequest(req))
	if err != nil {
		if repo.IsUniqueViolation(err) {
			common.JSONError(w, http.StatusConflict, common.CodeBadRequest, "a customer with this phone number already exists", nil)
			return
		}
		common.WriteError(w, fmt.Errorf("create customer: %w", err))
		return
	}
	common.JSONData(w, http.StatusCreated, toCustomer(rec))
}

// Update handles PUT /api/v1/customers/{id}.
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
	rec := recordFromRequest(req)
	rec.ID = id
	updated, err := h.store.Update(r.Context(), rec)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "customer not found", nil)
			return
		}
		if repo.IsUniqueViolation(err) {
			common.JSONError(w, http.StatusConflict, common.CodeBadRequest, "a customer with this phone number already exists", nil)
			return
		}
		common.WriteError(w, fmt.Errorf("update customer: %w", err))
		return
	}
	common.JSONData(w, http.StatusOK, toCustomer(updated))
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

func recordFromRequest(req upsertRequest) repo.CustomerRecord {
	rec := repo.CustomerRecord{
		Name:  strings.TrimSpace(req.Name),
		Phone: strings.TrimSpace(req.Phone),
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		rec.Email = &email
	}
	return rec
}

func toCustomer(rec repo.CustomerRecord) Customer {
	return Customer{
		ID:    rec.ID.String(),
		Name:  rec.Name,
		Phone: rec.Phone,
		Email: rec.Email,
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
