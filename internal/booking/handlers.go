package booking

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-salon/internal/common"
)

type createRequest struct {
	CustomerID string    `json:"customer_id" validate:"omitempty,uuid"`
	StaffID    string    `json:"staff_id" validate:"required,uuid"`
	ServiceID  string    `json:"service_id" validate:"required,uuid"`
	StartsAt   time.Time `json:"starts_at" validate:"required"`
	Notes      string    `json:"notes" validate:"max=500"`
}

// Handler exposes appointment endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(service *Service, validate *validator.Validate) *Handler {
	if validate == nil {
		validate = validator.New()
	}
	return &Handler{service: service, validate: validate}
}

// Routes mounts booking endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/bookings/slots", h.Slots)
	r.Get("/bookings", h.List)
	r.Post("/bookings", h.Create)
	r.Delete("/bookings/{id}", h.Cancel)
}

// Slots handles GET /api/v1/bookings/slots?date=YYYY-MM-DD&staff_id=<uuid>.
func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	day, ok := parseDay(w, r.URL.Query().Get("date"))
	if !ok {
		return
	}
	staffID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("staff_id")))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "staff_id must be a valid UUID", nil)
		return
	}
	slots, err := h.service.DaySlots(r.Context(), day, staffID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, slots)
}

// Create handles POST /api/v1/bookings.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "validation failed", validationDetails(err))
		return
	}
	in := CreateInput{
		StaffID:   uuid.MustParse(req.StaffID),
		ServiceID: uuid.MustParse(req.ServiceID),
		StartsAt:  req.StartsAt,
		Notes:     strings.TrimSpace(req.Notes),
	}
	if req.CustomerID != "" {
		id := uuid.MustParse(req.CustomerID)
		in.CustomerID = &id
	}
	appt, err := h.service.Create(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, appt)
}

// List handles GET /api/v1/bookings?date=YYYY-MM-DD.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	day, ok := parseDay(w, r.URL.Query().Get("date"))
	if !ok {
		return
	}
	rows, err := h.service.ListDay(r.Context(), day)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, rows)
}

// Cancel handles DELETE /api/v1/bookings/{id}.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "id must be a valid UUID", nil)
		return
	}
	appt, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, appt)
}

func parseDay(w http.ResponseWriter, raw string) (time.Time, bool) {
	day, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "date must be formatted YYYY-MM-DD", nil)
		return time.Time{}, false
	}
	return day, true
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
