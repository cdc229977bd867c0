package staff_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-salon/internal/repo"
	"github.com/noah-isme/backend-salon/internal/staff"
)

type fakeStaffStore struct {
	records map[uuid.UUID]repo.StaffRecord
}

func newFakeStaffStore() *fakeStaffStore {
	return &fakeStaffStore{records: make(map[uuid.UUID]repo.StaffRecord)}
}

func (f *fakeStaffStore) List(_ context.Context, activeOnly bool) ([]repo.StaffRecord, error) {
	var out []repo.StaffRecord
	for _, rec := range f.records {
		if activeOnly && !rec.Active {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeStaffStore) Get(_ context.Context, id uuid.UUID) (repo.StaffRecord, error) {
	rec, ok := f.records[id]
	if !ok {
		return repo.StaffRecord{}, repo.ErrNotFound
	}
	return rec, nil
}

func (f *fakeStaffStore) Create(_ context.Context, rec repo.StaffRecord) (repo.StaffRecord, error) {
	rec.ID = uuid.New()
	f.records[rec.ID] = rec
	return rec, nil
}

func (f *fakeStaffStore) Update(_ context.Context, rec repo.StaffRecord) (repo.StaffRecord, error) {
	if _, ok := f.records[rec.ID]; !ok {
		return repo.StaffRecord{}, repo.ErrNotFound
	}
	f.records[rec.ID] = rec
	return rec, nil
}

func newStaffRouter(store *fakeStaffStore) http.Handler {
	router := chi.NewRouter()
	router.Route("/api/v1", staff.NewHandler(store, nil).Routes)
	return router
}

func TestStaffCreateAndList(t *testing.T) {
	store := newFakeStaffStore()
	router := newStaffRouter(store)

	body := `{"name":"Alice","position":"stylist"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/staff", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data staff.Member `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "Alice", created.Data.Name)
	require.True(t, created.Data.Active)

	listReq := httptest.NewRequest(http.MethodGet, "/api/v1/staff", nil)
	listRec := httptest.NewRecorder()
	router.ServeHTTP(listRec, listReq)
	require.Equal(t, http.StatusOK, listRec.Code)

	var listed struct {
		Data []staff.Member `json:"data"`
	}
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &listed))
	require.Len(t, listed.Data, 1)
}

func TestStaffCreateRejectsMissingName(t *testing.T) {
	router := newStaffRouter(newFakeStaffStore())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/staff", strings.NewReader(`{"position":"stylist"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
}

func TestStaffUpdateDeactivates(t *testing.T) {
	store := newFakeStaffStore()
	seeded, err := store.Create(context.Background(), repo.StaffRecord{Name: "Bob", Position: "barber", Active: true})
	require.NoError(t, err)

	router := newStaffRouter(store)
	body := `{"name":"Bob","position":"barber","active":false}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/staff/"+seeded.ID.String(), strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated struct {
		Data staff.Member `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.False(t, updated.Data.Active)

	listReq := httptest.NewRequest(http.MethodGet, "/api/v1/staff", nil)
	listRec := httptest.NewRecorder()
	router.ServeHTTP(listRec, listReq)
	var listed struct {
		Data []staff.Member `json:"data"`
	}
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &listed))
	require.Empty(t, listed.Data)
}

func TestStaffUpdateUnknownIDIs404(t *testing.T) {
	router := newStaffRouter(newFakeStaffStore())
	req := httptest.NewRequest(http.MethodPut, "/api/v1/staff/"+uuid.NewString(), strings.NewReader(`{"name":"Eve"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
