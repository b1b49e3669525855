package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/payhub-app/payhub-api/internal/auth"
	"github.com/payhub-app/payhub-api/internal/domain"
	"github.com/payhub-app/payhub-api/internal/http/handler"
	"github.com/payhub-app/payhub-api/internal/repository"
	"github.com/payhub-app/payhub-api/internal/service"
	"github.com/payhub-app/payhub-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// newContractorRouter wires the handler behind a chi router with an
// authenticated test user, skipping the JWT middleware.
func newContractorRouter(t *testing.T, db *gorm.DB) (*chi.Mux, *domain.User) {
	t.Helper()

	svc := service.NewContractorService(repository.NewContractorRepository(db), zap.NewNop())
	h := handler.NewContractorHandler(svc, zap.NewNop())
	user := testutil.CreateTestUser(t, db, domain.RoleAccountant)
	userCtx, _ := auth.FromContext(testutil.ContextWithUser(user))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithUserContext(req.Context(), userCtx)))
		})
	})
	r.Route("/contractors", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/search", h.Search)
		r.Get("/{id}", h.GetByID)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
	return r, user
}

func TestContractorHandlerCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router, _ := newContractorRouter(t, db)

	body, _ := json.Marshal(domain.CreateContractorRequest{
		Name:  "ООО Ромашка",
		TaxID: "7701234567",
		Email: "info@romashka.ru",
	})
	req := httptest.NewRequest(http.MethodPost, "/contractors", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/api/v1/contractors/")

	var dto domain.ContractorDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "ООО Ромашка", dto.Name)
	assert.True(t, dto.IsActive)
}

func TestContractorHandlerCreateValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router, _ := newContractorRouter(t, db)

	// Missing required taxId
	body, _ := json.Marshal(map[string]string{"name": "Без ИНН"})
	req := httptest.NewRequest(http.MethodPost, "/contractors", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContractorHandlerDuplicateTaxID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router, _ := newContractorRouter(t, db)

	body, _ := json.Marshal(domain.CreateContractorRequest{Name: "Первый", TaxID: "7700000001"})
	req := httptest.NewRequest(http.MethodPost, "/contractors", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	body, _ = json.Marshal(domain.CreateContractorRequest{Name: "Второй", TaxID: "7700000001"})
	req = httptest.NewRequest(http.MethodPost, "/contractors", bytes.NewReader(body))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestContractorHandlerGetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router, _ := newContractorRouter(t, db)
	contractor := testutil.CreateTestContractor(t, db, "ООО Лютик")

	req := httptest.NewRequest(http.MethodGet, "/contractors/"+contractor.ID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var dto domain.ContractorDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, contractor.ID, dto.ID)

	// Malformed id
	req = httptest.NewRequest(http.MethodGet, "/contractors/not-a-uuid", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContractorHandlerNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router, _ := newContractorRouter(t, db)

	req := httptest.NewRequest(http.MethodGet, "/contractors/00000000-0000-0000-0000-000000000001", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContractorHandlerDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router, _ := newContractorRouter(t, db)
	contractor := testutil.CreateTestContractor(t, db, "ООО Василек")

	req := httptest.NewRequest(http.MethodDelete, "/contractors/"+contractor.ID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/contractors/"+contractor.ID.String(), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
