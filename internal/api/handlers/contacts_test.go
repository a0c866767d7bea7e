package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/mwadhwa/touchbase/internal/store"
	"github.com/mwadhwa/touchbase/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupContactRouter(t *testing.T) (*chi.Mux, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	contacts := store.NewContactStore(db, logger)
	emails := store.NewEmailStore(db, logger)
	handler := NewContactHandler(contacts, emails)

	r := chi.NewRouter()
	r.Get("/contacts", handler.List)
	r.Post("/contacts", handler.Create)
	r.Get("/contacts/{id}/stats", handler.Stats)
	r.Delete("/contacts/by-email/{email}", handler.DeleteByEmail)
	r.Delete("/contacts/{name}", handler.Delete)
	return r, db
}

func contactPayload(name, email string) map[string]interface{} {
	return map[string]interface{}{
		"name": name,
		"contact_methods": []map[string]interface{}{
			{"type": "email", "value": email, "is_primary": true},
		},
	}
}

func TestContactsCreateAndList(t *testing.T) {
	router, _ := setupContactRouter(t)

	req := testutil.UnauthenticatedRequest(t, http.MethodPost, "/contacts", map[string]interface{}{
		"name":    "Alice Chen",
		"company": "Initech",
		"contact_methods": []map[string]interface{}{
			{"type": "email", "value": "alice@initech.example", "is_primary": true},
			{"type": "phone", "value": "+15550001111"},
		},
		"last_contacted": "2023-05-01",
	})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)

	var created ContactResponse
	testutil.ParseJSONResponse(t, rr, &created)
	assert.Equal(t, "Alice Chen", created.Name)
	assert.Equal(t, "alice@initech.example", created.Email)
	assert.Equal(t, "2023-05-01", created.LastContacted)
	assert.Len(t, created.ContactMethods, 2)

	req = testutil.UnauthenticatedRequest(t, http.MethodGet, "/contacts?company=init", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var listed []ContactResponse
	testutil.ParseJSONResponse(t, rr, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
}

func TestContactsCreateValidation(t *testing.T) {
	router, _ := setupContactRouter(t)

	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing_name", map[string]interface{}{
			"contact_methods": []map[string]interface{}{{"type": "email", "value": "a@b.co"}},
		}},
		{"no_methods", map[string]interface{}{"name": "X"}},
		{"bad_method_type", map[string]interface{}{
			"name":            "X",
			"contact_methods": []map[string]interface{}{{"type": "fax", "value": "123"}},
		}},
		{"bad_date", map[string]interface{}{
			"name":            "X",
			"contact_methods": []map[string]interface{}{{"type": "email", "value": "a@b.co"}},
			"follow_up_date":  "05/01/2023",
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.UnauthenticatedRequest(t, http.MethodPost, "/contacts", tc.body)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			testutil.AssertStatus(t, rr, http.StatusBadRequest)
		})
	}
}

func TestContactsDuplicateMethodConflict(t *testing.T) {
	router, _ := setupContactRouter(t)

	req := testutil.UnauthenticatedRequest(t, http.MethodPost, "/contacts", contactPayload("A", "shared@example.com"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)

	req = testutil.UnauthenticatedRequest(t, http.MethodPost, "/contacts", contactPayload("B", "shared@example.com"))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	testutil.AssertStatus(t, rr, http.StatusConflict)
	assert.Contains(t, rr.Body.String(), "already used by contact A")
}

func TestContactsDeleteDisambiguation(t *testing.T) {
	router, _ := setupContactRouter(t)

	first := contactPayload("C", "c1@example.com")
	first["company"] = "Acme"
	second := contactPayload("C", "c2@example.com")
	second["company"] = "Globex"
	for _, body := range []map[string]interface{}{first, second} {
		req := testutil.UnauthenticatedRequest(t, http.MethodPost, "/contacts", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusCreated)
	}

	// Deleting a missing contact is a 404.
	req := testutil.UnauthenticatedRequest(t, http.MethodDelete, "/contacts/Ghost", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	testutil.AssertStatus(t, rr, http.StatusNotFound)

	// A bare ambiguous name is a 409 listing candidates.
	req = testutil.UnauthenticatedRequest(t, http.MethodDelete, "/contacts/C", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	testutil.AssertStatus(t, rr, http.StatusConflict)
	assert.Contains(t, rr.Body.String(), "Acme")
	assert.Contains(t, rr.Body.String(), "Globex")

	// Narrowed by company it succeeds, leaving the other intact.
	req = testutil.UnauthenticatedRequest(t, http.MethodDelete, "/contacts/C?company=Acme", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	req = testutil.UnauthenticatedRequest(t, http.MethodGet, "/contacts?name=C", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	var remaining []ContactResponse
	testutil.ParseJSONResponse(t, rr, &remaining)
	require.Len(t, remaining, 1)
	assert.Equal(t, "Globex", remaining[0].Company)
}

func TestContactsDeleteByEmail(t *testing.T) {
	router, _ := setupContactRouter(t)

	req := testutil.UnauthenticatedRequest(t, http.MethodPost, "/contacts", contactPayload("Alice", "alice@example.com"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)

	req = testutil.UnauthenticatedRequest(t, http.MethodDelete, "/contacts/by-email/alice@example.com", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	req = testutil.UnauthenticatedRequest(t, http.MethodDelete, "/contacts/by-email/alice@example.com", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestContactsStats(t *testing.T) {
	router, _ := setupContactRouter(t)

	req := testutil.UnauthenticatedRequest(t, http.MethodPost, "/contacts", contactPayload("Alice", "alice@example.com"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)
	var created ContactResponse
	testutil.ParseJSONResponse(t, rr, &created)

	req = testutil.UnauthenticatedRequest(t, http.MethodGet, "/contacts/"+created.ID+"/stats", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var stats store.ContactStats
	testutil.ParseJSONResponse(t, rr, &stats)
	assert.Equal(t, int64(0), stats.TotalSent)

	req = testutil.UnauthenticatedRequest(t, http.MethodGet, "/contacts/not-a-uuid/stats", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}
