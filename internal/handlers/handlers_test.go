package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-count/internal/auth"
	"stock-count/internal/config"
	"stock-count/internal/inference"
	"stock-count/internal/ledger"
	"stock-count/internal/middleware"
	"stock-count/internal/reconcile"
	"stock-count/internal/services"
	"stock-count/internal/session"
)

const stockList = "id,brand,description,location,qty\n" +
	",,,,[E]Close SC\n" +
	"P001,Acme,Widget,Bay1,10\n" +
	"P002,Bolt,Nut,Bay2,5\n" +
	"P003,Gordons,London Dry Gin,Cellar,12\n"

type testAPI struct {
	router *mux.Router
	store  *session.Store
	token  string
}

func newTestAPI(t *testing.T, uploadLimit int64) *testAPI {
	t.Helper()

	cfg := &config.Config{}
	cfg.Session.Secret = "test-secret"
	cfg.Session.Issuer = "stock-count"
	cfg.Session.TTLHours = 1
	cfg.Session.CookieName = "stock_session"

	store := session.NewStore(time.Hour)
	sessionMW := middleware.NewSessionMiddleware(auth.NewJWTManager(cfg), store, cfg.Session.CookieName, false)

	counts := services.NewCountService(config.DefaultLocations, nil)
	importHandler := NewImportHandler(services.NewImportService(nil), uploadLimit)
	productHandler := NewProductHandler(counts)
	countHandler := NewCountHandler(counts)
	sessionHandler := NewSessionHandler(counts, store, sessionMW, nil)
	searchHandler := NewSearchHandler(services.NewSearchService())
	reportHandler := NewReportHandler(services.NewReportService(counts, nil, time.Minute))
	exportHandler := NewExportHandler(services.NewExportService(nil, time.Minute, nil))

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(sessionMW.Attach)
	api.HandleFunc("/import", importHandler.Import).Methods("POST")
	api.HandleFunc("/products", productHandler.ListProducts).Methods("GET")
	api.HandleFunc("/products/{id}", productHandler.GetProduct).Methods("GET")
	api.HandleFunc("/products/{id}/closed", productHandler.SetClosed).Methods("PUT")
	api.HandleFunc("/search", searchHandler.Search).Methods("GET")
	api.HandleFunc("/search/recent", searchHandler.Recent).Methods("GET")
	api.HandleFunc("/counts", countHandler.RecordCount).Methods("POST")
	api.HandleFunc("/sessions", sessionHandler.ListSessions).Methods("GET")
	api.HandleFunc("/sessions", sessionHandler.StartSession).Methods("POST")
	api.HandleFunc("/locations", sessionHandler.ListLocations).Methods("GET")
	api.HandleFunc("/session", sessionHandler.Teardown).Methods("DELETE")
	api.HandleFunc("/report/summary", reportHandler.GetSummary).Methods("GET")
	api.HandleFunc("/report/canonical.csv", reportHandler.GetCanonicalCSV).Methods("GET")
	api.HandleFunc("/export", exportHandler.Export).Methods("GET")

	return &testAPI{router: r, store: store}
}

// do sends a request on the API's session, adopting any token it is issued
func (a *testAPI) do(method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	if token := rec.Header().Get("X-Session-Token"); token != "" {
		a.token = token
	}
	return rec
}

func (a *testAPI) doJSON(method, path string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	return a.do(method, path, "application/json", data)
}

func (a *testAPI) importList(t *testing.T, raw string) {
	t.Helper()
	rec := a.do(http.MethodPost, "/api/import?filename=stock.csv", "text/csv", []byte(raw))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["error"]
}

func TestImportCountAndExport(t *testing.T) {
	api := newTestAPI(t, 1<<20)

	rec := api.do(http.MethodPost, "/api/import?filename=stock.csv", "text/csv", []byte(stockList))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, api.token)

	var summary struct {
		Filename string `json:"filename"`
		Rows     int    `json:"rows"`
		Strategy string `json:"strategy"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summary))
	assert.Equal(t, "stock.csv", summary.Filename)
	assert.Equal(t, 3, summary.Rows)

	rec = api.doJSON(http.MethodPost, "/api/counts", map[string]interface{}{"product_id": "P001", "count": 5, "location": "Bar 1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = api.doJSON(http.MethodPost, "/api/counts", map[string]interface{}{"product_id": "P001", "count": "3"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(http.MethodGet, "/api/export", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "inventory_report_")
	assert.Contains(t, rec.Body.String(), "P001,Acme,Widget,Bay1,8\n")
	assert.Contains(t, rec.Body.String(), "P002,Bolt,Nut,Bay2,0\n")

	rec = api.do(http.MethodGet, "/api/export?type=counted", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "counted_report_")
	assert.NotContains(t, rec.Body.String(), "P002")

	rec = api.do(http.MethodGet, "/api/export?type=weekly", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, 1, api.store.Len())
}

func TestMultipartImport(t *testing.T) {
	api := newTestAPI(t, 1<<20)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "weekly.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(stockList))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := api.do(http.MethodPost, "/api/import", mw.FormDataContentType(), body.Bytes())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"filename":"weekly.csv"`)
}

func TestImportRejections(t *testing.T) {
	api := newTestAPI(t, 1<<20)

	rec := api.do(http.MethodPost, "/api/import", "text/csv", []byte("id,brand\n1,Acme\n"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "Required column types missing")

	rec = api.do(http.MethodPost, "/api/import", "text/csv", []byte("id,description,qty\n1,Widget,2\n1,Gadget,3\n"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "Duplicate product IDs found")

	rec = api.do(http.MethodPost, "/api/import", "text/csv", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestImportTooLarge(t *testing.T) {
	api := newTestAPI(t, 16)

	rec := api.do(http.MethodPost, "/api/import", "text/csv", []byte(stockList))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRequiresImportedTable(t *testing.T) {
	api := newTestAPI(t, 1<<20)

	for _, path := range []string{"/api/products", "/api/sessions", "/api/report/summary", "/api/export"} {
		rec := api.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, path)
	}

	rec := api.do(http.MethodGet, "/api/locations", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var locations []string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&locations))
	assert.Equal(t, config.DefaultLocations, locations)
}

func TestRecordCountValidation(t *testing.T) {
	api := newTestAPI(t, 1<<20)
	api.importList(t, stockList)

	tests := []struct {
		name string
		body map[string]interface{}
		want int
	}{
		{"missing product", map[string]interface{}{"count": 1}, http.StatusBadRequest},
		{"missing count", map[string]interface{}{"product_id": "P001"}, http.StatusBadRequest},
		{"non numeric count", map[string]interface{}{"product_id": "P001", "count": "lots"}, http.StatusBadRequest},
		{"negative count", map[string]interface{}{"product_id": "P001", "count": -2}, http.StatusBadRequest},
		{"exponent count", map[string]interface{}{"product_id": "P001", "count": "1e50000000"}, http.StatusBadRequest},
		{"unknown product", map[string]interface{}{"product_id": "NOPE", "count": 1}, http.StatusNotFound},
		{"fractional count", map[string]interface{}{"product_id": "P002", "count": 1.5}, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.doJSON(http.MethodPost, "/api/counts", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestProductDetailAndClosedFlag(t *testing.T) {
	api := newTestAPI(t, 1<<20)
	api.importList(t, stockList)

	rec := api.doJSON(http.MethodPut, "/api/products/P002/closed", map[string]bool{"closed": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.doJSON(http.MethodPut, "/api/products/P002/closed", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.doJSON(http.MethodPut, "/api/products/NOPE/closed", map[string]bool{"closed": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodGet, "/api/products/P002", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail services.ProductDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&detail))
	assert.Equal(t, "Bolt", detail.Brand)
	assert.True(t, detail.Closed)
	assert.False(t, detail.Counted)

	rec = api.do(http.MethodGet, "/api/products/NOPE", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchAndRecent(t *testing.T) {
	api := newTestAPI(t, 1<<20)
	api.importList(t, stockList)

	rec := api.do(http.MethodGet, "/api/search?q=gin", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var results []struct {
		Product struct {
			ProductID string `json:"product_id"`
		} `json:"product"`
		Score int `json:"score"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&results))
	require.Len(t, results, 1)
	assert.Equal(t, "P003", results[0].Product.ProductID)

	rec = api.do(http.MethodGet, "/api/search?q=zzz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	rec = api.do(http.MethodGet, "/api/search/recent", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var recent []string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&recent))
	assert.Equal(t, []string{"zzz", "gin"}, recent)
}

func TestSessionsLifecycle(t *testing.T) {
	api := newTestAPI(t, 1<<20)
	api.importList(t, stockList)

	rec := api.doJSON(http.MethodPost, "/api/counts", map[string]interface{}{"product_id": "P001", "count": 4})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.doJSON(http.MethodPost, "/api/sessions", map[string]string{"name": "Week 2"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, "/api/sessions", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(http.MethodGet, "/api/sessions", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view services.SessionsView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Contains(t, view.Current.Name, "Count Session")
	require.Len(t, view.Archived, 1)
	require.Len(t, view.Totals, 1)
	assert.Equal(t, "4", view.Totals[0].Total.String())
}

func TestTeardownStartsFresh(t *testing.T) {
	api := newTestAPI(t, 1<<20)
	api.importList(t, stockList)
	first := api.token

	rec := api.do(http.MethodDelete, "/api/session", "", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, api.store.Len())
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")

	rec = api.do(http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.NotEqual(t, first, api.token)
	assert.Equal(t, 1, api.store.Len())
}

func TestExportMissingMarker(t *testing.T) {
	api := newTestAPI(t, 1<<20)
	api.importList(t, "id,brand,description,location,qty\nP001,Acme,Widget,Bay1,10\nP002,Bolt,Nut,Bay2,5\n")

	rec := api.do(http.MethodGet, "/api/export", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "[E]Close SC")
}

func TestCanonicalCSV(t *testing.T) {
	api := newTestAPI(t, 1<<20)
	api.importList(t, stockList)

	rec := api.do(http.MethodGet, "/api/report/canonical.csv", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "product_id,brand,description"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "canonical_")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(fmt.Errorf("failed to import x: %w", inference.ErrMissingColumns)))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(reconcile.ErrMarkerNotFound))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(session.ErrNoTable))
	assert.Equal(t, http.StatusNotFound, statusFor(fmt.Errorf("%w: X", ledger.ErrUnknownProduct)))
	assert.Equal(t, http.StatusBadRequest, statusFor(ledger.ErrNegativeCount))
	assert.Equal(t, http.StatusBadRequest, statusFor(ledger.ErrCountRange))
	assert.Equal(t, http.StatusRequestEntityTooLarge, statusFor(fmt.Errorf("read: %w", &http.MaxBytesError{Limit: 1})))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}
