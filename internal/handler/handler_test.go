package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/GTDGit/tirestore_api/internal/category"
	"github.com/GTDGit/tirestore_api/internal/config"
	"github.com/GTDGit/tirestore_api/internal/handler"
	"github.com/GTDGit/tirestore_api/internal/middleware"
	"github.com/GTDGit/tirestore_api/internal/models"
	"github.com/GTDGit/tirestore_api/internal/repository"
	"github.com/GTDGit/tirestore_api/internal/service"
	"github.com/GTDGit/tirestore_api/internal/sse"
	"github.com/GTDGit/tirestore_api/internal/testutil"
	"github.com/GTDGit/tirestore_api/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type testServer struct {
	router  *gin.Engine
	token   string
	catalog *repository.CatalogRepository
}

func newTestServer(t *testing.T) *testServer {
	c := qt.New(t)
	ctx := context.Background()

	db := testutil.NewDB(t)
	catalogRepo := repository.NewCatalogRepository(db)
	legacyRepo := repository.NewLegacyTireRepository(db)
	runRepo := repository.NewSyncRunRepository(db)
	adminRepo := repository.NewAdminUserRepository(db)

	utils.InitJWT("handler-secret", time.Hour)
	authSvc := service.NewAdminAuthService(adminRepo)
	c.Assert(authSvc.CreateAdmin(ctx, "ops@example.com", "s3cret", "Ops", models.AdminRoleAdmin), qt.IsNil)

	syncSvc := service.NewTireSyncService(catalogRepo, legacyRepo, runRepo, config.SyncConfig{BatchSize: 50, BatchTimeout: time.Second})
	syncSvc.SetNotifier(sse.NewHubNotifier(sse.NewHub()))

	limiterCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)

	handlers := &handler.Handlers{
		Health:  handler.NewHealthHandler(db, nil),
		Auth:    handler.NewAuthHandler(authSvc, middleware.NewInvalidAuthRateLimiter(limiterCtx, 3, time.Minute)),
		Sync:    handler.NewSyncHandler(syncSvc),
		Catalog: handler.NewCatalogHandler(service.NewCatalogImportService(catalogRepo, category.NewTable())),
		SSE:     handler.NewSSEHandler(sse.NewHub()),
	}

	router := gin.New()
	handler.SetupRoutes(router, handlers, middleware.NewJWTMiddleware())

	srv := &testServer{router: router, catalog: catalogRepo}
	var login struct {
		Token string `json:"token"`
	}
	w := srv.do(t, http.MethodPost, "/v1/admin/auth/login", "", `{"email":"ops@example.com","password":"s3cret"}`)
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	decodeData(c, w, &login)
	srv.token = login.Token
	return srv
}

func (s *testServer) do(t *testing.T, method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeData(c *qt.C, w *httptest.ResponseRecorder, v interface{}) envelope {
	var env envelope
	c.Assert(json.Unmarshal(w.Body.Bytes(), &env), qt.IsNil)
	if v != nil {
		c.Assert(json.Unmarshal(env.Data, v), qt.IsNil)
	}
	return env
}

func TestHealth(t *testing.T) {
	c := qt.New(t)
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/v1/health", "", "")
	c.Assert(w.Code, qt.Equals, http.StatusOK)

	var data map[string]interface{}
	decodeData(c, w, &data)
	c.Assert(data["database"], qt.Equals, "connected")
	c.Assert(data["redis"], qt.Equals, "disabled")
}

func TestAdminRoutesRequireToken(t *testing.T) {
	c := qt.New(t)
	srv := newTestServer(t)
	srv.token = ""

	w := srv.do(t, http.MethodGet, "/v1/admin/sync/status", "", "")
	c.Assert(w.Code, qt.Equals, http.StatusUnauthorized)
}

func TestLoginRateLimited(t *testing.T) {
	c := qt.New(t)
	srv := newTestServer(t)
	srv.token = ""

	body := `{"email":"ops@example.com","password":"wrong"}`
	for i := 0; i < 3; i++ {
		w := srv.do(t, http.MethodPost, "/v1/admin/auth/login", "", body)
		c.Assert(w.Code, qt.Equals, http.StatusUnauthorized)
	}
	w := srv.do(t, http.MethodPost, "/v1/admin/auth/login", "", body)
	c.Assert(w.Code, qt.Equals, http.StatusTooManyRequests)
}

func TestSyncEndpoints(t *testing.T) {
	c := qt.New(t)
	srv := newTestServer(t)
	ctx := context.Background()

	_, err := srv.catalog.UpsertByCode(ctx, []models.CatalogProduct{
		{Code: 1, CategoryID: 1, Designation: "MICHELIN PILOT SPORT 4 205/55R16 91V", StockAvailable: 4, SalePrice: decimal.RequireFromString("120.5"), Active: true},
		{Code: 2, CategoryID: 1, Designation: "PIRELLI P ZERO 245/40R18", StockAvailable: 2, SalePrice: decimal.Zero, Active: true},
		{Code: 3, CategoryID: 2, Designation: "JANTE ALU 16", StockAvailable: 1, SalePrice: decimal.RequireFromString("300"), Active: true},
	})
	c.Assert(err, qt.IsNil)

	// Dry run writes nothing.
	w := srv.do(t, http.MethodPost, "/v1/admin/sync/legacy-tires", "", `{"dryRun":true}`)
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	var result models.SyncResult
	decodeData(c, w, &result)
	c.Assert(result.DryRun, qt.IsTrue)
	c.Assert(result.SuccessCount, qt.Equals, 1)
	c.Assert(result.SkippedCount, qt.Equals, 1)

	// Empty body uses the defaults.
	w = srv.do(t, http.MethodPost, "/v1/admin/sync/legacy-tires", "", "")
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	decodeData(c, w, &result)
	c.Assert(result.Scope, qt.Equals, models.SyncScopeTires)
	c.Assert(result.SuccessCount, qt.Equals, 1)
	c.Assert(result.RunID, qt.Not(qt.Equals), "")

	w = srv.do(t, http.MethodPost, "/v1/admin/sync/legacy-tires", "", `{"batchSize":-1}`)
	c.Assert(w.Code, qt.Equals, http.StatusBadRequest)

	w = srv.do(t, http.MethodGet, "/v1/admin/sync/status", "", "")
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	var status models.SyncStatus
	decodeData(c, w, &status)
	c.Assert(status.CatalogCount, qt.Equals, 3)
	c.Assert(status.LegacyCount, qt.Equals, 1)
	c.Assert(status.LastSyncTimestamp, qt.IsNotNil)

	w = srv.do(t, http.MethodGet, "/v1/admin/sync/runs?limit=5", "", "")
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	var runs []models.SyncRun
	decodeData(c, w, &runs)
	c.Assert(runs, qt.HasLen, 1)

	rim, err := srv.catalog.GetByCode(ctx, 3)
	c.Assert(err, qt.IsNil)
	w = srv.do(t, http.MethodPost, "/v1/admin/sync/legacy-tires/products/"+strconv.Itoa(rim.ID), "", "")
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	var one models.SyncOneResult
	env := decodeData(c, w, &one)
	c.Assert(env.Message, qt.Equals, "Nothing to sync")
	c.Assert(one.Synced, qt.IsFalse)

	w = srv.do(t, http.MethodPost, "/v1/admin/sync/legacy-tires/products/99999", "", "")
	c.Assert(w.Code, qt.Equals, http.StatusNotFound)

	w = srv.do(t, http.MethodPost, "/v1/admin/sync/legacy-tires/products/abc", "", "")
	c.Assert(w.Code, qt.Equals, http.StatusBadRequest)
}

func TestCatalogEndpoints(t *testing.T) {
	c := qt.New(t)
	srv := newTestServer(t)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	c.Assert(f.SetSheetRow(sheet, "A1", &[]interface{}{"code", "designation", "prix vente"}), qt.IsNil)
	c.Assert(f.SetSheetRow(sheet, "A2", &[]interface{}{10, "MICHELIN PILOT 205/55R16", 99}), qt.IsNil)
	xlsx, err := f.WriteToBuffer()
	c.Assert(err, qt.IsNil)
	c.Assert(f.Close(), qt.IsNil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "catalog.xlsx")
	c.Assert(err, qt.IsNil)
	_, err = part.Write(xlsx.Bytes())
	c.Assert(err, qt.IsNil)
	c.Assert(mw.Close(), qt.IsNil)

	w := srv.do(t, http.MethodPost, "/v1/admin/catalog/import", mw.FormDataContentType(), body.String())
	c.Assert(w.Code, qt.Equals, http.StatusOK, qt.Commentf("%s", w.Body.String()))
	var imported service.ImportResult
	decodeData(c, w, &imported)
	c.Assert(imported.Upserted, qt.Equals, 1)

	p, err := srv.catalog.GetByCode(context.Background(), 10)
	c.Assert(err, qt.IsNil)
	path := "/v1/admin/catalog/products/" + strconv.Itoa(p.ID)

	w = srv.do(t, http.MethodGet, path, "", "")
	c.Assert(w.Code, qt.Equals, http.StatusOK)

	w = srv.do(t, http.MethodPut, path+"/status", "", `{"active":false}`)
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	w = srv.do(t, http.MethodPut, path+"/status", "", `{}`)
	c.Assert(w.Code, qt.Equals, http.StatusBadRequest)

	w = srv.do(t, http.MethodDelete, path, "", "")
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	w = srv.do(t, http.MethodGet, path, "", "")
	c.Assert(w.Code, qt.Equals, http.StatusNotFound)

	w = srv.do(t, http.MethodGet, "/v1/admin/catalog/categories", "", "")
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	var categories []category.Category
	decodeData(c, w, &categories)
	c.Assert(categories, qt.HasLen, 7)
}

func TestSSERequiresToken(t *testing.T) {
	c := qt.New(t)
	srv := newTestServer(t)
	srv.token = ""

	w := srv.do(t, http.MethodGet, "/v1/admin/sse", "", "")
	c.Assert(w.Code, qt.Equals, http.StatusUnauthorized)
	w = srv.do(t, http.MethodGet, "/v1/admin/sse?token=bad", "", "")
	c.Assert(w.Code, qt.Equals, http.StatusUnauthorized)
}
