package restapi

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/innolab/crmd/config"
	"github.com/innolab/crmd/internal/domain"
	"github.com/innolab/crmd/internal/webserver"
	"github.com/innolab/crmd/pkg/common"
)

var testIndexStatements = []string{
	"CREATE UNIQUE INDEX IF NOT EXISTS uix_crm_user_email_lower ON crm_user (LOWER(email))",
	"CREATE UNIQUE INDEX IF NOT EXISTS uix_crm_product_sku ON crm_product (sku) WHERE sku <> ''",
	"CREATE UNIQUE INDEX IF NOT EXISTS uix_crm_consultant_email_lower ON crm_consultant (LOWER(email))",
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrator().AutoMigrate(domain.Tables...))
	for _, stmt := range testIndexStatements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newTestServer(t *testing.T) (*webserver.WebServer, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	cfg := *config.DefaultAppConfig
	cfg.Web.Debug = false
	ws := webserver.Init(&cfg, db)
	Init()
	return ws, db
}

func doRequest(t *testing.T, ws *webserver.WebServer, method, target string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := jsoniter.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echoHeaderContentType, "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ws.Echo().ServeHTTP(rec, req)
	return rec
}

const echoHeaderContentType = "Content-Type"

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, jsoniter.Unmarshal(rec.Body.Bytes(), out))
}

func seedUser(t *testing.T, db *gorm.DB, email, role string) domain.User {
	t.Helper()
	now := time.Now()
	u := domain.User{
		ID:        common.UUIDint64(),
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedProduct(t *testing.T, db *gorm.DB, name, category, sku string, price float64, ownerID *int64) domain.Product {
	t.Helper()
	now := time.Now()
	p := domain.Product{
		ID:              common.UUIDint64(),
		Name:            name,
		Description:     name + " description",
		Price:           price,
		Category:        category,
		StockQuantity:   10,
		Sku:             sku,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
		CreatedByUserID: ownerID,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func seedClient(t *testing.T, db *gorm.DB, name string) domain.Client {
	t.Helper()
	cl := domain.Client{
		ID:            common.UUIDint64(),
		Name:          name,
		Industry:      "Technology",
		Size:          "medium",
		ContactPerson: "Contact Person",
		Email:         "contact@example.com",
	}
	require.NoError(t, db.Create(&cl).Error)
	return cl
}

func seedTechnology(t *testing.T, db *gorm.DB, name, category string) domain.Technology {
	t.Helper()
	tech := domain.Technology{ID: common.UUIDint64(), Name: name, Category: category}
	require.NoError(t, db.Create(&tech).Error)
	return tech
}

func seedConsultant(t *testing.T, db *gorm.DB, email, availability, department string, experience int, skills ...domain.Technology) domain.Consultant {
	t.Helper()
	now := time.Now()
	con := domain.Consultant{
		ID:           common.UUIDint64(),
		FirstName:    "Alice",
		LastName:     "Consultant",
		Email:        email,
		Title:        "Engineer",
		Department:   department,
		Experience:   experience,
		Availability: availability,
		Skills:       skills,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, db.Create(&con).Error)
	return con
}

func seedProject(t *testing.T, db *gorm.DB, name, status string, client domain.Client, consultant domain.Consultant, techs ...domain.Technology) domain.Project {
	t.Helper()
	now := time.Now()
	p := domain.Project{
		ID:             common.UUIDint64(),
		Name:           name,
		Description:    "A description long enough for validation.",
		ClientID:       client.ID,
		ConsultantID:   consultant.ID,
		Status:         status,
		Priority:       "medium",
		ProjectType:    "development",
		StartDate:      now.AddDate(0, -1, 0),
		EndDate:        now.AddDate(0, 2, 0),
		EstimatedHours: 100,
		Deliverables:   domain.StringList{"Delivery plan"},
		Technologies:   techs,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestPaginationValidation(t *testing.T) {
	ws, _ := newTestServer(t)

	rec := doRequest(t, ws, http.MethodGet, "/api/v1/products?page=0", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]interface{}
	decodeBody(t, rec, &body)
	require.Equal(t, "INVALID_PAGINATION", body["code"])
	require.Contains(t, body["message"], "page must be greater than 0")

	rec = doRequest(t, ws, http.MethodGet, "/api/v1/products?pageSize=101", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	decodeBody(t, rec, &body)
	require.Contains(t, body["message"], "pageSize must be between 1 and 100")

	rec = doRequest(t, ws, http.MethodGet, "/api/v1/products?page=abc", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaginationEnvelope(t *testing.T) {
	ws, db := newTestServer(t)
	for i := 0; i < 25; i++ {
		seedProduct(t, db, fmt.Sprintf("Widget %02d", i), "Tools", fmt.Sprintf("W-%03d", i), 9.99, nil)
	}

	rec := doRequest(t, ws, http.MethodGet, "/api/v1/products?page=3&pageSize=10", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data       []map[string]interface{} `json:"data"`
		Pagination struct {
			Page       int   `json:"page"`
			PageSize   int   `json:"pageSize"`
			TotalCount int64 `json:"totalCount"`
			TotalPages int   `json:"totalPages"`
		} `json:"pagination"`
	}
	decodeBody(t, rec, &body)
	require.Equal(t, 3, body.Pagination.Page)
	require.Equal(t, 10, body.Pagination.PageSize)
	require.EqualValues(t, 25, body.Pagination.TotalCount)
	require.Equal(t, 3, body.Pagination.TotalPages)
	require.Len(t, body.Data, 5)
}

func TestRequestIDHeader(t *testing.T) {
	ws, _ := newTestServer(t)

	rec := doRequest(t, ws, http.MethodGet, "/api/v1/products", nil, nil)
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = doRequest(t, ws, http.MethodGet, "/api/v1/products", nil, map[string]string{"X-Request-Id": "trace-123"})
	require.Equal(t, "trace-123", rec.Header().Get("X-Request-Id"))
}

func TestHealthEndpoints(t *testing.T) {
	ws, _ := newTestServer(t)

	rec := doRequest(t, ws, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Healthy", rec.Body.String())

	rec = doRequest(t, ws, http.MethodGet, "/health/ready", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestStatisticsVersionGate(t *testing.T) {
	ws, db := newTestServer(t)
	seedUser(t, db, "stat@example.com", domain.RoleUser)

	// v1 never exposes statistics.
	rec := doRequest(t, ws, http.MethodGet, "/api/v1/users/statistics", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, ws, http.MethodGet, "/api/v2/users/statistics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Unversioned tree resolves via query parameter, then header.
	rec = doRequest(t, ws, http.MethodGet, "/api/users/statistics", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, ws, http.MethodGet, "/api/users/statistics?version=2", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, ws, http.MethodGet, "/api/users/statistics", nil, map[string]string{"X-Version": "2.0"})
	require.Equal(t, http.StatusOK, rec.Code)
}
