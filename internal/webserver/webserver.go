package webserver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/innolab/crmd/config"
)

const dbContextKey = "crmd.db"

// WebServer wraps the echo engine plus the resources handlers need.
type WebServer struct {
	root      *echo.Echo
	appConfig *config.AppConfig
	db        *gorm.DB
}

var server *WebServer

// Init builds the global web server: middlewares, validator, JSON codec,
// health endpoints and the versioned API groups.
func Init(appConfig *config.AppConfig, db *gorm.DB) *WebServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = appConfig.Web.Debug
	e.JSONSerializer = jsonSerializer{}
	e.Validator = &payloadValidator{validate: validator.New()}

	s := &WebServer{root: e, appConfig: appConfig, db: db}

	e.Use(s.injectDB())
	e.Use(RequestID())
	e.Use(RequestLogger())
	e.Use(Recover())

	e.GET("/health", s.health)
	e.GET("/health/ready", s.healthReady)

	server = s
	return s
}

// Echo exposes the underlying engine.
func (s *WebServer) Echo() *echo.Echo {
	return s.root
}

func (s *WebServer) injectDB() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(dbContextKey, s.db)
			return next(c)
		}
	}
}

// DB retrieves the request-scoped gorm handle.
func DB(c echo.Context) *gorm.DB {
	return c.Get(dbContextKey).(*gorm.DB)
}

func (s *WebServer) health(c echo.Context) error {
	return c.String(http.StatusOK, "Healthy")
}

func (s *WebServer) healthReady(c echo.Context) error {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request().Context())
	}
	if err != nil {
		zap.L().Error("readiness check failed", zap.Error(err))
		return c.String(http.StatusServiceUnavailable, "Unhealthy")
	}
	return c.String(http.StatusOK, "Healthy")
}

// Listen starts serving until the listener fails or Shutdown is called.
func (s *WebServer) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.appConfig.Web.Host, s.appConfig.Web.Port)
	zap.L().Info("starting web server", zap.String("addr", addr))
	err := s.root.Start(addr)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *WebServer) Shutdown(ctx context.Context) error {
	return s.root.Shutdown(ctx)
}

// API version resolution: URL segment first, then the version query
// parameter, then the X-Version header. Unrecognized values fall back to 1.
func ApiVersion(c echo.Context) int {
	path := c.Path()
	switch {
	case strings.HasPrefix(path, "/api/v1/"):
		return 1
	case strings.HasPrefix(path, "/api/v2/"):
		return 2
	}
	raw := c.QueryParam("version")
	if raw == "" {
		raw = c.Request().Header.Get("X-Version")
	}
	switch strings.TrimSpace(raw) {
	case "2", "2.0":
		return 2
	default:
		return 1
	}
}

// apiGroups returns the route groups an endpoint registers on: both
// versioned prefixes plus the unversioned tree resolved via query/header.
func apiGroups() []string {
	return []string{"/api/v1", "/api/v2", "/api"}
}

func ApiGET(path string, h echo.HandlerFunc) {
	for _, prefix := range apiGroups() {
		server.root.GET(prefix+path, h)
	}
}

func ApiPOST(path string, h echo.HandlerFunc) {
	for _, prefix := range apiGroups() {
		server.root.POST(prefix+path, h)
	}
}

func ApiPUT(path string, h echo.HandlerFunc) {
	for _, prefix := range apiGroups() {
		server.root.PUT(prefix+path, h)
	}
}

func ApiPATCH(path string, h echo.HandlerFunc) {
	for _, prefix := range apiGroups() {
		server.root.PATCH(prefix+path, h)
	}
}

func ApiDELETE(path string, h echo.HandlerFunc) {
	for _, prefix := range apiGroups() {
		server.root.DELETE(prefix+path, h)
	}
}

type payloadValidator struct {
	validate *validator.Validate
}

func (v *payloadValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

type jsonSerializer struct{}

func (jsonSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := jsoniter.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsonSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := jsoniter.NewDecoder(c.Request().Body).Decode(i)
	if err == io.EOF {
		return nil
	}
	return err
}
