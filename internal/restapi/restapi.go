package restapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"gorm.io/gorm"

	"github.com/innolab/crmd/internal/webserver"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Init registers every API route group on the global web server.
func Init() {
	registerProductRoutes()
	registerUserRoutes()
	registerProjectRoutes()
	registerConsultantRoutes()
	registerCertificationRoutes()
}

// GetDB returns the request-scoped gorm handle.
func GetDB(c echo.Context) *gorm.DB {
	return webserver.DB(c)
}

type errorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Detail  interface{} `json:"detail,omitempty"`
}

func fail(c echo.Context, status int, code, message string, detail interface{}) error {
	return c.JSON(status, errorBody{Code: code, Message: message, Detail: detail})
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

func created(c echo.Context, location string, data interface{}) error {
	c.Response().Header().Set(echo.HeaderLocation, location)
	return c.JSON(http.StatusCreated, data)
}

type paginationBody struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
}

type pagedBody struct {
	Data        interface{}    `json:"data"`
	SearchQuery string         `json:"searchQuery,omitempty"`
	Pagination  paginationBody `json:"pagination"`
}

func totalPages(total int64, pageSize int) int {
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

func paged(c echo.Context, data interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, pagedBody{
		Data: data,
		Pagination: paginationBody{
			Page:       page,
			PageSize:   pageSize,
			TotalCount: total,
			TotalPages: totalPages(total, pageSize),
		},
	})
}

func searchPaged(c echo.Context, data interface{}, total int64, page, pageSize int, query string) error {
	return c.JSON(http.StatusOK, pagedBody{
		Data:        data,
		SearchQuery: query,
		Pagination: paginationBody{
			Page:       page,
			PageSize:   pageSize,
			TotalCount: total,
			TotalPages: totalPages(total, pageSize),
		},
	})
}

// parsePagination validates page/pageSize before any query runs.
// Absent parameters use the defaults; out-of-range or non-numeric values
// are a client error.
func parsePagination(c echo.Context) (page, pageSize int, err error) {
	page, pageSize = 1, defaultPageSize
	if raw := strings.TrimSpace(c.QueryParam("page")); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, fmt.Errorf("page must be greater than 0")
		}
	}
	if raw := strings.TrimSpace(c.QueryParam("pageSize")); raw != "" {
		pageSize, err = strconv.Atoi(raw)
		if err != nil || pageSize < 1 || pageSize > maxPageSize {
			return 0, 0, fmt.Errorf("pageSize must be between 1 and %d", maxPageSize)
		}
	}
	return page, pageSize, nil
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// parseBoolParam returns nil when the parameter is absent.
func parseBoolParam(c echo.Context, name string) (*bool, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a boolean", name)
	}
	return &value, nil
}

// parseFloatParam returns nil when the parameter is absent.
func parseFloatParam(c echo.Context, name string) (*float64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	value, err := cast.ToFloat64E(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	return &value, nil
}

// requireV2 guards endpoints that only exist from API version 2 on.
func requireV2(c echo.Context) error {
	if webserver.ApiVersion(c) < 2 {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Endpoint requires API version 2", nil)
	}
	return nil
}

// containsClause builds a case-insensitive substring predicate for the
// active dialect. The pattern must already be lowercased and wrapped in %.
func containsClause(db *gorm.DB, column string) string {
	if db.Dialector.Name() == "postgres" {
		return column + " ILIKE ?"
	}
	return "LOWER(" + column + ") LIKE ?"
}

func containsPattern(q string) string {
	return "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
}

// isUniqueViolation detects duplicate-key failures from the storage layer.
// The unique index is the single source of truth for uniqueness conflicts.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || // postgres 23505
		strings.Contains(msg, "unique constraint") || // sqlite / generic
		strings.Contains(msg, "constraint failed: crm_")
}

// actingUserID resolves the creator stamp from the X-Acting-User header.
// There is no authentication model; absent or malformed headers mean nil.
func actingUserID(c echo.Context) *int64 {
	raw := strings.TrimSpace(c.Request().Header.Get("X-Acting-User"))
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}
