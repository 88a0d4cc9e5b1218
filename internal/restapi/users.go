package restapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/innolab/crmd/internal/domain"
	"github.com/innolab/crmd/internal/webserver"
	"github.com/innolab/crmd/pkg/common"
)

type createUserPayload struct {
	FirstName   string `json:"firstName" validate:"required,min=1,max=50"`
	LastName    string `json:"lastName" validate:"required,min=1,max=50"`
	Email       string `json:"email" validate:"required,email,max=100"`
	PhoneNumber string `json:"phoneNumber" validate:"max=20"`
	Role        string `json:"role"`
}

type updateUserPayload struct {
	FirstName   *string `json:"firstName" validate:"omitempty,min=1,max=50"`
	LastName    *string `json:"lastName" validate:"omitempty,min=1,max=50"`
	Email       *string `json:"email" validate:"omitempty,email,max=100"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,max=20"`
	Role        *string `json:"role"`
	IsActive    *bool   `json:"isActive"`
}

func registerUserRoutes() {
	webserver.ApiGET("/users", listUsers)
	webserver.ApiGET("/users/search", searchUsers)
	webserver.ApiGET("/users/statistics", userStatistics)
	webserver.ApiGET("/users/email/:email", getUserByEmail)
	webserver.ApiGET("/users/:id", getUser)
	webserver.ApiPOST("/users", createUser)
	webserver.ApiPOST("/users/:id/login", touchUserLogin)
	webserver.ApiPUT("/users/:id", updateUser)
	webserver.ApiDELETE("/users/:id", deleteUser)
}

func listUsers(c echo.Context) error {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_PAGINATION", err.Error(), nil)
	}
	isActive, err := parseBoolParam(c, "isActive")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}

	db := GetDB(c).Model(&domain.User{})
	if role := strings.TrimSpace(c.QueryParam("role")); role != "" {
		if !domain.ValidRole(role) {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown role "+role, nil)
		}
		db = db.Where("role = ?", strings.ToLower(role))
	}
	if isActive != nil {
		db = db.Where("is_active = ?", *isActive)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query users", err.Error())
	}

	rows := make([]domain.User, 0)
	if err := db.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query users", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func searchUsers(c echo.Context) error {
	q := c.QueryParam("q")
	if strings.TrimSpace(q) == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Search query is required", nil)
	}
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_PAGINATION", err.Error(), nil)
	}

	db := GetDB(c).Model(&domain.User{}).Where("is_active = ?", true)
	pattern := containsPattern(q)
	db = db.Where(
		GetDB(c).Where(containsClause(db, "first_name"), pattern).
			Or(containsClause(db, "last_name"), pattern).
			Or(containsClause(db, "email"), pattern),
	)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to search users", err.Error())
	}

	rows := make([]domain.User, 0)
	if err := db.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to search users", err.Error())
	}
	return searchPaged(c, rows, total, page, pageSize, q)
}

func getUser(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
	}
	var u domain.User
	if err := GetDB(c).Where("id = ?", id).First(&u).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "USER_NOT_FOUND", fmt.Sprintf("User with ID %d not found", id), nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query user", err.Error())
	}
	return ok(c, u)
}

func getUserByEmail(c echo.Context) error {
	email := c.Param("email")
	var u domain.User
	if err := GetDB(c).Where("LOWER(email) = ?", strings.ToLower(email)).First(&u).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "USER_NOT_FOUND", fmt.Sprintf("User with email %s not found", email), nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query user", err.Error())
	}
	return ok(c, u)
}

func createUser(c echo.Context) error {
	var payload createUserPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse user", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "User validation failed", err.Error())
	}
	role := domain.RoleUser
	if payload.Role != "" {
		if !domain.ValidRole(payload.Role) {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown role "+payload.Role, nil)
		}
		role = strings.ToLower(payload.Role)
	}

	now := time.Now()
	u := domain.User{
		ID:          common.UUIDint64(),
		FirstName:   strings.TrimSpace(payload.FirstName),
		LastName:    strings.TrimSpace(payload.LastName),
		Email:       strings.TrimSpace(payload.Email),
		PhoneNumber: payload.PhoneNumber,
		Role:        role,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	// The unique index on LOWER(email) is the source of truth for
	// duplicates; no pre-read here.
	if err := GetDB(c).Create(&u).Error; err != nil {
		if isUniqueViolation(err) {
			return fail(c, http.StatusBadRequest, "DUPLICATE_EMAIL",
				fmt.Sprintf("User with email %s already exists", u.Email), nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create user", err.Error())
	}
	return created(c, fmt.Sprintf("/api/v1/users/%d", u.ID), u)
}

func updateUser(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
	}
	var u domain.User
	if err := GetDB(c).Where("id = ?", id).First(&u).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "USER_NOT_FOUND", fmt.Sprintf("User with ID %d not found", id), nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query user", err.Error())
	}

	var payload updateUserPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse user", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "User validation failed", err.Error())
	}
	if payload.Role != nil && !domain.ValidRole(*payload.Role) {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown role "+*payload.Role, nil)
	}

	// Email change is guarded before the merge so a conflict leaves every
	// field untouched.
	if payload.Email != nil && !strings.EqualFold(*payload.Email, u.Email) {
		var dup domain.User
		err := GetDB(c).Where("LOWER(email) = ? AND id != ?", strings.ToLower(*payload.Email), id).First(&dup).Error
		if err == nil {
			return fail(c, http.StatusBadRequest, "DUPLICATE_EMAIL",
				fmt.Sprintf("User with email %s already exists", *payload.Email), nil)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query user", err.Error())
		}
	}

	updates := map[string]interface{}{}
	if payload.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*payload.FirstName)
	}
	if payload.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*payload.LastName)
	}
	if payload.Email != nil {
		updates["email"] = strings.TrimSpace(*payload.Email)
	}
	if payload.PhoneNumber != nil {
		updates["phone_number"] = *payload.PhoneNumber
	}
	if payload.Role != nil {
		updates["role"] = strings.ToLower(*payload.Role)
	}
	if payload.IsActive != nil {
		updates["is_active"] = *payload.IsActive
	}
	updates["updated_at"] = time.Now()

	if err := GetDB(c).Model(&u).Updates(updates).Error; err != nil {
		if isUniqueViolation(err) {
			return fail(c, http.StatusBadRequest, "DUPLICATE_EMAIL",
				fmt.Sprintf("User with email %s already exists", *payload.Email), nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update user", err.Error())
	}

	GetDB(c).Where("id = ?", id).First(&u)
	return ok(c, u)
}

// deleteUser removes the user and nulls the owning reference on any
// products they created, in one transaction. Products survive deletion.
func deleteUser(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
	}
	var u domain.User
	if err := GetDB(c).Where("id = ?", id).First(&u).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "USER_NOT_FOUND", fmt.Sprintf("User with ID %d not found", id), nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query user", err.Error())
	}

	err = GetDB(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Product{}).
			Where("created_by_user_id = ?", id).
			Update("created_by_user_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&u).Error
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete user", err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func touchUserLogin(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
	}
	result := GetDB(c).Model(&domain.User{}).
		Where("id = ?", id).
		Update("last_login_at", time.Now())
	if result.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update last login", result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "USER_NOT_FOUND", fmt.Sprintf("User with ID %d not found", id), nil)
	}
	return c.NoContent(http.StatusNoContent)
}

type roleStat struct {
	Role  string `json:"role"`
	Count int64  `json:"count"`
}

// userStatistics aggregates in the store instead of materializing the full
// collection in the request path.
func userStatistics(c echo.Context) error {
	if err := requireV2(c); err != nil {
		return err
	}
	db := GetDB(c)
	now := time.Now()

	var total, active int64
	if err := db.Model(&domain.User{}).Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to aggregate users", err.Error())
	}
	db.Model(&domain.User{}).Where("is_active = ?", true).Count(&active)

	byRole := make([]roleStat, 0)
	if err := db.Model(&domain.User{}).
		Select("role, COUNT(*) AS count").
		Group("role").
		Order("count DESC").
		Scan(&byRole).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to aggregate users", err.Error())
	}

	var recentLogins, newUsers int64
	db.Model(&domain.User{}).Where("last_login_at > ?", now.AddDate(0, 0, -7)).Count(&recentLogins)
	db.Model(&domain.User{}).Where("created_at > ?", now.AddDate(0, 0, -30)).Count(&newUsers)

	return ok(c, map[string]interface{}{
		"totalUsers":        total,
		"activeUsers":       active,
		"inactiveUsers":     total - active,
		"usersByRole":       byRole,
		"recentLogins":      recentLogins,
		"newUsersThisMonth": newUsers,
		"generatedAt":       now.UTC(),
	})
}
