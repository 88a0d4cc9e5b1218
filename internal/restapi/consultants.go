package restapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/montanaflynn/stats"
	"gorm.io/gorm"

	"github.com/innolab/crmd/internal/domain"
	"github.com/innolab/crmd/internal/webserver"
	"github.com/innolab/crmd/pkg/common"
)

type consultantPayload struct {
	FirstName    string   `json:"firstName" validate:"required,min=1,max=50"`
	LastName     string   `json:"lastName" validate:"required,min=1,max=50"`
	Email        string   `json:"email" validate:"required,email,max=100"`
	Phone        string   `json:"phone" validate:"max=20"`
	Title        string   `json:"title" validate:"required,min=1,max=100"`
	Department   string   `json:"department" validate:"max=50"`
	Experience   int      `json:"experience" validate:"gte=0,lte=60"`
	Availability string   `json:"availability" validate:"required"`
	Skills       []string `json:"skills"`
}

type updateConsultantPayload struct {
	FirstName    *string   `json:"firstName" validate:"omitempty,min=1,max=50"`
	LastName     *string   `json:"lastName" validate:"omitempty,min=1,max=50"`
	Email        *string   `json:"email" validate:"omitempty,email,max=100"`
	Phone        *string   `json:"phone" validate:"omitempty,max=20"`
	Title        *string   `json:"title" validate:"omitempty,min=1,max=100"`
	Department   *string   `json:"department" validate:"omitempty,max=50"`
	Experience   *int      `json:"experience" validate:"omitempty,gte=0,lte=60"`
	Availability *string   `json:"availability"`
	Skills       *[]string `json:"skills"`
}

func registerConsultantRoutes() {
	webserver.ApiGET("/consultants", listConsultants)
	webserver.ApiGET("/consultants/statistics", consultantStatistics)
	webserver.ApiGET("/consultants/:id", getConsultant)
	webserver.ApiPOST("/consultants", createConsultant)
	webserver.ApiPUT("/consultants/:id", updateConsultant)
	webserver.ApiDELETE("/consultants/:id", deleteConsultant)
}

func listConsultants(c echo.Context) error {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_PAGINATION", err.Error(), nil)
	}
	availability, err := parseCsvEnum(c, "availability", domain.ValidAvailability)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}

	db := GetDB(c).Model(&domain.Consultant{})
	if len(availability) > 0 {
		db = db.Where("availability IN ?", availability)
	}
	if departments := common.SplitCsv(c.QueryParam("department")); len(departments) > 0 {
		for i := range departments {
			departments[i] = strings.ToLower(departments[i])
		}
		db = db.Where("LOWER(department) IN ?", departments)
	}
	if skills := common.SplitCsv(c.QueryParam("skill")); len(skills) > 0 {
		for i := range skills {
			skills[i] = strings.ToLower(skills[i])
		}
		db = db.Where("crm_consultant.id IN (?)", GetDB(c).
			Table("crm_consultant_skill").
			Select("crm_consultant_skill.consultant_id").
			Joins("JOIN crm_technology ON crm_technology.id = crm_consultant_skill.technology_id").
			Where("LOWER(crm_technology.name) IN ?", skills))
	}
	if expMin, err := parseFloatParam(c, "experienceMin"); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	} else if expMin != nil {
		db = db.Where("experience >= ?", *expMin)
	}
	if expMax, err := parseFloatParam(c, "experienceMax"); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	} else if expMax != nil {
		db = db.Where("experience <= ?", *expMax)
	}
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		pattern := containsPattern(q)
		db = db.Where(
			GetDB(c).Where(containsClause(db, "first_name"), pattern).
				Or(containsClause(db, "last_name"), pattern).
				Or(containsClause(db, "email"), pattern).
				Or(containsClause(db, "title"), pattern),
		)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query consultants", err.Error())
	}

	rows := make([]domain.Consultant, 0)
	if err := db.Preload("Skills").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query consultants", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getConsultant(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid consultant ID", nil)
	}
	var con domain.Consultant
	if err := GetDB(c).Preload("Skills").Where("id = ?", id).First(&con).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "CONSULTANT_NOT_FOUND", fmt.Sprintf("Consultant with ID %d not found", id), nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query consultant", err.Error())
	}
	return ok(c, con)
}

func createConsultant(c echo.Context) error {
	var payload consultantPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse consultant", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Consultant validation failed", err.Error())
	}
	if !domain.ValidAvailability(payload.Availability) {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown availability "+payload.Availability, nil)
	}

	db := GetDB(c)
	skills, err := resolveTechnologies(db, payload.Skills)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}

	now := time.Now()
	con := domain.Consultant{
		ID:           common.UUIDint64(),
		FirstName:    strings.TrimSpace(payload.FirstName),
		LastName:     strings.TrimSpace(payload.LastName),
		Email:        strings.TrimSpace(payload.Email),
		Phone:        payload.Phone,
		Title:        strings.TrimSpace(payload.Title),
		Department:   payload.Department,
		Experience:   payload.Experience,
		Availability: strings.ToLower(payload.Availability),
		Skills:       skills,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.Create(&con).Error; err != nil {
		if isUniqueViolation(err) {
			return fail(c, http.StatusBadRequest, "DUPLICATE_EMAIL",
				fmt.Sprintf("Consultant with email %s already exists", con.Email), nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create consultant", err.Error())
	}
	return created(c, fmt.Sprintf("/api/v1/consultants/%d", con.ID), con)
}

func updateConsultant(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid consultant ID", nil)
	}
	var con domain.Consultant
	if err := GetDB(c).Where("id = ?", id).First(&con).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "CONSULTANT_NOT_FOUND", fmt.Sprintf("Consultant with ID %d not found", id), nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query consultant", err.Error())
	}

	var payload updateConsultantPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse consultant", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Consultant validation failed", err.Error())
	}
	if payload.Availability != nil && !domain.ValidAvailability(*payload.Availability) {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown availability "+*payload.Availability, nil)
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
	if payload.Phone != nil {
		updates["phone"] = *payload.Phone
	}
	if payload.Title != nil {
		updates["title"] = strings.TrimSpace(*payload.Title)
	}
	if payload.Department != nil {
		updates["department"] = *payload.Department
	}
	if payload.Experience != nil {
		updates["experience"] = *payload.Experience
	}
	if payload.Availability != nil {
		updates["availability"] = strings.ToLower(*payload.Availability)
	}
	updates["updated_at"] = time.Now()

	db := GetDB(c)
	if err := db.Model(&con).Updates(updates).Error; err != nil {
		if isUniqueViolation(err) {
			email := con.Email
			if payload.Email != nil {
				email = strings.TrimSpace(*payload.Email)
			}
			return fail(c, http.StatusBadRequest, "DUPLICATE_EMAIL",
				fmt.Sprintf("Consultant with email %s already exists", email), nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update consultant", err.Error())
	}
	if payload.Skills != nil {
		skills, err := resolveTechnologies(db, *payload.Skills)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		}
		if err := db.Model(&con).Association("Skills").Replace(skills); err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update consultant skills", err.Error())
		}
	}

	db.Preload("Skills").Where("id = ?", id).First(&con)
	return ok(c, con)
}

func deleteConsultant(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid consultant ID", nil)
	}
	var con domain.Consultant
	if err := GetDB(c).Where("id = ?", id).First(&con).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "CONSULTANT_NOT_FOUND", fmt.Sprintf("Consultant with ID %d not found", id), nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query consultant", err.Error())
	}
	err = GetDB(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&con).Association("Skills").Clear(); err != nil {
			return err
		}
		// Certifications survive with the consultant link cleared.
		if err := tx.Model(&domain.Certification{}).
			Where("consultant_id = ?", id).
			Update("consultant_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&con).Error
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete consultant", err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type availabilityStat struct {
	Availability string `json:"availability"`
	Count        int64  `json:"count"`
}

type departmentStat struct {
	Department string `json:"department"`
	Count      int64  `json:"count"`
}

func consultantStatistics(c echo.Context) error {
	db := GetDB(c)

	var total int64
	if err := db.Model(&domain.Consultant{}).Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to aggregate consultants", err.Error())
	}

	byAvailability := make([]availabilityStat, 0)
	db.Model(&domain.Consultant{}).
		Select("availability, COUNT(*) AS count").
		Group("availability").
		Order("count DESC").
		Scan(&byAvailability)

	byDepartment := make([]departmentStat, 0)
	db.Model(&domain.Consultant{}).
		Where("department != ''").
		Select("department, COUNT(*) AS count").
		Group("department").
		Order("count DESC").
		Scan(&byDepartment)

	var experience []float64
	db.Model(&domain.Consultant{}).Pluck("experience", &experience)
	var avgExperience float64
	if len(experience) > 0 {
		avgExperience, _ = stats.Mean(experience)
	}

	return ok(c, map[string]interface{}{
		"totalConsultants": total,
		"byAvailability":   byAvailability,
		"byDepartment":     byDepartment,
		"avgExperience":    avgExperience,
		"generatedAt":      time.Now().UTC(),
	})
}
