package restapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/innolab/crmd/internal/domain"
	"github.com/innolab/crmd/internal/webserver"
	"github.com/innolab/crmd/pkg/common"
)

type certificationPayload struct {
	Name                string  `json:"name" validate:"required,min=1,max=100"`
	IssuingOrganization string  `json:"issuingOrganization" validate:"required,min=1,max=100"`
	IssueDate           string  `json:"issueDate" validate:"required"`
	ExpirationDate      *string `json:"expirationDate"`
	CredentialID        string  `json:"credentialId" validate:"max=100"`
	CredentialURL       string  `json:"credentialUrl" validate:"omitempty,url,max=300"`
	Description         string  `json:"description" validate:"max=1000"`
	Category            string  `json:"category" validate:"required"`
	Level               string  `json:"level" validate:"required"`
	VerificationStatus  string  `json:"verificationStatus"`
	ConsultantID        *string `json:"consultantId"`
}

type updateCertificationPayload struct {
	Name                *string `json:"name" validate:"omitempty,min=1,max=100"`
	IssuingOrganization *string `json:"issuingOrganization" validate:"omitempty,min=1,max=100"`
	IssueDate           *string `json:"issueDate"`
	ExpirationDate      *string `json:"expirationDate"`
	CredentialID        *string `json:"credentialId" validate:"omitempty,max=100"`
	CredentialURL       *string `json:"credentialUrl" validate:"omitempty,url,max=300"`
	Description         *string `json:"description" validate:"omitempty,max=1000"`
	Category            *string `json:"category"`
	Level               *string `json:"level"`
	Status              *string `json:"status"`
	VerificationStatus  *string `json:"verificationStatus"`
	ConsultantID        *string `json:"consultantId"`
}

func registerCertificationRoutes() {
	webserver.ApiGET("/certifications", listCertifications)
	webserver.ApiGET("/certifications/:id", getCertification)
	webserver.ApiPOST("/certifications", createCertification)
	webserver.ApiPUT("/certifications/:id", updateCertification)
	webserver.ApiDELETE("/certifications/:id", deleteCertification)
}

func listCertifications(c echo.Context) error {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_PAGINATION", err.Error(), nil)
	}
	categories, err := parseCsvEnum(c, "category", domain.ValidCertCategory)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}
	levels, err := parseCsvEnum(c, "level", domain.ValidCertLevel)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}
	verifications, err := parseCsvEnum(c, "verificationStatus", domain.ValidCertVerification)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}

	db := GetDB(c).Model(&domain.Certification{})
	if len(categories) > 0 {
		db = db.Where("category IN ?", categories)
	}
	if len(levels) > 0 {
		db = db.Where("level IN ?", levels)
	}
	statuses, err := parseCsvEnum(c, "status", domain.ValidCertStatus)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}
	if len(statuses) > 0 {
		db = db.Where("status IN ?", statuses)
	}
	if len(verifications) > 0 {
		db = db.Where("verification_status IN ?", verifications)
	}
	if org := strings.TrimSpace(c.QueryParam("issuingOrganization")); org != "" {
		db = db.Where("LOWER(issuing_organization) = ?", strings.ToLower(org))
	}
	if raw := strings.TrimSpace(c.QueryParam("expiringWithinDays")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "expiringWithinDays must be a non-negative integer", nil)
		}
		now := time.Now()
		db = db.Where("expiration_date IS NOT NULL AND expiration_date BETWEEN ? AND ?",
			now, now.AddDate(0, 0, days))
	}
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		pattern := containsPattern(q)
		db = db.Where(
			GetDB(c).Where(containsClause(db, "name"), pattern).
				Or(containsClause(db, "issuing_organization"), pattern),
		)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query certifications", err.Error())
	}

	rows := make([]domain.Certification, 0)
	if err := db.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query certifications", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getCertification(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid certification ID", nil)
	}
	var cert domain.Certification
	if err := GetDB(c).Where("id = ?", id).First(&cert).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "CERTIFICATION_NOT_FOUND", fmt.Sprintf("Certification with ID %d not found", id), nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query certification", err.Error())
	}
	return ok(c, cert)
}

func resolveConsultantRef(db *gorm.DB, raw *string) (*int64, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(*raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid consultant id %q", *raw)
	}
	var con domain.Consultant
	if err := db.Where("id = ?", id).First(&con).Error; err != nil {
		return nil, fmt.Errorf("unknown consultant")
	}
	return &id, nil
}

func createCertification(c echo.Context) error {
	var payload certificationPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse certification", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Certification validation failed", err.Error())
	}
	if !domain.ValidCertCategory(payload.Category) {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown category "+payload.Category, nil)
	}
	if !domain.ValidCertLevel(payload.Level) {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown level "+payload.Level, nil)
	}
	verification := "pending"
	if payload.VerificationStatus != "" {
		if !domain.ValidCertVerification(payload.VerificationStatus) {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown verification status "+payload.VerificationStatus, nil)
		}
		verification = strings.ToLower(payload.VerificationStatus)
	}

	issueDate, err := parseDate(payload.IssueDate)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "issueDate must be a date", nil)
	}
	var expirationDate *time.Time
	if payload.ExpirationDate != nil && strings.TrimSpace(*payload.ExpirationDate) != "" {
		parsed, err := parseDate(*payload.ExpirationDate)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "expirationDate must be a date", nil)
		}
		if !parsed.After(issueDate) {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Expiration date must be after issue date", nil)
		}
		expirationDate = &parsed
	}

	db := GetDB(c)
	consultantID, err := resolveConsultantRef(db, payload.ConsultantID)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}

	now := time.Now()
	cert := domain.Certification{
		ID:                  common.UUIDint64(),
		Name:                strings.TrimSpace(payload.Name),
		IssuingOrganization: strings.TrimSpace(payload.IssuingOrganization),
		IssueDate:           issueDate,
		ExpirationDate:      expirationDate,
		CredentialID:        payload.CredentialID,
		CredentialURL:       payload.CredentialURL,
		Description:         payload.Description,
		Category:            strings.ToLower(payload.Category),
		Level:               strings.ToLower(payload.Level),
		VerificationStatus:  verification,
		ConsultantID:        consultantID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	cert.Status = cert.ComputeStatus(now)
	if err := db.Create(&cert).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create certification", err.Error())
	}
	return created(c, fmt.Sprintf("/api/v1/certifications/%d", cert.ID), cert)
}

func updateCertification(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid certification ID", nil)
	}
	var cert domain.Certification
	if err := GetDB(c).Where("id = ?", id).First(&cert).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "CERTIFICATION_NOT_FOUND", fmt.Sprintf("Certification with ID %d not found", id), nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query certification", err.Error())
	}

	var payload updateCertificationPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse certification", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Certification validation failed", err.Error())
	}

	db := GetDB(c)
	updates := map[string]interface{}{}
	if payload.Name != nil {
		updates["name"] = strings.TrimSpace(*payload.Name)
	}
	if payload.IssuingOrganization != nil {
		updates["issuing_organization"] = strings.TrimSpace(*payload.IssuingOrganization)
	}
	if payload.IssueDate != nil {
		issueDate, err := parseDate(*payload.IssueDate)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "issueDate must be a date", nil)
		}
		updates["issue_date"] = issueDate
		cert.IssueDate = issueDate
	}
	if payload.ExpirationDate != nil {
		if strings.TrimSpace(*payload.ExpirationDate) == "" {
			updates["expiration_date"] = nil
			cert.ExpirationDate = nil
		} else {
			parsed, err := parseDate(*payload.ExpirationDate)
			if err != nil {
				return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "expirationDate must be a date", nil)
			}
			updates["expiration_date"] = parsed
			cert.ExpirationDate = &parsed
		}
	}
	if payload.CredentialID != nil {
		updates["credential_id"] = *payload.CredentialID
	}
	if payload.CredentialURL != nil {
		updates["credential_url"] = *payload.CredentialURL
	}
	if payload.Description != nil {
		updates["description"] = *payload.Description
	}
	if payload.Category != nil {
		if !domain.ValidCertCategory(*payload.Category) {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown category "+*payload.Category, nil)
		}
		updates["category"] = strings.ToLower(*payload.Category)
	}
	if payload.Level != nil {
		if !domain.ValidCertLevel(*payload.Level) {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown level "+*payload.Level, nil)
		}
		updates["level"] = strings.ToLower(*payload.Level)
	}
	if payload.VerificationStatus != nil {
		if !domain.ValidCertVerification(*payload.VerificationStatus) {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown verification status "+*payload.VerificationStatus, nil)
		}
		updates["verification_status"] = strings.ToLower(*payload.VerificationStatus)
	}
	if payload.ConsultantID != nil {
		consultantID, err := resolveConsultantRef(db, payload.ConsultantID)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		}
		updates["consultant_id"] = consultantID
	}

	if payload.Status != nil && !domain.ValidCertStatus(*payload.Status) {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown status "+*payload.Status, nil)
	}

	// Revoking is an explicit transition; everything else recomputes from
	// the (possibly updated) expiration date. A revoked certification stays
	// revoked until the caller explicitly moves it back.
	switch {
	case payload.Status != nil && strings.EqualFold(*payload.Status, domain.CertStatusRevoked):
		updates["status"] = domain.CertStatusRevoked
	case payload.Status == nil && cert.Status == domain.CertStatusRevoked:
		// keep
	default:
		cert.Status = domain.CertStatusActive
		updates["status"] = cert.ComputeStatus(time.Now())
	}
	updates["updated_at"] = time.Now()

	if err := db.Model(&cert).Updates(updates).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update certification", err.Error())
	}
	db.Where("id = ?", id).First(&cert)
	return ok(c, cert)
}

func deleteCertification(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid certification ID", nil)
	}
	result := GetDB(c).Where("id = ?", id).Delete(&domain.Certification{})
	if result.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete certification", result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "CERTIFICATION_NOT_FOUND", fmt.Sprintf("Certification with ID %d not found", id), nil)
	}
	return c.NoContent(http.StatusNoContent)
}
