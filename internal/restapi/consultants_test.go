package restapi

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/innolab/crmd/internal/domain"
)

func TestConsultantCreateRoundTrip(t *testing.T) {
	ws, db := newTestServer(t)
	react := seedTechnology(t, db, "React", "frontend")

	rec := doRequest(t, ws, http.MethodPost, "/api/v1/consultants", map[string]interface{}{
		"firstName":    "Nora",
		"lastName":     "Vega",
		"email":        "nora.vega@example.com",
		"title":        "Frontend Developer",
		"department":   "Engineering",
		"experience":   4,
		"availability": "available",
		"skills":       []string{fmt.Sprint(react.ID)},
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var con domain.Consultant
	decodeBody(t, rec, &con)
	require.Equal(t, fmt.Sprintf("/api/v1/consultants/%d", con.ID), rec.Header().Get("Location"))
	require.Len(t, con.Skills, 1)

	rec = doRequest(t, ws, http.MethodGet, fmt.Sprintf("/api/v1/consultants/%d", con.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched domain.Consultant
	decodeBody(t, rec, &fetched)
	require.Equal(t, "React", fetched.Skills[0].Name)
}

func TestConsultantDuplicateEmail(t *testing.T) {
	ws, db := newTestServer(t)
	seedConsultant(t, db, "dup@example.com", domain.AvailabilityAvailable, "Engineering", 5)

	rec := doRequest(t, ws, http.MethodPost, "/api/v1/consultants", map[string]interface{}{
		"firstName":    "Copy",
		"lastName":     "Cat",
		"email":        "DUP@example.com",
		"title":        "Engineer",
		"availability": "busy",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]interface{}
	decodeBody(t, rec, &body)
	require.Equal(t, "DUPLICATE_EMAIL", body["code"])
}

func TestConsultantUpdateDuplicateEmail(t *testing.T) {
	ws, db := newTestServer(t)
	seedConsultant(t, db, "taken@example.com", domain.AvailabilityAvailable, "Engineering", 5)
	mover := seedConsultant(t, db, "mover@example.com", domain.AvailabilityAvailable, "Engineering", 7)

	rec := doRequest(t, ws, http.MethodPut, fmt.Sprintf("/api/v1/consultants/%d", mover.ID), map[string]interface{}{
		"email": "TAKEN@example.com",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]interface{}
	decodeBody(t, rec, &body)
	require.Equal(t, "DUPLICATE_EMAIL", body["code"])
	require.Contains(t, body["message"], "TAKEN@example.com")

	var reloaded domain.Consultant
	require.NoError(t, db.Where("id = ?", mover.ID).First(&reloaded).Error)
	require.Equal(t, "mover@example.com", reloaded.Email)
}

func TestConsultantFilters(t *testing.T) {
	ws, db := newTestServer(t)
	react := seedTechnology(t, db, "React", "frontend")
	terraform := seedTechnology(t, db, "Terraform", "devops")
	seedConsultant(t, db, "fe@example.com", domain.AvailabilityAvailable, "Engineering", 3, react)
	seedConsultant(t, db, "ops@example.com", domain.AvailabilityBusy, "Infrastructure", 8, terraform)
	seedConsultant(t, db, "arch@example.com", domain.AvailabilityAvailable, "Cloud Services", 12, react, terraform)

	type listBody struct {
		Data []domain.Consultant `json:"data"`
		Pagination struct {
			TotalCount int64 `json:"totalCount"`
		} `json:"pagination"`
	}

	rec := doRequest(t, ws, http.MethodGet, "/api/v1/consultants?availability=available", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body listBody
	decodeBody(t, rec, &body)
	require.EqualValues(t, 2, body.Pagination.TotalCount)

	rec = doRequest(t, ws, http.MethodGet, "/api/v1/consultants?availability=sleeping", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, ws, http.MethodGet, "/api/v1/consultants?skill=terraform", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = listBody{}
	decodeBody(t, rec, &body)
	require.EqualValues(t, 2, body.Pagination.TotalCount)

	rec = doRequest(t, ws, http.MethodGet, "/api/v1/consultants?experienceMin=5&experienceMax=10", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = listBody{}
	decodeBody(t, rec, &body)
	require.EqualValues(t, 1, body.Pagination.TotalCount)
	require.Equal(t, "ops@example.com", body.Data[0].Email)

	rec = doRequest(t, ws, http.MethodGet, "/api/v1/consultants?department=engineering,infrastructure", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = listBody{}
	decodeBody(t, rec, &body)
	require.EqualValues(t, 2, body.Pagination.TotalCount)
}

func TestConsultantUpdateReplacesSkills(t *testing.T) {
	ws, db := newTestServer(t)
	react := seedTechnology(t, db, "React", "frontend")
	vue := seedTechnology(t, db, "Vue.js", "frontend")
	con := seedConsultant(t, db, "swap@example.com", domain.AvailabilityAvailable, "Engineering", 6, react)

	rec := doRequest(t, ws, http.MethodPut, fmt.Sprintf("/api/v1/consultants/%d", con.ID), map[string]interface{}{
		"availability": "busy",
		"skills":       []string{fmt.Sprint(vue.ID)},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated domain.Consultant
	decodeBody(t, rec, &updated)
	require.Equal(t, domain.AvailabilityBusy, updated.Availability)
	require.Len(t, updated.Skills, 1)
	require.Equal(t, "Vue.js", updated.Skills[0].Name)
	// Untouched fields survive the partial update.
	require.Equal(t, "swap@example.com", updated.Email)
}

func TestConsultantDeleteDetachesCertifications(t *testing.T) {
	ws, db := newTestServer(t)
	react := seedTechnology(t, db, "React", "frontend")
	con := seedConsultant(t, db, "leaving@example.com", domain.AvailabilityAvailable, "Engineering", 6, react)

	cert := domain.Certification{
		ID:                  con.ID + 1,
		Name:                "React Professional",
		IssuingOrganization: "Meta",
		Category:            "development",
		Level:               "professional",
		Status:              domain.CertStatusActive,
		VerificationStatus:  "verified",
		ConsultantID:        &con.ID,
	}
	require.NoError(t, db.Create(&cert).Error)

	rec := doRequest(t, ws, http.MethodDelete, fmt.Sprintf("/api/v1/consultants/%d", con.ID), nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	var reloaded domain.Certification
	require.NoError(t, db.Where("id = ?", cert.ID).First(&reloaded).Error)
	require.Nil(t, reloaded.ConsultantID)

	var pivotRows int64
	db.Table("crm_consultant_skill").Count(&pivotRows)
	require.EqualValues(t, 0, pivotRows)
}

func TestConsultantStatistics(t *testing.T) {
	ws, db := newTestServer(t)
	seedConsultant(t, db, "a@example.com", domain.AvailabilityAvailable, "Engineering", 4)
	seedConsultant(t, db, "b@example.com", domain.AvailabilityBusy, "Engineering", 8)

	rec := doRequest(t, ws, http.MethodGet, "/api/v1/consultants/statistics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		TotalConsultants int64 `json:"totalConsultants"`
		ByAvailability   []struct {
			Availability string `json:"availability"`
			Count        int64  `json:"count"`
		} `json:"byAvailability"`
		ByDepartment []struct {
			Department string `json:"department"`
			Count      int64  `json:"count"`
		} `json:"byDepartment"`
		AvgExperience float64 `json:"avgExperience"`
	}
	decodeBody(t, rec, &body)
	require.EqualValues(t, 2, body.TotalConsultants)
	require.Equal(t, "Engineering", body.ByDepartment[0].Department)
	require.EqualValues(t, 2, body.ByDepartment[0].Count)
	require.Equal(t, 6.0, body.AvgExperience)
}
