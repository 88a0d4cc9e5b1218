package restapi

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/innolab/crmd/internal/domain"
)

func TestProjectCreateRoundTrip(t *testing.T) {
	ws, db := newTestServer(t)
	client := seedClient(t, db, "Acme Corp")
	consultant := seedConsultant(t, db, "lead@example.com", domain.AvailabilityAvailable, "Engineering", 9)
	react := seedTechnology(t, db, "React", "frontend")
	golang := seedTechnology(t, db, "Go", "backend")

	rec := doRequest(t, ws, http.MethodPost, "/api/v1/projects", map[string]interface{}{
		"name":           "Portal Rebuild",
		"description":    "Rebuild of the customer portal with a modern stack.",
		"clientId":       fmt.Sprint(client.ID),
		"consultantId":   fmt.Sprint(consultant.ID),
		"status":         "planning",
		"priority":       "high",
		"projectType":    "development",
		"technologies":   []string{fmt.Sprint(react.ID), fmt.Sprint(golang.ID)},
		"startDate":      "2026-01-01",
		"endDate":        "2026-06-30",
		"estimatedHours": 500,
		"budget":         80000.0,
		"deliverables":   []string{"New portal", "Migration plan"},
		"risks":          []string{"Legacy integrations"},
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var p domain.Project
	decodeBody(t, rec, &p)
	require.NotZero(t, p.ID)
	require.Equal(t, "planning", p.Status)
	require.Equal(t, fmt.Sprintf("/api/v1/projects/%d", p.ID), rec.Header().Get("Location"))
	require.NotNil(t, p.Client)
	require.Equal(t, "Acme Corp", p.Client.Name)

	rec = doRequest(t, ws, http.MethodGet, fmt.Sprintf("/api/v1/projects/%d", p.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched domain.Project
	decodeBody(t, rec, &fetched)
	require.Len(t, fetched.Technologies, 2)
	require.Equal(t, domain.StringList{"New portal", "Migration plan"}, fetched.Deliverables)
}

func TestProjectDateValidation(t *testing.T) {
	ws, db := newTestServer(t)
	client := seedClient(t, db, "Acme Corp")
	consultant := seedConsultant(t, db, "lead@example.com", domain.AvailabilityAvailable, "Engineering", 9)
	tech := seedTechnology(t, db, "React", "frontend")

	rec := doRequest(t, ws, http.MethodPost, "/api/v1/projects", map[string]interface{}{
		"name":           "Backwards",
		"description":    "End date precedes the start date here.",
		"clientId":       fmt.Sprint(client.ID),
		"consultantId":   fmt.Sprint(consultant.ID),
		"status":         "planning",
		"priority":       "low",
		"projectType":    "consulting",
		"technologies":   []string{fmt.Sprint(tech.ID)},
		"startDate":      "2026-06-30",
		"endDate":        "2026-01-01",
		"estimatedHours": 100,
		"deliverables":   []string{"Report"},
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]interface{}
	decodeBody(t, rec, &body)
	require.Contains(t, body["message"], "End date must be after start date")
}

func TestProjectFiltersAndSearch(t *testing.T) {
	ws, db := newTestServer(t)
	acme := seedClient(t, db, "Acme Corp")
	globex := seedClient(t, db, "Globex")
	lead := seedConsultant(t, db, "lead@example.com", domain.AvailabilityAvailable, "Engineering", 9)
	react := seedTechnology(t, db, "React", "frontend")
	terraform := seedTechnology(t, db, "Terraform", "devops")

	seedProject(t, db, "Acme Portal", domain.ProjectActive, acme, lead, react)
	seedProject(t, db, "Globex Audit", domain.ProjectCompleted, globex, lead, terraform)
	seedProject(t, db, "Acme Warehouse", domain.ProjectPlanning, acme, lead, react, terraform)

	type listBody struct {
		Data []domain.Project `json:"data"`
		Pagination struct {
			TotalCount int64 `json:"totalCount"`
		} `json:"pagination"`
	}

	// Status IN-set filter.
	rec := doRequest(t, ws, http.MethodGet, "/api/v1/projects?status=active,planning", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body listBody
	decodeBody(t, rec, &body)
	require.EqualValues(t, 2, body.Pagination.TotalCount)

	rec = doRequest(t, ws, http.MethodGet, "/api/v1/projects?status=bogus", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Technology filter goes through the pivot table.
	rec = doRequest(t, ws, http.MethodGet, "/api/v1/projects?technology=terraform", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = listBody{}
	decodeBody(t, rec, &body)
	require.EqualValues(t, 2, body.Pagination.TotalCount)

	// Search is OR across project and related names.
	rec = doRequest(t, ws, http.MethodGet, "/api/v1/projects?q=globex", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = listBody{}
	decodeBody(t, rec, &body)
	require.EqualValues(t, 1, body.Pagination.TotalCount)
	require.Equal(t, "Globex Audit", body.Data[0].Name)

	// Filters are conjunctive: completed AND react matches nothing.
	rec = doRequest(t, ws, http.MethodGet, "/api/v1/projects?status=completed&technology=react", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = listBody{}
	decodeBody(t, rec, &body)
	require.EqualValues(t, 0, body.Pagination.TotalCount)
}

func TestProjectSortWhitelist(t *testing.T) {
	ws, db := newTestServer(t)
	client := seedClient(t, db, "Acme Corp")
	lead := seedConsultant(t, db, "lead@example.com", domain.AvailabilityAvailable, "Engineering", 9)
	seedProject(t, db, "Bravo", domain.ProjectActive, client, lead)
	seedProject(t, db, "Alpha", domain.ProjectActive, client, lead)

	rec := doRequest(t, ws, http.MethodGet, "/api/v1/projects?sort=name&order=asc", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []domain.Project `json:"data"`
	}
	decodeBody(t, rec, &body)
	require.Equal(t, "Alpha", body.Data[0].Name)
	require.Equal(t, "Bravo", body.Data[1].Name)

	rec = doRequest(t, ws, http.MethodGet, "/api/v1/projects?sort=evil", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var errBody map[string]interface{}
	decodeBody(t, rec, &errBody)
	require.Contains(t, errBody["message"], "Unknown sort key")
}

func TestProjectStatusPatch(t *testing.T) {
	ws, db := newTestServer(t)
	client := seedClient(t, db, "Acme Corp")
	lead := seedConsultant(t, db, "lead@example.com", domain.AvailabilityAvailable, "Engineering", 9)
	p := seedProject(t, db, "Patchable", domain.ProjectPlanning, client, lead)

	rec := doRequest(t, ws, http.MethodPatch, fmt.Sprintf("/api/v1/projects/%d/status", p.ID), map[string]interface{}{
		"status": "on-hold",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var reloaded domain.Project
	require.NoError(t, db.Where("id = ?", p.ID).First(&reloaded).Error)
	require.Equal(t, domain.ProjectOnHold, reloaded.Status)

	rec = doRequest(t, ws, http.MethodPatch, fmt.Sprintf("/api/v1/projects/%d/status", p.ID), map[string]interface{}{
		"status": "paused",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjectBulkDelete(t *testing.T) {
	ws, db := newTestServer(t)
	client := seedClient(t, db, "Acme Corp")
	lead := seedConsultant(t, db, "lead@example.com", domain.AvailabilityAvailable, "Engineering", 9)
	react := seedTechnology(t, db, "React", "frontend")
	p1 := seedProject(t, db, "One", domain.ProjectActive, client, lead, react)
	p2 := seedProject(t, db, "Two", domain.ProjectActive, client, lead, react)
	keep := seedProject(t, db, "Keep", domain.ProjectActive, client, lead)

	rec := doRequest(t, ws, http.MethodDelete, "/api/v1/projects", map[string]interface{}{
		"ids": []string{fmt.Sprint(p1.ID), fmt.Sprint(p2.ID)},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	decodeBody(t, rec, &body)
	require.EqualValues(t, 2, body["deleted"])

	var remaining int64
	db.Model(&domain.Project{}).Count(&remaining)
	require.EqualValues(t, 1, remaining)
	var survivor domain.Project
	require.NoError(t, db.Where("id = ?", keep.ID).First(&survivor).Error)

	var pivotRows int64
	db.Table("crm_project_technology").Count(&pivotRows)
	require.EqualValues(t, 0, pivotRows)
}

func TestProjectStatistics(t *testing.T) {
	ws, db := newTestServer(t)
	client := seedClient(t, db, "Acme Corp")
	lead := seedConsultant(t, db, "lead@example.com", domain.AvailabilityAvailable, "Engineering", 9)
	seedProject(t, db, "One", domain.ProjectActive, client, lead)
	seedProject(t, db, "Two", domain.ProjectActive, client, lead)
	seedProject(t, db, "Three", domain.ProjectCompleted, client, lead)

	rec := doRequest(t, ws, http.MethodGet, "/api/v1/projects/statistics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		TotalProjects int64 `json:"totalProjects"`
		ByStatus      []struct {
			Status string `json:"status"`
			Count  int64  `json:"count"`
		} `json:"byStatus"`
		TotalEstimatedHours int64   `json:"totalEstimatedHours"`
		AvgProjectDuration  float64 `json:"avgProjectDuration"`
	}
	decodeBody(t, rec, &body)
	require.EqualValues(t, 3, body.TotalProjects)
	require.Equal(t, "active", body.ByStatus[0].Status)
	require.EqualValues(t, 2, body.ByStatus[0].Count)
	require.EqualValues(t, 300, body.TotalEstimatedHours)
	require.Greater(t, body.AvgProjectDuration, 0.0)
}
