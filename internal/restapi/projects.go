package restapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/montanaflynn/stats"
	"gorm.io/gorm"

	"github.com/innolab/crmd/internal/domain"
	"github.com/innolab/crmd/internal/webserver"
	"github.com/innolab/crmd/pkg/common"
)

type projectPayload struct {
	Name           string   `json:"name" validate:"required,min=1,max=100"`
	Description    string   `json:"description" validate:"required,min=10,max=1000"`
	ClientID       int64    `json:"clientId,string" validate:"required"`
	ConsultantID   int64    `json:"consultantId,string" validate:"required"`
	Status         string   `json:"status" validate:"required"`
	Priority       string   `json:"priority" validate:"required"`
	ProjectType    string   `json:"projectType" validate:"required"`
	Technologies   []string `json:"technologies" validate:"min=1"`
	StartDate      string   `json:"startDate" validate:"required"`
	EndDate        string   `json:"endDate" validate:"required"`
	EstimatedHours int      `json:"estimatedHours" validate:"required,min=1,max=10000"`
	Budget         *float64 `json:"budget"`
	Deliverables   []string `json:"deliverables" validate:"min=1"`
	Risks          []string `json:"risks"`
	Notes          string   `json:"notes" validate:"max=1000"`
}

type updateProjectPayload struct {
	Name           *string   `json:"name" validate:"omitempty,min=1,max=100"`
	Description    *string   `json:"description" validate:"omitempty,min=10,max=1000"`
	ClientID       *string   `json:"clientId"`
	ConsultantID   *string   `json:"consultantId"`
	Status         *string   `json:"status"`
	Priority       *string   `json:"priority"`
	ProjectType    *string   `json:"projectType"`
	Technologies   *[]string `json:"technologies"`
	StartDate      *string   `json:"startDate"`
	EndDate        *string   `json:"endDate"`
	EstimatedHours *int      `json:"estimatedHours" validate:"omitempty,min=1,max=10000"`
	ActualHours    *int      `json:"actualHours" validate:"omitempty,min=0"`
	Budget         *float64  `json:"budget"`
	InvoiceAmount  *float64  `json:"invoiceAmount"`
	Deliverables   *[]string `json:"deliverables"`
	Risks          *[]string `json:"risks"`
	Notes          *string   `json:"notes" validate:"omitempty,max=1000"`
}

func registerProjectRoutes() {
	webserver.ApiGET("/projects", listProjects)
	webserver.ApiGET("/projects/statistics", projectStatistics)
	webserver.ApiGET("/projects/:id", getProject)
	webserver.ApiPOST("/projects", createProject)
	webserver.ApiPUT("/projects/:id", updateProject)
	webserver.ApiPATCH("/projects/:id/status", updateProjectStatus)
	webserver.ApiDELETE("/projects/:id", deleteProject)
	webserver.ApiDELETE("/projects", bulkDeleteProjects)
}

// parseDate accepts RFC 3339 timestamps or plain dates.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

func parseCsvEnum(c echo.Context, name string, valid func(string) bool) ([]string, error) {
	values := common.SplitCsv(c.QueryParam(name))
	lowered := make([]string, 0, len(values))
	for _, v := range values {
		if !valid(v) {
			return nil, fmt.Errorf("unknown %s %q", name, v)
		}
		lowered = append(lowered, strings.ToLower(v))
	}
	return lowered, nil
}

var projectSortColumns = map[string]string{
	"name":      "crm_project.name",
	"status":    "crm_project.status",
	"priority":  "crm_project.priority",
	"startDate": "crm_project.start_date",
	"endDate":   "crm_project.end_date",
	"budget":    "crm_project.budget",
	"createdAt": "crm_project.created_at",
}

func listProjects(c echo.Context) error {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_PAGINATION", err.Error(), nil)
	}

	statuses, err := parseCsvEnum(c, "status", domain.ValidProjectStatus)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}
	priorities, err := parseCsvEnum(c, "priority", domain.ValidProjectPriority)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}
	types, err := parseCsvEnum(c, "projectType", domain.ValidProjectType)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}
	budgetMin, err := parseFloatParam(c, "budgetMin")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}
	budgetMax, err := parseFloatParam(c, "budgetMax")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}

	db := GetDB(c).Model(&domain.Project{}).
		Joins("LEFT JOIN crm_client ON crm_client.id = crm_project.client_id").
		Joins("LEFT JOIN crm_consultant ON crm_consultant.id = crm_project.consultant_id")

	// Conjunctive filters; each multi-value parameter is an IN set.
	if len(statuses) > 0 {
		db = db.Where("crm_project.status IN ?", statuses)
	}
	if len(priorities) > 0 {
		db = db.Where("crm_project.priority IN ?", priorities)
	}
	if len(types) > 0 {
		db = db.Where("crm_project.project_type IN ?", types)
	}
	if techs := common.SplitCsv(c.QueryParam("technology")); len(techs) > 0 {
		for i := range techs {
			techs[i] = strings.ToLower(techs[i])
		}
		db = db.Where("crm_project.id IN (?)", GetDB(c).
			Table("crm_project_technology").
			Select("crm_project_technology.project_id").
			Joins("JOIN crm_technology ON crm_technology.id = crm_project_technology.technology_id").
			Where("LOWER(crm_technology.name) IN ?", techs))
	}

	// Date range filter keeps any project whose span overlaps the window.
	if raw := strings.TrimSpace(c.QueryParam("dateStart")); raw != "" {
		from, err := parseDate(raw)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "dateStart must be a date", nil)
		}
		db = db.Where("crm_project.end_date >= ?", from)
	}
	if raw := strings.TrimSpace(c.QueryParam("dateEnd")); raw != "" {
		to, err := parseDate(raw)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "dateEnd must be a date", nil)
		}
		db = db.Where("crm_project.start_date <= ?", to)
	}
	if budgetMin != nil {
		db = db.Where("crm_project.budget >= ?", *budgetMin)
	}
	if budgetMax != nil {
		db = db.Where("crm_project.budget <= ?", *budgetMax)
	}

	// Text search is OR across project, client and consultant name fields.
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		pattern := containsPattern(q)
		db = db.Where(
			GetDB(c).Where(containsClause(db, "crm_project.name"), pattern).
				Or(containsClause(db, "crm_project.description"), pattern).
				Or(containsClause(db, "crm_client.name"), pattern).
				Or(containsClause(db, "crm_consultant.first_name"), pattern).
				Or(containsClause(db, "crm_consultant.last_name"), pattern),
		)
	}

	order := "crm_project.created_at DESC"
	if sortKey := strings.TrimSpace(c.QueryParam("sort")); sortKey != "" {
		column, okSort := projectSortColumns[sortKey]
		if !okSort {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown sort key "+sortKey, nil)
		}
		direction := "ASC"
		if strings.EqualFold(c.QueryParam("order"), "desc") {
			direction = "DESC"
		}
		order = column + " " + direction
	}

	// Count on a fresh session so the DISTINCT select does not leak into
	// the page query.
	var total int64
	if err := db.Session(&gorm.Session{}).Distinct("crm_project.id").Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query projects", err.Error())
	}

	rows := make([]domain.Project, 0)
	if err := db.Select("crm_project.*").
		Preload("Client").Preload("Consultant").Preload("Technologies").
		Order(order).
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query projects", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getProject(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid project ID", nil)
	}
	var p domain.Project
	if err := GetDB(c).Preload("Client").Preload("Consultant").Preload("Technologies").
		Where("id = ?", id).First(&p).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "PROJECT_NOT_FOUND", fmt.Sprintf("Project with ID %d not found", id), nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query project", err.Error())
	}
	return ok(c, p)
}

func resolveTechnologies(db *gorm.DB, ids []string) ([]domain.Technology, error) {
	parsed := make([]int64, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid technology id %q", raw)
		}
		parsed = append(parsed, id)
	}
	var techs []domain.Technology
	if err := db.Where("id IN ?", parsed).Find(&techs).Error; err != nil {
		return nil, err
	}
	if len(techs) != len(parsed) {
		return nil, fmt.Errorf("unknown technology id")
	}
	return techs, nil
}

func createProject(c echo.Context) error {
	var payload projectPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse project", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Project validation failed", err.Error())
	}
	if !domain.ValidProjectStatus(payload.Status) ||
		!domain.ValidProjectPriority(payload.Priority) ||
		!domain.ValidProjectType(payload.ProjectType) {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown status, priority or project type", nil)
	}

	startDate, err := parseDate(payload.StartDate)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "startDate must be a date", nil)
	}
	endDate, err := parseDate(payload.EndDate)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "endDate must be a date", nil)
	}
	if !endDate.After(startDate) {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "End date must be after start date", nil)
	}

	db := GetDB(c)
	var client domain.Client
	if err := db.Where("id = ?", payload.ClientID).First(&client).Error; err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown client", nil)
	}
	var consultant domain.Consultant
	if err := db.Where("id = ?", payload.ConsultantID).First(&consultant).Error; err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown consultant", nil)
	}
	techs, err := resolveTechnologies(db, payload.Technologies)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}

	now := time.Now()
	p := domain.Project{
		ID:             common.UUIDint64(),
		Name:           strings.TrimSpace(payload.Name),
		Description:    payload.Description,
		ClientID:       client.ID,
		ConsultantID:   consultant.ID,
		Status:         payload.Status,
		Priority:       payload.Priority,
		ProjectType:    payload.ProjectType,
		StartDate:      startDate,
		EndDate:        endDate,
		EstimatedHours: payload.EstimatedHours,
		Budget:         payload.Budget,
		Deliverables:   payload.Deliverables,
		Risks:          payload.Risks,
		Notes:          payload.Notes,
		Technologies:   techs,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	p.NormalizeProjectEnums()
	if err := db.Create(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create project", err.Error())
	}
	p.Client = &client
	p.Consultant = &consultant
	return created(c, fmt.Sprintf("/api/v1/projects/%d", p.ID), p)
}

func updateProject(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid project ID", nil)
	}
	var p domain.Project
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "PROJECT_NOT_FOUND", fmt.Sprintf("Project with ID %d not found", id), nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query project", err.Error())
	}

	var payload updateProjectPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse project", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Project validation failed", err.Error())
	}

	db := GetDB(c)
	updates := map[string]interface{}{}
	if payload.Name != nil {
		updates["name"] = strings.TrimSpace(*payload.Name)
	}
	if payload.Description != nil {
		updates["description"] = *payload.Description
	}
	if payload.ClientID != nil {
		clientID, err := strconv.ParseInt(*payload.ClientID, 10, 64)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid client id", nil)
		}
		var client domain.Client
		if err := db.Where("id = ?", clientID).First(&client).Error; err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown client", nil)
		}
		updates["client_id"] = clientID
	}
	if payload.ConsultantID != nil {
		consultantID, err := strconv.ParseInt(*payload.ConsultantID, 10, 64)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid consultant id", nil)
		}
		var consultant domain.Consultant
		if err := db.Where("id = ?", consultantID).First(&consultant).Error; err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown consultant", nil)
		}
		updates["consultant_id"] = consultantID
	}
	if payload.Status != nil {
		if !domain.ValidProjectStatus(*payload.Status) {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown status "+*payload.Status, nil)
		}
		updates["status"] = strings.ToLower(*payload.Status)
	}
	if payload.Priority != nil {
		if !domain.ValidProjectPriority(*payload.Priority) {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown priority "+*payload.Priority, nil)
		}
		updates["priority"] = strings.ToLower(*payload.Priority)
	}
	if payload.ProjectType != nil {
		if !domain.ValidProjectType(*payload.ProjectType) {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown project type "+*payload.ProjectType, nil)
		}
		updates["project_type"] = strings.ToLower(*payload.ProjectType)
	}

	// Date edits are validated against whichever side is not changing.
	startDate, endDate := p.StartDate, p.EndDate
	if payload.StartDate != nil {
		startDate, err = parseDate(*payload.StartDate)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "startDate must be a date", nil)
		}
		updates["start_date"] = startDate
	}
	if payload.EndDate != nil {
		endDate, err = parseDate(*payload.EndDate)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "endDate must be a date", nil)
		}
		updates["end_date"] = endDate
	}
	if !endDate.After(startDate) {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "End date must be after start date", nil)
	}

	if payload.EstimatedHours != nil {
		updates["estimated_hours"] = *payload.EstimatedHours
	}
	if payload.ActualHours != nil {
		updates["actual_hours"] = *payload.ActualHours
	}
	if payload.Budget != nil {
		updates["budget"] = *payload.Budget
	}
	if payload.InvoiceAmount != nil {
		updates["invoice_amount"] = *payload.InvoiceAmount
	}
	if payload.Deliverables != nil {
		updates["deliverables"] = domain.StringList(*payload.Deliverables)
	}
	if payload.Risks != nil {
		updates["risks"] = domain.StringList(*payload.Risks)
	}
	if payload.Notes != nil {
		updates["notes"] = *payload.Notes
	}
	updates["updated_at"] = time.Now()

	if err := db.Model(&p).Updates(updates).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update project", err.Error())
	}
	if payload.Technologies != nil {
		techs, err := resolveTechnologies(db, *payload.Technologies)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		}
		if err := db.Model(&p).Association("Technologies").Replace(techs); err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update project technologies", err.Error())
		}
	}

	db.Preload("Client").Preload("Consultant").Preload("Technologies").Where("id = ?", id).First(&p)
	return ok(c, p)
}

type projectStatusPayload struct {
	Status string `json:"status" validate:"required"`
}

func updateProjectStatus(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid project ID", nil)
	}
	var payload projectStatusPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse status", err.Error())
	}
	if err := c.Validate(&payload); err != nil || !domain.ValidProjectStatus(payload.Status) {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown status "+payload.Status, nil)
	}
	result := GetDB(c).Model(&domain.Project{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     strings.ToLower(payload.Status),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update project status", result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "PROJECT_NOT_FOUND", fmt.Sprintf("Project with ID %d not found", id), nil)
	}
	return ok(c, map[string]interface{}{"id": id, "status": strings.ToLower(payload.Status)})
}

func deleteProject(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid project ID", nil)
	}
	var p domain.Project
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "PROJECT_NOT_FOUND", fmt.Sprintf("Project with ID %d not found", id), nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query project", err.Error())
	}
	err = GetDB(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&p).Association("Technologies").Clear(); err != nil {
			return err
		}
		return tx.Delete(&p).Error
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete project", err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type bulkDeletePayload struct {
	IDs []string `json:"ids" validate:"min=1"`
}

func bulkDeleteProjects(c echo.Context) error {
	var payload bulkDeletePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse id list", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "At least one id is required", nil)
	}
	ids := make([]int64, 0, len(payload.IDs))
	for _, raw := range payload.IDs {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid project id "+raw, nil)
		}
		ids = append(ids, id)
	}

	var count int64
	err := GetDB(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM crm_project_technology WHERE project_id IN ?", ids).Error; err != nil {
			return err
		}
		result := tx.Where("id IN ?", ids).Delete(&domain.Project{})
		count = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete projects", err.Error())
	}
	return ok(c, map[string]interface{}{"deleted": count})
}

type projectStatusStat struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

func projectStatistics(c echo.Context) error {
	db := GetDB(c)

	var total int64
	if err := db.Model(&domain.Project{}).Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to aggregate projects", err.Error())
	}

	byStatus := make([]projectStatusStat, 0)
	db.Model(&domain.Project{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("count DESC").
		Scan(&byStatus)

	var sums struct {
		TotalBudget         float64
		TotalInvoiced       float64
		TotalHours          int64
		TotalEstimatedHours int64
	}
	db.Model(&domain.Project{}).
		Select("COALESCE(SUM(budget),0) AS total_budget, " +
			"COALESCE(SUM(invoice_amount),0) AS total_invoiced, " +
			"COALESCE(SUM(actual_hours),0) AS total_hours, " +
			"COALESCE(SUM(estimated_hours),0) AS total_estimated_hours").
		Scan(&sums)

	// Planned spans are few enough to aggregate in process.
	var spans []domain.Project
	db.Model(&domain.Project{}).Select("start_date, end_date").Find(&spans)
	durations := make([]float64, 0, len(spans))
	for _, s := range spans {
		durations = append(durations, s.DurationDays())
	}
	var avgDuration, medianDuration float64
	if len(durations) > 0 {
		avgDuration, _ = stats.Mean(durations)
		medianDuration, _ = stats.Median(durations)
	}

	return ok(c, map[string]interface{}{
		"totalProjects":         total,
		"byStatus":              byStatus,
		"totalBudget":           sums.TotalBudget,
		"totalInvoiced":         sums.TotalInvoiced,
		"totalHours":            sums.TotalHours,
		"totalEstimatedHours":   sums.TotalEstimatedHours,
		"avgProjectDuration":    avgDuration,
		"medianProjectDuration": medianDuration,
		"generatedAt":           time.Now().UTC(),
	})
}
