package domain

import (
	"strings"
	"time"
)

// Project statuses and priorities.
const (
	ProjectPlanning  = "planning"
	ProjectActive    = "active"
	ProjectOnHold    = "on-hold"
	ProjectCompleted = "completed"
	ProjectCancelled = "cancelled"
)

var projectStatuses = []string{
	ProjectPlanning, ProjectActive, ProjectOnHold, ProjectCompleted, ProjectCancelled,
}

var projectPriorities = []string{"low", "medium", "high", "urgent"}

var projectTypes = []string{
	"development", "consulting", "audit", "training", "support", "other",
}

func ValidProjectStatus(value string) bool { return containsValue(projectStatuses, value) }

func ValidProjectPriority(value string) bool { return containsValue(projectPriorities, value) }

func ValidProjectType(value string) bool { return containsValue(projectTypes, value) }

// Project is an engagement linking a client and a consultant.
// Deliverables and risks are stored as JSON-serialized string lists.
type Project struct {
	ID             int64        `gorm:"primaryKey" json:"id,string"`
	Name           string       `gorm:"size:100;index" json:"name"`
	Description    string       `gorm:"size:1000" json:"description"`
	ClientID       int64        `gorm:"index" json:"-"`
	ConsultantID   int64        `gorm:"index" json:"-"`
	Status         string       `gorm:"size:16;index" json:"status"`
	Priority       string       `gorm:"size:16;index" json:"priority"`
	ProjectType    string       `gorm:"size:16;index" json:"projectType"`
	StartDate      time.Time    `json:"startDate"`
	EndDate        time.Time    `json:"endDate"`
	EstimatedHours int          `json:"estimatedHours"`
	ActualHours    int          `json:"actualHours"`
	Budget         *float64     `json:"budget"`
	InvoiceAmount  *float64     `json:"invoiceAmount"`
	Deliverables   StringList   `gorm:"type:text" json:"deliverables"`
	Risks          StringList   `gorm:"type:text" json:"risks"`
	Notes          string       `gorm:"size:1000" json:"notes,omitempty"`
	Technologies   []Technology `gorm:"many2many:crm_project_technology" json:"technologies"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`

	Client     *Client     `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Consultant *Consultant `gorm:"foreignKey:ConsultantID" json:"consultant,omitempty"`
}

func (Project) TableName() string {
	return "crm_project"
}

// DurationDays returns the planned engagement span in whole days.
func (p Project) DurationDays() float64 {
	return p.EndDate.Sub(p.StartDate).Hours() / 24
}

// normalizeEnum lowers and trims an enum-ish input value.
func normalizeEnum(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// NormalizeProjectEnums canonicalizes status/priority/type casing in place.
func (p *Project) NormalizeProjectEnums() {
	p.Status = normalizeEnum(p.Status)
	p.Priority = normalizeEnum(p.Priority)
	p.ProjectType = normalizeEnum(p.ProjectType)
}
