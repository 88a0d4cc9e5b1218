package domain

import (
	"strings"
	"time"
)

// Consultant availability states.
const (
	AvailabilityAvailable   = "available"
	AvailabilityBusy        = "busy"
	AvailabilityUnavailable = "unavailable"
)

// ValidAvailability reports whether value names a known availability state.
func ValidAvailability(value string) bool {
	switch strings.ToLower(value) {
	case AvailabilityAvailable, AvailabilityBusy, AvailabilityUnavailable:
		return true
	}
	return false
}

// Consultant represents a staff member assignable to projects.
type Consultant struct {
	ID           int64        `gorm:"primaryKey" json:"id,string"`
	FirstName    string       `gorm:"size:50" json:"firstName"`
	LastName     string       `gorm:"size:50" json:"lastName"`
	Email        string       `gorm:"size:100;index" json:"email"`
	Phone        string       `gorm:"size:20" json:"phone,omitempty"`
	Title        string       `gorm:"size:100" json:"title"`
	Department   string       `gorm:"size:50;index" json:"department,omitempty"`
	Experience   int          `json:"experience"`
	Availability string       `gorm:"size:16;index" json:"availability"`
	Skills       []Technology `gorm:"many2many:crm_consultant_skill" json:"skills"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

func (Consultant) TableName() string {
	return "crm_consultant"
}

// FullName joins first and last name for summary views.
func (c Consultant) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
