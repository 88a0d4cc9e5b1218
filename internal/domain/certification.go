package domain

import (
	"strings"
	"time"
)

// Certification statuses. Status is recomputed by a scheduled job from the
// expiration date; revoked is terminal and never recomputed.
const (
	CertStatusActive       = "active"
	CertStatusExpiringSoon = "expiring_soon"
	CertStatusExpired      = "expired"
	CertStatusRevoked      = "revoked"
)

// CertExpiringSoonWindow is how close to expiration a certification must be
// before it is flagged expiring_soon.
const CertExpiringSoonWindow = 90 * 24 * time.Hour

var certCategories = []string{
	"cloud", "development", "security", "data", "devops", "management", "design", "other",
}

var certLevels = []string{
	"foundational", "associate", "professional", "expert", "specialist",
}

var certVerificationStatuses = []string{
	"verified", "pending", "unverified", "failed",
}

func containsValue(values []string, value string) bool {
	value = strings.ToLower(value)
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

func ValidCertStatus(value string) bool {
	return containsValue([]string{
		CertStatusActive, CertStatusExpiringSoon, CertStatusExpired, CertStatusRevoked,
	}, value)
}

func ValidCertCategory(value string) bool { return containsValue(certCategories, value) }

func ValidCertLevel(value string) bool { return containsValue(certLevels, value) }

func ValidCertVerification(value string) bool { return containsValue(certVerificationStatuses, value) }

// Certification represents a professional credential, optionally linked to
// a consultant.
type Certification struct {
	ID                  int64      `gorm:"primaryKey" json:"id,string"`
	Name                string     `gorm:"size:100;index" json:"name"`
	IssuingOrganization string     `gorm:"size:100;index" json:"issuingOrganization"`
	IssueDate           time.Time  `json:"issueDate"`
	ExpirationDate      *time.Time `json:"expirationDate"`
	CredentialID        string     `gorm:"size:100" json:"credentialId,omitempty"`
	CredentialURL       string     `gorm:"size:300" json:"credentialUrl,omitempty"`
	Description         string     `gorm:"size:1000" json:"description,omitempty"`
	Category            string     `gorm:"size:16;index" json:"category"`
	Level               string     `gorm:"size:16;index" json:"level"`
	Status              string     `gorm:"size:16;index" json:"status"`
	VerificationStatus  string     `gorm:"size:16;index" json:"verificationStatus"`
	ConsultantID        *int64     `gorm:"index" json:"consultantId,string,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

func (Certification) TableName() string {
	return "crm_certification"
}

// ComputeStatus derives the lifecycle status from the expiration date as of
// now. Revoked certifications keep their status.
func (c Certification) ComputeStatus(now time.Time) string {
	if c.Status == CertStatusRevoked {
		return CertStatusRevoked
	}
	if c.ExpirationDate == nil {
		return CertStatusActive
	}
	switch {
	case c.ExpirationDate.Before(now):
		return CertStatusExpired
	case c.ExpirationDate.Sub(now) <= CertExpiringSoonWindow:
		return CertStatusExpiringSoon
	default:
		return CertStatusActive
	}
}
