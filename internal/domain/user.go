package domain

import (
	"strings"
	"time"
)

// User roles.
const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

// ValidRole reports whether value names a known role.
func ValidRole(value string) bool {
	switch strings.ToLower(value) {
	case RoleUser, RoleAdmin, RoleModerator:
		return true
	}
	return false
}

// User is an account that can own catalog products. Email uniqueness is
// case-insensitive and enforced by the index created in
// Application.migrateIndexes.
type User struct {
	ID          int64      `gorm:"primaryKey" json:"id,string"`
	FirstName   string     `gorm:"size:50" json:"firstName"`
	LastName    string     `gorm:"size:50" json:"lastName"`
	Email       string     `gorm:"size:100" json:"email"`
	PhoneNumber string     `gorm:"size:20" json:"phoneNumber,omitempty"`
	Role        string     `gorm:"size:16;index" json:"role"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
}

func (User) TableName() string {
	return "crm_user"
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// UserSummary is the embedded creator view carried on products.
type UserSummary struct {
	ID       int64  `json:"id,string"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Summary builds the creator view for embedding.
func (u User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, FullName: u.FullName(), Email: u.Email}
}
