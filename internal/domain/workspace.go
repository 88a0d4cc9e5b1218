package domain

import "time"

// Client represents a customer organization that projects are delivered for.
type Client struct {
	ID            int64     `gorm:"primaryKey" json:"id,string"`
	Name          string    `gorm:"size:100;index" json:"name"`
	Industry      string    `gorm:"size:50" json:"industry"`
	Size          string    `gorm:"size:16" json:"size"`
	ContactPerson string    `gorm:"size:100" json:"contactPerson"`
	Email         string    `gorm:"size:100" json:"email"`
	Phone         string    `gorm:"size:20" json:"phone,omitempty"`
	Address       string    `gorm:"size:200" json:"address,omitempty"`
	Website       string    `gorm:"size:200" json:"website,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (Client) TableName() string {
	return "crm_client"
}

// Technology is a skill/stack tag shared by consultants and projects.
type Technology struct {
	ID       int64  `gorm:"primaryKey" json:"id,string"`
	Name     string `gorm:"size:50;index" json:"name"`
	Category string `gorm:"size:16" json:"category"`
	Color    string `gorm:"size:16" json:"color,omitempty"`
}

func (Technology) TableName() string {
	return "crm_technology"
}
