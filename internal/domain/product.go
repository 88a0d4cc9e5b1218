package domain

import "time"

// Product represents a catalog item. SKU uniqueness is enforced by a
// storage index; the owning user is a weak reference that is nulled when
// the user is deleted.
type Product struct {
	ID              int64     `gorm:"primaryKey" json:"id,string"`
	Name            string    `gorm:"size:100;index" json:"name"`
	Description     string    `gorm:"size:1000" json:"description,omitempty"`
	Price           float64   `json:"price"`
	Category        string    `gorm:"size:50;index" json:"category"`
	StockQuantity   int       `json:"stockQuantity"`
	Sku             string    `gorm:"size:50" json:"sku,omitempty"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	CreatedByUserID *int64    `gorm:"index" json:"-"`

	CreatedByUser *User        `gorm:"foreignKey:CreatedByUserID" json:"-"`
	CreatedBy     *UserSummary `gorm:"-" json:"createdBy"`
}

func (Product) TableName() string {
	return "crm_product"
}

// ResolveCreatedBy fills the embedded creator summary from the loaded
// association. Call after Preload("CreatedByUser").
func (p *Product) ResolveCreatedBy() {
	if p.CreatedByUser != nil {
		p.CreatedBy = p.CreatedByUser.Summary()
	}
}
