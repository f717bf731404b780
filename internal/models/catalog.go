package models

import "time"

// CatalogService is a master record for a billable service (e.g. "Troca de
// capacitor"). Names are unique; the unit price is the default charged when
// a line item is added without an explicit price.
type CatalogService struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name      string  `gorm:"size:150;uniqueIndex;not null" json:"name"`
	Details   string  `gorm:"type:text" json:"details,omitempty"`
	UnitPrice float64 `gorm:"not null" json:"unit_price"`
	Unit      string  `gorm:"size:20" json:"unit,omitempty"`
}

// CatalogPart is a master record for a stocked or orderable part.
type CatalogPart struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name         string  `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Details      string  `gorm:"type:text" json:"details,omitempty"`
	InternalCode string  `gorm:"size:100" json:"internal_code,omitempty"`
	UnitPrice    float64 `gorm:"not null" json:"unit_price"`
	Unit         string  `gorm:"size:20" json:"unit,omitempty"`
}
