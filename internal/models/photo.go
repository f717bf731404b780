package models

import "time"

// Photo is an uploaded image attached to exactly one of {work order, quote}.
// Filename is the storage key inside the photo store; the blob itself never
// touches the database.
type Photo struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	WorkOrderID *uint `gorm:"index" json:"work_order_id,omitempty"`
	QuoteID     *uint `gorm:"index" json:"quote_id,omitempty"`

	Filename string `gorm:"size:255;not null" json:"filename"`
	Caption  string `gorm:"size:255" json:"caption,omitempty"`
}

// Owned is implemented by documents a customer may view in the portal.
// The portal read path compares the owner against the logged-in customer.
type Owned interface {
	GetCustomerID() uint
}
