package models

import (
	"fmt"
	"time"
)

// WorkOrderStatus is the closed set of states a work order moves through.
// The literals match the values historical records were stored with.
type WorkOrderStatus string

const (
	WorkOrderStatusInProgress WorkOrderStatus = "Em andamento"
	WorkOrderStatusCompleted  WorkOrderStatus = "Concluído"
)

// Valid reports whether s is a known work-order status.
func (s WorkOrderStatus) Valid() bool {
	switch s {
	case WorkOrderStatusInProgress, WorkOrderStatusCompleted:
		return true
	}
	return false
}

// UnnumberedLabel is shown for documents that predate sequential numbering.
const UnnumberedLabel = "S/N"

// WorkOrder is a repair job (Ordem de Serviço) for one customer's equipment.
type WorkOrder struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Human-facing number, assigned once at creation and never reused.
	// The pair is unique within the work-order stream; both are nullable
	// because records imported from before numbering existed have neither.
	SequenceNumber *int `gorm:"uniqueIndex:uq_work_orders_seq_year" json:"sequence_number,omitempty"`
	Year           *int `gorm:"uniqueIndex:uq_work_orders_seq_year" json:"year,omitempty"`

	CustomerID uint      `gorm:"index;not null" json:"customer_id"`
	Customer   *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	// Originating quote, when this order was created by a conversion.
	// At most one work order may reference a given quote.
	QuoteID *uint  `gorm:"uniqueIndex" json:"quote_id,omitempty"`
	Quote   *Quote `gorm:"foreignKey:QuoteID" json:"-"`

	Equipment    string `gorm:"size:150;not null" json:"equipment"`
	Brand        string `gorm:"size:100" json:"brand,omitempty"`
	Model        string `gorm:"size:100" json:"model,omitempty"`
	SerialNumber string `gorm:"size:100" json:"serial_number,omitempty"`
	Technician   string `gorm:"size:100" json:"technician,omitempty"`

	Defect        string `gorm:"type:text;not null" json:"defect"`
	Diagnosis     string `gorm:"type:text" json:"diagnosis,omitempty"`
	InternalNotes string `gorm:"type:text" json:"internal_notes,omitempty"`
	CustomerNotes string `gorm:"type:text" json:"customer_notes,omitempty"`

	Status WorkOrderStatus `gorm:"size:50;not null" json:"status"`

	ServiceItems []WorkOrderServiceItem `gorm:"foreignKey:WorkOrderID;constraint:OnDelete:CASCADE" json:"service_items,omitempty"`
	PartItems    []WorkOrderPartItem    `gorm:"foreignKey:WorkOrderID;constraint:OnDelete:CASCADE" json:"part_items,omitempty"`
	Photos       []Photo                `gorm:"foreignKey:WorkOrderID;constraint:OnDelete:CASCADE" json:"photos,omitempty"`
}

// IsOpen reports whether the order still counts toward the open-orders
// dashboard figure. Anything not completed is open.
func (o WorkOrder) IsOpen() bool {
	return o.Status != WorkOrderStatusCompleted
}

// Total is the billed amount, always derived from the line items so it can
// never drift from them. Zero items means zero.
func (o WorkOrder) Total() float64 {
	var total float64
	for _, it := range o.ServiceItems {
		total += it.Total()
	}
	for _, it := range o.PartItems {
		total += it.Total()
	}
	return total
}

// FormattedNumber renders the display number, e.g. "007-2025".
func (o WorkOrder) FormattedNumber() string {
	if o.SequenceNumber == nil || o.Year == nil {
		return UnnumberedLabel
	}
	return fmt.Sprintf("%03d-%04d", *o.SequenceNumber, *o.Year)
}

// GetCustomerID implements the Owned interface for portal authorization.
func (o WorkOrder) GetCustomerID() uint { return o.CustomerID }

// WorkOrderServiceItem bills a quantity of one catalog service against a
// work order. ChargedPrice is captured when the item is added; later
// catalog price changes do not touch it.
type WorkOrderServiceItem struct {
	ID uint `gorm:"primaryKey" json:"id"`

	WorkOrderID      uint            `gorm:"index;not null" json:"work_order_id"`
	CatalogServiceID uint            `gorm:"index;not null" json:"catalog_service_id"`
	CatalogService   *CatalogService `gorm:"foreignKey:CatalogServiceID" json:"catalog_service,omitempty"`

	Quantity     int     `gorm:"not null" json:"quantity"`
	ChargedPrice float64 `gorm:"not null" json:"charged_price"`
}

func (it WorkOrderServiceItem) Total() float64 {
	return float64(it.Quantity) * it.ChargedPrice
}

// WorkOrderPartItem bills a quantity of one catalog part against a work order.
type WorkOrderPartItem struct {
	ID uint `gorm:"primaryKey" json:"id"`

	WorkOrderID   uint         `gorm:"index;not null" json:"work_order_id"`
	CatalogPartID uint         `gorm:"index;not null" json:"catalog_part_id"`
	CatalogPart   *CatalogPart `gorm:"foreignKey:CatalogPartID" json:"catalog_part,omitempty"`

	Quantity     int     `gorm:"not null" json:"quantity"`
	ChargedPrice float64 `gorm:"not null" json:"charged_price"`
}

func (it WorkOrderPartItem) Total() float64 {
	return float64(it.Quantity) * it.ChargedPrice
}
