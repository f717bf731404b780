package models

import (
	"fmt"
	"time"
)

// QuoteStatus is the closed set of states a quote moves through.
type QuoteStatus string

const (
	QuoteStatusPending   QuoteStatus = "Pendente"
	QuoteStatusApproved  QuoteStatus = "Aprovado"
	QuoteStatusRejected  QuoteStatus = "Recusado"
	QuoteStatusConverted QuoteStatus = "Convertido em OS"
)

// Valid reports whether s is a known quote status.
func (s QuoteStatus) Valid() bool {
	switch s {
	case QuoteStatusPending, QuoteStatusApproved, QuoteStatusRejected, QuoteStatusConverted:
		return true
	}
	return false
}

// Quote (Orçamento) is a pre-approval estimate for a repair. Quotes number
// independently from work orders and survive conversion for audit.
type Quote struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Independent numbering stream from work orders, same per-year rules.
	SequenceNumber *int `gorm:"uniqueIndex:uq_quotes_seq_year" json:"sequence_number,omitempty"`
	Year           *int `gorm:"uniqueIndex:uq_quotes_seq_year" json:"year,omitempty"`

	CustomerID uint      `gorm:"index;not null" json:"customer_id"`
	Customer   *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	Equipment    string `gorm:"size:150;not null" json:"equipment"`
	Brand        string `gorm:"size:100" json:"brand,omitempty"`
	Model        string `gorm:"size:100" json:"model,omitempty"`
	SerialNumber string `gorm:"size:100" json:"serial_number,omitempty"`
	Technician   string `gorm:"size:100" json:"technician,omitempty"`

	// What the customer reported; becomes the work order's defect on conversion.
	ReportedProblem string `gorm:"type:text;not null" json:"reported_problem"`
	Diagnosis       string `gorm:"type:text" json:"diagnosis,omitempty"`
	InternalNotes   string `gorm:"type:text" json:"internal_notes,omitempty"`
	CustomerNotes   string `gorm:"type:text" json:"customer_notes,omitempty"`

	Status QuoteStatus `gorm:"size:50;not null;default:'Pendente'" json:"status"`

	ServiceItems []QuoteServiceItem `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"service_items,omitempty"`
	PartItems    []QuotePartItem    `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"part_items,omitempty"`
	Photos       []Photo            `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"photos,omitempty"`
}

// CanConvert reports whether the quote may be turned into a work order.
// Only approved quotes convert; converted ones never convert again.
func (q Quote) CanConvert() bool {
	return q.Status == QuoteStatusApproved
}

// IsConverted reports whether the quote was already turned into a work order.
func (q Quote) IsConverted() bool {
	return q.Status == QuoteStatusConverted
}

// Total is the estimated amount, derived from the line items.
func (q Quote) Total() float64 {
	var total float64
	for _, it := range q.ServiceItems {
		total += it.Total()
	}
	for _, it := range q.PartItems {
		total += it.Total()
	}
	return total
}

// FormattedNumber renders the display number, e.g. "012-2025".
func (q Quote) FormattedNumber() string {
	if q.SequenceNumber == nil || q.Year == nil {
		return UnnumberedLabel
	}
	return fmt.Sprintf("%03d-%04d", *q.SequenceNumber, *q.Year)
}

// GetCustomerID implements the Owned interface for portal authorization.
func (q Quote) GetCustomerID() uint { return q.CustomerID }

// QuoteServiceItem estimates a quantity of one catalog service on a quote.
type QuoteServiceItem struct {
	ID uint `gorm:"primaryKey" json:"id"`

	QuoteID          uint            `gorm:"index;not null" json:"quote_id"`
	CatalogServiceID uint            `gorm:"index;not null" json:"catalog_service_id"`
	CatalogService   *CatalogService `gorm:"foreignKey:CatalogServiceID" json:"catalog_service,omitempty"`

	Quantity     int     `gorm:"not null" json:"quantity"`
	ChargedPrice float64 `gorm:"not null" json:"charged_price"`
}

func (it QuoteServiceItem) Total() float64 {
	return float64(it.Quantity) * it.ChargedPrice
}

// QuotePartItem estimates a quantity of one catalog part on a quote.
type QuotePartItem struct {
	ID uint `gorm:"primaryKey" json:"id"`

	QuoteID       uint         `gorm:"index;not null" json:"quote_id"`
	CatalogPartID uint         `gorm:"index;not null" json:"catalog_part_id"`
	CatalogPart   *CatalogPart `gorm:"foreignKey:CatalogPartID" json:"catalog_part,omitempty"`

	Quantity     int     `gorm:"not null" json:"quantity"`
	ChargedPrice float64 `gorm:"not null" json:"charged_price"`
}

func (it QuotePartItem) Total() float64 {
	return float64(it.Quantity) * it.ChargedPrice
}
