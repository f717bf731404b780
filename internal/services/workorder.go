package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/oficinatec/oficina/internal/models"
	"github.com/oficinatec/oficina/internal/validation"
	"gorm.io/gorm"
)

// WorkOrderService owns the work-order lifecycle: numbered creation,
// descriptive edits, line items with price capture, and deletion. Every
// mutation assumes the caller already passed the route-level gate.
type WorkOrderService struct {
	DB *gorm.DB
}

func NewWorkOrderService(db *gorm.DB) *WorkOrderService { return &WorkOrderService{DB: db} }

// WorkOrderInput carries the descriptive fields staff fill in.
type WorkOrderInput struct {
	Equipment     string
	Brand         string
	Model         string
	SerialNumber  string
	Technician    string
	Defect        string
	Diagnosis     string
	InternalNotes string
	CustomerNotes string
	Status        models.WorkOrderStatus
}

func (in *WorkOrderInput) validate() *ValidationError {
	v := validation.Violations{}
	validation.Required("equipment", in.Equipment, v)
	validation.Required("defect", in.Defect, v)
	if !in.Status.Valid() {
		v["status"] = "unknown_status"
	}
	if !v.Empty() {
		return &ValidationError{Violations: v}
	}
	return nil
}

// Create opens a work order for the customer, allocating the next number in
// the work-order stream for the current year. The allocation and insert run
// in one transaction, retried on a numbering collision.
func (s *WorkOrderService) Create(customerID uint, in WorkOrderInput) (*models.WorkOrder, error) {
	if verr := in.validate(); verr != nil {
		return nil, verr
	}
	var customer models.Customer
	if err := s.DB.Select("id").First(&customer, customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cliente %d: %w", customerID, ErrNotFound)
		}
		return nil, err
	}

	var order *models.WorkOrder
	for attempt := 0; attempt < sequenceRetries; attempt++ {
		year := time.Now().Year()
		o := models.WorkOrder{
			CustomerID:    customerID,
			Year:          &year,
			Equipment:     in.Equipment,
			Brand:         in.Brand,
			Model:         in.Model,
			SerialNumber:  in.SerialNumber,
			Technician:    in.Technician,
			Defect:        in.Defect,
			Diagnosis:     in.Diagnosis,
			InternalNotes: in.InternalNotes,
			CustomerNotes: in.CustomerNotes,
			Status:        in.Status,
		}
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			seq, err := nextSequence(tx, StreamWorkOrder, year)
			if err != nil {
				return err
			}
			o.SequenceNumber = &seq
			return tx.Create(&o).Error
		})
		if err == nil {
			order = &o
			break
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
	}
	if order == nil {
		return nil, fmt.Errorf("alocação do número da OS: %w", ErrConflict)
	}
	return order, nil
}

// Get loads a work order with its customer, line items (with catalog
// entries) and photos.
func (s *WorkOrderService) Get(id uint) (*models.WorkOrder, error) {
	var o models.WorkOrder
	err := s.DB.
		Preload("Customer").
		Preload("ServiceItems.CatalogService").
		Preload("PartItems.CatalogPart").
		Preload("Photos").
		First(&o, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("OS %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &o, nil
}

// GetForCustomer is the portal read path: the same load, but only if the
// logged-in customer owns the order.
func (s *WorkOrderService) GetForCustomer(id, customerID uint) (*models.WorkOrder, error) {
	o, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := ensureOwnedBy(o, customerID, "OS "+o.FormattedNumber()); err != nil {
		return nil, err
	}
	return o, nil
}

// Update replaces the descriptive fields. The number pair is assigned once
// at creation and never touched here.
func (s *WorkOrderService) Update(id uint, in WorkOrderInput) (*models.WorkOrder, error) {
	if verr := in.validate(); verr != nil {
		return nil, verr
	}
	o, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	err = s.DB.Model(o).Updates(map[string]any{
		"equipment":      in.Equipment,
		"brand":          in.Brand,
		"model":          in.Model,
		"serial_number":  in.SerialNumber,
		"technician":     in.Technician,
		"defect":         in.Defect,
		"diagnosis":      in.Diagnosis,
		"internal_notes": in.InternalNotes,
		"customer_notes": in.CustomerNotes,
		"status":         in.Status,
	}).Error
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Delete removes the work order and its line items and photo rows in one
// transaction. It returns the customer id for redirect purposes and the
// stored filenames so the caller can drop the blobs after commit.
func (s *WorkOrderService) Delete(id uint) (customerID uint, filenames []string, err error) {
	o, err := s.Get(id)
	if err != nil {
		return 0, nil, err
	}
	for _, ph := range o.Photos {
		filenames = append(filenames, ph.Filename)
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		return deleteWorkOrderRows(tx, o.ID)
	})
	if err != nil {
		return 0, nil, err
	}
	return o.CustomerID, filenames, nil
}

// deleteWorkOrderRows removes a work order and its children explicitly, so
// behavior does not depend on the store enforcing FK cascades.
func deleteWorkOrderRows(tx *gorm.DB, id uint) error {
	if err := tx.Where("work_order_id = ?", id).Delete(&models.WorkOrderServiceItem{}).Error; err != nil {
		return err
	}
	if err := tx.Where("work_order_id = ?", id).Delete(&models.WorkOrderPartItem{}).Error; err != nil {
		return err
	}
	if err := tx.Where("work_order_id = ?", id).Delete(&models.Photo{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.WorkOrder{}, id).Error
}

// AddServiceItem attaches a catalog service to the order. Quantity must be
// a positive integer; an empty price means "charge the catalog unit price
// as of right now"; the value is copied, so later catalog changes never
// reprice existing items.
func (s *WorkOrderService) AddServiceItem(orderID, catalogID uint, quantityRaw, priceRaw string) (*models.WorkOrderServiceItem, error) {
	qty, err := validation.ParseQuantity(quantityRaw)
	if err != nil {
		return nil, invalid("quantity", "must_be_positive_integer")
	}
	var entry models.CatalogService
	if err := s.DB.First(&entry, catalogID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("serviço %d: %w", catalogID, ErrNotFound)
		}
		return nil, err
	}
	price, verr := chargedPrice(priceRaw, entry.UnitPrice)
	if verr != nil {
		return nil, verr
	}
	if err := s.DB.Select("id").First(&models.WorkOrder{}, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("OS %d: %w", orderID, ErrNotFound)
		}
		return nil, err
	}
	item := models.WorkOrderServiceItem{
		WorkOrderID:      orderID,
		CatalogServiceID: catalogID,
		Quantity:         qty,
		ChargedPrice:     price,
	}
	if err := s.DB.Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// AddPartItem is the part-side twin of AddServiceItem.
func (s *WorkOrderService) AddPartItem(orderID, catalogID uint, quantityRaw, priceRaw string) (*models.WorkOrderPartItem, error) {
	qty, err := validation.ParseQuantity(quantityRaw)
	if err != nil {
		return nil, invalid("quantity", "must_be_positive_integer")
	}
	var entry models.CatalogPart
	if err := s.DB.First(&entry, catalogID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("peça %d: %w", catalogID, ErrNotFound)
		}
		return nil, err
	}
	price, verr := chargedPrice(priceRaw, entry.UnitPrice)
	if verr != nil {
		return nil, verr
	}
	if err := s.DB.Select("id").First(&models.WorkOrder{}, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("OS %d: %w", orderID, ErrNotFound)
		}
		return nil, err
	}
	item := models.WorkOrderPartItem{
		WorkOrderID:   orderID,
		CatalogPartID: catalogID,
		Quantity:      qty,
		ChargedPrice:  price,
	}
	if err := s.DB.Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveServiceItem deletes the item and returns the owning order's id so
// the handler can redirect back to it.
func (s *WorkOrderService) RemoveServiceItem(itemID uint) (uint, error) {
	var item models.WorkOrderServiceItem
	if err := s.DB.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("item %d: %w", itemID, ErrNotFound)
		}
		return 0, err
	}
	if err := s.DB.Delete(&item).Error; err != nil {
		return 0, err
	}
	return item.WorkOrderID, nil
}

// RemovePartItem deletes the part item and returns the owning order's id.
func (s *WorkOrderService) RemovePartItem(itemID uint) (uint, error) {
	var item models.WorkOrderPartItem
	if err := s.DB.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("item %d: %w", itemID, ErrNotFound)
		}
		return 0, err
	}
	if err := s.DB.Delete(&item).Error; err != nil {
		return 0, err
	}
	return item.WorkOrderID, nil
}

// chargedPrice resolves the price captured on a line item: the typed value
// (comma or dot decimals) when present, the catalog unit price otherwise.
func chargedPrice(raw string, catalogPrice float64) (float64, *ValidationError) {
	if raw == "" {
		return catalogPrice, nil
	}
	price, err := validation.ParsePrice(raw)
	if err != nil {
		return 0, invalid("charged_price", "not_a_number")
	}
	if price < 0 {
		return 0, invalid("charged_price", "must_not_be_negative")
	}
	return price, nil
}
