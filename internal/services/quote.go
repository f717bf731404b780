package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/oficinatec/oficina/internal/models"
	"github.com/oficinatec/oficina/internal/validation"
	"gorm.io/gorm"
)

// QuoteService owns the quote lifecycle, including the one-way conversion
// of an approved quote into a work order.
type QuoteService struct {
	DB *gorm.DB
}

func NewQuoteService(db *gorm.DB) *QuoteService { return &QuoteService{DB: db} }

// QuoteInput carries the descriptive fields staff fill in.
type QuoteInput struct {
	Equipment       string
	Brand           string
	Model           string
	SerialNumber    string
	Technician      string
	ReportedProblem string
	Diagnosis       string
	InternalNotes   string
	CustomerNotes   string
	Status          models.QuoteStatus
}

func (in *QuoteInput) validate() *ValidationError {
	v := validation.Violations{}
	validation.Required("equipment", in.Equipment, v)
	validation.Required("reported_problem", in.ReportedProblem, v)
	if !in.Status.Valid() {
		v["status"] = "unknown_status"
	}
	if !v.Empty() {
		return &ValidationError{Violations: v}
	}
	return nil
}

// Create opens a quote for the customer, numbering it in the quote stream,
// independent of the work-order stream, same per-year rules.
func (s *QuoteService) Create(customerID uint, in QuoteInput) (*models.Quote, error) {
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

	var quote *models.Quote
	for attempt := 0; attempt < sequenceRetries; attempt++ {
		year := time.Now().Year()
		q := models.Quote{
			CustomerID:      customerID,
			Year:            &year,
			Equipment:       in.Equipment,
			Brand:           in.Brand,
			Model:           in.Model,
			SerialNumber:    in.SerialNumber,
			Technician:      in.Technician,
			ReportedProblem: in.ReportedProblem,
			Diagnosis:       in.Diagnosis,
			InternalNotes:   in.InternalNotes,
			CustomerNotes:   in.CustomerNotes,
			Status:          in.Status,
		}
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			seq, err := nextSequence(tx, StreamQuote, year)
			if err != nil {
				return err
			}
			q.SequenceNumber = &seq
			return tx.Create(&q).Error
		})
		if err == nil {
			quote = &q
			break
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
	}
	if quote == nil {
		return nil, fmt.Errorf("alocação do número do orçamento: %w", ErrConflict)
	}
	return quote, nil
}

// Get loads a quote with its customer, items and photos.
func (s *QuoteService) Get(id uint) (*models.Quote, error) {
	var q models.Quote
	err := s.DB.
		Preload("Customer").
		Preload("ServiceItems.CatalogService").
		Preload("PartItems.CatalogPart").
		Preload("Photos").
		First(&q, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("orçamento %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &q, nil
}

// GetForCustomer is the portal read path with the ownership check applied.
func (s *QuoteService) GetForCustomer(id, customerID uint) (*models.Quote, error) {
	q, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := ensureOwnedBy(q, customerID, "orçamento "+q.FormattedNumber()); err != nil {
		return nil, err
	}
	return q, nil
}

// Update replaces the descriptive fields and status. A converted quote keeps
// its "Convertido em OS" marker: the linked work order is the live document,
// and the marker is what blocks a second conversion.
func (s *QuoteService) Update(id uint, in QuoteInput) (*models.Quote, error) {
	if verr := in.validate(); verr != nil {
		return nil, verr
	}
	q, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	status := in.Status
	if q.IsConverted() {
		status = models.QuoteStatusConverted
	}
	err = s.DB.Model(q).Updates(map[string]any{
		"equipment":        in.Equipment,
		"brand":            in.Brand,
		"model":            in.Model,
		"serial_number":    in.SerialNumber,
		"technician":       in.Technician,
		"reported_problem": in.ReportedProblem,
		"diagnosis":        in.Diagnosis,
		"internal_notes":   in.InternalNotes,
		"customer_notes":   in.CustomerNotes,
		"status":           status,
	}).Error
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Delete removes the quote and its children; same contract as the
// work-order delete.
func (s *QuoteService) Delete(id uint) (customerID uint, filenames []string, err error) {
	q, err := s.Get(id)
	if err != nil {
		return 0, nil, err
	}
	for _, ph := range q.Photos {
		filenames = append(filenames, ph.Filename)
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		return deleteQuoteRows(tx, q.ID)
	})
	if err != nil {
		return 0, nil, err
	}
	return q.CustomerID, filenames, nil
}

func deleteQuoteRows(tx *gorm.DB, id uint) error {
	// A converted quote may be referenced by its work order; the order
	// survives the quote's deletion with the link cleared.
	if err := tx.Model(&models.WorkOrder{}).Where("quote_id = ?", id).Update("quote_id", nil).Error; err != nil {
		return err
	}
	if err := tx.Where("quote_id = ?", id).Delete(&models.QuoteServiceItem{}).Error; err != nil {
		return err
	}
	if err := tx.Where("quote_id = ?", id).Delete(&models.QuotePartItem{}).Error; err != nil {
		return err
	}
	if err := tx.Where("quote_id = ?", id).Delete(&models.Photo{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Quote{}, id).Error
}

// AddServiceItem mirrors the work-order contract: positive quantity, price
// captured now (catalog unit price when empty).
func (s *QuoteService) AddServiceItem(quoteID, catalogID uint, quantityRaw, priceRaw string) (*models.QuoteServiceItem, error) {
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
	if err := s.DB.Select("id").First(&models.Quote{}, quoteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("orçamento %d: %w", quoteID, ErrNotFound)
		}
		return nil, err
	}
	item := models.QuoteServiceItem{
		QuoteID:          quoteID,
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
func (s *QuoteService) AddPartItem(quoteID, catalogID uint, quantityRaw, priceRaw string) (*models.QuotePartItem, error) {
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
	if err := s.DB.Select("id").First(&models.Quote{}, quoteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("orçamento %d: %w", quoteID, ErrNotFound)
		}
		return nil, err
	}
	item := models.QuotePartItem{
		QuoteID:       quoteID,
		CatalogPartID: catalogID,
		Quantity:      qty,
		ChargedPrice:  price,
	}
	if err := s.DB.Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveServiceItem deletes the item and returns the owning quote's id.
func (s *QuoteService) RemoveServiceItem(itemID uint) (uint, error) {
	var item models.QuoteServiceItem
	if err := s.DB.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("item %d: %w", itemID, ErrNotFound)
		}
		return 0, err
	}
	if err := s.DB.Delete(&item).Error; err != nil {
		return 0, err
	}
	return item.QuoteID, nil
}

// RemovePartItem deletes the part item and returns the owning quote's id.
func (s *QuoteService) RemovePartItem(itemID uint) (uint, error) {
	var item models.QuotePartItem
	if err := s.DB.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("item %d: %w", itemID, ErrNotFound)
		}
		return 0, err
	}
	if err := s.DB.Delete(&item).Error; err != nil {
		return 0, err
	}
	return item.QuoteID, nil
}

// Convert turns an approved quote into a work order, exactly once.
//
// The whole effect is one transaction: allocate the next work-order number,
// create the order copying the quote's descriptive fields (the reported
// problem becomes the order's defect), deep-copy every line item with its
// captured price, move the quote's photos to the order, and mark the quote
// converted. A second call finds the linked order and returns it unchanged.
func (s *QuoteService) Convert(quoteID uint) (*models.WorkOrder, error) {
	var result *models.WorkOrder
	for attempt := 0; attempt < sequenceRetries; attempt++ {
		result = nil
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			var q models.Quote
			err := tx.
				Preload("ServiceItems").
				Preload("PartItems").
				First(&q, quoteID).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("orçamento %d: %w", quoteID, ErrNotFound)
				}
				return err
			}

			// Idempotency: a work order already referencing the quote wins
			// over any status check.
			var existing models.WorkOrder
			err = tx.Where("quote_id = ?", q.ID).First(&existing).Error
			if err == nil {
				result = &existing
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			if !q.CanConvert() {
				return fmt.Errorf("orçamento %s com status %q: %w", q.FormattedNumber(), q.Status, ErrInvalidState)
			}

			year := time.Now().Year()
			seq, err := nextSequence(tx, StreamWorkOrder, year)
			if err != nil {
				return err
			}
			order := models.WorkOrder{
				SequenceNumber: &seq,
				Year:           &year,
				CustomerID:     q.CustomerID,
				QuoteID:        &q.ID,
				Equipment:      q.Equipment,
				Brand:          q.Brand,
				Model:          q.Model,
				SerialNumber:   q.SerialNumber,
				Technician:     q.Technician,
				Defect:         q.ReportedProblem,
				Diagnosis:      q.Diagnosis,
				InternalNotes:  q.InternalNotes,
				CustomerNotes:  q.CustomerNotes,
				Status:         models.WorkOrderStatusInProgress,
			}
			if err := tx.Create(&order).Error; err != nil {
				return err
			}
			// Independent copies: mutating the order's items later must
			// never touch the quote's items.
			for _, it := range q.ServiceItems {
				dup := models.WorkOrderServiceItem{
					WorkOrderID:      order.ID,
					CatalogServiceID: it.CatalogServiceID,
					Quantity:         it.Quantity,
					ChargedPrice:     it.ChargedPrice,
				}
				if err := tx.Create(&dup).Error; err != nil {
					return err
				}
			}
			for _, it := range q.PartItems {
				dup := models.WorkOrderPartItem{
					WorkOrderID:   order.ID,
					CatalogPartID: it.CatalogPartID,
					Quantity:      it.Quantity,
					ChargedPrice:  it.ChargedPrice,
				}
				if err := tx.Create(&dup).Error; err != nil {
					return err
				}
			}
			// Photos move (not copy): after conversion the quote has none.
			err = tx.Model(&models.Photo{}).
				Where("quote_id = ?", q.ID).
				Updates(map[string]any{"quote_id": nil, "work_order_id": order.ID}).Error
			if err != nil {
				return err
			}
			if err := tx.Model(&q).Update("status", models.QuoteStatusConverted).Error; err != nil {
				return err
			}
			result = &order
			return nil
		})
		if err == nil {
			return result, nil
		}
		// A lost race on either the sequence index or the quote_id link
		// retries; the next attempt sees the winner and returns it.
		if !isUniqueViolation(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("conversão do orçamento %d: %w", quoteID, ErrConflict)
}
