package services

import (
	"errors"
	"fmt"

	"github.com/oficinatec/oficina/internal/models"
	"github.com/oficinatec/oficina/internal/validation"
	"gorm.io/gorm"
)

// CatalogSvc manages the services/parts price catalog. Names are unique
// per kind; an empty price on the form registers the entry at 0.00.
type CatalogSvc struct {
	DB *gorm.DB
}

func NewCatalogSvc(db *gorm.DB) *CatalogSvc { return &CatalogSvc{DB: db} }

// CatalogInput is shared by both catalog kinds; InternalCode only applies
// to parts.
type CatalogInput struct {
	Name         string
	Details      string
	InternalCode string
	UnitPrice    string
	Unit         string
}

func parseCatalogPrice(raw string) (float64, *ValidationError) {
	if raw == "" {
		return 0, nil
	}
	price, err := validation.ParsePrice(raw)
	if err != nil {
		return 0, invalid("unit_price", "not_a_number")
	}
	if price < 0 {
		return 0, invalid("unit_price", "must_not_be_negative")
	}
	return price, nil
}

func (s *CatalogSvc) CreateService(in CatalogInput) (*models.CatalogService, error) {
	if in.Name == "" {
		return nil, invalid("name", "required")
	}
	price, verr := parseCatalogPrice(in.UnitPrice)
	if verr != nil {
		return nil, verr
	}
	entry := models.CatalogService{Name: in.Name, Details: in.Details, UnitPrice: price, Unit: in.Unit}
	if err := s.DB.Create(&entry).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, invalid("name", "already_exists")
		}
		return nil, err
	}
	return &entry, nil
}

func (s *CatalogSvc) UpdateService(id uint, in CatalogInput) (*models.CatalogService, error) {
	if in.Name == "" {
		return nil, invalid("name", "required")
	}
	price, verr := parseCatalogPrice(in.UnitPrice)
	if verr != nil {
		return nil, verr
	}
	var entry models.CatalogService
	if err := s.DB.First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("serviço %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	err := s.DB.Model(&entry).Updates(map[string]any{
		"name":       in.Name,
		"details":    in.Details,
		"unit_price": price,
		"unit":       in.Unit,
	}).Error
	if err != nil {
		if isUniqueViolation(err) {
			return nil, invalid("name", "already_exists")
		}
		return nil, err
	}
	return &entry, nil
}

func (s *CatalogSvc) DeleteService(id uint) error {
	res := s.DB.Delete(&models.CatalogService{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("serviço %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *CatalogSvc) ListServices() ([]models.CatalogService, error) {
	var out []models.CatalogService
	if err := s.DB.Order("name").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CatalogSvc) CreatePart(in CatalogInput) (*models.CatalogPart, error) {
	if in.Name == "" {
		return nil, invalid("name", "required")
	}
	price, verr := parseCatalogPrice(in.UnitPrice)
	if verr != nil {
		return nil, verr
	}
	entry := models.CatalogPart{Name: in.Name, Details: in.Details, InternalCode: in.InternalCode, UnitPrice: price, Unit: in.Unit}
	if err := s.DB.Create(&entry).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, invalid("name", "already_exists")
		}
		return nil, err
	}
	return &entry, nil
}

func (s *CatalogSvc) UpdatePart(id uint, in CatalogInput) (*models.CatalogPart, error) {
	if in.Name == "" {
		return nil, invalid("name", "required")
	}
	price, verr := parseCatalogPrice(in.UnitPrice)
	if verr != nil {
		return nil, verr
	}
	var entry models.CatalogPart
	if err := s.DB.First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("peça %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	err := s.DB.Model(&entry).Updates(map[string]any{
		"name":          in.Name,
		"details":       in.Details,
		"internal_code": in.InternalCode,
		"unit_price":    price,
		"unit":          in.Unit,
	}).Error
	if err != nil {
		if isUniqueViolation(err) {
			return nil, invalid("name", "already_exists")
		}
		return nil, err
	}
	return &entry, nil
}

func (s *CatalogSvc) DeletePart(id uint) error {
	res := s.DB.Delete(&models.CatalogPart{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("peça %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *CatalogSvc) ListParts() ([]models.CatalogPart, error) {
	var out []models.CatalogPart
	if err := s.DB.Order("name").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
