package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oficinatec/oficina/internal/models"
	"github.com/oficinatec/oficina/internal/validation"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CustomerService manages customer records including their portal
// credentials. Deleting a customer takes every document with it.
type CustomerService struct {
	DB *gorm.DB
}

func NewCustomerService(db *gorm.DB) *CustomerService { return &CustomerService{DB: db} }

// CustomerInput carries the registration form fields. Password is only
// consumed on create (and on update when non-empty).
type CustomerInput struct {
	Name     string
	Username string
	Password string
	Phone    string
	PhoneAlt string
	Kind     string
	CPF      string
	CNPJ     string

	CEP        string
	Street     string
	Number     string
	Complement string
	District   string
	City       string
	State      string

	Notes string
}

// Create registers a customer with a hashed portal password.
func (s *CustomerService) Create(in CustomerInput) (*models.Customer, error) {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.Required("username", in.Username, v)
	validation.Required("password", in.Password, v)
	validation.Required("phone", in.Phone, v)
	if !v.Empty() {
		return nil, &ValidationError{Violations: v}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	c := models.Customer{
		Name:         in.Name,
		Username:     strings.TrimSpace(in.Username),
		PasswordHash: string(hash),
		Phone:        in.Phone,
		PhoneAlt:     in.PhoneAlt,
		Kind:         in.Kind,
		CPF:          in.CPF,
		CNPJ:         in.CNPJ,
		CEP:          in.CEP,
		Street:       in.Street,
		Number:       in.Number,
		Complement:   in.Complement,
		District:     in.District,
		City:         in.City,
		State:        in.State,
		Notes:        in.Notes,
	}
	if err := s.DB.Create(&c).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, invalid("username", "already_taken")
		}
		return nil, err
	}
	return &c, nil
}

// Get loads a customer with their documents for the detail page.
func (s *CustomerService) Get(id uint) (*models.Customer, error) {
	var c models.Customer
	err := s.DB.
		Preload("WorkOrders").
		Preload("Quotes").
		First(&c, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cliente %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &c, nil
}

// List returns all customers ordered by name.
func (s *CustomerService) List() ([]models.Customer, error) {
	var out []models.Customer
	if err := s.DB.Order("name").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the contact fields. Credentials change only when a new
// password was typed.
func (s *CustomerService) Update(id uint, in CustomerInput) (*models.Customer, error) {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.Required("phone", in.Phone, v)
	if !v.Empty() {
		return nil, &ValidationError{Violations: v}
	}
	var c models.Customer
	if err := s.DB.First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cliente %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	updates := map[string]any{
		"name":       in.Name,
		"phone":      in.Phone,
		"phone_alt":  in.PhoneAlt,
		"kind":       in.Kind,
		"cpf":        in.CPF,
		"cnpj":       in.CNPJ,
		"cep":        in.CEP,
		"street":     in.Street,
		"number":     in.Number,
		"complement": in.Complement,
		"district":   in.District,
		"city":       in.City,
		"state":      in.State,
		"notes":      in.Notes,
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = string(hash)
	}
	if err := s.DB.Model(&c).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// Delete removes the customer and, transitively, every work order and quote
// they own plus those documents' line items and photo rows, all in one
// transaction. Returned filenames let the caller drop blobs after commit.
func (s *CustomerService) Delete(id uint) (filenames []string, err error) {
	var c models.Customer
	if err := s.DB.First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cliente %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var orders []models.WorkOrder
		if err := tx.Where("customer_id = ?", id).Find(&orders).Error; err != nil {
			return err
		}
		for _, o := range orders {
			var photos []models.Photo
			if err := tx.Where("work_order_id = ?", o.ID).Find(&photos).Error; err != nil {
				return err
			}
			for _, ph := range photos {
				filenames = append(filenames, ph.Filename)
			}
			if err := deleteWorkOrderRows(tx, o.ID); err != nil {
				return err
			}
		}
		var quotes []models.Quote
		if err := tx.Where("customer_id = ?", id).Find(&quotes).Error; err != nil {
			return err
		}
		for _, q := range quotes {
			var photos []models.Photo
			if err := tx.Where("quote_id = ?", q.ID).Find(&photos).Error; err != nil {
				return err
			}
			for _, ph := range photos {
				filenames = append(filenames, ph.Filename)
			}
			if err := deleteQuoteRows(tx, q.ID); err != nil {
				return err
			}
		}
		return tx.Delete(&models.Customer{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return filenames, nil
}

// Authenticate checks portal credentials and returns the customer. Unknown
// usernames and wrong passwords both come back as ErrForbidden so the login
// flow cannot be used to enumerate accounts.
func (s *CustomerService) Authenticate(username, password string) (*models.Customer, error) {
	var c models.Customer
	if err := s.DB.Where("username = ?", username).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cliente %q: %w", username, ErrForbidden)
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) != nil {
		return nil, fmt.Errorf("cliente %q: %w", username, ErrForbidden)
	}
	return &c, nil
}
