package services

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oficinatec/oficina/internal/db"
	"github.com/oficinatec/oficina/internal/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbi, err := gorm.Open(sqlite.Open("file:svc_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(dbi); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return dbi
}

func createCustomer(t *testing.T, dbi *gorm.DB, username string) *models.Customer {
	t.Helper()
	svc := NewCustomerService(dbi)
	c, err := svc.Create(CustomerInput{
		Name:     "Cliente " + username,
		Username: username,
		Password: "senha123",
		Phone:    "41 99999-0000",
	})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return c
}

func createCatalogService(t *testing.T, dbi *gorm.DB, name string, price float64) *models.CatalogService {
	t.Helper()
	entry := models.CatalogService{Name: name, UnitPrice: price, Unit: "un"}
	if err := dbi.Create(&entry).Error; err != nil {
		t.Fatalf("create catalog service: %v", err)
	}
	return &entry
}

func createCatalogPart(t *testing.T, dbi *gorm.DB, name string, price float64) *models.CatalogPart {
	t.Helper()
	entry := models.CatalogPart{Name: name, UnitPrice: price, Unit: "un"}
	if err := dbi.Create(&entry).Error; err != nil {
		t.Fatalf("create catalog part: %v", err)
	}
	return &entry
}

func workOrderInput() WorkOrderInput {
	return WorkOrderInput{
		Equipment: "Notebook",
		Brand:     "Lenovo",
		Defect:    "Não liga",
		Status:    models.WorkOrderStatusInProgress,
	}
}

func quoteInput() QuoteInput {
	return QuoteInput{
		Equipment:       "Televisor",
		Brand:           "Samsung",
		ReportedProblem: "Sem imagem",
		Status:          models.QuoteStatusPending,
	}
}
