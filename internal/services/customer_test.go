package services

import (
	"errors"
	"testing"

	"github.com/oficinatec/oficina/internal/models"
)

func TestCustomerCreateHashesPassword(t *testing.T) {
	dbi := setupDB(t)
	svc := NewCustomerService(dbi)

	c, err := svc.Create(CustomerInput{
		Name:     "Marta Souza",
		Username: "marta",
		Password: "segredo1",
		Phone:    "41 98888-0000",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.PasswordHash == "" || c.PasswordHash == "segredo1" {
		t.Fatalf("password stored in the clear")
	}

	if _, err := svc.Authenticate("marta", "segredo1"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if _, err := svc.Authenticate("marta", "errada"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("wrong password: err = %v, want ErrForbidden", err)
	}
	if _, err := svc.Authenticate("ninguem", "segredo1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("unknown user: err = %v, want ErrForbidden", err)
	}
}

func TestCustomerUsernameIsUnique(t *testing.T) {
	dbi := setupDB(t)
	svc := NewCustomerService(dbi)

	in := CustomerInput{Name: "A", Username: "dup", Password: "x12345", Phone: "1"}
	if _, err := svc.Create(in); err != nil {
		t.Fatalf("first create: %v", err)
	}
	in.Name = "B"
	_, err := svc.Create(in)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Violations["username"] != "already_taken" {
		t.Fatalf("err = %v, want username already_taken", err)
	}
}

func TestCustomerUpdateKeepsPasswordWhenBlank(t *testing.T) {
	dbi := setupDB(t)
	svc := NewCustomerService(dbi)
	c := createCustomer(t, dbi, "lia")
	originalHash := c.PasswordHash

	_, err := svc.Update(c.ID, CustomerInput{
		Name:     "Lia Alterada",
		Username: "lia",
		Password: "",
		Phone:    "41 97777-0000",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	var reloaded models.Customer
	if err := dbi.First(&reloaded, c.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Name != "Lia Alterada" {
		t.Fatalf("name not updated: %q", reloaded.Name)
	}
	if reloaded.PasswordHash != originalHash {
		t.Fatal("blank password must keep the current hash")
	}

	if _, err := svc.Update(c.ID, CustomerInput{
		Name: "Lia", Username: "lia", Password: "novasenha", Phone: "1",
	}); err != nil {
		t.Fatalf("update with password: %v", err)
	}
	if _, err := svc.Authenticate("lia", "novasenha"); err != nil {
		t.Fatalf("authenticate after change: %v", err)
	}
}

func TestCustomerDeleteCascades(t *testing.T) {
	dbi := setupDB(t)
	svc := NewCustomerService(dbi)
	c := createCustomer(t, dbi, "tiago")
	entry := createCatalogService(t, dbi, "Revisão", 100)

	orders := NewWorkOrderService(dbi)
	quotes := NewQuoteService(dbi)
	o, _ := orders.Create(c.ID, workOrderInput())
	q, _ := quotes.Create(c.ID, quoteInput())
	if _, err := orders.AddServiceItem(o.ID, entry.ID, "1", ""); err != nil {
		t.Fatalf("item: %v", err)
	}
	dbi.Create(&models.Photo{WorkOrderID: &o.ID, Filename: "os.jpg"})
	dbi.Create(&models.Photo{QuoteID: &q.ID, Filename: "orc.jpg"})

	filenames, err := svc.Delete(c.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(filenames) != 2 {
		t.Fatalf("filenames = %v, want both blobs", filenames)
	}

	for _, probe := range []struct {
		name  string
		model any
	}{
		{"orders", &models.WorkOrder{}},
		{"quotes", &models.Quote{}},
		{"items", &models.WorkOrderServiceItem{}},
		{"photos", &models.Photo{}},
	} {
		var count int64
		dbi.Model(probe.model).Count(&count)
		if count != 0 {
			t.Fatalf("%s left behind: %d", probe.name, count)
		}
	}

	if _, err := svc.Get(c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: err = %v, want ErrNotFound", err)
	}
}

func TestCustomerGetPreloadsDocuments(t *testing.T) {
	dbi := setupDB(t)
	svc := NewCustomerService(dbi)
	c := createCustomer(t, dbi, "helena")
	orders := NewWorkOrderService(dbi)
	if _, err := orders.Create(c.ID, workOrderInput()); err != nil {
		t.Fatalf("order: %v", err)
	}

	loaded, err := svc.Get(c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(loaded.WorkOrders) != 1 {
		t.Fatalf("work orders = %d, want 1", len(loaded.WorkOrders))
	}
}
