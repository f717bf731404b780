package services

import (
	"errors"
	"testing"

	"github.com/oficinatec/oficina/internal/models"
)

func TestQuoteConvertHappyPath(t *testing.T) {
	dbi := setupDB(t)
	c := createCustomer(t, dbi, "marcos")
	svcEntry := createCatalogService(t, dbi, "Diagnóstico", 50)
	svcEntry2 := createCatalogService(t, dbi, "Reparo de placa", 200)
	partEntry := createCatalogPart(t, dbi, "Capacitor", 12.50)

	quotes := NewQuoteService(dbi)
	q, err := quotes.Create(c.ID, quoteInput())
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if _, err := quotes.AddServiceItem(q.ID, svcEntry.ID, "1", ""); err != nil {
		t.Fatalf("item: %v", err)
	}
	if _, err := quotes.AddServiceItem(q.ID, svcEntry2.ID, "1", "180"); err != nil {
		t.Fatalf("item: %v", err)
	}
	if _, err := quotes.AddPartItem(q.ID, partEntry.ID, "4", ""); err != nil {
		t.Fatalf("item: %v", err)
	}
	photo := models.Photo{QuoteID: &q.ID, Filename: "antes.jpg"}
	if err := dbi.Create(&photo).Error; err != nil {
		t.Fatalf("photo: %v", err)
	}
	if err := dbi.Model(&models.Quote{}).Where("id = ?", q.ID).
		Update("status", models.QuoteStatusApproved).Error; err != nil {
		t.Fatalf("approve: %v", err)
	}

	order, err := quotes.Convert(q.ID)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	orders := NewWorkOrderService(dbi)
	loaded, err := orders.Get(order.ID)
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	if loaded.QuoteID == nil || *loaded.QuoteID != q.ID {
		t.Fatalf("order not linked to quote: %v", loaded.QuoteID)
	}
	if loaded.SequenceNumber == nil || *loaded.SequenceNumber != 1 {
		t.Fatalf("order sequence = %v, want its own number", loaded.SequenceNumber)
	}
	if loaded.Defect != "Sem imagem" {
		t.Fatalf("Defect = %q, want the reported problem", loaded.Defect)
	}
	if loaded.Status != models.WorkOrderStatusInProgress {
		t.Fatalf("Status = %q", loaded.Status)
	}
	if len(loaded.ServiceItems) != 2 || len(loaded.PartItems) != 1 {
		t.Fatalf("items = %d services, %d parts", len(loaded.ServiceItems), len(loaded.PartItems))
	}

	// Totals must match via the captured prices: 50 + 180 + 4*12.50.
	qReloaded, _ := quotes.Get(q.ID)
	if loaded.Total() != 280 || qReloaded.Total() != 280 {
		t.Fatalf("totals: order=%v quote=%v, want 280", loaded.Total(), qReloaded.Total())
	}
	if qReloaded.Status != models.QuoteStatusConverted {
		t.Fatalf("quote status = %q", qReloaded.Status)
	}
	// Photos moved, not copied.
	if len(qReloaded.Photos) != 0 {
		t.Fatalf("quote still holds %d photos", len(qReloaded.Photos))
	}
	if len(loaded.Photos) != 1 || loaded.Photos[0].Filename != "antes.jpg" {
		t.Fatalf("order photos = %v", loaded.Photos)
	}
}

func TestQuoteConvertIsIdempotent(t *testing.T) {
	dbi := setupDB(t)
	c := createCustomer(t, dbi, "elisa")
	quotes := NewQuoteService(dbi)
	q, _ := quotes.Create(c.ID, quoteInput())
	if err := dbi.Model(&models.Quote{}).Where("id = ?", q.ID).
		Update("status", models.QuoteStatusApproved).Error; err != nil {
		t.Fatalf("approve: %v", err)
	}

	first, err := quotes.Convert(q.ID)
	if err != nil {
		t.Fatalf("first convert: %v", err)
	}
	second, err := quotes.Convert(q.ID)
	if err != nil {
		t.Fatalf("second convert: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("second convert created order %d, want %d", second.ID, first.ID)
	}

	var count int64
	dbi.Model(&models.WorkOrder{}).Where("quote_id = ?", q.ID).Count(&count)
	if count != 1 {
		t.Fatalf("orders linked to quote = %d, want 1", count)
	}
}

func TestQuoteConvertRejectsWrongStatus(t *testing.T) {
	dbi := setupDB(t)
	c := createCustomer(t, dbi, "fabio")
	quotes := NewQuoteService(dbi)

	for _, status := range []models.QuoteStatus{models.QuoteStatusPending, models.QuoteStatusRejected} {
		q, _ := quotes.Create(c.ID, quoteInput())
		if err := dbi.Model(&models.Quote{}).Where("id = ?", q.ID).
			Update("status", status).Error; err != nil {
			t.Fatalf("set status: %v", err)
		}
		_, err := quotes.Convert(q.ID)
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("status %q: err = %v, want ErrInvalidState", status, err)
		}
		// Failed conversion leaves the quote untouched.
		reloaded, _ := quotes.Get(q.ID)
		if reloaded.Status != status {
			t.Fatalf("status mutated to %q", reloaded.Status)
		}
		var count int64
		dbi.Model(&models.WorkOrder{}).Where("quote_id = ?", q.ID).Count(&count)
		if count != 0 {
			t.Fatalf("order created despite invalid state")
		}
	}
}

func TestQuoteConvertNotFound(t *testing.T) {
	dbi := setupDB(t)
	quotes := NewQuoteService(dbi)
	if _, err := quotes.Convert(404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestConvertedOrderItemsAreIndependentCopies(t *testing.T) {
	dbi := setupDB(t)
	c := createCustomer(t, dbi, "talita")
	entry := createCatalogService(t, dbi, "Troca de conector", 70)
	quotes := NewQuoteService(dbi)
	orders := NewWorkOrderService(dbi)

	q, _ := quotes.Create(c.ID, quoteInput())
	if _, err := quotes.AddServiceItem(q.ID, entry.ID, "1", ""); err != nil {
		t.Fatalf("item: %v", err)
	}
	if err := dbi.Model(&models.Quote{}).Where("id = ?", q.ID).
		Update("status", models.QuoteStatusApproved).Error; err != nil {
		t.Fatalf("approve: %v", err)
	}
	order, err := quotes.Convert(q.ID)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	loaded, _ := orders.Get(order.ID)
	if _, err := orders.RemoveServiceItem(loaded.ServiceItems[0].ID); err != nil {
		t.Fatalf("remove order item: %v", err)
	}

	qReloaded, _ := quotes.Get(q.ID)
	if len(qReloaded.ServiceItems) != 1 {
		t.Fatalf("quote items = %d, want 1 (copies must be independent)", len(qReloaded.ServiceItems))
	}
}

func TestQuoteDeleteKeepsConvertedOrder(t *testing.T) {
	dbi := setupDB(t)
	c := createCustomer(t, dbi, "vera")
	quotes := NewQuoteService(dbi)
	orders := NewWorkOrderService(dbi)

	q, _ := quotes.Create(c.ID, quoteInput())
	if err := dbi.Model(&models.Quote{}).Where("id = ?", q.ID).
		Update("status", models.QuoteStatusApproved).Error; err != nil {
		t.Fatalf("approve: %v", err)
	}
	order, err := quotes.Convert(q.ID)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	if _, _, err := quotes.Delete(q.ID); err != nil {
		t.Fatalf("delete quote: %v", err)
	}
	loaded, err := orders.Get(order.ID)
	if err != nil {
		t.Fatalf("order should survive quote deletion: %v", err)
	}
	if loaded.QuoteID != nil {
		t.Fatalf("dangling quote link: %v", *loaded.QuoteID)
	}
}

func TestQuoteUpdateKeepsConvertedStatus(t *testing.T) {
	dbi := setupDB(t)
	c := createCustomer(t, dbi, "nilza")
	quotes := NewQuoteService(dbi)

	q, _ := quotes.Create(c.ID, quoteInput())
	if err := dbi.Model(&models.Quote{}).Where("id = ?", q.ID).
		Update("status", models.QuoteStatusApproved).Error; err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := quotes.Convert(q.ID); err != nil {
		t.Fatalf("convert: %v", err)
	}

	in := quoteInput()
	in.Diagnosis = "Fonte queimada"
	in.Status = models.QuoteStatusPending
	updated, err := quotes.Update(q.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != models.QuoteStatusConverted {
		t.Fatalf("Status = %q, want the converted marker kept", updated.Status)
	}
	if updated.Diagnosis != "Fonte queimada" {
		t.Fatalf("Diagnosis = %q, descriptive edit lost", updated.Diagnosis)
	}

	loaded, err := quotes.Get(q.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Status != models.QuoteStatusConverted {
		t.Fatalf("stored Status = %q, want %q", loaded.Status, models.QuoteStatusConverted)
	}
}
