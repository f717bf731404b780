package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oficinatec/oficina/internal/auth"
	"github.com/oficinatec/oficina/internal/db"
	"github.com/oficinatec/oficina/internal/models"
	"github.com/oficinatec/oficina/internal/photostore"
	"github.com/oficinatec/oficina/internal/photostore/local"
	"github.com/oficinatec/oficina/internal/services"
)

func setupRouter(t *testing.T) (http.Handler, *gorm.DB, photostore.PhotoStore) {
	t.Helper()
	dbi, err := gorm.Open(sqlite.Open("file:srv_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(dbi); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	photos, err := local.New(t.TempDir())
	if err != nil {
		t.Fatalf("photo store: %v", err)
	}
	return New(dbi, photos), dbi, photos
}

func staffCookie(t *testing.T, dbi *gorm.DB) *http.Cookie {
	t.Helper()
	u := models.StaffUser{Username: "tecnico", PasswordHash: "irrelevante"}
	if err := dbi.Create(&u).Error; err != nil {
		t.Fatalf("staff user: %v", err)
	}
	return cookieFor(t, auth.Principal{Kind: auth.PrincipalStaff, ID: u.ID})
}

func customerCookie(t *testing.T, dbi *gorm.DB, username string) (*http.Cookie, *models.Customer) {
	t.Helper()
	svc := services.NewCustomerService(dbi)
	c, err := svc.Create(services.CustomerInput{
		Name: username, Username: username, Password: "senha123", Phone: "1",
	})
	if err != nil {
		t.Fatalf("customer: %v", err)
	}
	return cookieFor(t, auth.Principal{Kind: auth.PrincipalCustomer, ID: c.ID}), c
}

func cookieFor(t *testing.T, p auth.Principal) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	auth.CreateSession(rec, p)
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func TestHealthEndpoints(t *testing.T) {
	handler, _, _ := setupRouter(t)

	for _, path := range []string{"/health", "/healthz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", path, rec.Code)
		}
	}
}

func TestStaffRoutesRequireSession(t *testing.T) {
	handler, _, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/clientes", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous JSON: status %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/clientes", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("anonymous HTML: status %d, want 303 redirect", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Fatalf("redirect %q, want /login", loc)
	}
}

func TestWorkOrderCreateOverJSON(t *testing.T) {
	handler, dbi, _ := setupRouter(t)
	staff := staffCookie(t, dbi)
	_, customer := customerCookie(t, dbi, "cliente1")

	form := url.Values{
		"equipment": {"Notebook"},
		"defect":    {"Não liga"},
	}
	req := httptest.NewRequest(http.MethodPost,
		"/os/cadastrar?cliente_id="+strconv.Itoa(int(customer.ID)),
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.AddCookie(staff)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d body=%s", rec.Code, rec.Body.String())
	}
	var order models.WorkOrder
	if err := json.Unmarshal(rec.Body.Bytes(), &order); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if order.SequenceNumber == nil || *order.SequenceNumber != 1 {
		t.Fatalf("sequence = %v, want 1", order.SequenceNumber)
	}
	if order.Status != models.WorkOrderStatusInProgress {
		t.Fatalf("status = %q", order.Status)
	}
}

func TestQuoteConvertEndpoint(t *testing.T) {
	handler, dbi, _ := setupRouter(t)
	staff := staffCookie(t, dbi)
	_, customer := customerCookie(t, dbi, "cliente2")

	quotes := services.NewQuoteService(dbi)
	q, err := quotes.Create(customer.ID, services.QuoteInput{
		Equipment: "TV", ReportedProblem: "Sem som", Status: models.QuoteStatusPending,
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	convert := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost,
			"/orcamentos/converter?id="+strconv.Itoa(int(q.ID)), nil)
		req.Header.Set("Accept", "application/json")
		req.AddCookie(staff)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	// Pending quote cannot convert.
	if rec := convert(); rec.Code != http.StatusConflict {
		t.Fatalf("pending convert: status %d, want 409", rec.Code)
	}

	if err := dbi.Model(&models.Quote{}).Where("id = ?", q.ID).
		Update("status", models.QuoteStatusApproved).Error; err != nil {
		t.Fatalf("approve: %v", err)
	}
	rec := convert()
	if rec.Code != http.StatusOK {
		t.Fatalf("convert: status %d body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		WorkOrderID uint   `json:"work_order_id"`
		Number      string `json:"number"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.WorkOrderID == 0 || out.Number == "" {
		t.Fatalf("out = %+v", out)
	}

	// Second call is idempotent and lands on the same order.
	rec = convert()
	if rec.Code != http.StatusOK {
		t.Fatalf("second convert: status %d", rec.Code)
	}
	var again struct {
		WorkOrderID uint `json:"work_order_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &again); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if again.WorkOrderID != out.WorkOrderID {
		t.Fatalf("second convert produced order %d, want %d", again.WorkOrderID, out.WorkOrderID)
	}
}

func TestPortalOwnershipGate(t *testing.T) {
	handler, dbi, _ := setupRouter(t)
	ownerCookie, owner := customerCookie(t, dbi, "dona")
	otherCookie, _ := customerCookie(t, dbi, "outra")

	orders := services.NewWorkOrderService(dbi)
	o, err := orders.Create(owner.ID, services.WorkOrderInput{
		Equipment: "Som", Defect: "Chia", Status: models.WorkOrderStatusInProgress,
	})
	if err != nil {
		t.Fatalf("order: %v", err)
	}

	get := func(c *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet,
			"/portal/os?id="+strconv.Itoa(int(o.ID)), nil)
		req.Header.Set("Accept", "application/json")
		req.AddCookie(c)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := get(ownerCookie); rec.Code != http.StatusOK {
		t.Fatalf("owner: status %d body=%s", rec.Code, rec.Body.String())
	}
	if rec := get(otherCookie); rec.Code != http.StatusForbidden {
		t.Fatalf("other customer: status %d, want 403", rec.Code)
	}
}

func TestCustomerSessionCannotReachStaffRoutes(t *testing.T) {
	handler, dbi, _ := setupRouter(t)
	cookie, _ := customerCookie(t, dbi, "intruso")

	req := httptest.NewRequest(http.MethodGet, "/relatorios", nil)
	req.Header.Set("Accept", "application/json")
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
}

func TestPhotoBlobAccessControl(t *testing.T) {
	handler, dbi, photos := setupRouter(t)
	staff := staffCookie(t, dbi)
	ownerCookie, owner := customerCookie(t, dbi, "titular")
	otherCookie, _ := customerCookie(t, dbi, "vizinho")

	orders := services.NewWorkOrderService(dbi)
	o, err := orders.Create(owner.ID, services.WorkOrderInput{
		Equipment: "Notebook", Defect: "Não liga", Status: models.WorkOrderStatusInProgress,
	})
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	filename, err := photos.Save(context.Background(), "os", "image/jpeg", strings.NewReader("jpegdata"))
	if err != nil {
		t.Fatalf("save blob: %v", err)
	}
	photo := models.Photo{WorkOrderID: &o.ID, Filename: filename}
	if err := dbi.Create(&photo).Error; err != nil {
		t.Fatalf("photo row: %v", err)
	}

	get := func(c *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/fotos/arquivo?nome="+url.QueryEscape(filename), nil)
		req.Header.Set("Accept", "application/json")
		if c != nil {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := get(nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status %d, want 401", rec.Code)
	}
	if rec := get(otherCookie); rec.Code != http.StatusForbidden {
		t.Fatalf("other customer: status %d, want 403", rec.Code)
	}
	if rec := get(ownerCookie); rec.Code != http.StatusOK {
		t.Fatalf("owner: status %d body=%s", rec.Code, rec.Body.String())
	}
	if rec := get(staff); rec.Code != http.StatusOK {
		t.Fatalf("staff: status %d body=%s", rec.Code, rec.Body.String())
	}
}
