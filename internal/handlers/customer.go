package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/oficinatec/oficina/internal/httpx"
	"github.com/oficinatec/oficina/internal/photostore"
	"github.com/oficinatec/oficina/internal/services"
)

// CustomerHandler serves the staff-facing customer CRUD.
type CustomerHandler struct {
	DB     *gorm.DB
	Svc    *services.CustomerService
	Photos photostore.PhotoStore
}

func NewCustomerHandler(db *gorm.DB, photos photostore.PhotoStore) *CustomerHandler {
	return &CustomerHandler{DB: db, Svc: services.NewCustomerService(db), Photos: photos}
}

func customerInputFromForm(r *http.Request) services.CustomerInput {
	return services.CustomerInput{
		Name:       r.FormValue("name"),
		Username:   r.FormValue("username"),
		Password:   r.FormValue("password"),
		Phone:      r.FormValue("phone"),
		PhoneAlt:   r.FormValue("phone_alt"),
		Kind:       r.FormValue("kind"),
		CPF:        r.FormValue("cpf"),
		CNPJ:       r.FormValue("cnpj"),
		CEP:        r.FormValue("cep"),
		Street:     r.FormValue("street"),
		Number:     r.FormValue("number"),
		Complement: r.FormValue("complement"),
		District:   r.FormValue("district"),
		City:       r.FormValue("city"),
		State:      r.FormValue("state"),
		Notes:      r.FormValue("notes"),
	}
}

// List: GET /clientes
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Svc.List()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": customers, "total": len(customers)})
		return
	}
	renderTemplate(w, r, "customers", map[string]any{"Customers": customers})
}

// Create: GET form / POST /clientes/cadastrar
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "customer_form", nil)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "GET,POST")
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	c, err := h.Svc.Create(customerInputFromForm(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, c)
		return
	}
	http.Redirect(w, r, "/clientes", statusSeeOther)
}

// Detail: GET /clientes/detalhes?id= shows the customer with their documents.
func (h *CustomerHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	c, err := h.Svc.Get(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, c)
		return
	}
	renderTemplate(w, r, "customer_detail", map[string]any{"Customer": c})
}

// Update: GET form / POST /clientes/editar?id=
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if r.Method == http.MethodGet {
		c, err := h.Svc.Get(id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		renderTemplate(w, r, "customer_form", map[string]any{"Customer": c})
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "GET,POST")
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	c, err := h.Svc.Update(id, customerInputFromForm(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, c)
		return
	}
	http.Redirect(w, r, "/clientes/detalhes?id="+strconv.Itoa(int(id)), statusSeeOther)
}

// Delete: POST /clientes/deletar?id= cascades to every document.
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	id, ok := idParam(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	filenames, err := h.Svc.Delete(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	// Blob cleanup is best-effort after the rows are gone.
	for _, name := range filenames {
		if err := h.Photos.Delete(context.Background(), name); err != nil {
			slog.Warn("removendo foto do cliente excluído", "filename", name, "error", err)
		}
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		return
	}
	http.Redirect(w, r, "/clientes", statusSeeOther)
}
