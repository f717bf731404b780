package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/oficinatec/oficina/internal/httpx"
	"github.com/oficinatec/oficina/internal/models"
	"github.com/oficinatec/oficina/internal/pdf"
	"github.com/oficinatec/oficina/internal/photostore"
	"github.com/oficinatec/oficina/internal/services"
	"github.com/oficinatec/oficina/internal/view"
)

// WorkOrderHandler serves the staff work-order routes: numbered creation,
// detail edits, line items, and the PDF/Word downloads.
type WorkOrderHandler struct {
	DB      *gorm.DB
	Svc     *services.WorkOrderService
	Catalog *services.CatalogSvc
	Photos  photostore.PhotoStore
}

func NewWorkOrderHandler(db *gorm.DB, photos photostore.PhotoStore) *WorkOrderHandler {
	return &WorkOrderHandler{
		DB:      db,
		Svc:     services.NewWorkOrderService(db),
		Catalog: services.NewCatalogSvc(db),
		Photos:  photos,
	}
}

func workOrderInputFromForm(r *http.Request) services.WorkOrderInput {
	status := models.WorkOrderStatus(r.FormValue("status"))
	if status == "" {
		status = models.WorkOrderStatusInProgress
	}
	return services.WorkOrderInput{
		Equipment:     r.FormValue("equipment"),
		Brand:         r.FormValue("brand"),
		Model:         r.FormValue("model"),
		SerialNumber:  r.FormValue("serial_number"),
		Technician:    r.FormValue("technician"),
		Defect:        r.FormValue("defect"),
		Diagnosis:     r.FormValue("diagnosis"),
		InternalNotes: r.FormValue("internal_notes"),
		CustomerNotes: r.FormValue("customer_notes"),
		Status:        status,
	}
}

// Create: GET form / POST /os/cadastrar?cliente_id=
func (h *WorkOrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	customerID, ok := idParam(r, "cliente_id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "workorder_form", map[string]any{"CustomerID": customerID})
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
	order, err := h.Svc.Create(customerID, workOrderInputFromForm(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, order)
		return
	}
	http.Redirect(w, r, "/os/detalhes?id="+strconv.Itoa(int(order.ID)), statusSeeOther)
}

// Detail: GET shows the order with catalog pickers; POST saves the
// descriptive fields. /os/detalhes?id=
func (h *WorkOrderHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
			return
		}
		order, err := h.Svc.Update(id, workOrderInputFromForm(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if httpx.WantsJSON(r) {
			httpx.JSON(w, http.StatusOK, order)
			return
		}
		http.Redirect(w, r, "/os/detalhes?id="+strconv.Itoa(int(order.ID)), statusSeeOther)
		return
	}
	order, err := h.Svc.Get(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"order": order, "total": order.Total()})
		return
	}
	catalogServices, _ := h.Catalog.ListServices()
	catalogParts, _ := h.Catalog.ListParts()
	renderTemplate(w, r, "workorder_detail", map[string]any{
		"Order":           order,
		"Total":           order.Total(),
		"CatalogServices": catalogServices,
		"CatalogParts":    catalogParts,
	})
}

// Delete: POST /os/deletar?id=
func (h *WorkOrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	id, ok := idParam(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	customerID, filenames, err := h.Svc.Delete(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	for _, name := range filenames {
		if err := h.Photos.Delete(context.Background(), name); err != nil {
			slog.Warn("removendo foto da OS excluída", "filename", name, "error", err)
		}
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		return
	}
	http.Redirect(w, r, "/clientes/detalhes?id="+strconv.Itoa(int(customerID)), statusSeeOther)
}

// AddServiceItem: POST /os/itens/servico?os_id=
func (h *WorkOrderHandler) AddServiceItem(w http.ResponseWriter, r *http.Request) {
	h.addItem(w, r, func(orderID uint) (any, error) {
		catalogID, ok := idParam(r, "servico_id")
		if !ok {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
			return nil, errHandled
		}
		return h.Svc.AddServiceItem(orderID, catalogID, r.FormValue("quantity"), r.FormValue("charged_price"))
	})
}

// AddPartItem: POST /os/itens/peca?os_id=
func (h *WorkOrderHandler) AddPartItem(w http.ResponseWriter, r *http.Request) {
	h.addItem(w, r, func(orderID uint) (any, error) {
		catalogID, ok := idParam(r, "peca_id")
		if !ok {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
			return nil, errHandled
		}
		return h.Svc.AddPartItem(orderID, catalogID, r.FormValue("quantity"), r.FormValue("charged_price"))
	})
}

func (h *WorkOrderHandler) addItem(w http.ResponseWriter, r *http.Request, add func(orderID uint) (any, error)) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	orderID, ok := idParam(r, "os_id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	item, err := add(orderID)
	if err == errHandled {
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, item)
		return
	}
	http.Redirect(w, r, "/os/detalhes?id="+strconv.Itoa(int(orderID)), statusSeeOther)
}

// RemoveServiceItem: POST /os/itens/servico/deletar?id=
func (h *WorkOrderHandler) RemoveServiceItem(w http.ResponseWriter, r *http.Request) {
	h.removeItem(w, r, h.Svc.RemoveServiceItem)
}

// RemovePartItem: POST /os/itens/peca/deletar?id=
func (h *WorkOrderHandler) RemovePartItem(w http.ResponseWriter, r *http.Request) {
	h.removeItem(w, r, h.Svc.RemovePartItem)
}

func (h *WorkOrderHandler) removeItem(w http.ResponseWriter, r *http.Request, remove func(uint) (uint, error)) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	id, ok := idParam(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	orderID, err := remove(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"status": "deleted", "work_order_id": orderID})
		return
	}
	http.Redirect(w, r, "/os/detalhes?id="+strconv.Itoa(int(orderID)), statusSeeOther)
}

// PDF: GET /os/pdf?id=
func (h *WorkOrderHandler) PDF(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	order, err := h.Svc.Get(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	data, err := pdf.Render(pdf.FromWorkOrder(order))
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "pdf_generation_failed", nil)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="os-`+order.FormattedNumber()+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Doc: GET /os/doc?id= serves the same document as a Word download.
func (h *WorkOrderHandler) Doc(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	order, err := h.Svc.Get(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/msword")
	w.Header().Set("Content-Disposition", `attachment; filename="os-`+order.FormattedNumber()+`.doc"`)
	doc := pdf.FromWorkOrder(order)
	if err := view.RenderStandalone(w, "document_doc.html", map[string]any{"Doc": doc}); err != nil {
		slog.Error("gerando documento Word", "id", id, "error", err)
	}
}
