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

// QuoteHandler serves the staff quote routes, including the conversion
// of an approved quote into a work order.
type QuoteHandler struct {
	DB      *gorm.DB
	Svc     *services.QuoteService
	Catalog *services.CatalogSvc
	Photos  photostore.PhotoStore
}

func NewQuoteHandler(db *gorm.DB, photos photostore.PhotoStore) *QuoteHandler {
	return &QuoteHandler{
		DB:      db,
		Svc:     services.NewQuoteService(db),
		Catalog: services.NewCatalogSvc(db),
		Photos:  photos,
	}
}

func quoteInputFromForm(r *http.Request) services.QuoteInput {
	status := models.QuoteStatus(r.FormValue("status"))
	if status == "" {
		status = models.QuoteStatusPending
	}
	return services.QuoteInput{
		Equipment:       r.FormValue("equipment"),
		Brand:           r.FormValue("brand"),
		Model:           r.FormValue("model"),
		SerialNumber:    r.FormValue("serial_number"),
		Technician:      r.FormValue("technician"),
		ReportedProblem: r.FormValue("reported_problem"),
		Diagnosis:       r.FormValue("diagnosis"),
		InternalNotes:   r.FormValue("internal_notes"),
		CustomerNotes:   r.FormValue("customer_notes"),
		Status:          status,
	}
}

// Create: GET form / POST /orcamentos/cadastrar?cliente_id=
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	customerID, ok := idParam(r, "cliente_id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "quote_form", map[string]any{"CustomerID": customerID})
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
	quote, err := h.Svc.Create(customerID, quoteInputFromForm(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, quote)
		return
	}
	http.Redirect(w, r, "/orcamentos/detalhes?id="+strconv.Itoa(int(quote.ID)), statusSeeOther)
}

// Detail: GET shows the quote, POST saves it. /orcamentos/detalhes?id=
func (h *QuoteHandler) Detail(w http.ResponseWriter, r *http.Request) {
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
		quote, err := h.Svc.Update(id, quoteInputFromForm(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if httpx.WantsJSON(r) {
			httpx.JSON(w, http.StatusOK, quote)
			return
		}
		http.Redirect(w, r, "/orcamentos/detalhes?id="+strconv.Itoa(int(quote.ID)), statusSeeOther)
		return
	}
	quote, err := h.Svc.Get(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"quote": quote, "total": quote.Total()})
		return
	}
	catalogServices, _ := h.Catalog.ListServices()
	catalogParts, _ := h.Catalog.ListParts()
	renderTemplate(w, r, "quote_detail", map[string]any{
		"Quote":           quote,
		"Total":           quote.Total(),
		"CatalogServices": catalogServices,
		"CatalogParts":    catalogParts,
	})
}

// Convert turns an approved quote into a numbered work order.
// POST /orcamentos/converter?id=
func (h *QuoteHandler) Convert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	id, ok := idParam(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	order, err := h.Svc.Convert(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"work_order_id": order.ID,
			"number":        order.FormattedNumber(),
		})
		return
	}
	http.Redirect(w, r, "/os/detalhes?id="+strconv.Itoa(int(order.ID)), statusSeeOther)
}

// Delete: POST /orcamentos/deletar?id=
func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
			slog.Warn("removendo foto do orçamento excluído", "filename", name, "error", err)
		}
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		return
	}
	http.Redirect(w, r, "/clientes/detalhes?id="+strconv.Itoa(int(customerID)), statusSeeOther)
}

// AddServiceItem: POST /orcamentos/itens/servico?orcamento_id=
func (h *QuoteHandler) AddServiceItem(w http.ResponseWriter, r *http.Request) {
	h.addItem(w, r, func(quoteID uint) (any, error) {
		catalogID, ok := idParam(r, "servico_id")
		if !ok {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
			return nil, errHandled
		}
		return h.Svc.AddServiceItem(quoteID, catalogID, r.FormValue("quantity"), r.FormValue("charged_price"))
	})
}

// AddPartItem: POST /orcamentos/itens/peca?orcamento_id=
func (h *QuoteHandler) AddPartItem(w http.ResponseWriter, r *http.Request) {
	h.addItem(w, r, func(quoteID uint) (any, error) {
		catalogID, ok := idParam(r, "peca_id")
		if !ok {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
			return nil, errHandled
		}
		return h.Svc.AddPartItem(quoteID, catalogID, r.FormValue("quantity"), r.FormValue("charged_price"))
	})
}

func (h *QuoteHandler) addItem(w http.ResponseWriter, r *http.Request, add func(quoteID uint) (any, error)) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	quoteID, ok := idParam(r, "orcamento_id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	item, err := add(quoteID)
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
	http.Redirect(w, r, "/orcamentos/detalhes?id="+strconv.Itoa(int(quoteID)), statusSeeOther)
}

// RemoveServiceItem: POST /orcamentos/itens/servico/deletar?id=
func (h *QuoteHandler) RemoveServiceItem(w http.ResponseWriter, r *http.Request) {
	h.removeItem(w, r, h.Svc.RemoveServiceItem)
}

// RemovePartItem: POST /orcamentos/itens/peca/deletar?id=
func (h *QuoteHandler) RemovePartItem(w http.ResponseWriter, r *http.Request) {
	h.removeItem(w, r, h.Svc.RemovePartItem)
}

func (h *QuoteHandler) removeItem(w http.ResponseWriter, r *http.Request, remove func(uint) (uint, error)) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	id, ok := idParam(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	quoteID, err := remove(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"status": "deleted", "quote_id": quoteID})
		return
	}
	http.Redirect(w, r, "/orcamentos/detalhes?id="+strconv.Itoa(int(quoteID)), statusSeeOther)
}

// PDF: GET /orcamentos/pdf?id=
func (h *QuoteHandler) PDF(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	quote, err := h.Svc.Get(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	data, err := pdf.Render(pdf.FromQuote(quote))
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "pdf_generation_failed", nil)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="orcamento-`+quote.FormattedNumber()+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Doc: GET /orcamentos/doc?id=
func (h *QuoteHandler) Doc(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	quote, err := h.Svc.Get(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/msword")
	w.Header().Set("Content-Disposition", `attachment; filename="orcamento-`+quote.FormattedNumber()+`.doc"`)
	doc := pdf.FromQuote(quote)
	if err := view.RenderStandalone(w, "document_doc.html", map[string]any{"Doc": doc}); err != nil {
		slog.Error("gerando documento Word", "id", id, "error", err)
	}
}
