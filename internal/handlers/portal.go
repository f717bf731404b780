package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/oficinatec/oficina/internal/auth"
	"github.com/oficinatec/oficina/internal/httpx"
	"github.com/oficinatec/oficina/internal/models"
	"github.com/oficinatec/oficina/internal/services"
)

// PortalHandler is the customer-facing read-only area. A customer sees the
// documents that belong to them and nothing else; internal notes stay out
// of the portal templates.
type PortalHandler struct {
	DB         *gorm.DB
	WorkOrders *services.WorkOrderService
	Quotes     *services.QuoteService
}

func NewPortalHandler(db *gorm.DB) *PortalHandler {
	return &PortalHandler{
		DB:         db,
		WorkOrders: services.NewWorkOrderService(db),
		Quotes:     services.NewQuoteService(db),
	}
}

func customerID(r *http.Request) (uint, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok || !p.IsCustomer() {
		return 0, false
	}
	return p.ID, true
}

// Home: GET /portal lists the customer's own documents, newest first.
func (h *PortalHandler) Home(w http.ResponseWriter, r *http.Request) {
	cid, ok := customerID(r)
	if !ok {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	var customer models.Customer
	if err := h.DB.First(&customer, cid).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	var orders []models.WorkOrder
	if err := h.DB.Where("customer_id = ?", cid).Order("created_at DESC").Find(&orders).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	var quotes []models.Quote
	if err := h.DB.Where("customer_id = ?", cid).Order("created_at DESC").Find(&quotes).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"work_orders": orders, "quotes": quotes})
		return
	}
	renderTemplate(w, r, "portal_home", map[string]any{
		"Customer": customer,
		"Orders":   orders,
		"Quotes":   quotes,
	})
}

// WorkOrder: GET /portal/os?id= serves only the customer's own order.
func (h *PortalHandler) WorkOrder(w http.ResponseWriter, r *http.Request) {
	cid, ok := customerID(r)
	if !ok {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	id, ok := idParam(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	order, err := h.WorkOrders.GetForCustomer(id, cid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"order": order, "total": order.Total()})
		return
	}
	renderTemplate(w, r, "portal_workorder", map[string]any{"Order": order, "Total": order.Total()})
}

// Quote: GET /portal/orcamento?id= serves only the customer's own quote.
func (h *PortalHandler) Quote(w http.ResponseWriter, r *http.Request) {
	cid, ok := customerID(r)
	if !ok {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	id, ok := idParam(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	quote, err := h.Quotes.GetForCustomer(id, cid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"quote": quote, "total": quote.Total()})
		return
	}
	renderTemplate(w, r, "portal_quote", map[string]any{"Quote": quote, "Total": quote.Total()})
}
