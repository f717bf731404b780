package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/oficinatec/oficina/internal/httpx"
	"github.com/oficinatec/oficina/internal/models"
)

// DashboardHandler shows the staff landing page: how many customers are
// registered and how many work orders are still open.
type DashboardHandler struct {
	DB *gorm.DB
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{DB: db}
}

// Index: GET /dashboard
func (h *DashboardHandler) Index(w http.ResponseWriter, r *http.Request) {
	var customers, openOrders int64
	if err := h.DB.Model(&models.Customer{}).Count(&customers).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	err := h.DB.Model(&models.WorkOrder{}).
		Where("status <> ?", models.WorkOrderStatusCompleted).
		Count(&openOrders).Error
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]int64{
			"customers":        customers,
			"open_work_orders": openOrders,
		})
		return
	}
	renderTemplate(w, r, "dashboard", map[string]any{
		"Customers":  customers,
		"OpenOrders": openOrders,
	})
}
