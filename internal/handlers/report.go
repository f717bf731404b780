package handlers

import (
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/oficinatec/oficina/internal/httpx"
	"github.com/oficinatec/oficina/internal/reports"
	"github.com/oficinatec/oficina/internal/validation"
)

// ReportHandler serves the work-order report page and its spreadsheet
// export. Both read the same filter parameters.
type ReportHandler struct {
	DB *gorm.DB
}

func NewReportHandler(db *gorm.DB) *ReportHandler {
	return &ReportHandler{DB: db}
}

func reportFilter(r *http.Request) (reports.Filter, bool) {
	f := reports.Filter{CustomerName: r.URL.Query().Get("cliente")}
	if raw := r.URL.Query().Get("de"); raw != "" {
		t, err := validation.ParseDate(raw)
		if err != nil {
			return f, false
		}
		f.From = t
	}
	if raw := r.URL.Query().Get("ate"); raw != "" {
		t, err := validation.ParseDate(raw)
		if err != nil {
			return f, false
		}
		f.To = t
	}
	return f, true
}

// Index: GET /relatorios
func (h *ReportHandler) Index(w http.ResponseWriter, r *http.Request) {
	f, ok := reportFilter(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_date", nil)
		return
	}
	rows, err := reports.WorkOrders(h.DB, f)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, rows)
		return
	}
	renderTemplate(w, r, "reports", map[string]any{
		"Rows":     rows,
		"Customer": f.CustomerName,
		"From":     formatFilterDate(f.From),
		"To":       formatFilterDate(f.To),
	})
}

// Export: GET /relatorios/exportar, same filter, XLSX download.
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	f, ok := reportFilter(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_date", nil)
		return
	}
	rows, err := reports.WorkOrders(h.DB, f)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	data, err := reports.XLSX(rows)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "export_failed", nil)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="relatorio-os.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func formatFilterDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
