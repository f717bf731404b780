// Package reports runs the work-order report: filter by customer name and
// creation date range, newest first. Without filters it shows the latest
// ten orders.
package reports

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/oficinatec/oficina/internal/models"
	"github.com/oficinatec/oficina/internal/pdf"
)

// DefaultLimit applies when no filter is given.
const DefaultLimit = 10

// Filter narrows the report. Zero values mean "no constraint".
type Filter struct {
	CustomerName string
	From         time.Time
	To           time.Time
}

func (f Filter) empty() bool {
	return f.CustomerName == "" && f.From.IsZero() && f.To.IsZero()
}

// Row is one report line, already joined with the customer.
type Row struct {
	Order        models.WorkOrder
	CustomerName string
	Total        float64
}

// WorkOrders runs the report query. Items are preloaded so totals come from
// the same captured prices the documents show.
func WorkOrders(db *gorm.DB, f Filter) ([]Row, error) {
	q := db.Model(&models.WorkOrder{}).
		Joins("JOIN customers ON customers.id = work_orders.customer_id").
		Preload("Customer").
		Preload("ServiceItems").
		Preload("PartItems").
		Order("work_orders.created_at DESC, work_orders.id DESC")

	if f.CustomerName != "" {
		q = q.Where("customers.name LIKE ?", "%"+f.CustomerName+"%")
	}
	if !f.From.IsZero() {
		q = q.Where("work_orders.created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		// inclusive end date
		q = q.Where("work_orders.created_at < ?", f.To.AddDate(0, 0, 1))
	}
	if f.empty() {
		q = q.Limit(DefaultLimit)
	}

	var orders []models.WorkOrder
	if err := q.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("consultando relatório: %w", err)
	}
	rows := make([]Row, 0, len(orders))
	for i := range orders {
		row := Row{Order: orders[i], Total: orders[i].Total()}
		if orders[i].Customer != nil {
			row.CustomerName = orders[i].Customer.Name
		}
		rows = append(rows, row)
	}
	return rows, nil
}

var xlsxHeader = []string{"Número", "Data", "Cliente", "Equipamento", "Status", "Total"}

// XLSX renders the report rows as a spreadsheet.
func XLSX(rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Ordens de Serviço"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	for i, title := range xlsxHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, err
		}
	}
	for i, row := range rows {
		values := []any{
			row.Order.FormattedNumber(),
			row.Order.CreatedAt.Format("02/01/2006"),
			row.CustomerName,
			row.Order.Equipment,
			string(row.Order.Status),
			pdf.Money(row.Total),
		}
		for j, v := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("gerando planilha: %w", err)
	}
	return buf.Bytes(), nil
}
