// Package pdf renders work orders and quotes as downloadable PDF documents.
package pdf

import (
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/oficinatec/oficina/internal/models"
)

// ShopName heads every generated document. Overridable via env in main.
var ShopName = "Oficina Eletrônica"

// Item is one printable line: what, how many, at which captured price.
type Item struct {
	Description  string
	Quantity     int
	ChargedPrice float64
}

// Total is the line amount at the captured price.
func (it Item) Total() float64 { return float64(it.Quantity) * it.ChargedPrice }

// Document is the renderer-facing shape of a work order or quote.
type Document struct {
	Title        string
	Number       string
	Date         string
	Status       string
	CustomerName string
	Phone        string
	Address      string
	Equipment    string
	Brand        string
	Model        string
	SerialNumber string
	ProblemLabel string
	Problem      string
	Diagnosis    string
	Notes        string
	Items        []Item
	Total        float64
}

// FromWorkOrder flattens a loaded work order (customer and items preloaded)
// into a renderable document.
func FromWorkOrder(o *models.WorkOrder) Document {
	d := Document{
		Title:        "Ordem de Serviço",
		Number:       o.FormattedNumber(),
		Date:         o.CreatedAt.Format("02/01/2006"),
		Status:       string(o.Status),
		Equipment:    o.Equipment,
		Brand:        o.Brand,
		Model:        o.Model,
		SerialNumber: o.SerialNumber,
		ProblemLabel: "Defeito",
		Problem:      o.Defect,
		Diagnosis:    o.Diagnosis,
		Notes:        o.CustomerNotes,
		Total:        o.Total(),
	}
	if o.Customer != nil {
		d.CustomerName = o.Customer.Name
		d.Phone = o.Customer.Phone
		d.Address = o.Customer.FullAddress()
	}
	for _, it := range o.ServiceItems {
		name := ""
		if it.CatalogService != nil {
			name = it.CatalogService.Name
		}
		d.Items = append(d.Items, Item{Description: name, Quantity: it.Quantity, ChargedPrice: it.ChargedPrice})
	}
	for _, it := range o.PartItems {
		name := ""
		if it.CatalogPart != nil {
			name = it.CatalogPart.Name
		}
		d.Items = append(d.Items, Item{Description: name, Quantity: it.Quantity, ChargedPrice: it.ChargedPrice})
	}
	return d
}

// FromQuote flattens a loaded quote into a renderable document.
func FromQuote(q *models.Quote) Document {
	d := Document{
		Title:        "Orçamento",
		Number:       q.FormattedNumber(),
		Date:         q.CreatedAt.Format("02/01/2006"),
		Status:       string(q.Status),
		Equipment:    q.Equipment,
		Brand:        q.Brand,
		Model:        q.Model,
		SerialNumber: q.SerialNumber,
		ProblemLabel: "Problema informado",
		Problem:      q.ReportedProblem,
		Diagnosis:    q.Diagnosis,
		Notes:        q.CustomerNotes,
		Total:        q.Total(),
	}
	if q.Customer != nil {
		d.CustomerName = q.Customer.Name
		d.Phone = q.Customer.Phone
		d.Address = q.Customer.FullAddress()
	}
	for _, it := range q.ServiceItems {
		name := ""
		if it.CatalogService != nil {
			name = it.CatalogService.Name
		}
		d.Items = append(d.Items, Item{Description: name, Quantity: it.Quantity, ChargedPrice: it.ChargedPrice})
	}
	for _, it := range q.PartItems {
		name := ""
		if it.CatalogPart != nil {
			name = it.CatalogPart.Name
		}
		d.Items = append(d.Items, Item{Description: name, Quantity: it.Quantity, ChargedPrice: it.ChargedPrice})
	}
	return d
}

// Render produces the PDF bytes for a document.
func Render(d Document) ([]byte, error) {
	m := build(d)
	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("gerando PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func build(d Document) core.Maroto {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithRightMargin(15).
		WithTopMargin(15).
		Build()
	m := maroto.New(cfg)

	m.AddRows(
		row.New(10).Add(
			text.NewCol(8, ShopName, props.Text{Size: 16, Style: fontstyle.Bold}),
			text.NewCol(4, d.Title+" "+d.Number, props.Text{Size: 12, Style: fontstyle.Bold, Align: align.Right}),
		),
		row.New(6).Add(
			text.NewCol(8, "Data: "+d.Date, props.Text{Size: 9}),
			text.NewCol(4, "Status: "+d.Status, props.Text{Size: 9, Align: align.Right}),
		),
		row.New(4).Add(line.NewCol(12)),
	)

	m.AddRows(
		row.New(6).Add(text.NewCol(12, "Cliente", props.Text{Size: 10, Style: fontstyle.Bold})),
		row.New(5).Add(text.NewCol(12, d.CustomerName+"  ·  "+d.Phone, props.Text{Size: 9})),
	)
	if d.Address != "" {
		m.AddRow(5, text.NewCol(12, strings.ReplaceAll(d.Address, "\n", " - "), props.Text{Size: 9}))
	}

	equipment := d.Equipment
	if d.Brand != "" || d.Model != "" {
		equipment += "  (" + strings.TrimSpace(d.Brand+" "+d.Model) + ")"
	}
	if d.SerialNumber != "" {
		equipment += "  nº série " + d.SerialNumber
	}
	m.AddRows(
		row.New(6).Add(text.NewCol(12, "Equipamento", props.Text{Size: 10, Style: fontstyle.Bold})),
		row.New(5).Add(text.NewCol(12, equipment, props.Text{Size: 9})),
		row.New(6).Add(text.NewCol(12, d.ProblemLabel, props.Text{Size: 10, Style: fontstyle.Bold})),
		row.New(5).Add(text.NewCol(12, d.Problem, props.Text{Size: 9})),
	)
	if d.Diagnosis != "" {
		m.AddRows(
			row.New(6).Add(text.NewCol(12, "Diagnóstico", props.Text{Size: 10, Style: fontstyle.Bold})),
			row.New(5).Add(text.NewCol(12, d.Diagnosis, props.Text{Size: 9})),
		)
	}

	m.AddRows(
		row.New(4).Add(line.NewCol(12)),
		row.New(6).Add(
			text.NewCol(6, "Descrição", props.Text{Size: 9, Style: fontstyle.Bold}),
			text.NewCol(2, "Qtd", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Center}),
			text.NewCol(2, "Preço", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
			text.NewCol(2, "Subtotal", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
		),
	)
	for _, it := range d.Items {
		m.AddRow(5,
			text.NewCol(6, it.Description, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", it.Quantity), props.Text{Size: 9, Align: align.Center}),
			text.NewCol(2, Money(it.ChargedPrice), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, Money(it.Total()), props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRows(
		row.New(4).Add(line.NewCol(12)),
		row.New(7).Add(
			col.New(8),
			text.NewCol(2, "Total", props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
			text.NewCol(2, Money(d.Total), props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
		),
	)
	if d.Notes != "" {
		m.AddRows(
			row.New(6).Add(text.NewCol(12, "Observações", props.Text{Size: 10, Style: fontstyle.Bold})),
			row.New(5).Add(text.NewCol(12, d.Notes, props.Text{Size: 9})),
		)
	}
	return m
}

// Money formats an amount the Brazilian way: "R$ 1234,56".
func Money(v float64) string {
	return "R$ " + strings.ReplaceAll(fmt.Sprintf("%.2f", v), ".", ",")
}
