package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/azar84/pmp-ledger/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

// Generate renders a subcontractor statement: summary figures, then the
// invoice and payment breakdowns.
func (g *Generator) Generate(statement model.Statement) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "Subcontractor Statement", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, statement.Subcontractor.Name, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s", time.Now().Format("02.01.2006")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	g.writeSummary(pdf, statement.Summary)
	pdf.Ln(4)
	g.writeInvoices(pdf, statement.Invoices)
	pdf.Ln(4)
	g.writePayments(pdf, statement.Payments)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(pdf *gofpdf.Fpdf, summary model.Summary) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Summary", "", 1, "L", false, 0, "")

	rows := []struct {
		label string
		value float64
	}{
		{"Total Contract Amount", summary.TotalContractAmount},
		{"Total Invoiced", summary.TotalInvoiced},
		{"Total Paid", summary.TotalPaid},
		{"Committed Payments", summary.CommittedPayments},
		{"Balance To Be Paid", summary.BalanceToBePaid},
		{"Due Amount", summary.DueAmount},
		{"Certified Amount", summary.CertifiedAmount},
		{"Balance To Certify", summary.BalanceToCertify},
		{"LPO Balance", summary.LPOBalance},
	}
	pdf.SetFont(g.fontName, "", 10)
	for _, row := range rows {
		pdf.CellFormat(90, 7, row.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, formatAmount(row.value), "1", 1, "R", false, 0, "")
	}
}

func (g *Generator) writeInvoices(pdf *gofpdf.Fpdf, invoices []model.Invoice) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Invoices", "", 1, "L", false, 0, "")

	headers := []string{"Invoice No", "Date", "Type", "Amount", "VAT", "Retention", "Total", "Status"}
	widths := []float64{35, 25, 50, 30, 25, 28, 30, 30}
	g.tableRow(pdf, headers, widths, true)
	for _, inv := range invoices {
		g.tableRow(pdf, []string{
			inv.InvoiceNumber,
			inv.InvoiceDate.Format("02.01.2006"),
			string(inv.PaymentType),
			formatAmount(inv.InvoiceAmount),
			formatAmount(inv.VATAmount),
			formatAmount(inv.Retention),
			formatAmount(inv.TotalAmount),
			string(inv.Status),
		}, widths, false)
	}
}

func (g *Generator) writePayments(pdf *gofpdf.Fpdf, payments []model.Payment) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Payments", "", 1, "L", false, 0, "")

	headers := []string{"Date", "Method", "Instrument", "Amount", "VAT", "Liquidated"}
	widths := []float64{30, 35, 35, 35, 30, 30}
	g.tableRow(pdf, headers, widths, true)
	for _, p := range payments {
		instrument := "-"
		if p.InstrumentType != nil {
			instrument = string(*p.InstrumentType)
		}
		liquidated := "no"
		if p.Liquidated {
			liquidated = "yes"
		}
		if p.PaymentMethod == model.PaymentMethodCurrentDated {
			liquidated = "-"
		}
		g.tableRow(pdf, []string{
			p.PaymentDate.Format("02.01.2006"),
			string(p.PaymentMethod),
			instrument,
			formatAmount(p.TotalPaymentAmount),
			formatAmount(p.TotalVATAmount),
			liquidated,
		}, widths, false)
	}
}

func (g *Generator) tableRow(pdf *gofpdf.Fpdf, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(g.fontName, style, 9)
	for i, col := range cols {
		align := "L"
		if i >= 3 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func formatAmount(value float64) string {
	return fmt.Sprintf("%.2f", value)
}
