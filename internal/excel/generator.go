package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/azar84/pmp-ledger/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate builds the statement workbook: a summary sheet plus detail sheets
// for purchase orders, invoices and payments.
func (g *Generator) Generate(statement model.Statement) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, statement); err != nil {
		return nil, err
	}

	if err := g.writePurchaseOrders(file, statement); err != nil {
		return nil, err
	}
	if err := g.writeInvoices(file, statement.Invoices); err != nil {
		return nil, err
	}
	if err := g.writePayments(file, statement.Payments); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, statement model.Statement) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Subcontractor")
	set("B1", statement.Subcontractor.Name)

	rows := []struct {
		label string
		value float64
	}{
		{"Total Contract Amount", statement.Summary.TotalContractAmount},
		{"Total Invoiced", statement.Summary.TotalInvoiced},
		{"Total Paid", statement.Summary.TotalPaid},
		{"Committed Payments", statement.Summary.CommittedPayments},
		{"Balance To Be Paid", statement.Summary.BalanceToBePaid},
		{"Due Amount", statement.Summary.DueAmount},
		{"Certified Amount", statement.Summary.CertifiedAmount},
		{"Balance To Certify", statement.Summary.BalanceToCertify},
		{"LPO Balance", statement.Summary.LPOBalance},
	}
	for i, row := range rows {
		set(fmt.Sprintf("A%d", i+3), row.label)
		set(fmt.Sprintf("B%d", i+3), row.value)
	}
	return nil
}

func (g *Generator) writePurchaseOrders(file *excelize.File, statement model.Statement) error {
	sheet := "Purchase Orders"
	if _, err := file.NewSheet(sheet); err != nil {
		return err
	}
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{"LPO Number", "LPO Date", "Value", "VAT %", "Value With VAT", "Change Orders"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	coCount := make(map[int64]int)
	for _, co := range statement.ChangeOrders {
		coCount[co.PurchaseOrderID]++
	}
	for i, po := range statement.PurchaseOrders {
		row := i + 2
		set(fmt.Sprintf("A%d", row), po.LPONumber)
		set(fmt.Sprintf("B%d", row), po.LPODate.Format("2006-01-02"))
		set(fmt.Sprintf("C%d", row), po.LPOValue)
		set(fmt.Sprintf("D%d", row), po.VATPercent)
		set(fmt.Sprintf("E%d", row), po.LPOValueWithVAT)
		set(fmt.Sprintf("F%d", row), coCount[po.ID])
	}
	return nil
}

func (g *Generator) writeInvoices(file *excelize.File, invoices []model.Invoice) error {
	sheet := "Invoices"
	if _, err := file.NewSheet(sheet); err != nil {
		return err
	}
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{
		"Invoice No", "Date", "Due Date", "Type", "Amount", "VAT",
		"Down Payment Recovery", "Advance Recovery", "Retention",
		"Contra Charges", "Total", "Status",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i, inv := range invoices {
		row := i + 2
		dueDate := ""
		if inv.DueDate != nil {
			dueDate = inv.DueDate.Format("2006-01-02")
		}
		values := []interface{}{
			inv.InvoiceNumber,
			inv.InvoiceDate.Format("2006-01-02"),
			dueDate,
			string(inv.PaymentType),
			inv.InvoiceAmount,
			inv.VATAmount,
			inv.DownPaymentRecovery,
			inv.AdvanceRecovery,
			inv.Retention,
			inv.ContraChargesAmount,
			inv.TotalAmount,
			string(inv.Status),
		}
		for j, value := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			set(cell, value)
		}
	}
	return nil
}

func (g *Generator) writePayments(file *excelize.File, payments []model.Payment) error {
	sheet := "Payments"
	if _, err := file.NewSheet(sheet); err != nil {
		return err
	}
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{"Date", "Method", "Instrument", "Amount", "VAT", "Due Date", "Liquidated", "Invoices Settled"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i, p := range payments {
		row := i + 2
		instrument := ""
		if p.InstrumentType != nil {
			instrument = string(*p.InstrumentType)
		}
		dueDate := ""
		if p.DueDate != nil {
			dueDate = p.DueDate.Format("2006-01-02")
		}
		values := []interface{}{
			p.PaymentDate.Format("2006-01-02"),
			string(p.PaymentMethod),
			instrument,
			p.TotalPaymentAmount,
			p.TotalVATAmount,
			dueDate,
			p.Liquidated,
			len(p.Invoices),
		}
		for j, value := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			set(cell, value)
		}
	}
	return nil
}
