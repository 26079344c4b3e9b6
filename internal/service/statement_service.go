package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/azar84/pmp-ledger/internal/config"
	"github.com/azar84/pmp-ledger/internal/ledger"
	"github.com/azar84/pmp-ledger/internal/model"
)

type ExcelGenerator interface {
	Generate(statement model.Statement) ([]byte, error)
}

type PDFGenerator interface {
	Generate(statement model.Statement) ([]byte, error)
}

// StatementService produces the subcontractor summary figures and the
// statement exports built on top of them.
type StatementService struct {
	ledgerStore  LedgerStore
	invoiceStore InvoiceStore
	paymentStore PaymentStore
	excel        ExcelGenerator
	pdf          PDFGenerator
	rates        ledger.Rates
}

func NewStatementService(
	ledgerStore LedgerStore,
	invoiceStore InvoiceStore,
	paymentStore PaymentStore,
	excel ExcelGenerator,
	pdf PDFGenerator,
	cfg *config.Config,
) *StatementService {
	return &StatementService{
		ledgerStore:  ledgerStore,
		invoiceStore: invoiceStore,
		paymentStore: paymentStore,
		excel:        excel,
		pdf:          pdf,
		rates:        ratesFrom(cfg),
	}
}

type StatementResult struct {
	FileName string
	Content  []byte
}

// Summary aggregates the ledger for a subcontractor, optionally scoped to a
// single purchase order.
func (s *StatementService) Summary(ctx context.Context, subcontractorID int64, purchaseOrderID *int64) (*model.Summary, error) {
	statement, err := s.buildStatement(ctx, subcontractorID, purchaseOrderID)
	if err != nil {
		return nil, err
	}
	return &statement.Summary, nil
}

func (s *StatementService) ExportExcel(ctx context.Context, subcontractorID int64, purchaseOrderID *int64) (*StatementResult, error) {
	statement, err := s.buildStatement(ctx, subcontractorID, purchaseOrderID)
	if err != nil {
		return nil, err
	}
	content, err := s.excel.Generate(*statement)
	if err != nil {
		return nil, err
	}
	return &StatementResult{
		FileName: buildFileName(statement.Subcontractor, "xlsx"),
		Content:  content,
	}, nil
}

func (s *StatementService) ExportPDF(ctx context.Context, subcontractorID int64, purchaseOrderID *int64) (*StatementResult, error) {
	statement, err := s.buildStatement(ctx, subcontractorID, purchaseOrderID)
	if err != nil {
		return nil, err
	}
	content, err := s.pdf.Generate(*statement)
	if err != nil {
		return nil, err
	}
	return &StatementResult{
		FileName: buildFileName(statement.Subcontractor, "pdf"),
		Content:  content,
	}, nil
}

func (s *StatementService) buildStatement(ctx context.Context, subcontractorID int64, purchaseOrderID *int64) (*model.Statement, error) {
	sub, err := s.ledgerStore.GetSubcontractor(ctx, subcontractorID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	pos, err := s.ledgerStore.ListPurchaseOrders(ctx, subcontractorID)
	if err != nil {
		return nil, err
	}
	cos, err := s.ledgerStore.ListChangeOrdersForSubcontractor(ctx, subcontractorID)
	if err != nil {
		return nil, err
	}
	invoices, err := s.invoiceStore.ListInvoices(ctx, subcontractorID)
	if err != nil {
		return nil, err
	}
	payments, err := s.paymentStore.ListPayments(ctx, subcontractorID)
	if err != nil {
		return nil, err
	}

	if purchaseOrderID != nil {
		pos, cos, invoices, payments = filterScope(*purchaseOrderID, pos, cos, invoices, payments)
		if len(pos) == 0 {
			return nil, ErrNotFound
		}
	}

	snap := ledger.LedgerSnapshot{
		PurchaseOrders: pos,
		ChangeOrders:   cos,
		Invoices:       invoices,
		Payments:       payments,
	}
	return &model.Statement{
		Subcontractor:  *sub,
		PurchaseOrders: pos,
		ChangeOrders:   cos,
		Invoices:       invoices,
		Payments:       payments,
		Summary:        ledger.Summarize(snap, s.rates, time.Now()),
	}, nil
}

// filterScope narrows every set to one purchase order: its change orders,
// the invoices against it, and the payments allocated to those invoices.
func filterScope(
	purchaseOrderID int64,
	pos []model.PurchaseOrder,
	cos []model.ChangeOrder,
	invoices []model.Invoice,
	payments []model.Payment,
) ([]model.PurchaseOrder, []model.ChangeOrder, []model.Invoice, []model.Payment) {
	var filteredPOs []model.PurchaseOrder
	for _, po := range pos {
		if po.ID == purchaseOrderID {
			filteredPOs = append(filteredPOs, po)
		}
	}

	coIDs := make(map[int64]struct{})
	var filteredCOs []model.ChangeOrder
	for _, co := range cos {
		if co.PurchaseOrderID == purchaseOrderID {
			filteredCOs = append(filteredCOs, co)
			coIDs[co.ID] = struct{}{}
		}
	}

	invIDs := make(map[int64]struct{})
	var filteredInvoices []model.Invoice
	for _, inv := range invoices {
		inScope := inv.PurchaseOrderID != nil && *inv.PurchaseOrderID == purchaseOrderID
		if !inScope && inv.ChangeOrderID != nil {
			_, inScope = coIDs[*inv.ChangeOrderID]
		}
		if inScope {
			filteredInvoices = append(filteredInvoices, inv)
			invIDs[inv.ID] = struct{}{}
		}
	}

	var filteredPayments []model.Payment
	for _, p := range payments {
		for _, row := range p.Invoices {
			if _, ok := invIDs[row.InvoiceID]; ok {
				filteredPayments = append(filteredPayments, p)
				break
			}
		}
	}
	return filteredPOs, filteredCOs, filteredInvoices, filteredPayments
}

func buildFileName(sub model.Subcontractor, ext string) string {
	name := sanitizeFileName(sub.Name)
	if name == "" {
		name = fmt.Sprintf("subcontractor-%d", sub.ID)
	}
	return fmt.Sprintf("statement-%s-%s.%s", name, time.Now().Format("20060102"), ext)
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
