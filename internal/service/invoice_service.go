package service

import (
	"context"

	"github.com/azar84/pmp-ledger/internal/config"
	"github.com/azar84/pmp-ledger/internal/ledger"
	"github.com/azar84/pmp-ledger/internal/model"
)

// InvoiceService turns invoice form input into persisted invoices via the
// pure calculator. The snapshot it feeds the calculator is loaded fresh per
// call; validation failures block the save without side effects.
type InvoiceService struct {
	ledgerStore  LedgerStore
	invoiceStore InvoiceStore
	rates        ledger.Rates
}

func NewInvoiceService(ledgerStore LedgerStore, invoiceStore InvoiceStore, cfg *config.Config) *InvoiceService {
	return &InvoiceService{
		ledgerStore:  ledgerStore,
		invoiceStore: invoiceStore,
		rates:        ratesFrom(cfg),
	}
}

func (s *InvoiceService) CreateInvoice(ctx context.Context, subcontractorID int64, in ledger.InvoiceInput) (*model.Invoice, error) {
	if _, err := s.ledgerStore.GetSubcontractor(ctx, subcontractorID); err != nil {
		return nil, mapStoreErr(err)
	}

	// An advance against a change order may arrive without the PO id;
	// resolve it through the change order.
	if in.PurchaseOrderID == nil && in.ChangeOrderID != nil {
		co, err := s.ledgerStore.GetChangeOrder(ctx, *in.ChangeOrderID)
		if err != nil {
			return nil, mapStoreErr(err)
		}
		poID := co.PurchaseOrderID
		in.PurchaseOrderID = &poID
	}
	if in.PurchaseOrderID == nil {
		return nil, validationErr([]string{"A purchase order is required"})
	}

	snap, err := s.loadSnapshot(ctx, *in.PurchaseOrderID)
	if err != nil {
		return nil, err
	}

	inv, msgs := ledger.BuildInvoice(in, *snap, s.rates)
	if len(msgs) > 0 {
		return nil, validationErr(msgs)
	}

	inv.SubcontractorID = subcontractorID
	return s.invoiceStore.CreateInvoice(ctx, inv)
}

// NextAdvance reports the next ungranted advance target and its default
// amount for a purchase order, for the caller to prefill the advance form.
func (s *InvoiceService) NextAdvance(ctx context.Context, purchaseOrderID int64) (*int64, float64, error) {
	snap, err := s.loadSnapshot(ctx, purchaseOrderID)
	if err != nil {
		return nil, 0, err
	}
	coID, amount, ok := ledger.DefaultAdvance(*snap, s.rates)
	if !ok {
		return nil, 0, validationErr([]string{"Every advance for this LPO has already been granted"})
	}
	return coID, amount, nil
}

func (s *InvoiceService) GetInvoice(ctx context.Context, id int64) (*model.Invoice, error) {
	inv, err := s.invoiceStore.GetInvoice(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return inv, nil
}

func (s *InvoiceService) ListInvoices(ctx context.Context, subcontractorID int64) ([]model.Invoice, error) {
	if _, err := s.ledgerStore.GetSubcontractor(ctx, subcontractorID); err != nil {
		return nil, mapStoreErr(err)
	}
	return s.invoiceStore.ListInvoices(ctx, subcontractorID)
}

func (s *InvoiceService) loadSnapshot(ctx context.Context, purchaseOrderID int64) (*ledger.ContractSnapshot, error) {
	po, err := s.ledgerStore.GetPurchaseOrder(ctx, purchaseOrderID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	cos, err := s.ledgerStore.ListChangeOrders(ctx, purchaseOrderID)
	if err != nil {
		return nil, err
	}
	prior, err := s.invoiceStore.ListInvoicesForPO(ctx, purchaseOrderID)
	if err != nil {
		return nil, err
	}
	return &ledger.ContractSnapshot{PO: po, ChangeOrders: cos, PriorInvoices: prior}, nil
}
