package service

import (
	"context"

	"github.com/azar84/pmp-ledger/internal/config"
	"github.com/azar84/pmp-ledger/internal/ledger"
	"github.com/azar84/pmp-ledger/internal/model"
)

// LedgerStore persists subcontractors and the contract register.
type LedgerStore interface {
	GetSubcontractor(ctx context.Context, id int64) (*model.Subcontractor, error)
	CreatePurchaseOrder(ctx context.Context, po model.PurchaseOrder) (*model.PurchaseOrder, error)
	UpdatePurchaseOrder(ctx context.Context, po model.PurchaseOrder) (*model.PurchaseOrder, error)
	DeletePurchaseOrder(ctx context.Context, id int64) error
	GetPurchaseOrder(ctx context.Context, id int64) (*model.PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, subcontractorID int64) ([]model.PurchaseOrder, error)
	CreateChangeOrder(ctx context.Context, co model.ChangeOrder) (*model.ChangeOrder, error)
	UpdateChangeOrder(ctx context.Context, co model.ChangeOrder) (*model.ChangeOrder, error)
	DeleteChangeOrder(ctx context.Context, id int64) error
	GetChangeOrder(ctx context.Context, id int64) (*model.ChangeOrder, error)
	ListChangeOrders(ctx context.Context, purchaseOrderID int64) ([]model.ChangeOrder, error)
	ListChangeOrdersForSubcontractor(ctx context.Context, subcontractorID int64) ([]model.ChangeOrder, error)
}

// InvoiceStore persists invoices.
type InvoiceStore interface {
	CreateInvoice(ctx context.Context, inv model.Invoice) (*model.Invoice, error)
	GetInvoice(ctx context.Context, id int64) (*model.Invoice, error)
	ListInvoices(ctx context.Context, subcontractorID int64) ([]model.Invoice, error)
	ListInvoicesForPO(ctx context.Context, purchaseOrderID int64) ([]model.Invoice, error)
}

// PaymentStore persists payments with their allocation rows; every write
// recomputes the touched invoices' statuses in the same transaction.
type PaymentStore interface {
	CreatePayment(ctx context.Context, payment model.Payment) (*model.Payment, error)
	UpdatePayment(ctx context.Context, payment model.Payment) (*model.Payment, error)
	DeletePayment(ctx context.Context, id int64) error
	SetLiquidated(ctx context.Context, id int64, liquidated bool) error
	GetPayment(ctx context.Context, id int64) (*model.Payment, error)
	ListPayments(ctx context.Context, subcontractorID int64) ([]model.Payment, error)
}

func ratesFrom(cfg *config.Config) ledger.Rates {
	return ledger.Rates{
		VATPercent:       cfg.Ledger.VATPercent,
		RetentionPercent: cfg.Ledger.RetentionPercent,
		AdvancePercent:   cfg.Ledger.AdvancePercent,
	}
}
