package service

import (
	"context"
	"fmt"

	"github.com/azar84/pmp-ledger/internal/ledger"
	"github.com/azar84/pmp-ledger/internal/model"
)

// PaymentService applies payments against invoices. Every mutation ends with
// a status recompute for the touched invoices, done by the store inside the
// same transaction as the write.
type PaymentService struct {
	ledgerStore  LedgerStore
	invoiceStore InvoiceStore
	paymentStore PaymentStore
}

func NewPaymentService(ledgerStore LedgerStore, invoiceStore InvoiceStore, paymentStore PaymentStore) *PaymentService {
	return &PaymentService{
		ledgerStore:  ledgerStore,
		invoiceStore: invoiceStore,
		paymentStore: paymentStore,
	}
}

func (s *PaymentService) CreatePayment(ctx context.Context, subcontractorID int64, in ledger.PaymentInput) (*model.Payment, error) {
	if _, err := s.ledgerStore.GetSubcontractor(ctx, subcontractorID); err != nil {
		return nil, mapStoreErr(err)
	}

	payment, msgs := ledger.BuildPayment(in)
	if len(msgs) > 0 {
		return nil, validationErr(msgs)
	}
	if err := s.checkInvoices(ctx, subcontractorID, payment.Invoices); err != nil {
		return nil, err
	}

	payment.SubcontractorID = subcontractorID
	return s.paymentStore.CreatePayment(ctx, payment)
}

// UpdatePayment fully replaces the payment's fields and allocation set. The
// store recomputes statuses for the union of old and new invoices.
func (s *PaymentService) UpdatePayment(ctx context.Context, subcontractorID, paymentID int64, in ledger.PaymentInput) (*model.Payment, error) {
	existing, err := s.paymentStore.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if existing.SubcontractorID != subcontractorID {
		return nil, ErrNotFound
	}

	payment, msgs := ledger.BuildPayment(in)
	if len(msgs) > 0 {
		return nil, validationErr(msgs)
	}
	if err := s.checkInvoices(ctx, subcontractorID, payment.Invoices); err != nil {
		return nil, err
	}

	payment.ID = paymentID
	payment.SubcontractorID = subcontractorID
	return s.paymentStore.UpdatePayment(ctx, payment)
}

// ToggleLiquidated flips the liquidation flag on a post-dated payment. It is
// a no-op for current-dated payments, which settle on the spot and have no
// pending instrument to honor. Invoice statuses are untouched either way;
// liquidation only feeds the committed-payments aggregate.
func (s *PaymentService) ToggleLiquidated(ctx context.Context, paymentID int64) (*model.Payment, error) {
	payment, err := s.paymentStore.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if payment.PaymentMethod != model.PaymentMethodPostDated {
		return payment, nil
	}
	if err := s.paymentStore.SetLiquidated(ctx, paymentID, !payment.Liquidated); err != nil {
		return nil, mapStoreErr(err)
	}
	payment.Liquidated = !payment.Liquidated
	return payment, nil
}

func (s *PaymentService) DeletePayment(ctx context.Context, paymentID int64) error {
	return mapStoreErr(s.paymentStore.DeletePayment(ctx, paymentID))
}

func (s *PaymentService) GetPayment(ctx context.Context, paymentID int64) (*model.Payment, error) {
	payment, err := s.paymentStore.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return payment, nil
}

func (s *PaymentService) ListPayments(ctx context.Context, subcontractorID int64) ([]model.Payment, error) {
	if _, err := s.ledgerStore.GetSubcontractor(ctx, subcontractorID); err != nil {
		return nil, mapStoreErr(err)
	}
	return s.paymentStore.ListPayments(ctx, subcontractorID)
}

func (s *PaymentService) checkInvoices(ctx context.Context, subcontractorID int64, rows []model.PaymentInvoice) error {
	for _, row := range rows {
		inv, err := s.invoiceStore.GetInvoice(ctx, row.InvoiceID)
		if err != nil {
			return mapStoreErr(err)
		}
		if inv.SubcontractorID != subcontractorID {
			return fmt.Errorf("%w: invoice %d does not belong to subcontractor %d", ErrInvalidInput, row.InvoiceID, subcontractorID)
		}
	}
	return nil
}
