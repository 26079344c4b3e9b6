package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/azar84/pmp-ledger/internal/model"
)

func summarySnapshot() LedgerSnapshot {
	poID := int64(1)
	paidDue := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	overdue := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	instrument := model.InstrumentPDC

	return LedgerSnapshot{
		PurchaseOrders: []model.PurchaseOrder{
			{ID: 1, LPOValue: 100000, VATPercent: 5, LPOValueWithVAT: 105000},
		},
		ChangeOrders: []model.ChangeOrder{
			{ID: 5, PurchaseOrderID: 1, Type: model.ChangeOrderAddition, Amount: 10000, VATAmount: 500, AmountWithVAT: 10500},
		},
		Invoices: []model.Invoice{
			// Fully paid progress invoice.
			{ID: 1, PurchaseOrderID: &poID, PaymentType: model.PaymentTypeProgress,
				InvoiceAmount: 50000, Retention: 5000, TotalAmount: 42000, DueDate: &paidDue},
			// Partially paid progress invoice, overdue.
			{ID: 2, PurchaseOrderID: &poID, PaymentType: model.PaymentTypeProgress,
				InvoiceAmount: 20000, Retention: 2000, ContraChargesAmount: 1000, TotalAmount: 15750, DueDate: &overdue},
			// Untouched advance invoice, no due date.
			{ID: 3, PurchaseOrderID: &poID, PaymentType: model.PaymentTypeAdvance,
				InvoiceAmount: 10000, TotalAmount: 10500},
		},
		Payments: []model.Payment{
			{ID: 1, PaymentMethod: model.PaymentMethodCurrentDated,
				PaymentDate:        time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
				TotalPaymentAmount: 40000, TotalVATAmount: 2000,
				Invoices: []model.PaymentInvoice{{InvoiceID: 1, PaymentAmount: 40000, VATAmount: 2000}}},
			{ID: 2, PaymentMethod: model.PaymentMethodPostDated, InstrumentType: &instrument,
				PaymentDate:        time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
				TotalPaymentAmount: 5000, TotalVATAmount: 250, Liquidated: false,
				Invoices: []model.PaymentInvoice{{InvoiceID: 2, PaymentAmount: 5000, VATAmount: 250}}},
		},
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	rates := Rates{VATPercent: 5, RetentionPercent: 10, AdvancePercent: 10}
	s := Summarize(summarySnapshot(), rates, now)

	require.InDelta(t, 115500, s.TotalContractAmount, 0.01)
	require.InDelta(t, 68250, s.TotalInvoiced, 0.01)
	// Only invoice 1 is fully settled; invoice 2's 5250 is excluded.
	require.InDelta(t, 42000, s.TotalPaid, 0.01)
	require.InDelta(t, 5250, s.CommittedPayments, 0.01)
	// 0 + (15750-5250) + 10500.
	require.InDelta(t, 21000, s.BalanceToBePaid, 0.01)
	// Invoice 2 is overdue with 10500 remaining; invoice 3 has no due date.
	require.InDelta(t, 10500, s.DueAmount, 0.01)
	require.InDelta(t, 70000, s.CertifiedAmount, 0.01)
	// (100000 + 10000) - 70000.
	require.InDelta(t, 40000, s.BalanceToCertify, 0.01)
	// 115500 - 68250 - 1000*1.05.
	require.InDelta(t, 46200, s.LPOBalance, 0.01)
}

func TestLiquidationIndependence(t *testing.T) {
	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	rates := Rates{VATPercent: 5, RetentionPercent: 10, AdvancePercent: 10}

	snap := summarySnapshot()
	before := Summarize(snap, rates, now)

	statusBefore := make(map[int64]model.InvoiceStatus)
	for _, inv := range snap.Invoices {
		statusBefore[inv.ID] = DeriveStatus(inv.TotalAmount, PaidTowards(inv.ID, snap.Payments))
	}

	// Liquidate the post-dated payment.
	snap.Payments[1].Liquidated = true
	after := Summarize(snap, rates, now)

	for _, inv := range snap.Invoices {
		require.Equal(t, statusBefore[inv.ID],
			DeriveStatus(inv.TotalAmount, PaidTowards(inv.ID, snap.Payments)),
			"invoice %d status must not change with liquidation", inv.ID)
	}
	require.InDelta(t, 0, after.CommittedPayments, 0.01)
	require.InDelta(t, before.TotalPaid, after.TotalPaid, 0.01)
	require.InDelta(t, before.BalanceToBePaid, after.BalanceToBePaid, 0.01)
}

func TestDueAmountUsesLastPaymentDateForPaidInvoices(t *testing.T) {
	// A fully paid invoice contributes nothing to the due figure even when
	// its due date is in the past.
	poID := int64(1)
	due := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := LedgerSnapshot{
		PurchaseOrders: []model.PurchaseOrder{{ID: 1, LPOValue: 1000, LPOValueWithVAT: 1050}},
		Invoices: []model.Invoice{
			{ID: 1, PurchaseOrderID: &poID, PaymentType: model.PaymentTypeProgress,
				InvoiceAmount: 1000, TotalAmount: 1050, DueDate: &due},
		},
		Payments: []model.Payment{
			{ID: 1, PaymentMethod: model.PaymentMethodCurrentDated,
				PaymentDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
				Invoices:    []model.PaymentInvoice{{InvoiceID: 1, PaymentAmount: 1000, VATAmount: 50}}},
		},
	}
	s := Summarize(snap, Rates{VATPercent: 5}, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.InDelta(t, 0, s.DueAmount, 0.01)
	require.InDelta(t, 1050, s.TotalPaid, 0.01)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(LedgerSnapshot{}, Rates{VATPercent: 5}, time.Now())
	require.Zero(t, s.TotalContractAmount)
	require.Zero(t, s.TotalInvoiced)
	require.Zero(t, s.BalanceToBePaid)
}
