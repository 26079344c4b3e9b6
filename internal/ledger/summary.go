package ledger

import (
	"time"

	"github.com/azar84/pmp-ledger/internal/model"
)

// LedgerSnapshot is the full (or PO-filtered) set of rows the aggregator
// works over.
type LedgerSnapshot struct {
	PurchaseOrders []model.PurchaseOrder
	ChangeOrders   []model.ChangeOrder
	Invoices       []model.Invoice
	Payments       []model.Payment
}

// Summarize computes the subcontractor summary figures over the snapshot.
// Payments toward partially-paid invoices do not count toward TotalPaid;
// only fully settled invoices do. Non-liquidated post-dated payments are the
// committed-payments figure, independent of invoice settlement.
func Summarize(snap LedgerSnapshot, rates Rates, now time.Time) model.Summary {
	var s model.Summary

	var contractBeforeVAT float64
	for _, po := range snap.PurchaseOrders {
		s.TotalContractAmount += po.LPOValueWithVAT
		contractBeforeVAT += po.LPOValue
	}
	for _, co := range snap.ChangeOrders {
		s.TotalContractAmount += co.SignedWithVAT()
		contractBeforeVAT += co.Signed()
	}

	var contraCharges float64
	for _, inv := range snap.Invoices {
		s.TotalInvoiced += inv.TotalAmount
		contraCharges += inv.ContraChargesAmount
		if inv.PaymentType == model.PaymentTypeProgress {
			s.CertifiedAmount += inv.InvoiceAmount
		}

		paid := PaidTowards(inv.ID, snap.Payments)
		if DeriveStatus(inv.TotalAmount, paid) == model.InvoiceStatusPaid {
			s.TotalPaid += paid
		}

		remaining := inv.TotalAmount - paid
		if remaining > 0 {
			s.BalanceToBePaid += remaining
		}

		if inv.DueDate != nil {
			reference := now
			if DeriveStatus(inv.TotalAmount, paid) == model.InvoiceStatusPaid {
				if last := lastPaymentDate(inv.ID, snap.Payments); !last.IsZero() {
					reference = last
				}
			}
			if inv.DueDate.Before(reference) && remaining > 0 {
				s.DueAmount += remaining
			}
		}
	}

	for _, p := range snap.Payments {
		if p.PaymentMethod == model.PaymentMethodPostDated && !p.Liquidated {
			s.CommittedPayments += p.TotalPaymentAmount + p.TotalVATAmount
		}
	}

	s.BalanceToCertify = contractBeforeVAT - s.CertifiedAmount
	s.LPOBalance = s.TotalContractAmount - s.TotalInvoiced - contraCharges*rates.vatMultiplier()

	s.TotalContractAmount = round2(s.TotalContractAmount)
	s.TotalInvoiced = round2(s.TotalInvoiced)
	s.TotalPaid = round2(s.TotalPaid)
	s.CommittedPayments = round2(s.CommittedPayments)
	s.BalanceToBePaid = round2(s.BalanceToBePaid)
	s.DueAmount = round2(s.DueAmount)
	s.CertifiedAmount = round2(s.CertifiedAmount)
	s.BalanceToCertify = round2(s.BalanceToCertify)
	s.LPOBalance = round2(s.LPOBalance)
	return s
}

func lastPaymentDate(invoiceID int64, payments []model.Payment) time.Time {
	var last time.Time
	for _, p := range payments {
		for _, row := range p.Invoices {
			if row.InvoiceID == invoiceID && p.PaymentDate.After(last) {
				last = p.PaymentDate
			}
		}
	}
	return last
}
