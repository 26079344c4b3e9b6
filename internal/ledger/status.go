package ledger

import "github.com/azar84/pmp-ledger/internal/model"

// Epsilon absorbs floating rounding when comparing money amounts.
const Epsilon = 0.01

// DeriveStatus classifies an invoice from its total against the sum paid
// toward it. Liquidation of the paying instrument is irrelevant here: a
// post-dated cheque counts as paid the moment it is allocated.
func DeriveStatus(totalAmount, totalPaid float64) model.InvoiceStatus {
	switch {
	case totalPaid >= totalAmount-Epsilon:
		return model.InvoiceStatusPaid
	case totalPaid > Epsilon:
		return model.InvoiceStatusPartiallyPaid
	default:
		return model.InvoiceStatusUnpaid
	}
}

// PaidTowards sums every allocation row referencing the invoice, payment and
// VAT portions both, across all payments.
func PaidTowards(invoiceID int64, payments []model.Payment) float64 {
	var paid float64
	for _, p := range payments {
		for _, row := range p.Invoices {
			if row.InvoiceID == invoiceID {
				paid += row.PaymentAmount + row.VATAmount
			}
		}
	}
	return paid
}
