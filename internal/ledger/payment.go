package ledger

import (
	"fmt"
	"time"

	"github.com/azar84/pmp-ledger/internal/model"
)

// PaymentLine is one invoice allocation inside a payment.
type PaymentLine struct {
	InvoiceID     int64
	PaymentAmount float64
	VATAmount     float64
}

// PaymentInput carries the raw form values for a new or replaced payment.
type PaymentInput struct {
	Lines          []PaymentLine
	PaymentMethod  model.PaymentMethod
	InstrumentType *model.InstrumentType
	PaymentDate    time.Time
	DueDate        *time.Time
	Liquidated     bool
	Notes          string
}

// BuildPayment validates the input and assembles a payment with its
// allocation rows and totals. CurrentDated payments settle on the spot, so
// liquidated is forced false for them regardless of the input.
func BuildPayment(in PaymentInput) (model.Payment, []string) {
	var errs []string
	if len(in.Lines) == 0 {
		errs = append(errs, "At least one invoice payment is required")
	}
	for i, line := range in.Lines {
		if line.InvoiceID == 0 {
			errs = append(errs, fmt.Sprintf("Invoice payment %d is missing an invoice", i+1))
		}
		if line.PaymentAmount <= 0 {
			errs = append(errs, fmt.Sprintf("Invoice payment %d must have a payment amount greater than zero", i+1))
		}
		if line.VATAmount < 0 {
			errs = append(errs, fmt.Sprintf("Invoice payment %d cannot have a negative VAT amount", i+1))
		}
	}
	if in.PaymentDate.IsZero() {
		errs = append(errs, "Payment date is required")
	}

	switch in.PaymentMethod {
	case model.PaymentMethodCurrentDated:
	case model.PaymentMethodPostDated:
		switch {
		case in.InstrumentType == nil:
			errs = append(errs, "Payment type (PDC, LC or Trust Receipt) is required for post-dated payments")
		case !validInstrument(*in.InstrumentType):
			errs = append(errs, "Payment type must be PDC, LC or Trust Receipt")
		}
		if in.DueDate == nil {
			errs = append(errs, "Due date is required for post-dated payments")
		}
	default:
		errs = append(errs, "Payment method must be CurrentDated or PostDated")
	}

	if len(errs) > 0 {
		return model.Payment{}, errs
	}

	payment := model.Payment{
		PaymentMethod:  in.PaymentMethod,
		InstrumentType: in.InstrumentType,
		PaymentDate:    in.PaymentDate,
		DueDate:        in.DueDate,
		Liquidated:     in.Liquidated,
		Notes:          in.Notes,
	}
	if in.PaymentMethod == model.PaymentMethodCurrentDated {
		payment.InstrumentType = nil
		payment.Liquidated = false
	}
	for _, line := range in.Lines {
		payment.TotalPaymentAmount += line.PaymentAmount
		payment.TotalVATAmount += line.VATAmount
		payment.Invoices = append(payment.Invoices, model.PaymentInvoice{
			InvoiceID:     line.InvoiceID,
			PaymentAmount: line.PaymentAmount,
			VATAmount:     line.VATAmount,
		})
	}
	payment.TotalPaymentAmount = round2(payment.TotalPaymentAmount)
	payment.TotalVATAmount = round2(payment.TotalVATAmount)
	return payment, nil
}

func validInstrument(t model.InstrumentType) bool {
	switch t {
	case model.InstrumentPDC, model.InstrumentLC, model.InstrumentTrustReceipt:
		return true
	}
	return false
}
