package ledger

import (
	"fmt"
	"math"
	"time"

	"github.com/azar84/pmp-ledger/internal/model"
)

// ContractSnapshot is the state the invoice calculator works against: the
// target purchase order, its change orders, and every invoice already
// recorded against that purchase order (change-order advances included).
type ContractSnapshot struct {
	PO            *model.PurchaseOrder
	ChangeOrders  []model.ChangeOrder
	PriorInvoices []model.Invoice
}

// InvoiceInput carries the raw form values for a new invoice. Pointer fields
// are user-editable defaults: nil means "use the computed default".
type InvoiceInput struct {
	PaymentType         model.PaymentType
	PurchaseOrderID     *int64
	ChangeOrderID       *int64
	InvoiceNumber       string
	InvoiceDate         time.Time
	DueDate             *time.Time
	InvoiceAmount       *float64
	VATAmount           *float64
	Retention           *float64
	AdvanceRecovery     *float64
	DownPaymentRecovery float64
	ContraChargesAmount float64
	Notes               string
}

// DefaultAdvance picks the next advance target for a purchase order: the PO
// itself while its own advance is ungranted, then each change order in turn.
// ok is false once every target already has an advance invoice.
func DefaultAdvance(snap ContractSnapshot, rates Rates) (changeOrderID *int64, amount float64, ok bool) {
	if snap.PO == nil {
		return nil, 0, false
	}
	if !hasAdvance(snap.PriorInvoices, nil) {
		return nil, round2(snap.PO.LPOValue * rates.advanceDecimal()), true
	}
	for _, co := range snap.ChangeOrders {
		coID := co.ID
		if !hasAdvance(snap.PriorInvoices, &coID) {
			return &coID, round2(co.Amount * rates.advanceDecimal()), true
		}
	}
	return nil, 0, false
}

// BuildInvoice derives a complete invoice from the input and snapshot, or
// returns the list of validation messages that block it. The returned invoice
// is only meaningful when the message list is empty; no state is touched
// either way.
func BuildInvoice(in InvoiceInput, snap ContractSnapshot, rates Rates) (model.Invoice, []string) {
	var errs []string
	if in.InvoiceNumber == "" {
		errs = append(errs, "Invoice number is required")
	}
	if in.InvoiceDate.IsZero() {
		errs = append(errs, "Invoice date is required")
	}

	inv := model.Invoice{
		PurchaseOrderID: in.PurchaseOrderID,
		ChangeOrderID:   in.ChangeOrderID,
		InvoiceNumber:   in.InvoiceNumber,
		InvoiceDate:     in.InvoiceDate,
		DueDate:         in.DueDate,
		PaymentType:     in.PaymentType,
		Status:          model.InvoiceStatusUnpaid,
		Notes:           in.Notes,
	}

	switch in.PaymentType {
	case model.PaymentTypeAdvance:
		errs = append(errs, buildAdvance(&inv, in, snap, rates)...)
	case model.PaymentTypeProgress:
		errs = append(errs, buildProgress(&inv, in, snap, rates)...)
	case model.PaymentTypeRetentionRelease:
		errs = append(errs, buildRetentionRelease(&inv, in, snap, rates)...)
	default:
		errs = append(errs, "Payment type must be AdvancePayment, ProgressPayment or RetentionReleasePayment")
	}

	if len(errs) > 0 {
		return model.Invoice{}, errs
	}
	return inv, nil
}

func buildAdvance(inv *model.Invoice, in InvoiceInput, snap ContractSnapshot, rates Rates) []string {
	if snap.PO == nil {
		return []string{"Advance Payment requires a purchase order"}
	}

	var errs []string
	if in.ChangeOrderID != nil {
		co := findChangeOrder(snap.ChangeOrders, *in.ChangeOrderID)
		if co == nil {
			return []string{fmt.Sprintf("Change order %d does not belong to LPO %s", *in.ChangeOrderID, snap.PO.LPONumber)}
		}
		if hasAdvance(snap.PriorInvoices, in.ChangeOrderID) {
			errs = append(errs, fmt.Sprintf("An Advance Payment already exists for change order %s", co.CHRefNo))
		}
		inv.InvoiceAmount = round2(co.Amount * rates.advanceDecimal())
	} else {
		if hasAdvance(snap.PriorInvoices, nil) {
			errs = append(errs, fmt.Sprintf("An Advance Payment already exists for LPO %s", snap.PO.LPONumber))
		}
		inv.InvoiceAmount = round2(snap.PO.LPOValue * rates.advanceDecimal())
	}

	if in.InvoiceAmount != nil {
		inv.InvoiceAmount = *in.InvoiceAmount
	}
	if inv.InvoiceAmount <= 0 {
		errs = append(errs, "Down payment amount must be greater than zero")
	}

	inv.VATAmount = round2(inv.InvoiceAmount * rates.vatDecimal())
	if in.VATAmount != nil {
		inv.VATAmount = *in.VATAmount
	}
	// No recoveries or retention apply to advances.
	inv.TotalAmount = round2(inv.InvoiceAmount + inv.VATAmount)
	return errs
}

func buildProgress(inv *model.Invoice, in InvoiceInput, snap ContractSnapshot, rates Rates) []string {
	if snap.PO == nil {
		return []string{"Progress Payment requires a purchase order"}
	}

	var errs []string
	if in.InvoiceAmount == nil || *in.InvoiceAmount <= 0 {
		errs = append(errs, "Invoice amount must be greater than zero")
		return errs
	}
	inv.InvoiceAmount = *in.InvoiceAmount

	inv.Retention = round2(inv.InvoiceAmount * rates.retentionDecimal())
	if in.Retention != nil {
		inv.Retention = *in.Retention
	}
	inv.AdvanceRecovery = round2(inv.InvoiceAmount * rates.advanceDecimal())
	if in.AdvanceRecovery != nil {
		inv.AdvanceRecovery = *in.AdvanceRecovery
	}
	inv.DownPaymentRecovery = in.DownPaymentRecovery
	inv.ContraChargesAmount = in.ContraChargesAmount

	balance := BalanceToCertify(*snap.PO, snap.ChangeOrders, snap.PriorInvoices)
	certifiable := inv.InvoiceAmount - inv.AdvanceRecovery - inv.Retention - inv.ContraChargesAmount
	if certifiable-balance > Epsilon {
		errs = append(errs, fmt.Sprintf(
			"Invoice amount exceeds Balance to Certify (%.2f) for LPO %s", balance, snap.PO.LPONumber))
	}

	afterDeductions := inv.InvoiceAmount - inv.DownPaymentRecovery - inv.AdvanceRecovery - inv.Retention - inv.ContraChargesAmount
	inv.VATAmount = round2(afterDeductions * rates.vatDecimal())
	if in.VATAmount != nil {
		inv.VATAmount = *in.VATAmount
	}
	inv.TotalAmount = round2(afterDeductions + inv.VATAmount)
	return errs
}

func buildRetentionRelease(inv *model.Invoice, in InvoiceInput, snap ContractSnapshot, rates Rates) []string {
	if snap.PO == nil {
		return []string{"Retention Release Payment requires a purchase order"}
	}

	var errs []string
	if in.InvoiceAmount == nil || *in.InvoiceAmount <= 0 {
		errs = append(errs, "Release amount must be greater than zero")
		return errs
	}
	inv.InvoiceAmount = *in.InvoiceAmount

	available := AvailableRetention(snap.PriorInvoices)
	if inv.InvoiceAmount-available > Epsilon {
		errs = append(errs, fmt.Sprintf(
			"Release amount exceeds available retention (%.2f) for LPO %s", available, snap.PO.LPONumber))
	}

	inv.VATAmount = round2(inv.InvoiceAmount * rates.vatDecimal())
	if in.VATAmount != nil {
		inv.VATAmount = *in.VATAmount
	}
	inv.TotalAmount = round2(inv.InvoiceAmount + inv.VATAmount)
	return errs
}

// BalanceToCertify is the contract value (pre-VAT, change orders signed in)
// not yet certified by Progress Payment invoices.
func BalanceToCertify(po model.PurchaseOrder, cos []model.ChangeOrder, invoices []model.Invoice) float64 {
	balance := po.LPOValue
	for _, co := range cos {
		if co.PurchaseOrderID == po.ID {
			balance += co.Signed()
		}
	}
	for _, inv := range invoices {
		if inv.PaymentType == model.PaymentTypeProgress {
			balance -= inv.InvoiceAmount
		}
	}
	return balance
}

// AvailableRetention is retention withheld by prior Progress invoices minus
// what earlier Retention Release invoices already released.
func AvailableRetention(invoices []model.Invoice) float64 {
	var available float64
	for _, inv := range invoices {
		switch inv.PaymentType {
		case model.PaymentTypeProgress:
			available += inv.Retention
		case model.PaymentTypeRetentionRelease:
			available -= inv.InvoiceAmount
		}
	}
	return available
}

func hasAdvance(invoices []model.Invoice, changeOrderID *int64) bool {
	for _, inv := range invoices {
		if inv.PaymentType != model.PaymentTypeAdvance {
			continue
		}
		if changeOrderID == nil {
			if inv.ChangeOrderID == nil {
				return true
			}
			continue
		}
		if inv.ChangeOrderID != nil && *inv.ChangeOrderID == *changeOrderID {
			return true
		}
	}
	return false
}

func findChangeOrder(cos []model.ChangeOrder, id int64) *model.ChangeOrder {
	for i := range cos {
		if cos[i].ID == id {
			return &cos[i]
		}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
