package model

import "time"

type PaymentType string

const (
	PaymentTypeAdvance          PaymentType = "AdvancePayment"
	PaymentTypeProgress         PaymentType = "ProgressPayment"
	PaymentTypeRetentionRelease PaymentType = "RetentionReleasePayment"
)

type InvoiceStatus string

const (
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusUnpaid        InvoiceStatus = "unpaid"
)

// Invoice is a point-in-time certification against a purchase order or a
// change order. Amounts are snapshotted at creation; later edits to the
// referenced PO do not recompute them. Status is a denormalized cache of
// the derivation over payment rows.
type Invoice struct {
	ID                  int64         `json:"id" gorm:"column:id"`
	SubcontractorID     int64         `json:"subcontractor_id" gorm:"column:subcontractor_id"`
	PurchaseOrderID     *int64        `json:"purchase_order_id,omitempty" gorm:"column:purchase_order_id"`
	ChangeOrderID       *int64        `json:"change_order_id,omitempty" gorm:"column:change_order_id"`
	InvoiceNumber       string        `json:"invoice_number" gorm:"column:invoice_number"`
	InvoiceDate         time.Time     `json:"invoice_date" gorm:"column:invoice_date"`
	DueDate             *time.Time    `json:"due_date,omitempty" gorm:"column:due_date"`
	PaymentType         PaymentType   `json:"payment_type" gorm:"column:payment_type"`
	InvoiceAmount       float64       `json:"invoice_amount" gorm:"column:invoice_amount"`
	VATAmount           float64       `json:"vat_amount" gorm:"column:vat_amount"`
	DownPaymentRecovery float64       `json:"down_payment_recovery" gorm:"column:down_payment_recovery"`
	AdvanceRecovery     float64       `json:"advance_recovery" gorm:"column:advance_recovery"`
	Retention           float64       `json:"retention" gorm:"column:retention"`
	ContraChargesAmount float64       `json:"contra_charges_amount" gorm:"column:contra_charges_amount"`
	TotalAmount         float64       `json:"total_amount" gorm:"column:total_amount"`
	Status              InvoiceStatus `json:"status" gorm:"column:status"`
	Notes               string        `json:"notes,omitempty" gorm:"column:notes"`
	CreatedAt           time.Time     `json:"created_at" gorm:"column:created_at"`
}
