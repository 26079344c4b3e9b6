package model

import "time"

type PaymentMethod string

const (
	PaymentMethodCurrentDated PaymentMethod = "CurrentDated"
	PaymentMethodPostDated    PaymentMethod = "PostDated"
)

type InstrumentType string

const (
	InstrumentPDC          InstrumentType = "PDC"
	InstrumentLC           InstrumentType = "LC"
	InstrumentTrustReceipt InstrumentType = "TrustReceipt"
)

// PaymentInvoice allocates part of a payment to one invoice.
type PaymentInvoice struct {
	ID            int64   `json:"id" gorm:"column:id"`
	PaymentID     int64   `json:"payment_id" gorm:"column:payment_id"`
	InvoiceID     int64   `json:"invoice_id" gorm:"column:invoice_id"`
	PaymentAmount float64 `json:"payment_amount" gorm:"column:payment_amount"`
	VATAmount     float64 `json:"vat_amount" gorm:"column:vat_amount"`
}

// Payment settles one or more invoices, partially or fully. Liquidated is
// only meaningful for PostDated instruments; CurrentDated payments settle
// immediately and are never tracked as pending.
type Payment struct {
	ID                 int64            `json:"id" gorm:"column:id"`
	SubcontractorID    int64            `json:"subcontractor_id" gorm:"column:subcontractor_id"`
	TotalPaymentAmount float64          `json:"total_payment_amount" gorm:"column:total_payment_amount"`
	TotalVATAmount     float64          `json:"total_vat_amount" gorm:"column:total_vat_amount"`
	PaymentMethod      PaymentMethod    `json:"payment_method" gorm:"column:payment_method"`
	InstrumentType     *InstrumentType  `json:"payment_type,omitempty" gorm:"column:instrument_type"`
	PaymentDate        time.Time        `json:"payment_date" gorm:"column:payment_date"`
	DueDate            *time.Time       `json:"due_date,omitempty" gorm:"column:due_date"`
	Liquidated         bool             `json:"liquidated" gorm:"column:liquidated"`
	Notes              string           `json:"notes,omitempty" gorm:"column:notes"`
	Invoices           []PaymentInvoice `json:"payment_invoices" gorm:"-"`
	CreatedAt          time.Time        `json:"created_at" gorm:"column:created_at"`
}
