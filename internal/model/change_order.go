package model

import "time"

type ChangeOrderType string

const (
	ChangeOrderAddition ChangeOrderType = "addition"
	ChangeOrderOmission ChangeOrderType = "omission"
)

type ChangeOrder struct {
	ID              int64           `json:"id" gorm:"column:id"`
	PurchaseOrderID int64           `json:"purchase_order_id" gorm:"column:purchase_order_id"`
	CHRefNo         string          `json:"ch_ref_no" gorm:"column:ch_ref_no"`
	CHDate          time.Time       `json:"ch_date" gorm:"column:ch_date"`
	Type            ChangeOrderType `json:"type" gorm:"column:type"`
	Amount          float64         `json:"amount" gorm:"column:amount"`
	VATAmount       float64         `json:"vat_amount" gorm:"column:vat_amount"`
	AmountWithVAT   float64         `json:"amount_with_vat" gorm:"column:amount_with_vat"`
	Description     string          `json:"description,omitempty" gorm:"column:description"`
	CreatedAt       time.Time       `json:"created_at" gorm:"column:created_at"`
}

// Signed returns the change order's contribution to the contract value
// before VAT: additions increase it, omissions decrease it.
func (co ChangeOrder) Signed() float64 {
	if co.Type == ChangeOrderOmission {
		return -co.Amount
	}
	return co.Amount
}

// SignedWithVAT is Signed over the VAT-inclusive amount.
func (co ChangeOrder) SignedWithVAT() float64 {
	if co.Type == ChangeOrderOmission {
		return -co.AmountWithVAT
	}
	return co.AmountWithVAT
}
