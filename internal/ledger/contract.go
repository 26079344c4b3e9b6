package ledger

import "github.com/azar84/pmp-ledger/internal/model"

type ContractTotal struct {
	BeforeVAT float64 `json:"before_vat"`
	VAT       float64 `json:"vat"`
	WithVAT   float64 `json:"with_vat"`
}

// ValueWithVAT applies a VAT percentage to a pre-VAT value.
func ValueWithVAT(value, vatPercent float64) float64 {
	return value * (1 + vatPercent/100)
}

// DefaultCOVAT is the VAT amount a change order gets when none is supplied.
func DefaultCOVAT(amount, vatPercent float64) float64 {
	return amount * vatPercent / 100
}

// ContractTotalFor sums a purchase order and its change orders. Additions
// increase the total, omissions decrease it.
func ContractTotalFor(po model.PurchaseOrder, cos []model.ChangeOrder) ContractTotal {
	total := ContractTotal{
		BeforeVAT: po.LPOValue,
		WithVAT:   po.LPOValueWithVAT,
	}
	for _, co := range cos {
		if co.PurchaseOrderID != po.ID {
			continue
		}
		total.BeforeVAT += co.Signed()
		total.WithVAT += co.SignedWithVAT()
	}
	total.VAT = total.WithVAT - total.BeforeVAT
	return total
}
