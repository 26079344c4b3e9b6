package model

// Summary holds the aggregate figures for a subcontractor ledger, optionally
// scoped to a single purchase order.
type Summary struct {
	TotalContractAmount float64 `json:"total_contract_amount"`
	TotalInvoiced       float64 `json:"total_invoiced"`
	TotalPaid           float64 `json:"total_paid"`
	CommittedPayments   float64 `json:"committed_payments"`
	BalanceToBePaid     float64 `json:"balance_to_be_paid"`
	DueAmount           float64 `json:"due_amount"`
	CertifiedAmount     float64 `json:"certified_amount"`
	BalanceToCertify    float64 `json:"balance_to_certify"`
	LPOBalance          float64 `json:"lpo_balance"`
}

// Statement bundles everything needed to render a subcontractor statement
// export: the raw ledger rows plus the computed summary.
type Statement struct {
	Subcontractor  Subcontractor
	PurchaseOrders []PurchaseOrder
	ChangeOrders   []ChangeOrder
	Invoices       []Invoice
	Payments       []Payment
	Summary        Summary
}
