package model

import "time"

type PurchaseOrder struct {
	ID              int64     `json:"id" gorm:"column:id"`
	SubcontractorID int64     `json:"subcontractor_id" gorm:"column:subcontractor_id"`
	LPONumber       string    `json:"lpo_number" gorm:"column:lpo_number"`
	LPODate         time.Time `json:"lpo_date" gorm:"column:lpo_date"`
	LPOValue        float64   `json:"lpo_value" gorm:"column:lpo_value"`
	VATPercent      float64   `json:"vat_percent" gorm:"column:vat_percent"`
	LPOValueWithVAT float64   `json:"lpo_value_with_vat" gorm:"column:lpo_value_with_vat"`
	Notes           string    `json:"notes,omitempty" gorm:"column:notes"`
	CreatedAt       time.Time `json:"created_at" gorm:"column:created_at"`
}
