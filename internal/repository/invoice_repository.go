package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/azar84/pmp-ledger/internal/model"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

const invoiceColumns = `
	id, subcontractor_id, purchase_order_id, change_order_id, invoice_number,
	invoice_date, due_date, payment_type, invoice_amount, vat_amount,
	down_payment_recovery, advance_recovery, retention, contra_charges_amount,
	total_amount, status, notes, created_at`

func (r *InvoiceRepository) CreateInvoice(ctx context.Context, inv model.Invoice) (*model.Invoice, error) {
	var saved model.Invoice
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO invoices (
			subcontractor_id,
			purchase_order_id,
			change_order_id,
			invoice_number,
			invoice_date,
			due_date,
			payment_type,
			invoice_amount,
			vat_amount,
			down_payment_recovery,
			advance_recovery,
			retention,
			contra_charges_amount,
			total_amount,
			status,
			notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING`+invoiceColumns,
		inv.SubcontractorID,
		inv.PurchaseOrderID,
		inv.ChangeOrderID,
		inv.InvoiceNumber,
		inv.InvoiceDate,
		inv.DueDate,
		inv.PaymentType,
		inv.InvoiceAmount,
		inv.VATAmount,
		inv.DownPaymentRecovery,
		inv.AdvanceRecovery,
		inv.Retention,
		inv.ContraChargesAmount,
		inv.TotalAmount,
		inv.Status,
		inv.Notes,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *InvoiceRepository) GetInvoice(ctx context.Context, id int64) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).Raw(`
		SELECT`+invoiceColumns+`
		FROM invoices
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&inv).Error
	if err != nil {
		return nil, err
	}
	if inv.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &inv, nil
}

func (r *InvoiceRepository) ListInvoices(ctx context.Context, subcontractorID int64) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := r.db.WithContext(ctx).Raw(`
		SELECT`+invoiceColumns+`
		FROM invoices
		WHERE subcontractor_id = ?
		ORDER BY invoice_date, id
	`, subcontractorID).Scan(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// ListInvoicesForPO returns every invoice recorded against a purchase order,
// change-order advances included. This is the calculator's prior-invoice set.
func (r *InvoiceRepository) ListInvoicesForPO(ctx context.Context, purchaseOrderID int64) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := r.db.WithContext(ctx).Raw(`
		SELECT`+invoiceColumns+`
		FROM invoices
		WHERE purchase_order_id = ?
			OR change_order_id IN (
				SELECT id FROM change_orders WHERE purchase_order_id = ?
			)
		ORDER BY invoice_date, id
	`, purchaseOrderID, purchaseOrderID).Scan(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}
