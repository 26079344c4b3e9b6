package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/azar84/pmp-ledger/internal/ledger"
	"github.com/azar84/pmp-ledger/internal/model"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `
	id, subcontractor_id, total_payment_amount, total_vat_amount,
	payment_method, instrument_type, payment_date, due_date, liquidated,
	notes, created_at`

// CreatePayment persists the payment with its allocation rows and recomputes
// the status of every touched invoice, all in one transaction.
func (r *PaymentRepository) CreatePayment(ctx context.Context, payment model.Payment) (*model.Payment, error) {
	var saved model.Payment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Raw(`
			INSERT INTO payments (
				subcontractor_id,
				total_payment_amount,
				total_vat_amount,
				payment_method,
				instrument_type,
				payment_date,
				due_date,
				liquidated,
				notes
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING`+paymentColumns,
			payment.SubcontractorID,
			payment.TotalPaymentAmount,
			payment.TotalVATAmount,
			payment.PaymentMethod,
			payment.InstrumentType,
			payment.PaymentDate,
			payment.DueDate,
			payment.Liquidated,
			payment.Notes,
		).Scan(&saved).Error
		if err != nil {
			return err
		}

		for _, row := range payment.Invoices {
			if err := tx.Exec(`
				INSERT INTO payment_invoices (payment_id, invoice_id, payment_amount, vat_amount)
				VALUES (?, ?, ?, ?)
			`, saved.ID, row.InvoiceID, row.PaymentAmount, row.VATAmount).Error; err != nil {
				return err
			}
		}

		return recomputeStatuses(tx, invoiceIDs(payment.Invoices))
	})
	if err != nil {
		return nil, err
	}
	rows, err := r.listPaymentInvoices(ctx, saved.ID)
	if err != nil {
		return nil, err
	}
	saved.Invoices = rows
	return &saved, nil
}

// UpdatePayment replaces the payment fields and its allocation set, then
// recomputes statuses for the union of old and new invoice IDs.
func (r *PaymentRepository) UpdatePayment(ctx context.Context, payment model.Payment) (*model.Payment, error) {
	var saved model.Payment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var oldIDs []int64
		if err := tx.Raw(`
			SELECT invoice_id FROM payment_invoices WHERE payment_id = ?
		`, payment.ID).Scan(&oldIDs).Error; err != nil {
			return err
		}

		err := tx.Raw(`
			UPDATE payments
			SET
				total_payment_amount = ?,
				total_vat_amount = ?,
				payment_method = ?,
				instrument_type = ?,
				payment_date = ?,
				due_date = ?,
				liquidated = ?,
				notes = ?
			WHERE id = ?
			RETURNING`+paymentColumns,
			payment.TotalPaymentAmount,
			payment.TotalVATAmount,
			payment.PaymentMethod,
			payment.InstrumentType,
			payment.PaymentDate,
			payment.DueDate,
			payment.Liquidated,
			payment.Notes,
			payment.ID,
		).Scan(&saved).Error
		if err != nil {
			return err
		}
		if saved.ID == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Exec(`DELETE FROM payment_invoices WHERE payment_id = ?`, payment.ID).Error; err != nil {
			return err
		}
		for _, row := range payment.Invoices {
			if err := tx.Exec(`
				INSERT INTO payment_invoices (payment_id, invoice_id, payment_amount, vat_amount)
				VALUES (?, ?, ?, ?)
			`, payment.ID, row.InvoiceID, row.PaymentAmount, row.VATAmount).Error; err != nil {
				return err
			}
		}

		return recomputeStatuses(tx, union(oldIDs, invoiceIDs(payment.Invoices)))
	})
	if err != nil {
		return nil, err
	}
	rows, err := r.listPaymentInvoices(ctx, saved.ID)
	if err != nil {
		return nil, err
	}
	saved.Invoices = rows
	return &saved, nil
}

func (r *PaymentRepository) DeletePayment(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []int64
		if err := tx.Raw(`
			SELECT invoice_id FROM payment_invoices WHERE payment_id = ?
		`, id).Scan(&ids).Error; err != nil {
			return err
		}

		result := tx.Exec(`DELETE FROM payments WHERE id = ?`, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return recomputeStatuses(tx, ids)
	})
}

// SetLiquidated flips the liquidation flag on a payment row.
func (r *PaymentRepository) SetLiquidated(ctx context.Context, id int64, liquidated bool) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE payments SET liquidated = ? WHERE id = ?
	`, liquidated, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *PaymentRepository) GetPayment(ctx context.Context, id int64) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).Raw(`
		SELECT`+paymentColumns+`
		FROM payments
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	rows, err := r.listPaymentInvoices(ctx, id)
	if err != nil {
		return nil, err
	}
	payment.Invoices = rows
	return &payment, nil
}

func (r *PaymentRepository) ListPayments(ctx context.Context, subcontractorID int64) ([]model.Payment, error) {
	var payments []model.Payment
	err := r.db.WithContext(ctx).Raw(`
		SELECT`+paymentColumns+`
		FROM payments
		WHERE subcontractor_id = ?
		ORDER BY payment_date, id
	`, subcontractorID).Scan(&payments).Error
	if err != nil {
		return nil, err
	}
	for i := range payments {
		rows, err := r.listPaymentInvoices(ctx, payments[i].ID)
		if err != nil {
			return nil, err
		}
		payments[i].Invoices = rows
	}
	return payments, nil
}

func (r *PaymentRepository) listPaymentInvoices(ctx context.Context, paymentID int64) ([]model.PaymentInvoice, error) {
	var rows []model.PaymentInvoice
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, payment_id, invoice_id, payment_amount, vat_amount
		FROM payment_invoices
		WHERE payment_id = ?
		ORDER BY id
	`, paymentID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// recomputeStatuses re-derives each invoice's cached status from the payment
// rows, the source of truth.
func recomputeStatuses(tx *gorm.DB, ids []int64) error {
	for _, id := range ids {
		var row struct {
			TotalAmount float64
			TotalPaid   float64
		}
		err := tx.Raw(`
			SELECT
				i.total_amount,
				COALESCE((
					SELECT SUM(pi.payment_amount + pi.vat_amount)
					FROM payment_invoices pi
					WHERE pi.invoice_id = i.id
				), 0) AS total_paid
			FROM invoices i
			WHERE i.id = ?
		`, id).Scan(&row).Error
		if err != nil {
			return err
		}

		status := ledger.DeriveStatus(row.TotalAmount, row.TotalPaid)
		if err := tx.Exec(`UPDATE invoices SET status = ? WHERE id = ?`, status, id).Error; err != nil {
			return err
		}
	}
	return nil
}

func invoiceIDs(rows []model.PaymentInvoice) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.InvoiceID)
	}
	return ids
}

func union(a, b []int64) []int64 {
	seen := make(map[int64]struct{}, len(a)+len(b))
	result := make([]int64, 0, len(a)+len(b))
	for _, id := range append(append([]int64(nil), a...), b...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
