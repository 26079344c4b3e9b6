package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/azar84/pmp-ledger/internal/model"
)

// LedgerRepository covers subcontractors and the contract register rows
// (purchase orders and change orders).
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) GetSubcontractor(ctx context.Context, id int64) (*model.Subcontractor, error) {
	var sub model.Subcontractor
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, project_id, name, contact_person, phone, email, created_at
		FROM subcontractors
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&sub).Error
	if err != nil {
		return nil, err
	}
	if sub.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &sub, nil
}

func (r *LedgerRepository) CreatePurchaseOrder(ctx context.Context, po model.PurchaseOrder) (*model.PurchaseOrder, error) {
	var saved model.PurchaseOrder
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO purchase_orders (
			subcontractor_id,
			lpo_number,
			lpo_date,
			lpo_value,
			vat_percent,
			lpo_value_with_vat,
			notes
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id, subcontractor_id, lpo_number, lpo_date, lpo_value,
			vat_percent, lpo_value_with_vat, notes, created_at
	`,
		po.SubcontractorID,
		po.LPONumber,
		po.LPODate,
		po.LPOValue,
		po.VATPercent,
		po.LPOValueWithVAT,
		po.Notes,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *LedgerRepository) UpdatePurchaseOrder(ctx context.Context, po model.PurchaseOrder) (*model.PurchaseOrder, error) {
	var saved model.PurchaseOrder
	err := r.db.WithContext(ctx).Raw(`
		UPDATE purchase_orders
		SET
			lpo_number = ?,
			lpo_date = ?,
			lpo_value = ?,
			vat_percent = ?,
			lpo_value_with_vat = ?,
			notes = ?
		WHERE id = ?
		RETURNING id, subcontractor_id, lpo_number, lpo_date, lpo_value,
			vat_percent, lpo_value_with_vat, notes, created_at
	`,
		po.LPONumber,
		po.LPODate,
		po.LPOValue,
		po.VATPercent,
		po.LPOValueWithVAT,
		po.Notes,
		po.ID,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	if saved.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &saved, nil
}

func (r *LedgerRepository) DeletePurchaseOrder(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Exec(`DELETE FROM purchase_orders WHERE id = ?`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *LedgerRepository) GetPurchaseOrder(ctx context.Context, id int64) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, subcontractor_id, lpo_number, lpo_date, lpo_value,
			vat_percent, lpo_value_with_vat, notes, created_at
		FROM purchase_orders
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&po).Error
	if err != nil {
		return nil, err
	}
	if po.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &po, nil
}

func (r *LedgerRepository) ListPurchaseOrders(ctx context.Context, subcontractorID int64) ([]model.PurchaseOrder, error) {
	var pos []model.PurchaseOrder
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, subcontractor_id, lpo_number, lpo_date, lpo_value,
			vat_percent, lpo_value_with_vat, notes, created_at
		FROM purchase_orders
		WHERE subcontractor_id = ?
		ORDER BY lpo_date, id
	`, subcontractorID).Scan(&pos).Error
	if err != nil {
		return nil, err
	}
	return pos, nil
}

func (r *LedgerRepository) CreateChangeOrder(ctx context.Context, co model.ChangeOrder) (*model.ChangeOrder, error) {
	var saved model.ChangeOrder
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO change_orders (
			purchase_order_id,
			ch_ref_no,
			ch_date,
			type,
			amount,
			vat_amount,
			amount_with_vat,
			description
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, purchase_order_id, ch_ref_no, ch_date, type, amount,
			vat_amount, amount_with_vat, description, created_at
	`,
		co.PurchaseOrderID,
		co.CHRefNo,
		co.CHDate,
		co.Type,
		co.Amount,
		co.VATAmount,
		co.AmountWithVAT,
		co.Description,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *LedgerRepository) UpdateChangeOrder(ctx context.Context, co model.ChangeOrder) (*model.ChangeOrder, error) {
	var saved model.ChangeOrder
	err := r.db.WithContext(ctx).Raw(`
		UPDATE change_orders
		SET
			ch_ref_no = ?,
			ch_date = ?,
			type = ?,
			amount = ?,
			vat_amount = ?,
			amount_with_vat = ?,
			description = ?
		WHERE id = ?
		RETURNING id, purchase_order_id, ch_ref_no, ch_date, type, amount,
			vat_amount, amount_with_vat, description, created_at
	`,
		co.CHRefNo,
		co.CHDate,
		co.Type,
		co.Amount,
		co.VATAmount,
		co.AmountWithVAT,
		co.Description,
		co.ID,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	if saved.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &saved, nil
}

func (r *LedgerRepository) DeleteChangeOrder(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Exec(`DELETE FROM change_orders WHERE id = ?`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *LedgerRepository) GetChangeOrder(ctx context.Context, id int64) (*model.ChangeOrder, error) {
	var co model.ChangeOrder
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, purchase_order_id, ch_ref_no, ch_date, type, amount,
			vat_amount, amount_with_vat, description, created_at
		FROM change_orders
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&co).Error
	if err != nil {
		return nil, err
	}
	if co.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &co, nil
}

func (r *LedgerRepository) ListChangeOrders(ctx context.Context, purchaseOrderID int64) ([]model.ChangeOrder, error) {
	var cos []model.ChangeOrder
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, purchase_order_id, ch_ref_no, ch_date, type, amount,
			vat_amount, amount_with_vat, description, created_at
		FROM change_orders
		WHERE purchase_order_id = ?
		ORDER BY ch_date, id
	`, purchaseOrderID).Scan(&cos).Error
	if err != nil {
		return nil, err
	}
	return cos, nil
}

func (r *LedgerRepository) ListChangeOrdersForSubcontractor(ctx context.Context, subcontractorID int64) ([]model.ChangeOrder, error) {
	var cos []model.ChangeOrder
	err := r.db.WithContext(ctx).Raw(`
		SELECT co.id, co.purchase_order_id, co.ch_ref_no, co.ch_date, co.type,
			co.amount, co.vat_amount, co.amount_with_vat, co.description, co.created_at
		FROM change_orders co
		JOIN purchase_orders po ON po.id = co.purchase_order_id
		WHERE po.subcontractor_id = ?
		ORDER BY co.ch_date, co.id
	`, subcontractorID).Scan(&cos).Error
	if err != nil {
		return nil, err
	}
	return cos, nil
}
