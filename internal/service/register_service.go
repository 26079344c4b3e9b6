package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/azar84/pmp-ledger/internal/config"
	"github.com/azar84/pmp-ledger/internal/ledger"
	"github.com/azar84/pmp-ledger/internal/model"
)

// RegisterService maintains the contract register: purchase orders and their
// change orders.
type RegisterService struct {
	store LedgerStore
	rates ledger.Rates
}

func NewRegisterService(store LedgerStore, cfg *config.Config) *RegisterService {
	return &RegisterService{store: store, rates: ratesFrom(cfg)}
}

type AddPurchaseOrderInput struct {
	SubcontractorID int64
	LPONumber       string
	LPODate         time.Time
	LPOValue        float64
	VATPercent      *float64
	Notes           string
}

func (s *RegisterService) AddPurchaseOrder(ctx context.Context, in AddPurchaseOrderInput) (*model.PurchaseOrder, error) {
	var msgs []string
	if in.LPONumber == "" {
		msgs = append(msgs, "LPO number is required")
	}
	if in.LPODate.IsZero() {
		msgs = append(msgs, "LPO date is required")
	}
	if in.LPOValue <= 0 {
		msgs = append(msgs, "LPO value must be greater than zero")
	}
	if len(msgs) > 0 {
		return nil, validationErr(msgs)
	}

	if _, err := s.store.GetSubcontractor(ctx, in.SubcontractorID); err != nil {
		return nil, mapStoreErr(err)
	}

	vatPercent := s.rates.VATPercent
	if in.VATPercent != nil {
		vatPercent = *in.VATPercent
	}

	po := model.PurchaseOrder{
		SubcontractorID: in.SubcontractorID,
		LPONumber:       in.LPONumber,
		LPODate:         in.LPODate,
		LPOValue:        in.LPOValue,
		VATPercent:      vatPercent,
		LPOValueWithVAT: ledger.ValueWithVAT(in.LPOValue, vatPercent),
		Notes:           in.Notes,
	}
	return s.store.CreatePurchaseOrder(ctx, po)
}

// UpdatePurchaseOrder edits a PO in place. Invoices already created against
// it keep their snapshotted amounts; ceilings are not recomputed
// retroactively.
func (s *RegisterService) UpdatePurchaseOrder(ctx context.Context, id int64, in AddPurchaseOrderInput) (*model.PurchaseOrder, error) {
	existing, err := s.store.GetPurchaseOrder(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	var msgs []string
	if in.LPONumber == "" {
		msgs = append(msgs, "LPO number is required")
	}
	if in.LPODate.IsZero() {
		msgs = append(msgs, "LPO date is required")
	}
	if in.LPOValue <= 0 {
		msgs = append(msgs, "LPO value must be greater than zero")
	}
	if len(msgs) > 0 {
		return nil, validationErr(msgs)
	}

	vatPercent := existing.VATPercent
	if in.VATPercent != nil {
		vatPercent = *in.VATPercent
	}

	updated := *existing
	updated.LPONumber = in.LPONumber
	updated.LPODate = in.LPODate
	updated.LPOValue = in.LPOValue
	updated.VATPercent = vatPercent
	updated.LPOValueWithVAT = ledger.ValueWithVAT(in.LPOValue, vatPercent)
	updated.Notes = in.Notes
	return s.store.UpdatePurchaseOrder(ctx, updated)
}

func (s *RegisterService) DeletePurchaseOrder(ctx context.Context, id int64) error {
	return mapStoreErr(s.store.DeletePurchaseOrder(ctx, id))
}

type AddChangeOrderInput struct {
	CHRefNo     string
	CHDate      time.Time
	Type        model.ChangeOrderType
	Amount      float64
	VATAmount   *float64
	Description string
}

func (s *RegisterService) AddChangeOrder(ctx context.Context, purchaseOrderID int64, in AddChangeOrderInput) (*model.ChangeOrder, error) {
	po, err := s.store.GetPurchaseOrder(ctx, purchaseOrderID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	var msgs []string
	if in.CHRefNo == "" {
		msgs = append(msgs, "Change order reference number is required")
	}
	if in.CHDate.IsZero() {
		msgs = append(msgs, "Change order date is required")
	}
	if in.Type != model.ChangeOrderAddition && in.Type != model.ChangeOrderOmission {
		msgs = append(msgs, "Change order type must be addition or omission")
	}
	if in.Amount <= 0 {
		msgs = append(msgs, "Change order amount must be greater than zero")
	}
	if len(msgs) > 0 {
		return nil, validationErr(msgs)
	}

	vatAmount := ledger.DefaultCOVAT(in.Amount, po.VATPercent)
	if in.VATAmount != nil {
		vatAmount = *in.VATAmount
	}

	co := model.ChangeOrder{
		PurchaseOrderID: purchaseOrderID,
		CHRefNo:         in.CHRefNo,
		CHDate:          in.CHDate,
		Type:            in.Type,
		Amount:          in.Amount,
		VATAmount:       vatAmount,
		AmountWithVAT:   in.Amount + vatAmount,
		Description:     in.Description,
	}
	return s.store.CreateChangeOrder(ctx, co)
}

func (s *RegisterService) UpdateChangeOrder(ctx context.Context, id int64, in AddChangeOrderInput) (*model.ChangeOrder, error) {
	existing, err := s.store.GetChangeOrder(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	var msgs []string
	if in.CHRefNo == "" {
		msgs = append(msgs, "Change order reference number is required")
	}
	if in.Type != model.ChangeOrderAddition && in.Type != model.ChangeOrderOmission {
		msgs = append(msgs, "Change order type must be addition or omission")
	}
	if in.Amount <= 0 {
		msgs = append(msgs, "Change order amount must be greater than zero")
	}
	if len(msgs) > 0 {
		return nil, validationErr(msgs)
	}

	vatAmount := existing.VATAmount
	if in.VATAmount != nil {
		vatAmount = *in.VATAmount
	}

	updated := *existing
	updated.CHRefNo = in.CHRefNo
	if !in.CHDate.IsZero() {
		updated.CHDate = in.CHDate
	}
	updated.Type = in.Type
	updated.Amount = in.Amount
	updated.VATAmount = vatAmount
	updated.AmountWithVAT = in.Amount + vatAmount
	updated.Description = in.Description
	return s.store.UpdateChangeOrder(ctx, updated)
}

func (s *RegisterService) DeleteChangeOrder(ctx context.Context, id int64) error {
	return mapStoreErr(s.store.DeleteChangeOrder(ctx, id))
}

// ContractTotal sums a purchase order and its change orders, before and
// after VAT.
func (s *RegisterService) ContractTotal(ctx context.Context, purchaseOrderID int64) (*ledger.ContractTotal, error) {
	po, err := s.store.GetPurchaseOrder(ctx, purchaseOrderID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	cos, err := s.store.ListChangeOrders(ctx, purchaseOrderID)
	if err != nil {
		return nil, err
	}
	total := ledger.ContractTotalFor(*po, cos)
	return &total, nil
}

func mapStoreErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
