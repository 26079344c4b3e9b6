package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/azar84/pmp-ledger/internal/config"
	"github.com/azar84/pmp-ledger/internal/ledger"
	"github.com/azar84/pmp-ledger/internal/model"
)

type memoryStore struct {
	subcontractors map[int64]model.Subcontractor
	purchaseOrders map[int64]model.PurchaseOrder
	changeOrders   map[int64]model.ChangeOrder
	invoices       map[int64]model.Invoice
	payments       map[int64]model.Payment
	nextID         int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		subcontractors: make(map[int64]model.Subcontractor),
		purchaseOrders: make(map[int64]model.PurchaseOrder),
		changeOrders:   make(map[int64]model.ChangeOrder),
		invoices:       make(map[int64]model.Invoice),
		payments:       make(map[int64]model.Payment),
	}
}

func (m *memoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memoryStore) GetSubcontractor(ctx context.Context, id int64) (*model.Subcontractor, error) {
	sub, ok := m.subcontractors[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &sub, nil
}

func (m *memoryStore) CreatePurchaseOrder(ctx context.Context, po model.PurchaseOrder) (*model.PurchaseOrder, error) {
	po.ID = m.id()
	m.purchaseOrders[po.ID] = po
	return &po, nil
}

func (m *memoryStore) UpdatePurchaseOrder(ctx context.Context, po model.PurchaseOrder) (*model.PurchaseOrder, error) {
	if _, ok := m.purchaseOrders[po.ID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	m.purchaseOrders[po.ID] = po
	return &po, nil
}

func (m *memoryStore) DeletePurchaseOrder(ctx context.Context, id int64) error {
	if _, ok := m.purchaseOrders[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.purchaseOrders, id)
	return nil
}

func (m *memoryStore) GetPurchaseOrder(ctx context.Context, id int64) (*model.PurchaseOrder, error) {
	po, ok := m.purchaseOrders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &po, nil
}

func (m *memoryStore) ListPurchaseOrders(ctx context.Context, subcontractorID int64) ([]model.PurchaseOrder, error) {
	var out []model.PurchaseOrder
	for _, po := range m.purchaseOrders {
		if po.SubcontractorID == subcontractorID {
			out = append(out, po)
		}
	}
	return out, nil
}

func (m *memoryStore) CreateChangeOrder(ctx context.Context, co model.ChangeOrder) (*model.ChangeOrder, error) {
	co.ID = m.id()
	m.changeOrders[co.ID] = co
	return &co, nil
}

func (m *memoryStore) UpdateChangeOrder(ctx context.Context, co model.ChangeOrder) (*model.ChangeOrder, error) {
	if _, ok := m.changeOrders[co.ID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	m.changeOrders[co.ID] = co
	return &co, nil
}

func (m *memoryStore) DeleteChangeOrder(ctx context.Context, id int64) error {
	if _, ok := m.changeOrders[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.changeOrders, id)
	return nil
}

func (m *memoryStore) GetChangeOrder(ctx context.Context, id int64) (*model.ChangeOrder, error) {
	co, ok := m.changeOrders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &co, nil
}

func (m *memoryStore) ListChangeOrders(ctx context.Context, purchaseOrderID int64) ([]model.ChangeOrder, error) {
	var out []model.ChangeOrder
	for _, co := range m.changeOrders {
		if co.PurchaseOrderID == purchaseOrderID {
			out = append(out, co)
		}
	}
	return out, nil
}

func (m *memoryStore) ListChangeOrdersForSubcontractor(ctx context.Context, subcontractorID int64) ([]model.ChangeOrder, error) {
	var out []model.ChangeOrder
	for _, co := range m.changeOrders {
		po, ok := m.purchaseOrders[co.PurchaseOrderID]
		if ok && po.SubcontractorID == subcontractorID {
			out = append(out, co)
		}
	}
	return out, nil
}

func (m *memoryStore) CreateInvoice(ctx context.Context, inv model.Invoice) (*model.Invoice, error) {
	inv.ID = m.id()
	m.invoices[inv.ID] = inv
	return &inv, nil
}

func (m *memoryStore) GetInvoice(ctx context.Context, id int64) (*model.Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &inv, nil
}

func (m *memoryStore) ListInvoices(ctx context.Context, subcontractorID int64) ([]model.Invoice, error) {
	var out []model.Invoice
	for _, inv := range m.invoices {
		if inv.SubcontractorID == subcontractorID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *memoryStore) ListInvoicesForPO(ctx context.Context, purchaseOrderID int64) ([]model.Invoice, error) {
	var out []model.Invoice
	for _, inv := range m.invoices {
		if inv.PurchaseOrderID != nil && *inv.PurchaseOrderID == purchaseOrderID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *memoryStore) CreatePayment(ctx context.Context, payment model.Payment) (*model.Payment, error) {
	payment.ID = m.id()
	for i := range payment.Invoices {
		payment.Invoices[i].ID = m.id()
		payment.Invoices[i].PaymentID = payment.ID
	}
	m.payments[payment.ID] = payment
	m.recomputeStatuses(touchedInvoices(payment))
	return &payment, nil
}

func (m *memoryStore) UpdatePayment(ctx context.Context, payment model.Payment) (*model.Payment, error) {
	old, ok := m.payments[payment.ID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for i := range payment.Invoices {
		payment.Invoices[i].ID = m.id()
		payment.Invoices[i].PaymentID = payment.ID
	}
	m.payments[payment.ID] = payment
	m.recomputeStatuses(append(touchedInvoices(old), touchedInvoices(payment)...))
	return &payment, nil
}

func (m *memoryStore) DeletePayment(ctx context.Context, id int64) error {
	payment, ok := m.payments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.payments, id)
	m.recomputeStatuses(touchedInvoices(payment))
	return nil
}

func (m *memoryStore) SetLiquidated(ctx context.Context, id int64, liquidated bool) error {
	payment, ok := m.payments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	payment.Liquidated = liquidated
	m.payments[id] = payment
	return nil
}

func (m *memoryStore) GetPayment(ctx context.Context, id int64) (*model.Payment, error) {
	payment, ok := m.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &payment, nil
}

func (m *memoryStore) ListPayments(ctx context.Context, subcontractorID int64) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range m.payments {
		if p.SubcontractorID == subcontractorID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryStore) recomputeStatuses(ids []int64) {
	for _, id := range ids {
		inv, ok := m.invoices[id]
		if !ok {
			continue
		}
		var payments []model.Payment
		for _, p := range m.payments {
			payments = append(payments, p)
		}
		inv.Status = ledger.DeriveStatus(inv.TotalAmount, ledger.PaidTowards(id, payments))
		m.invoices[id] = inv
	}
}

func touchedInvoices(payment model.Payment) []int64 {
	var ids []int64
	for _, row := range payment.Invoices {
		ids = append(ids, row.InvoiceID)
	}
	return ids
}

func testConfig() *config.Config {
	return &config.Config{
		Ledger: config.LedgerConfig{VATPercent: 5, RetentionPercent: 10, AdvancePercent: 10},
	}
}

func f64(v float64) *float64 { return &v }

func setup(t *testing.T) (*memoryStore, *RegisterService, *InvoiceService, *PaymentService) {
	t.Helper()
	store := newMemoryStore()
	store.subcontractors[1] = model.Subcontractor{ID: 1, ProjectID: 1, Name: "Al Noor Contracting"}
	cfg := testConfig()
	return store,
		NewRegisterService(store, cfg),
		NewInvoiceService(store, store, cfg),
		NewPaymentService(store, store, store)
}

func TestAddPurchaseOrderDefaultsVAT(t *testing.T) {
	_, register, _, _ := setup(t)
	po, err := register.AddPurchaseOrder(context.Background(), AddPurchaseOrderInput{
		SubcontractorID: 1,
		LPONumber:       "LPO-001",
		LPODate:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		LPOValue:        100000,
	})
	require.NoError(t, err)
	require.InDelta(t, 5, po.VATPercent, 0.001)
	require.InDelta(t, 105000, po.LPOValueWithVAT, 0.01)
}

func TestAddPurchaseOrderValidation(t *testing.T) {
	_, register, _, _ := setup(t)
	_, err := register.AddPurchaseOrder(context.Background(), AddPurchaseOrderInput{SubcontractorID: 1})
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	require.Len(t, validation.Messages, 3)
}

func TestAddChangeOrderZeroAmountReported(t *testing.T) {
	_, register, _, _ := setup(t)
	po, err := register.AddPurchaseOrder(context.Background(), AddPurchaseOrderInput{
		SubcontractorID: 1,
		LPONumber:       "LPO-001",
		LPODate:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		LPOValue:        100000,
	})
	require.NoError(t, err)

	// An explicit zero amount must surface the accumulated message, not a
	// binding failure upstream.
	_, err = register.AddChangeOrder(context.Background(), po.ID, AddChangeOrderInput{
		CHRefNo: "CH-01",
		CHDate:  time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Type:    model.ChangeOrderAddition,
		Amount:  0,
	})
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	require.Contains(t, validation.Messages, "Change order amount must be greater than zero")
}

func TestAddChangeOrderDefaultsVATFromPO(t *testing.T) {
	_, register, _, _ := setup(t)
	po, err := register.AddPurchaseOrder(context.Background(), AddPurchaseOrderInput{
		SubcontractorID: 1,
		LPONumber:       "LPO-001",
		LPODate:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		LPOValue:        100000,
	})
	require.NoError(t, err)

	co, err := register.AddChangeOrder(context.Background(), po.ID, AddChangeOrderInput{
		CHRefNo: "CH-01",
		CHDate:  time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Type:    model.ChangeOrderAddition,
		Amount:  20000,
	})
	require.NoError(t, err)
	require.InDelta(t, 1000, co.VATAmount, 0.01)
	require.InDelta(t, 21000, co.AmountWithVAT, 0.01)

	total, err := register.ContractTotal(context.Background(), po.ID)
	require.NoError(t, err)
	require.InDelta(t, 120000, total.BeforeVAT, 0.01)
	require.InDelta(t, 126000, total.WithVAT, 0.01)
}

func TestCreateInvoiceRoundTrip(t *testing.T) {
	_, register, invoices, _ := setup(t)
	po, err := register.AddPurchaseOrder(context.Background(), AddPurchaseOrderInput{
		SubcontractorID: 1,
		LPONumber:       "LPO-001",
		LPODate:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		LPOValue:        100000,
	})
	require.NoError(t, err)

	created, err := invoices.CreateInvoice(context.Background(), 1, ledger.InvoiceInput{
		PaymentType:     model.PaymentTypeProgress,
		PurchaseOrderID: &po.ID,
		InvoiceNumber:   "INV-001",
		InvoiceDate:     time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		InvoiceAmount:   f64(50000),
	})
	require.NoError(t, err)

	fetched, err := invoices.GetInvoice(context.Background(), created.ID)
	require.NoError(t, err)
	require.InDelta(t, created.TotalAmount, fetched.TotalAmount, 0.01)
	require.Equal(t, model.InvoiceStatusUnpaid, fetched.Status)
}

func TestDuplicateAdvanceBlockedThroughService(t *testing.T) {
	_, register, invoices, _ := setup(t)
	po, err := register.AddPurchaseOrder(context.Background(), AddPurchaseOrderInput{
		SubcontractorID: 1,
		LPONumber:       "LPO-001",
		LPODate:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		LPOValue:        100000,
	})
	require.NoError(t, err)

	in := ledger.InvoiceInput{
		PaymentType:     model.PaymentTypeAdvance,
		PurchaseOrderID: &po.ID,
		InvoiceNumber:   "ADV-001",
		InvoiceDate:     time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
	}
	_, err = invoices.CreateInvoice(context.Background(), 1, in)
	require.NoError(t, err)

	in.InvoiceNumber = "ADV-002"
	_, err = invoices.CreateInvoice(context.Background(), 1, in)
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestPaymentDrivesStatusTransitions(t *testing.T) {
	store, register, invoices, payments := setup(t)
	po, err := register.AddPurchaseOrder(context.Background(), AddPurchaseOrderInput{
		SubcontractorID: 1,
		LPONumber:       "LPO-001",
		LPODate:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		LPOValue:        100000,
	})
	require.NoError(t, err)

	inv, err := invoices.CreateInvoice(context.Background(), 1, ledger.InvoiceInput{
		PaymentType:     model.PaymentTypeProgress,
		PurchaseOrderID: &po.ID,
		InvoiceNumber:   "INV-001",
		InvoiceDate:     time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		InvoiceAmount:   f64(1000),
		Retention:       f64(0),
		AdvanceRecovery: f64(0),
	})
	require.NoError(t, err)
	require.InDelta(t, 1050, inv.TotalAmount, 0.01)

	half := ledger.PaymentInput{
		Lines:         []ledger.PaymentLine{{InvoiceID: inv.ID, PaymentAmount: 500, VATAmount: 25}},
		PaymentMethod: model.PaymentMethodCurrentDated,
		PaymentDate:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	_, err = payments.CreatePayment(context.Background(), 1, half)
	require.NoError(t, err)
	require.Equal(t, model.InvoiceStatusPartiallyPaid, store.invoices[inv.ID].Status)

	second, err := payments.CreatePayment(context.Background(), 1, half)
	require.NoError(t, err)
	require.Equal(t, model.InvoiceStatusPaid, store.invoices[inv.ID].Status)

	// Deleting the second payment reverts the invoice to partially paid.
	require.NoError(t, payments.DeletePayment(context.Background(), second.ID))
	require.Equal(t, model.InvoiceStatusPartiallyPaid, store.invoices[inv.ID].Status)
}

func TestToggleLiquidated(t *testing.T) {
	store, register, invoices, payments := setup(t)
	po, err := register.AddPurchaseOrder(context.Background(), AddPurchaseOrderInput{
		SubcontractorID: 1,
		LPONumber:       "LPO-001",
		LPODate:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		LPOValue:        100000,
	})
	require.NoError(t, err)

	inv, err := invoices.CreateInvoice(context.Background(), 1, ledger.InvoiceInput{
		PaymentType:     model.PaymentTypeProgress,
		PurchaseOrderID: &po.ID,
		InvoiceNumber:   "INV-001",
		InvoiceDate:     time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		InvoiceAmount:   f64(1000),
		Retention:       f64(0),
		AdvanceRecovery: f64(0),
	})
	require.NoError(t, err)

	instrument := model.InstrumentPDC
	due := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	postDated, err := payments.CreatePayment(context.Background(), 1, ledger.PaymentInput{
		Lines:          []ledger.PaymentLine{{InvoiceID: inv.ID, PaymentAmount: 1000, VATAmount: 50}},
		PaymentMethod:  model.PaymentMethodPostDated,
		InstrumentType: &instrument,
		PaymentDate:    time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		DueDate:        &due,
	})
	require.NoError(t, err)
	require.False(t, postDated.Liquidated)
	require.Equal(t, model.InvoiceStatusPaid, store.invoices[inv.ID].Status)

	toggled, err := payments.ToggleLiquidated(context.Background(), postDated.ID)
	require.NoError(t, err)
	require.True(t, toggled.Liquidated)
	// Invoice settlement is untouched by liquidation.
	require.Equal(t, model.InvoiceStatusPaid, store.invoices[inv.ID].Status)

	currentDated, err := payments.CreatePayment(context.Background(), 1, ledger.PaymentInput{
		Lines:         []ledger.PaymentLine{{InvoiceID: inv.ID, PaymentAmount: 10, VATAmount: 0}},
		PaymentMethod: model.PaymentMethodCurrentDated,
		PaymentDate:   time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// No-op for current-dated payments.
	unchanged, err := payments.ToggleLiquidated(context.Background(), currentDated.ID)
	require.NoError(t, err)
	require.False(t, unchanged.Liquidated)
}

func TestUpdatePaymentReplacesAllocations(t *testing.T) {
	store, register, invoices, payments := setup(t)
	po, err := register.AddPurchaseOrder(context.Background(), AddPurchaseOrderInput{
		SubcontractorID: 1,
		LPONumber:       "LPO-001",
		LPODate:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		LPOValue:        100000,
	})
	require.NoError(t, err)

	makeInvoice := func(number string) *model.Invoice {
		inv, err := invoices.CreateInvoice(context.Background(), 1, ledger.InvoiceInput{
			PaymentType:     model.PaymentTypeProgress,
			PurchaseOrderID: &po.ID,
			InvoiceNumber:   number,
			InvoiceDate:     time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			InvoiceAmount:   f64(1000),
			Retention:       f64(0),
			AdvanceRecovery: f64(0),
		})
		require.NoError(t, err)
		return inv
	}
	first := makeInvoice("INV-001")
	second := makeInvoice("INV-002")

	payment, err := payments.CreatePayment(context.Background(), 1, ledger.PaymentInput{
		Lines:         []ledger.PaymentLine{{InvoiceID: first.ID, PaymentAmount: 1000, VATAmount: 50}},
		PaymentMethod: model.PaymentMethodCurrentDated,
		PaymentDate:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, model.InvoiceStatusPaid, store.invoices[first.ID].Status)

	// Move the payment to the second invoice; both statuses recompute.
	_, err = payments.UpdatePayment(context.Background(), 1, payment.ID, ledger.PaymentInput{
		Lines:         []ledger.PaymentLine{{InvoiceID: second.ID, PaymentAmount: 1000, VATAmount: 50}},
		PaymentMethod: model.PaymentMethodCurrentDated,
		PaymentDate:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, model.InvoiceStatusUnpaid, store.invoices[first.ID].Status)
	require.Equal(t, model.InvoiceStatusPaid, store.invoices[second.ID].Status)
}

func TestPaymentAgainstForeignInvoiceRejected(t *testing.T) {
	store, _, _, payments := setup(t)
	store.subcontractors[2] = model.Subcontractor{ID: 2, ProjectID: 1, Name: "Other"}
	store.invoices[50] = model.Invoice{ID: 50, SubcontractorID: 2, TotalAmount: 100}

	_, err := payments.CreatePayment(context.Background(), 1, ledger.PaymentInput{
		Lines:         []ledger.PaymentLine{{InvoiceID: 50, PaymentAmount: 100, VATAmount: 0}},
		PaymentMethod: model.PaymentMethodCurrentDated,
		PaymentDate:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestNotFoundMapping(t *testing.T) {
	_, register, invoices, payments := setup(t)
	ctx := context.Background()

	_, err := register.ContractTotal(ctx, 999)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = invoices.GetInvoice(ctx, 999)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = payments.GetPayment(ctx, 999)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, payments.DeletePayment(ctx, 999), ErrNotFound)
}
