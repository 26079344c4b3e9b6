package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/azar84/pmp-ledger/internal/http/middleware"
	"github.com/azar84/pmp-ledger/internal/ledger"
	"github.com/azar84/pmp-ledger/internal/model"
	"github.com/azar84/pmp-ledger/internal/service"
)

type Handler struct {
	register   *service.RegisterService
	invoices   *service.InvoiceService
	payments   *service.PaymentService
	statements *service.StatementService
	log        zerolog.Logger
}

func NewHandler(
	register *service.RegisterService,
	invoices *service.InvoiceService,
	payments *service.PaymentService,
	statements *service.StatementService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		register:   register,
		invoices:   invoices,
		payments:   payments,
		statements: statements,
		log:        log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/purchase-orders", h.createPurchaseOrder)
	protected.PUT("/purchase-orders/:id", h.updatePurchaseOrder)
	protected.DELETE("/purchase-orders/:id", h.deletePurchaseOrder)
	protected.GET("/purchase-orders/:id/contract-total", h.contractTotal)
	protected.POST("/purchase-orders/:id/change-orders", h.createChangeOrder)
	protected.GET("/purchase-orders/:id/next-advance", h.nextAdvance)

	protected.PUT("/change-orders/:id", h.updateChangeOrder)
	protected.DELETE("/change-orders/:id", h.deleteChangeOrder)

	protected.POST("/subcontractors/:id/invoices", h.createInvoice)
	protected.GET("/subcontractors/:id/invoices", h.listInvoices)
	protected.GET("/invoices/:id", h.getInvoice)

	protected.POST("/subcontractors/:id/payments", h.createPayment)
	protected.PUT("/subcontractors/:id/payments/:paymentId", h.updatePayment)
	protected.PATCH("/payments/:id/liquidated", h.toggleLiquidated)
	protected.DELETE("/payments/:id", h.deletePayment)

	protected.GET("/subcontractors/:id/summary", h.summary)
	protected.POST("/subcontractors/:id/statement/export", h.exportStatement)
	protected.POST("/subcontractors/:id/statement/export/pdf", h.exportStatementPDF)
}

type purchaseOrderRequest struct {
	SubcontractorID int64    `json:"subcontractor_id"`
	LPONumber       string   `json:"lpo_number" binding:"required"`
	LPODate         string   `json:"lpo_date" binding:"required"`
	LPOValue        float64  `json:"lpo_value"`
	VATPercent      *float64 `json:"vat_percent"`
	Notes           string   `json:"notes"`
}

func (h *Handler) createPurchaseOrder(c *gin.Context) {
	var req purchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	lpoDate, err := parseDate(req.LPODate)
	if err != nil {
		badRequest(c, "invalid lpo_date")
		return
	}

	po, err := h.register.AddPurchaseOrder(c.Request.Context(), service.AddPurchaseOrderInput{
		SubcontractorID: req.SubcontractorID,
		LPONumber:       req.LPONumber,
		LPODate:         lpoDate,
		LPOValue:        req.LPOValue,
		VATPercent:      req.VATPercent,
		Notes:           req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusCreated, po)
}

func (h *Handler) updatePurchaseOrder(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, "invalid id")
		return
	}
	var req purchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	lpoDate, err := parseDate(req.LPODate)
	if err != nil {
		badRequest(c, "invalid lpo_date")
		return
	}

	po, err := h.register.UpdatePurchaseOrder(c.Request.Context(), id, service.AddPurchaseOrderInput{
		LPONumber:  req.LPONumber,
		LPODate:    lpoDate,
		LPOValue:   req.LPOValue,
		VATPercent: req.VATPercent,
		Notes:      req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, po)
}

func (h *Handler) deletePurchaseOrder(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, "invalid id")
		return
	}
	if err := h.register.DeletePurchaseOrder(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) contractTotal(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, "invalid id")
		return
	}
	total, err := h.register.ContractTotal(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, total)
}

type changeOrderRequest struct {
	CHRefNo     string   `json:"ch_ref_no" binding:"required"`
	CHDate      string   `json:"ch_date" binding:"required"`
	Type        string   `json:"type" binding:"required"`
	Amount      float64  `json:"amount"`
	VATAmount   *float64 `json:"vat_amount"`
	Description string   `json:"description"`
}

func (h *Handler) createChangeOrder(c *gin.Context) {
	poID, err := pathID(c, "id")
	if err != nil {
		badRequest(c, "invalid id")
		return
	}
	var req changeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	chDate, err := parseDate(req.CHDate)
	if err != nil {
		badRequest(c, "invalid ch_date")
		return
	}

	co, err := h.register.AddChangeOrder(c.Request.Context(), poID, service.AddChangeOrderInput{
		CHRefNo:     req.CHRefNo,
		CHDate:      chDate,
		Type:        model.ChangeOrderType(req.Type),
		Amount:      req.Amount,
		VATAmount:   req.VATAmount,
		Description: req.Description,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusCreated, co)
}

func (h *Handler) updateChangeOrder(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, "invalid id")
		return
	}
	var req changeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	chDate, err := parseDate(req.CHDate)
	if err != nil {
		badRequest(c, "invalid ch_date")
		return
	}

	co, err := h.register.UpdateChangeOrder(c.Request.Context(), id, service.AddChangeOrderInput{
		CHRefNo:     req.CHRefNo,
		CHDate:      chDate,
		Type:        model.ChangeOrderType(req.Type),
		Amount:      req.Amount,
		VATAmount:   req.VATAmount,
		Description: req.Description,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, co)
}

func (h *Handler) deleteChangeOrder(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, "invalid id")
		return
	}
	if err := h.register.DeleteChangeOrder(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) nextAdvance(c *gin.Context) {
	poID, err := pathID(c, "id")
	if err != nil {
		badRequest(c, "invalid id")
		return
	}
	coID, amount, err := h.invoices.NextAdvance(c.Request.Context(), poID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"change_order_id": coID, "amount": amount})
}

type invoiceRequest struct {
	InvoiceNumber       string   `json:"invoice_number" binding:"required"`
	InvoiceDate         string   `json:"invoice_date" binding:"required"`
	DueDate             string   `json:"due_date"`
	PaymentType         string   `json:"payment_type" binding:"required"`
	PurchaseOrderID     *int64   `json:"purchase_order_id"`
	ChangeOrderID       *int64   `json:"change_order_id"`
	InvoiceAmount       *float64 `json:"invoice_amount"`
	VATAmount           *float64 `json:"vat_amount"`
	Retention           *float64 `json:"retention"`
	AdvanceRecovery     *float64 `json:"advance_recovery"`
	DownPaymentRecovery float64  `json:"down_payment_recovery"`
	ContraChargesAmount float64  `json:"contra_charges_amount"`
	Notes               string   `json:"notes"`
}

func (h *Handler) createInvoice(c *gin.Context) {
	subID, err := pathID(c, "id")
	if err != nil {
		badRequest(c, "invalid id")
		return
	}
	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	invoiceDate, err := parseDate(req.InvoiceDate)
	if err != nil {
		badRequest(c, "invalid invoice_date")
		return
	}
	var dueDate *time.Time
	if req.DueDate != "" {
		parsed, err := parseDate(req.DueDate)
		if err != nil {
			badRequest(c, "invalid due_date")
			return
		}
		dueDate = &parsed
	}

	inv, err := h.invoices.CreateInvoice(c.Request.Context(), subID, ledger.InvoiceInput{
		PaymentType:         model.PaymentType(req.PaymentType),
		PurchaseOrderID:     req.PurchaseOrderID,
		ChangeOrderID:       req.ChangeOrderID,
		InvoiceNumber:       req.InvoiceNumber,
		InvoiceDate:         invoiceDate,
		DueDate:             dueDate,
		InvoiceAmount:       req.InvoiceAmount,
		VATAmount:           req.VATAmount,
		Retention:           req.Retention,
		AdvanceRecovery:     req.AdvanceRecovery,
		DownPaymentRecovery: req.DownPaymentRecovery,
		ContraChargesAmount: req.ContraChargesAmount,
		Notes:               req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusCreated, inv)
}

func (h *Handler) listInvoices(c *gin.Context) {
	subID, err := pathID(c, "id")
	if err != nil {
		badRequest(c, "invalid id")
		return
	}
	invoices, err := h.invoices.ListInvoices(c.Request.Context(), subID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, invoices)
}

func (h *Handler) getInvoice(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, "invalid id")
		return
	}
	inv, err := h.invoices.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, inv)
}

type paymentRequest struct {
	InvoicePayments []struct {
		InvoiceID     int64   `json:"invoice_id" binding:"required"`
		PaymentAmount float64 `json:"payment_amount"`
		VATAmount     float64 `json:"vat_amount"`
	} `json:"invoice_payments" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required"`
	PaymentType   string `json:"payment_type"`
	PaymentDate   string `json:"payment_date" binding:"required"`
	DueDate       string `json:"due_date"`
	Liquidated    bool   `json:"liquidated"`
	Notes         string `json:"notes"`
}

func (h *Handler) paymentInput(c *gin.Context, req paymentRequest) (ledger.PaymentInput, bool) {
	paymentDate, err := parseDate(req.PaymentDate)
	if err != nil {
		badRequest(c, "invalid payment_date")
		return ledger.PaymentInput{}, false
	}
	var dueDate *time.Time
	if req.DueDate != "" {
		parsed, err := parseDate(req.DueDate)
		if err != nil {
			badRequest(c, "invalid due_date")
			return ledger.PaymentInput{}, false
		}
		dueDate = &parsed
	}
	var instrument *model.InstrumentType
	if req.PaymentType != "" {
		value := model.InstrumentType(req.PaymentType)
		instrument = &value
	}

	input := ledger.PaymentInput{
		PaymentMethod:  model.PaymentMethod(req.PaymentMethod),
		InstrumentType: instrument,
		PaymentDate:    paymentDate,
		DueDate:        dueDate,
		Liquidated:     req.Liquidated,
		Notes:          req.Notes,
	}
	for _, row := range req.InvoicePayments {
		input.Lines = append(input.Lines, ledger.PaymentLine{
			InvoiceID:     row.InvoiceID,
			PaymentAmount: row.PaymentAmount,
			VATAmount:     row.VATAmount,
		})
	}
	return input, true
}

func (h *Handler) createPayment(c *gin.Context) {
	subID, err := pathID(c, "id")
	if err != nil {
		badRequest(c, "invalid id")
		return
	}
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	input, valid := h.paymentInput(c, req)
	if !valid {
		return
	}

	payment, err := h.payments.CreatePayment(c.Request.Context(), subID, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusCreated, payment)
}

func (h *Handler) updatePayment(c *gin.Context) {
	subID, err := pathID(c, "id")
	if err != nil {
		badRequest(c, "invalid id")
		return
	}
	paymentID, err := pathID(c, "paymentId")
	if err != nil {
		badRequest(c, "invalid payment id")
		return
	}
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	input, valid := h.paymentInput(c, req)
	if !valid {
		return
	}

	payment, err := h.payments.UpdatePayment(c.Request.Context(), subID, paymentID, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, payment)
}

func (h *Handler) toggleLiquidated(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, "invalid id")
		return
	}
	payment, err := h.payments.ToggleLiquidated(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, payment)
}

func (h *Handler) deletePayment(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, "invalid id")
		return
	}
	if err := h.payments.DeletePayment(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) summary(c *gin.Context) {
	subID, err := pathID(c, "id")
	if err != nil {
		badRequest(c, "invalid id")
		return
	}
	poFilter, err := queryID(c, "purchase_order_id")
	if err != nil {
		badRequest(c, "invalid purchase_order_id")
		return
	}
	summary, err := h.statements.Summary(c.Request.Context(), subID, poFilter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, summary)
}

func (h *Handler) exportStatement(c *gin.Context) {
	subID, err := pathID(c, "id")
	if err != nil {
		badRequest(c, "invalid id")
		return
	}
	poFilter, err := queryID(c, "purchase_order_id")
	if err != nil {
		badRequest(c, "invalid purchase_order_id")
		return
	}
	result, err := h.statements.ExportExcel(c.Request.Context(), subID, poFilter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}

func (h *Handler) exportStatementPDF(c *gin.Context) {
	subID, err := pathID(c, "id")
	if err != nil {
		badRequest(c, "invalid id")
		return
	}
	poFilter, err := queryID(c, "purchase_order_id")
	if err != nil {
		badRequest(c, "invalid purchase_order_id")
		return
	}
	result, err := h.statements.ExportPDF(c.Request.Context(), subID, poFilter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

// requireAdmin guards destructive operations. Register and payment deletes
// remove history, so only admins may issue them.
func (h *Handler) requireAdmin(c *gin.Context) bool {
	principal, found := middleware.MustPrincipal(c)
	if !found || !principal.IsAdmin() {
		fail(c, http.StatusForbidden, "admin role required")
		return false
	}
	return true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var validation *service.ValidationError
	switch {
	case errors.As(err, &validation):
		fail(c, http.StatusBadRequest, validation.Error())
	case errors.Is(err, service.ErrInvalidInput):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		fail(c, http.StatusNotFound, err.Error())
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		fail(c, http.StatusInternalServerError, "internal error")
	}
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

func badRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, message)
}

func pathID(c *gin.Context, name string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
}

func queryID(c *gin.Context, name string) (*int64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
