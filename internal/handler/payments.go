package handler

import (
	"net/http"
	"strconv"

	"oticash/internal/apierror"
	"oticash/internal/dto"
	"oticash/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PaymentHandler struct{ svc service.PaymentService }

func NewPaymentHandler(svc service.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

// Record godoc
// @Summary Records a payment against a register
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RecordPaymentRequest true "Payment data"
// @Success 201 {object} model.Payment
// @Failure 422 {object} apierror.APIError
// @Router /v1/payments [post]
func (h *PaymentHandler) Record(c *gin.Context) {
	var req dto.RecordPaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	payment, err := h.svc.Record(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

// Cancel godoc
// @Summary Cancels a payment, reversing its balance effect if completed
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {object} model.Payment
// @Failure 404 {object} apierror.APIError
// @Router /v1/payments/{id}/cancel [post]
func (h *PaymentHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid payment id"))
		return
	}
	payment, err := h.svc.Cancel(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// Complete godoc
// @Summary Settles a pending payment
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {object} model.Payment
// @Failure 422 {object} apierror.APIError
// @Router /v1/payments/{id}/complete [post]
func (h *PaymentHandler) Complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid payment id"))
		return
	}
	payment, err := h.svc.Complete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// List godoc
// @Summary Lists payments with filters and pagination
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param cash_register_id query string false "Register ID"
// @Param type query string false "sale|debt_payment|expense"
// @Param status query string false "pending|completed|cancelled"
// @Param page query int false "Page"
// @Success 200 {object} dto.PaymentListResponse
// @Router /v1/payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	resp, err := h.svc.List(c.Request.Context(), dto.PaymentFilter{
		CashRegisterID: c.Query("cash_register_id"),
		Type:           c.Query("type"),
		Status:         c.Query("status"),
		Page:           page,
		Limit:          limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
