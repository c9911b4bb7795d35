package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"oticash/internal/apierror"
	"oticash/internal/dto"
	"oticash/internal/middleware"
	"oticash/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RegisterHandler struct{ svc service.RegisterService }

func NewRegisterHandler(svc service.RegisterService) *RegisterHandler {
	return &RegisterHandler{svc: svc}
}

// Open godoc
// @Summary Opens a new cash register
// @Tags registers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenRegisterRequest true "Opening data"
// @Success 201 {object} model.CashRegister
// @Failure 409 {object} apierror.APIError
// @Router /v1/registers/open [post]
func (h *RegisterHandler) Open(c *gin.Context) {
	var req dto.OpenRegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	openedBy, _ := uuid.Parse(claims.UserID)

	reg, err := h.svc.Open(c.Request.Context(), openedBy, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reg)
}

// GetCurrent godoc
// @Summary Returns the currently open cash register
// @Tags registers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.CashRegister
// @Failure 404 {object} apierror.APIError
// @Router /v1/registers/current [get]
func (h *RegisterHandler) GetCurrent(c *gin.Context) {
	reg, err := h.svc.GetCurrent(c.Request.Context())
	if err != nil {
		// "No open register" is a normal outcome, not an error to log.
		if errors.Is(err, service.ErrNoOpenRegister) {
			c.JSON(http.StatusNotFound, apierror.New("no open cash register"))
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reg)
}

// Close godoc
// @Summary Closes a cash register with the declared closing balance
// @Tags registers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CloseRegisterRequest true "Closing data"
// @Success 200 {object} dto.CloseRegisterResponse
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/registers/close [post]
func (h *RegisterHandler) Close(c *gin.Context) {
	var req dto.CloseRegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	closedBy, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Close(c.Request.Context(), closedBy, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary Lists cash registers with filters and pagination
// @Tags registers
// @Produce json
// @Security BearerAuth
// @Param status query string false "open|closed"
// @Param search query string false "Matches observations"
// @Param start_date query string false "RFC 3339 date"
// @Param end_date query string false "RFC 3339 date"
// @Param page query int false "Page"
// @Success 200 {object} dto.RegisterListResponse
// @Router /v1/registers [get]
func (h *RegisterHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	filter := dto.RegisterFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	}
	if raw := c.Query("start_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("start_date must be RFC 3339"))
			return
		}
		filter.StartDate = &t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("end_date must be RFC 3339"))
			return
		}
		filter.EndDate = &t
	}

	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetReport godoc
// @Summary Returns one register with its live summary
// @Tags registers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Register ID"
// @Success 200 {object} dto.RegisterReportResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/registers/{id} [get]
func (h *RegisterHandler) GetReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid register id"))
		return
	}
	resp, err := h.svc.GetReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
