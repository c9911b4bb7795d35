package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"oticash/internal/apierror"
	"oticash/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ExportHandler struct {
	svc     service.ExportService
	timeout time.Duration
}

func NewExportHandler(svc service.ExportService, timeout time.Duration) *ExportHandler {
	return &ExportHandler{svc: svc, timeout: timeout}
}

// GetSummary godoc
// @Summary Returns the aggregated summary for one register
// @Tags exports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Register ID"
// @Success 200 {object} dto.Summary
// @Failure 404 {object} apierror.APIError
// @Router /v1/registers/{id}/summary [get]
func (h *ExportHandler) GetSummary(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid register id"))
		return
	}
	summary, err := h.svc.BuildSummary(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Export godoc
// @Summary Renders a register summary to excel, pdf, csv or json
// @Tags exports
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Register ID"
// @Param format query string true "excel|pdf|csv|json"
// @Param title query string false "Document title"
// @Success 200 {file} binary
// @Failure 422 {object} apierror.APIError
// @Failure 504 {object} apierror.APIError
// @Router /v1/registers/{id}/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid register id"))
		return
	}

	// Rendering may be long-running; bound it so the caller is told to
	// retry instead of waiting indefinitely.
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	file, err := h.svc.Export(ctx, id, c.Query("format"), c.Query("title"))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.JSON(http.StatusGatewayTimeout, apierror.New("export timed out, retry the request"))
			return
		}
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+file.Filename)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
