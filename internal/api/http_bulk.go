package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"coverly/internal/entity"
	"coverly/internal/generator"
	"coverly/internal/service"
)

const maxBulkItems = 20

// CreateBulkBatch validates a multi-item submission and starts it in the
// background. The response carries the batch ID to poll or subscribe on.
func (h *HTTPHandler) CreateBulkBatch(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var req entity.BulkCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}
	if len(req.Items) == 0 {
		MissingField(c, "items")
		return
	}
	if len(req.Items) > maxBulkItems {
		BadRequest(c, ErrCodeInvalidRequest, fmt.Sprintf("a batch holds at most %d items", maxBulkItems))
		return
	}

	status, err := h.bulkService.Create(c.Request.Context(), user.ID, req)
	if err != nil {
		switch {
		case errors.Is(err, generator.ErrInvalidForm):
			BadRequest(c, ErrCodeInvalidRequest, err.Error())
		case errors.Is(err, entity.ErrInsufficientCredits):
			PaymentRequired(c, "not enough credits for this batch")
		default:
			logrus.WithError(err).WithField("user_id", user.ID).Error("failed to create bulk batch")
			InternalError(c, "failed to start batch")
		}
		return
	}

	c.JSON(http.StatusAccepted, status)
}

// BulkStatus reports batch progress.
func (h *HTTPHandler) BulkStatus(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	batchID := strings.TrimSpace(c.Param("id"))
	status, err := h.bulkService.Status(batchID, user.ID)
	if err != nil {
		if errors.Is(err, service.ErrBatchNotFound) {
			NotFound(c, ErrCodeBatchNotFound, "batch not found")
			return
		}
		logrus.WithError(err).WithField("batch_id", batchID).Error("failed to load batch status")
		InternalError(c, "failed to load batch")
		return
	}

	c.JSON(http.StatusOK, status)
}

// DownloadBulkArchive streams a zip of the batch's completed images.
func (h *HTTPHandler) DownloadBulkArchive(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	batchID := strings.TrimSpace(c.Param("id"))
	entries, err := h.bulkService.CompletedImages(batchID, user.ID)
	if err != nil {
		if errors.Is(err, service.ErrBatchNotFound) {
			NotFound(c, ErrCodeBatchNotFound, "batch not found")
			return
		}
		InternalError(c, "failed to load batch")
		return
	}
	if len(entries) == 0 {
		BadRequest(c, ErrCodeInvalidRequest, "batch has no completed images")
		return
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "coverly-batch-"+batchID+".zip"))
	if err := h.archiver.WriteZip(c.Request.Context(), c.Writer, entries); err != nil {
		// Headers are already out; all we can do is log and cut the stream.
		logrus.WithError(err).WithField("batch_id", batchID).Error("failed to stream batch archive")
	}
}
