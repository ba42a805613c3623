package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"coverly/internal/entity"
	"coverly/internal/generator"
)

// GenerateImage runs a single generation synchronously. The call blocks for
// the full webhook round trip, up to the configured generation timeout.
func (h *HTTPHandler) GenerateImage(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var req entity.GenerateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	record, remaining, err := h.generationService.Generate(c.Request.Context(), user.ID, req)
	if err != nil {
		h.respondGenerationError(c, user.ID, err)
		return
	}

	c.JSON(http.StatusOK, entity.GenerateImageResponse{
		Record:           h.generationService.HistoryItem(record),
		CreditsRemaining: remaining,
	})
}

func (h *HTTPHandler) respondGenerationError(c *gin.Context, userID uint, err error) {
	switch {
	case errors.Is(err, generator.ErrInvalidForm):
		BadRequest(c, ErrCodeInvalidRequest, err.Error())
	case errors.Is(err, entity.ErrInsufficientCredits):
		PaymentRequired(c, "not enough credits for this generation")
	case errors.Is(err, generator.ErrNoImageData):
		ErrorResponse(c, http.StatusBadGateway, ErrCodeNoImageData, "generation service returned no image")
	default:
		var statusErr *generator.StatusError
		if errors.As(err, &statusErr) {
			logrus.WithError(err).WithField("user_id", userID).Warn("generation webhook error")
			ErrorResponse(c, http.StatusBadGateway, ErrCodeGenerationFailed, "generation service is unavailable")
			return
		}
		logrus.WithError(err).WithField("user_id", userID).Error("generation failed")
		ErrorResponse(c, http.StatusInternalServerError, ErrCodeGenerationFailed, "generation failed")
	}
}

// ListHistory returns the caller's generation history, newest first. Admins
// may pass all=true to see every user's records.
func (h *HTTPHandler) ListHistory(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var query entity.GenerationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid query parameters")
		return
	}
	query.IncludeAll = user.IsAdmin() && strings.EqualFold(c.Query("all"), "true")
	if !query.IncludeAll {
		query.UserID = user.ID
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	records, meta, err := h.repo.ListGenerations(ctx, &query)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to list generations")
		InternalError(c, "failed to load history")
		return
	}

	response := entity.HistoryListResponse{
		Items: make([]entity.HistoryItem, 0, len(records)),
		Meta:  meta,
	}
	for idx := range records {
		response.Items = append(response.Items, h.generationService.HistoryItem(&records[idx]))
	}

	c.JSON(http.StatusOK, response)
}

func (h *HTTPHandler) loadOwnedGeneration(c *gin.Context) (*entity.DbGeneration, bool) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return nil, false
	}

	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, ErrCodeInvalidRequest, "invalid record id")
		return nil, false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	record, err := h.repo.GetGeneration(ctx, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeRecordNotFound, "record not found")
			return nil, false
		}
		logrus.WithError(err).WithField("record_id", id).Error("failed to load generation")
		InternalError(c, "failed to load record")
		return nil, false
	}

	if record.UserID != user.ID && !user.IsAdmin() {
		NotFound(c, ErrCodeRecordNotFound, "record not found")
		return nil, false
	}
	return record, true
}

func (h *HTTPHandler) GetHistoryItem(c *gin.Context) {
	record, ok := h.loadOwnedGeneration(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.generationService.HistoryItem(record))
}

// DeleteHistoryItem removes a record. Credits spent on it are not refunded.
func (h *HTTPHandler) DeleteHistoryItem(c *gin.Context) {
	record, ok := h.loadOwnedGeneration(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.DeleteGeneration(ctx, record.ID); err != nil {
		logrus.WithError(err).WithField("record_id", record.ID).Error("failed to delete generation")
		InternalError(c, "failed to delete record")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": record.ID})
}
