package api

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"coverly/internal/entity"
	"coverly/internal/storage"
	"coverly/internal/utils"
)

const maxBrandLogoBytes = 5 << 20

// UpdateProfile applies self-service edits, including the branding fields
// attached to generation requests.
func (h *HTTPHandler) UpdateProfile(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var req entity.ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	updates := entity.UserUpdates{}
	if req.DisplayName != nil {
		trimmed := utils.SanitizeText(*req.DisplayName)
		updates.DisplayName = &trimmed
	}
	if req.Username != nil {
		trimmed := utils.SanitizeText(*req.Username)
		updates.Username = &trimmed
	}
	if req.BrandName != nil {
		trimmed := utils.SanitizeText(*req.BrandName)
		updates.BrandName = &trimmed
	}
	if req.WebsiteURL != nil {
		trimmed := strings.TrimSpace(*req.WebsiteURL)
		updates.WebsiteURL = &trimmed
	}
	if req.BrandGuidelines != nil {
		trimmed := utils.SanitizeText(*req.BrandGuidelines)
		updates.BrandGuidelines = &trimmed
	}

	if updates.IsEmpty() {
		BadRequest(c, ErrCodeInvalidRequest, "no fields to update")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.UpdateUser(ctx, user.ID, updates); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to update profile")
		InternalError(c, "failed to update profile")
		return
	}

	dbUser, err := h.repo.GetUserByID(ctx, user.ID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to reload profile")
		InternalError(c, "failed to load profile")
		return
	}

	c.JSON(http.StatusOK, h.makeUserSummary(dbUser))
}

// UploadBrandLogo stores a brand logo image and links it to the profile.
func (h *HTTPHandler) UploadBrandLogo(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	fileHeader, err := c.FormFile("logo")
	if err != nil {
		MissingField(c, "logo")
		return
	}
	if fileHeader.Size > maxBrandLogoBytes {
		BadRequest(c, ErrCodeInvalidRequest, "logo exceeds the 5MB limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		InternalError(c, "failed to read uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBrandLogoBytes+1))
	if err != nil {
		InternalError(c, "failed to read uploaded file")
		return
	}
	if len(data) > maxBrandLogoBytes {
		BadRequest(c, ErrCodeInvalidRequest, "logo exceeds the 5MB limit")
		return
	}

	ext := utils.ExtensionFromMime(http.DetectContentType(data))
	if ext == "" {
		BadRequest(c, ErrCodeInvalidRequest, "unsupported image format")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	logoPath, err := h.storage.Save(ctx, data, storage.SaveOptions{
		Category:  storage.CategoryBrandLogos,
		Extension: ext,
	})
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to store brand logo")
		InternalError(c, "failed to store brand logo")
		return
	}

	if err := h.repo.UpdateUser(ctx, user.ID, entity.UserUpdates{BrandLogoPath: &logoPath}); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to link brand logo")
		InternalError(c, "failed to update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"brand_logo_url": h.publicURL(logoPath)})
}
