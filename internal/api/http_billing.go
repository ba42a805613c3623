package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"coverly/internal/billing"
	"coverly/internal/entity"
)

const maxWebhookBodyBytes = 1 << 20

// ListCreditPacks returns the purchasable credit bundles.
func (h *HTTPHandler) ListCreditPacks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"packs": billing.Packs})
}

// CreateCheckoutSession opens a Stripe Checkout session for a credit pack and
// returns the redirect URL.
func (h *HTTPHandler) CreateCheckoutSession(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}
	if !h.billing.Enabled() {
		ServiceUnavailable(c, "payments are not configured")
		return
	}

	var req struct {
		PackID string `json:"pack_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	url, err := h.billing.CreateSession(user.ID, req.PackID)
	if err != nil {
		if errors.Is(err, billing.ErrUnknownPack) {
			BadRequest(c, ErrCodeUnknownPack, "unknown credit pack")
			return
		}
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to create checkout session")
		InternalError(c, "failed to start checkout")
		return
	}

	c.JSON(http.StatusOK, gin.H{"checkout_url": url})
}

// StripeWebhook verifies and applies Stripe events. Completed checkouts
// credit the buyer's balance with a purchase ledger entry.
func (h *HTTPHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "failed to read webhook body")
		return
	}

	purchase, err := h.billing.ParseEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		logrus.WithError(err).Warn("rejected stripe webhook")
		BadRequest(c, ErrCodeInvalidRequest, "invalid webhook payload")
		return
	}
	if purchase == nil {
		// Event type we do not act on; acknowledge so Stripe stops retrying.
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	balance, err := h.repo.AdjustUserCredits(c.Request.Context(), purchase.UserID, purchase.Credits, entity.CreditReasonPurchase, purchase.Note)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": purchase.UserID,
			"credits": purchase.Credits,
		}).Error("failed to apply purchased credits")
		InternalError(c, "failed to apply credits")
		return
	}

	logrus.WithFields(logrus.Fields{
		"user_id": purchase.UserID,
		"credits": purchase.Credits,
		"balance": balance,
	}).Info("credits purchased")

	c.JSON(http.StatusOK, gin.H{"received": true})
}
