package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"coverly/internal/entity"
)

// Subscribe records plan interest and sends a confirmation email. The email
// is fire-and-forget; a mail failure never loses the submission.
func (h *HTTPHandler) Subscribe(c *gin.Context) {
	var req entity.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	plan := strings.TrimSpace(req.Plan)
	if plan == "" {
		plan = "starter"
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	row := &entity.DbSubscriptionRequest{Email: email, Plan: plan}
	if err := h.repo.CreateSubscriptionRequest(ctx, row); err != nil {
		logrus.WithError(err).WithField("email", email).Error("failed to store subscription request")
		InternalError(c, "failed to record subscription request")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.mailer.SendSubscriptionConfirmation(ctx, email, plan); err != nil {
			logrus.WithError(err).WithField("email", email).Warn("failed to send subscription confirmation")
		}
	}()

	c.JSON(http.StatusCreated, gin.H{"id": row.ID, "email": row.Email, "plan": row.Plan})
}
