// Package billing integrates Stripe Checkout for credit purchases.
package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
)

// ErrUnknownPack is returned for a pack ID the catalogue does not carry.
var ErrUnknownPack = errors.New("unknown credit pack")

// CreditPack is a purchasable credit bundle.
type CreditPack struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Credits     int64  `json:"credits"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

// Packs is the credit catalogue offered at checkout.
var Packs = []CreditPack{
	{ID: "starter", Name: "Starter pack (25 credits)", Credits: 25, AmountCents: 500, Currency: "usd"},
	{ID: "standard", Name: "Standard pack (100 credits)", Credits: 100, AmountCents: 1500, Currency: "usd"},
	{ID: "studio", Name: "Studio pack (300 credits)", Credits: 300, AmountCents: 3900, Currency: "usd"},
}

// PackByID looks up a catalogue entry.
func PackByID(id string) (CreditPack, error) {
	for _, pack := range Packs {
		if pack.ID == id {
			return pack, nil
		}
	}
	return CreditPack{}, ErrUnknownPack
}

// Purchase is a settled checkout extracted from a Stripe webhook event.
type Purchase struct {
	UserID  uint
	Credits int64
	Note    string
}

// StripeBilling creates checkout sessions and verifies webhook events.
type StripeBilling struct {
	webhookSecret string
	successURL    string
	cancelURL     string
}

func NewStripeBilling(secretKey, webhookSecret, successURL, cancelURL string) *StripeBilling {
	stripe.Key = secretKey
	return &StripeBilling{
		webhookSecret: webhookSecret,
		successURL:    successURL,
		cancelURL:     cancelURL,
	}
}

// Enabled reports whether a Stripe secret key was configured.
func (b *StripeBilling) Enabled() bool {
	return stripe.Key != ""
}

// CreateSession opens a Stripe Checkout session for one credit pack. The user
// ID travels as the client reference so the webhook can credit the right
// account.
func (b *StripeBilling) CreateSession(userID uint, packID string) (string, error) {
	pack, err := PackByID(packID)
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(pack.Currency),
					UnitAmount: stripe.Int64(pack.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(pack.Name),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(b.successURL),
		CancelURL:         stripe.String(b.cancelURL),
		ClientReferenceID: stripe.String(strconv.FormatUint(uint64(userID), 10)),
	}
	params.AddMetadata("pack_id", pack.ID)
	params.AddMetadata("credits", strconv.FormatInt(pack.Credits, 10))

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// ParseEvent verifies a webhook payload and, for a completed checkout,
// returns the purchase to credit. A nil purchase with nil error means the
// event type is not one we act on.
func (b *StripeBilling) ParseEvent(payload []byte, signature string) (*Purchase, error) {
	event, err := webhook.ConstructEvent(payload, signature, b.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("verify webhook signature: %w", err)
	}

	if event.Type != "checkout.session.completed" {
		return nil, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}

	userID, err := strconv.ParseUint(sess.ClientReferenceID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid client reference %q: %w", sess.ClientReferenceID, err)
	}
	credits, err := strconv.ParseInt(sess.Metadata["credits"], 10, 64)
	if err != nil || credits <= 0 {
		return nil, fmt.Errorf("invalid credits metadata %q", sess.Metadata["credits"])
	}

	return &Purchase{
		UserID:  uint(userID),
		Credits: credits,
		Note:    fmt.Sprintf("stripe checkout %s (%s)", sess.ID, sess.Metadata["pack_id"]),
	}, nil
}
