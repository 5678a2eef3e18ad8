package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/koe-app/koe/internal/plan"
	"github.com/koe-app/koe/internal/store"
	"github.com/koe-app/koe/pkg/logger"
	"github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

var (
	ErrBillingDisabled  = errors.New("billing is not configured")
	ErrNoBillingAccount = errors.New("no billing account for this user")
	ErrAlreadyPro       = errors.New("already on the pro plan")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// StripeGateway creates hosted Stripe sessions and returns their URLs.
type StripeGateway interface {
	CheckoutSession(params *stripe.CheckoutSessionParams) (string, error)
	PortalSession(params *stripe.BillingPortalSessionParams) (string, error)
}

type stripeGateway struct{}

// NewStripeGateway sets the global Stripe key used by the session clients.
func NewStripeGateway(secretKey string) StripeGateway {
	stripe.Key = secretKey
	return stripeGateway{}
}

func (stripeGateway) CheckoutSession(params *stripe.CheckoutSessionParams) (string, error) {
	s, err := session.New(params)
	if err != nil {
		return "", err
	}
	return s.URL, nil
}

func (stripeGateway) PortalSession(params *stripe.BillingPortalSessionParams) (string, error) {
	s, err := portalsession.New(params)
	if err != nil {
		return "", err
	}
	return s.URL, nil
}

type BillingConfig struct {
	PriceID        string
	WebhookSecret  string
	AppURL         string
	ServiceRoleKey string
}

type BillingService struct {
	store   *store.Store
	gateway StripeGateway
	cfg     BillingConfig
}

// NewBillingService wires checkout and webhooks. A nil gateway disables
// billing.
func NewBillingService(s *store.Store, gateway StripeGateway, cfg BillingConfig) *BillingService {
	return &BillingService{store: s, gateway: gateway, cfg: cfg}
}

// Checkout starts a Pro subscription checkout for the user.
func (s *BillingService) Checkout(ctx context.Context, userID, email string) (string, error) {
	if s.gateway == nil || s.cfg.PriceID == "" {
		return "", ErrBillingDisabled
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.cfg.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(userID),
		SuccessURL:        stripe.String(s.cfg.AppURL + "/billing?checkout=success"),
		CancelURL:         stripe.String(s.cfg.AppURL + "/billing?checkout=canceled"),
	}

	profile, err := s.store.Scoped(userID).GetProfile(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return "", err
	case plan.IsPro(plan.ParseTier(profile.Plan)):
		return "", ErrAlreadyPro
	case profile.StripeCustomerID != "":
		params.Customer = stripe.String(profile.StripeCustomerID)
	}
	if params.Customer == nil && email != "" {
		params.CustomerEmail = stripe.String(email)
	}

	url, err := s.gateway.CheckoutSession(params)
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("stripe checkout session failed")
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return url, nil
}

// Portal opens the Stripe billing portal for a user with a billing account.
func (s *BillingService) Portal(ctx context.Context, userID string) (string, error) {
	if s.gateway == nil {
		return "", ErrBillingDisabled
	}
	profile, err := s.store.Scoped(userID).GetProfile(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNoBillingAccount
	}
	if err != nil {
		return "", err
	}
	if profile.StripeCustomerID == "" {
		return "", ErrNoBillingAccount
	}

	url, err := s.gateway.PortalSession(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(profile.StripeCustomerID),
		ReturnURL: stripe.String(s.cfg.AppURL + "/billing"),
	})
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("stripe portal session failed")
		return "", fmt.Errorf("create portal session: %w", err)
	}
	return url, nil
}

// HandleWebhook verifies and applies a Stripe event. Events for unknown
// users are acknowledged; storage failures are returned so Stripe retries.
func (s *BillingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.cfg.WebhookSecret == "" {
		return ErrBillingDisabled
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		logger.Warn().Err(err).Msg("stripe webhook signature rejected")
		return ErrInvalidSignature
	}

	db, err := s.store.Privileged(s.cfg.ServiceRoleKey)
	if err != nil {
		return err
	}

	switch event.Type {
	case "checkout.session.completed":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return fmt.Errorf("decode checkout session: %w", err)
		}
		if cs.ClientReferenceID == "" {
			logger.Warn().Str("event_id", event.ID).Msg("checkout session without user reference")
			return nil
		}
		customerID := ""
		if cs.Customer != nil {
			customerID = cs.Customer.ID
		}
		err = db.SetPlanByUser(ctx, cs.ClientReferenceID, plan.Pro, customerID)
		return s.applied(event, err, cs.ClientReferenceID, plan.Pro)

	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		if sub.Customer == nil {
			return nil
		}
		tier, ok := subscriptionTier(string(event.Type), sub.Status)
		if !ok {
			return nil
		}
		err = db.SetPlanByCustomer(ctx, sub.Customer.ID, tier)
		return s.applied(event, err, sub.Customer.ID, tier)
	}

	logger.Debug().Str("event_type", string(event.Type)).Msg("stripe event ignored")
	return nil
}

func (s *BillingService) applied(event stripe.Event, err error, subject string, tier plan.Tier) error {
	if errors.Is(err, store.ErrNotFound) {
		logger.Warn().Str("event_id", event.ID).Str("subject", subject).Msg("stripe event for unknown profile")
		return nil
	}
	if err != nil {
		logger.Error().Err(err).Str("event_id", event.ID).Msg("stripe event not applied")
		return err
	}
	logger.Info().
		Str("event_type", string(event.Type)).
		Str("subject", subject).
		Str("plan", string(tier)).
		Msg("plan updated")
	return nil
}

// subscriptionTier maps a subscription state to a plan. ok is false for
// states that should leave the plan alone, such as past_due.
func subscriptionTier(eventType string, status stripe.SubscriptionStatus) (plan.Tier, bool) {
	if eventType == "customer.subscription.deleted" {
		return plan.Free, true
	}
	switch status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return plan.Pro, true
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusUnpaid, stripe.SubscriptionStatusIncompleteExpired:
		return plan.Free, true
	}
	return "", false
}
