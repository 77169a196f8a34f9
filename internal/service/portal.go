package service

import (
	"context"
	"fmt"
	"log"
	"net/mail"
	"net/url"

	"kimora-storefront/internal/apperr"
	"kimora-storefront/internal/client"
	mailer "kimora-storefront/internal/mail"
	"kimora-storefront/internal/repository"
	"kimora-storefront/internal/token"
)

// PortalService implements the magic-link flow: a customer proves control of
// an email address and exchanges the resulting token for a Stripe billing
// portal URL.
type PortalService interface {
	// RequestLink looks up the email and, when it maps to a Stripe
	// customer, mails a signed link. It reports nothing about the lookup:
	// the caller's response is identical for known and unknown emails.
	RequestLink(ctx context.Context, email string) error
	// Exchange verifies a token and returns the billing portal URL for the
	// embedded email.
	Exchange(ctx context.Context, tok string) (string, error)
}

type portalServiceImpl struct {
	stripeClient client.StripeClient
	orderRepo    repository.OrderRepository
	tokens       *token.Service
	mailer       mailer.Mailer
	siteURL      string
}

func NewPortalService(
	stripeClient client.StripeClient,
	orderRepo repository.OrderRepository,
	tokens *token.Service,
	m mailer.Mailer,
	siteURL string,
) PortalService {
	return &portalServiceImpl{
		stripeClient: stripeClient,
		orderRepo:    orderRepo,
		tokens:       tokens,
		mailer:       m,
		siteURL:      siteURL,
	}
}

func validEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func (s *portalServiceImpl) RequestLink(ctx context.Context, email string) error {
	email = token.NormalizeEmail(email)
	if email == "" || !validEmail(email) {
		return nil
	}

	customerID, err := s.orderRepo.LatestCustomerIDByEmail(ctx, email)
	if err != nil {
		// Swallowed on purpose: the caller's answer must not change.
		log.Printf("portal request lookup failed: %v", err)
		return nil
	}
	if customerID == "" {
		return nil
	}

	tok, err := s.tokens.Issue(email)
	if err != nil {
		log.Printf("portal token issue failed: %v", err)
		return nil
	}

	if s.mailer == nil {
		log.Printf("mail delivery not configured, portal link for %s not sent", email)
		return nil
	}

	portalLink := s.siteURL + "/manage-subscription?token=" + url.QueryEscape(tok)
	fallbackLink := s.siteURL + "/manage-subscription"

	if err := s.mailer.Send(email,
		"Manage your Kimora subscription",
		portalMailText(portalLink, fallbackLink),
		portalMailHTML(portalLink, fallbackLink),
	); err != nil {
		log.Printf("portal mail send failed: %v", err)
	}

	return nil
}

func (s *portalServiceImpl) Exchange(ctx context.Context, tok string) (string, error) {
	email, err := s.tokens.Verify(tok)
	if err != nil {
		return "", err
	}

	customerID, err := s.orderRepo.LatestCustomerIDByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("look up customer for portal: %w", err)
	}
	if customerID == "" {
		// Safe to disclose: the caller already proved control of the email.
		return "", apperr.NotFound("no customer found for that link")
	}

	portalURL, err := s.stripeClient.CreateBillingPortalSession(ctx, customerID, s.siteURL+"/manage-subscription")
	if err != nil {
		return "", fmt.Errorf("create billing portal session: %w", err)
	}

	return portalURL, nil
}

func portalMailText(portalLink, fallbackLink string) string {
	return fmt.Sprintf(`Manage your Kimora subscription

Secure link (expires in 15 minutes):
%s

If your link expired, request a fresh one here:
%s

Need help? Reply to this email or contact alex@kimoraco.com
`, portalLink, fallbackLink)
}

func portalMailHTML(portalLink, fallbackLink string) string {
	return fmt.Sprintf(`<div style="font-family: ui-sans-serif, system-ui; line-height:1.5; color:#111;">
  <h2 style="margin:0 0 8px;">Manage your Kimora subscription</h2>
  <p style="margin:0 0 16px;">Use the secure link below (expires in <b>15 minutes</b>):</p>
  <p style="margin:0 0 18px;">
    <a href="%s" style="display:inline-block;padding:12px 16px;border-radius:10px;background:#111;color:#fff;text-decoration:none;">Open subscription portal</a>
  </p>
  <p style="margin:0 0 10px;font-size:14px;color:#444;">
    If this link expired, request a fresh one here: <a href="%s">%s</a>
  </p>
  <p style="margin:18px 0 0;font-size:12px;color:#666;">
    Need help? Reply to this email or contact <a href="mailto:alex@kimoraco.com">alex@kimoraco.com</a>.
  </p>
</div>`, portalLink, fallbackLink, fallbackLink)
}
