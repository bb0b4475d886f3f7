package verification

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/account-recovery/internal/domain"
	pkgtoken "github.com/account-recovery/internal/pkg/token"
)

// TokenStore persists verification tokens. Redeem must be a single
// conditional write returning domain.ErrInvalidOrExpiredToken when no
// redeemable row matches.
type TokenStore interface {
	Create(ctx context.Context, t *domain.VerificationToken) error
	Redeem(ctx context.Context, email, token string, now time.Time) error
	Invalidate(ctx context.Context, token string, now time.Time) error
}

// Mailer delivers the verification email and returns the provider message id.
type Mailer interface {
	SendEmail(to, subject, htmlBody string) (messageID string, err error)
}

type IssueResult struct {
	Token     string
	Link      string
	MessageID string
}

type Service interface {
	Issue(ctx context.Context, email string) (*IssueResult, error)
	Redeem(ctx context.Context, email, token string) error
}

type ServiceDeps struct {
	Tokens    TokenStore
	Mailer    Mailer
	PortalURL string
	OrgName   string
	TTL       time.Duration
	Now       func() time.Time
}

type service struct {
	tokens    TokenStore
	mailer    Mailer
	portalURL string
	orgName   string
	ttl       time.Duration
	now       func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	ttl := deps.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &service{
		tokens:    deps.Tokens,
		mailer:    deps.Mailer,
		portalURL: strings.TrimRight(deps.PortalURL, "/"),
		orgName:   deps.OrgName,
		ttl:       ttl,
		now:       now,
	}
}

func (s *service) Issue(ctx context.Context, email string) (*IssueResult, error) {
	tok, err := pkgtoken.NewOpaque()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	vt := &domain.VerificationToken{
		Token:     tok,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.tokens.Create(ctx, vt); err != nil {
		return nil, fmt.Errorf("%w: store verification token: %v", domain.ErrProvider, err)
	}

	link := s.link(email, tok)
	body, err := renderEmail(s.orgName, link)
	if err != nil {
		return nil, err
	}
	subject := fmt.Sprintf("Verify Your Email - %s Account Recovery", s.orgName)
	messageID, err := s.mailer.SendEmail(email, subject, body)
	if err != nil {
		if ierr := s.tokens.Invalidate(ctx, tok, s.now().UTC()); ierr != nil {
			slog.Warn("failed to invalidate undelivered verification token", "email", email, "err", ierr)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrProvider, err)
	}
	return &IssueResult{Token: tok, Link: link, MessageID: messageID}, nil
}

func (s *service) Redeem(ctx context.Context, email, token string) error {
	if email == "" || token == "" {
		return domain.ErrInvalidOrExpiredToken
	}
	err := s.tokens.Redeem(ctx, email, token, s.now().UTC())
	if err != nil && !errors.Is(err, domain.ErrInvalidOrExpiredToken) {
		return fmt.Errorf("%w: %v", domain.ErrProvider, err)
	}
	return err
}

func (s *service) link(email, token string) string {
	q := url.Values{}
	q.Set("email", email)
	q.Set("token", token)
	q.Set("step", fmt.Sprint(int(domain.StepChannel)))
	return s.portalURL + "/verify?" + q.Encode()
}

var emailTemplate = template.Must(template.New("verify").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>Email Verification</h1>
  <p>Thank you for using {{.Org}} Account Recovery. Please click the button below to verify your email address:</p>
  <div style="text-align: center; margin: 30px 0;">
    <a href="{{.Link}}" style="background-color: #0066cc; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; display: inline-block;">Verify Email Address</a>
  </div>
  <p>If you didn't request this verification, please ignore this email.</p>
  <p>Best regards,<br>{{.Org}} Team</p>
</div>
`))

func renderEmail(org, link string) (string, error) {
	var b strings.Builder
	if err := emailTemplate.Execute(&b, struct{ Org, Link string }{org, link}); err != nil {
		return "", fmt.Errorf("render verification email: %w", err)
	}
	return b.String(), nil
}
