// Package credentials implements the identity store on the local users table.
package credentials

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/account-recovery/internal/domain"
	"github.com/account-recovery/internal/pkg/id"
	pkgtoken "github.com/account-recovery/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

// resetTTL bounds how long a mailed reset credential can be confirmed.
const resetTTL = time.Hour

// UserRepository is the subset of the users table the store needs.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	SetPasswordHash(ctx context.Context, userID, hash string) error
	SetResetToken(ctx context.Context, userID, hash string, expiresAt time.Time) error
	// ConsumeResetToken returns domain.ErrInvalidOrExpiredToken unless hash
	// matches an unexpired credential, which it then removes.
	ConsumeResetToken(ctx context.Context, userID, hash string, now time.Time) error
}

type Mailer interface {
	SendEmail(to, subject, htmlBody string) (messageID string, err error)
}

// LocalStore keeps identities in the users table with bcrypt password hashes.
type LocalStore struct {
	users     UserRepository
	mailer    Mailer
	orgName   string
	portalURL string
	now       func() time.Time
}

func NewLocalStore(users UserRepository, mailer Mailer, orgName, portalURL string) *LocalStore {
	return &LocalStore{users: users, mailer: mailer, orgName: orgName, portalURL: strings.TrimRight(portalURL, "/"), now: time.Now}
}

func (s *LocalStore) UserExists(ctx context.Context, email string) (bool, error) {
	_, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SendPasswordReset mails a single-use reset credential. Only its hash is
// stored; the wizard confirms it with VerifyReset before any change is made.
func (s *LocalStore) SendPasswordReset(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	tok, err := pkgtoken.NewOpaque()
	if err != nil {
		return err
	}
	if err := s.users.SetResetToken(ctx, u.UserID, hashToken(tok), s.now().UTC().Add(resetTTL)); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	link := s.resetLink(email, tok)
	subject := fmt.Sprintf("Password Reset - %s Account Recovery", s.orgName)
	body := fmt.Sprintf(`<p>A password reset was requested for your %s account.</p>`+
		`<p>Continue the recovery at <a href="%s">this link</a>. It expires in one hour. If you didn't request this, please ignore this email.</p>`,
		html.EscapeString(s.orgName), html.EscapeString(link))
	if _, err := s.mailer.SendEmail(email, subject, body); err != nil {
		return fmt.Errorf("password reset notice: %w", err)
	}
	return nil
}

// VerifyReset consumes the credential mailed by SendPasswordReset and returns
// the owner's user id.
func (s *LocalStore) VerifyReset(ctx context.Context, email, resetToken string) (string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.ErrInvalidOrExpiredToken
	}
	if err != nil {
		return "", err
	}
	if err := s.users.ConsumeResetToken(ctx, u.UserID, hashToken(resetToken), s.now().UTC()); err != nil {
		return "", err
	}
	return u.UserID, nil
}

func (s *LocalStore) LookupUserID(ctx context.Context, email string) (string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return u.UserID, nil
}

func (s *LocalStore) ProvisionUser(ctx context.Context, email string) (string, error) {
	now := s.now().UTC()
	u := &domain.User{
		UserID:         id.New(),
		Email:          email,
		EmailConfirmed: true,
		Enable:         1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		return "", err
	}
	return u.UserID, nil
}

func (s *LocalStore) SetPassword(ctx context.Context, userID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.SetPasswordHash(ctx, userID, string(hash))
}

func (s *LocalStore) resetLink(email, token string) string {
	q := url.Values{}
	q.Set("email", email)
	q.Set("reset_token", token)
	q.Set("step", fmt.Sprint(int(domain.StepChannel)))
	return s.portalURL + "/verify?" + q.Encode()
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
