package supabase

import (
	"context"
	"fmt"
	"strings"

	"github.com/account-recovery/internal/domain"
	"github.com/google/uuid"
	gotrue "github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
)

// AuthAdmin is the subset of the GoTrue client used by CredentialStore.
type AuthAdmin interface {
	AdminListUsers() (*types.AdminListUsersResponse, error)
	AdminCreateUser(req types.AdminCreateUserRequest) (*types.AdminCreateUserResponse, error)
	AdminUpdateUser(req types.AdminUpdateUserRequest) (*types.AdminUpdateUserResponse, error)
	Recover(req types.RecoverRequest) error
	WithToken(token string) gotrue.Client
}

// CredentialStore manages identities through the GoTrue admin API.
// The GoTrue client is not context-aware, so ctx is only checked before each call.
type CredentialStore struct {
	auth AuthAdmin
}

func NewCredentialStore(auth AuthAdmin) *CredentialStore {
	return &CredentialStore{auth: auth}
}

func (s *CredentialStore) UserExists(ctx context.Context, email string) (bool, error) {
	u, err := s.find(ctx, email)
	if err != nil {
		return false, err
	}
	return u != nil, nil
}

// SendPasswordReset asks GoTrue to mail its own reset link.
func (s *CredentialStore) SendPasswordReset(ctx context.Context, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.auth.Recover(types.RecoverRequest{Email: email}); err != nil {
		return fmt.Errorf("password reset: %w", err)
	}
	return nil
}

// VerifyReset checks the access token GoTrue hands out through its recovery
// link and returns the id of the user it was issued to.
func (s *CredentialStore) VerifyReset(ctx context.Context, email, accessToken string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	resp, err := s.auth.WithToken(accessToken).GetUser()
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidOrExpiredToken, err)
	}
	if !strings.EqualFold(resp.Email, email) {
		return "", fmt.Errorf("recovery token issued to another user: %w", domain.ErrInvalidOrExpiredToken)
	}
	return resp.ID.String(), nil
}

func (s *CredentialStore) LookupUserID(ctx context.Context, email string) (string, error) {
	u, err := s.find(ctx, email)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", domain.ErrNotFound
	}
	return u.ID.String(), nil
}

// ProvisionUser creates a confirmed identity without a password.
func (s *CredentialStore) ProvisionUser(ctx context.Context, email string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	resp, err := s.auth.AdminCreateUser(types.AdminCreateUserRequest{Email: email, EmailConfirm: true})
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}
	return resp.ID.String(), nil
}

func (s *CredentialStore) SetPassword(ctx context.Context, userID, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("user id %q: %w", userID, domain.ErrBadRequest)
	}
	if _, err := s.auth.AdminUpdateUser(types.AdminUpdateUserRequest{UserID: id, Password: password}); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// find scans the first page of users returned by the admin API.
func (s *CredentialStore) find(ctx context.Context, email string) (*types.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := s.auth.AdminListUsers()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	for i := range resp.Users {
		if strings.EqualFold(resp.Users[i].Email, email) {
			return &resp.Users[i], nil
		}
	}
	return nil, nil
}
