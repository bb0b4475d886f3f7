package credentials

import (
	"context"
	"errors"
	"html"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/account-recovery/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserRepo) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserRepo) SetPasswordHash(ctx context.Context, userID, hash string) error {
	return m.Called(ctx, userID, hash).Error(0)
}

func (m *mockUserRepo) SetResetToken(ctx context.Context, userID, hash string, expiresAt time.Time) error {
	return m.Called(ctx, userID, hash, expiresAt).Error(0)
}
func (m *mockUserRepo) ConsumeResetToken(ctx context.Context, userID, hash string, now time.Time) error {
	return m.Called(ctx, userID, hash, now).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) (string, error) {
	args := m.Called(to, subject, body)
	return args.String(0), args.Error(1)
}

func TestUserExists(t *testing.T) {
	repo := &mockUserRepo{}
	repo.On("GetByEmail", mock.Anything, "known@x.com").Return(&domain.User{UserID: "u1"}, nil)
	repo.On("GetByEmail", mock.Anything, "new@x.com").Return(nil, domain.ErrNotFound)
	repo.On("GetByEmail", mock.Anything, "err@x.com").Return(nil, errors.New("throttled"))
	s := NewLocalStore(repo, nil, "MTI", "https://portal")

	ok, err := s.UserExists(context.Background(), "known@x.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.UserExists(context.Background(), "new@x.com")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.UserExists(context.Background(), "err@x.com")
	assert.EqualError(t, err, "throttled")
}

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

var hrefRe = regexp.MustCompile(`href="([^"]+)"`)

func newStore(repo UserRepository, ml Mailer) *LocalStore {
	s := NewLocalStore(repo, ml, "MTI", "https://portal/")
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestSendPasswordReset_MailsSingleUseLink(t *testing.T) {
	repo := &mockUserRepo{}
	ml := &mockMailer{}
	var storedHash string
	var body string
	repo.On("GetByEmail", mock.Anything, "known@x.com").Return(&domain.User{UserID: "u1"}, nil)
	repo.On("SetResetToken", mock.Anything, "u1", mock.AnythingOfType("string"), fixedNow.Add(time.Hour)).
		Run(func(args mock.Arguments) { storedHash = args.String(2) }).
		Return(nil)
	ml.On("SendEmail", "known@x.com", "Password Reset - MTI Account Recovery", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { body = args.String(2) }).
		Return("<id@x>", nil)

	require.NoError(t, newStore(repo, ml).SendPasswordReset(context.Background(), "known@x.com"))

	m := hrefRe.FindStringSubmatch(body)
	require.Len(t, m, 2)
	u, err := url.Parse(html.UnescapeString(m[1]))
	require.NoError(t, err)
	assert.Equal(t, "/verify", u.Path)
	assert.Equal(t, "known@x.com", u.Query().Get("email"))
	assert.Equal(t, "2", u.Query().Get("step"))
	tok := u.Query().Get("reset_token")
	require.Len(t, tok, 64)
	assert.Equal(t, hashToken(tok), storedHash)
	assert.NotContains(t, body, storedHash)
}

func TestSendPasswordReset_StoreFailureSendsNothing(t *testing.T) {
	repo := &mockUserRepo{}
	ml := &mockMailer{}
	repo.On("GetByEmail", mock.Anything, mock.Anything).Return(&domain.User{UserID: "u1"}, nil)
	repo.On("SetResetToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("throttled"))

	err := newStore(repo, ml).SendPasswordReset(context.Background(), "known@x.com")
	assert.ErrorContains(t, err, "throttled")
	ml.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendPasswordReset_MailFailure(t *testing.T) {
	repo := &mockUserRepo{}
	ml := &mockMailer{}
	repo.On("GetByEmail", mock.Anything, mock.Anything).Return(&domain.User{UserID: "u1"}, nil)
	repo.On("SetResetToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ml.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("relay denied"))

	err := newStore(repo, ml).SendPasswordReset(context.Background(), "known@x.com")
	assert.ErrorContains(t, err, "relay denied")
}

func TestVerifyReset_ConsumesHashedToken(t *testing.T) {
	repo := &mockUserRepo{}
	repo.On("GetByEmail", mock.Anything, "known@x.com").Return(&domain.User{UserID: "u1"}, nil)
	repo.On("ConsumeResetToken", mock.Anything, "u1", hashToken("tok-1"), fixedNow).Return(nil)

	id, err := newStore(repo, nil).VerifyReset(context.Background(), "known@x.com", "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", id)
	repo.AssertExpectations(t)
}

func TestVerifyReset_RejectsWrongOrReusedToken(t *testing.T) {
	repo := &mockUserRepo{}
	repo.On("GetByEmail", mock.Anything, "known@x.com").Return(&domain.User{UserID: "u1"}, nil)
	repo.On("ConsumeResetToken", mock.Anything, "u1", mock.Anything, mock.Anything).Return(domain.ErrInvalidOrExpiredToken)

	_, err := newStore(repo, nil).VerifyReset(context.Background(), "known@x.com", "guess")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)
}

func TestVerifyReset_UnknownEmail(t *testing.T) {
	repo := &mockUserRepo{}
	repo.On("GetByEmail", mock.Anything, "new@x.com").Return(nil, domain.ErrNotFound)

	_, err := newStore(repo, nil).VerifyReset(context.Background(), "new@x.com", "tok-1")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)
	repo.AssertNotCalled(t, "ConsumeResetToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLookupUserID(t *testing.T) {
	repo := &mockUserRepo{}
	repo.On("GetByEmail", mock.Anything, "known@x.com").Return(&domain.User{UserID: "u1"}, nil)
	repo.On("GetByEmail", mock.Anything, "new@x.com").Return(nil, domain.ErrNotFound)
	s := NewLocalStore(repo, nil, "MTI", "")

	id, err := s.LookupUserID(context.Background(), "known@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	_, err = s.LookupUserID(context.Background(), "new@x.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProvisionUser(t *testing.T) {
	repo := &mockUserRepo{}
	var put *domain.User
	repo.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) { put = args.Get(1).(*domain.User) }).
		Return(nil)

	id, err := NewLocalStore(repo, nil, "MTI", "").ProvisionUser(context.Background(), "new@x.com")
	require.NoError(t, err)
	require.NotNil(t, put)
	assert.Equal(t, id, put.UserID)
	assert.Equal(t, "new@x.com", put.Email)
	assert.True(t, put.EmailConfirmed)
	assert.Empty(t, put.PasswordHash)
}

func TestSetPassword_StoresBcryptHash(t *testing.T) {
	repo := &mockUserRepo{}
	var hash string
	repo.On("SetPasswordHash", mock.Anything, "u1", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { hash = args.String(2) }).
		Return(nil)

	require.NoError(t, NewLocalStore(repo, nil, "MTI", "").SetPassword(context.Background(), "u1", "NewPass123"))
	assert.NotEqual(t, "NewPass123", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("NewPass123")))
}
