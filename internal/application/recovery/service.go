package recovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/account-recovery/internal/application/otp"
	"github.com/account-recovery/internal/application/questions"
	"github.com/account-recovery/internal/application/verification"
	"github.com/account-recovery/internal/domain"
	"github.com/account-recovery/internal/infrastructure/metrics"
	"github.com/account-recovery/internal/pkg/id"
	"github.com/account-recovery/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// Notices shown to the user after a successful submit.
const (
	NoticeCheckEmail       = "Please check your email to verify your address and continue with the recovery process."
	NoticeResetEmailSent   = "Please check your email for the password reset link."
	NoticeEmailVerified    = "Your email has been verified. You can now continue with the account recovery process."
	NoticeOtpSent          = "Please check your WhatsApp for the OTP."
	NoticeOtpVerified      = "OTP verification successful."
	NoticeQuestionSaved    = "Your security question has been saved successfully."
	NoticePasswordUpdated  = "Your password has been updated successfully."
	NoticeSubmitInProgress = "A previous submission is still in progress."
)

// CredentialStore is the identity provider the wizard recovers accounts in.
// LookupUserID returns domain.ErrNotFound for unknown emails. VerifyReset
// checks the credential delivered by SendPasswordReset and returns
// domain.ErrInvalidOrExpiredToken when it does not prove control of email.
type CredentialStore interface {
	UserExists(ctx context.Context, email string) (bool, error)
	SendPasswordReset(ctx context.Context, email string) error
	VerifyReset(ctx context.Context, email, resetToken string) (userID string, err error)
	LookupUserID(ctx context.Context, email string) (string, error)
	ProvisionUser(ctx context.Context, email string) (string, error)
	SetPassword(ctx context.Context, userID, password string) error
}

// Challenge verifies the bot-check token sent with step 1.
type Challenge interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

type AnswerStore interface {
	Put(ctx context.Context, a *domain.SecurityAnswer) error
}

type Metrics interface {
	ObserveStep(step, outcome string, elapsed time.Duration)
	ObserveRedeem(ok bool)
}

type EmailRequest struct {
	Email        string `json:"email" validate:"required,email"`
	CaptchaToken string `json:"captcha_token"`
	RemoteIP     string `json:"-"`
}

type ChannelRequest struct {
	WhatsApp string `json:"whatsapp" validate:"required,min=10"`
}

type OTPRequest struct {
	OTP string `json:"otp" validate:"required,len=6"`
}

type SecurityQuestionRequest struct {
	QuestionID     string `json:"question_id" validate:"required"`
	CustomQuestion string `json:"custom_question" validate:"max=500"`
	Answer         string `json:"answer" validate:"required,max=500"`
}

type PasswordRequest struct {
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type ConfirmResetRequest struct {
	ResetToken string `json:"reset_token" validate:"required"`
}

type ResumeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Token string `json:"token" validate:"required"`
	Step  int    `json:"step" validate:"required"`
}

// StepResult is returned by every submit. Busy is set when another submit
// for the same session was in flight and this one was ignored.
type StepResult struct {
	Session *domain.RecoverySession
	Notice  string
	Busy    bool
}

type Service interface {
	Start(ctx context.Context) (*domain.RecoverySession, error)
	Get(ctx context.Context, sessionID string) (*domain.RecoverySession, error)
	SubmitEmail(ctx context.Context, sessionID string, req EmailRequest) (*StepResult, error)
	SubmitChannel(ctx context.Context, sessionID string, req ChannelRequest) (*StepResult, error)
	SubmitOTP(ctx context.Context, sessionID string, req OTPRequest) (*StepResult, error)
	SubmitSecurityQuestion(ctx context.Context, sessionID string, req SecurityQuestionRequest) (*StepResult, error)
	SubmitPassword(ctx context.Context, sessionID string, req PasswordRequest) (*StepResult, error)
	// ConfirmReset proves control of a known email with the credential from
	// the password reset mail. Steps 4 and 5 refuse sessions without it.
	ConfirmReset(ctx context.Context, sessionID string, req ConfirmResetRequest) (*StepResult, error)
	// ResumeFromLink redeems an emailed verification link and opens a new
	// session at the step the link encodes, with the email pre-filled.
	ResumeFromLink(ctx context.Context, req ResumeRequest) (*StepResult, error)
}

type ServiceDeps struct {
	Sessions     *SessionStore
	Credentials  CredentialStore
	Challenge    Challenge
	Verification verification.Service
	OTP          otp.Service
	Questions    questions.Service
	Answers      AnswerStore
	Metrics      Metrics
	Now          func() time.Time
}

type service struct {
	sessions     *SessionStore
	credentials  CredentialStore
	challenge    Challenge
	verification verification.Service
	otp          otp.Service
	questions    questions.Service
	answers      AnswerStore
	metrics      Metrics
	now          func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		sessions:     deps.Sessions,
		credentials:  deps.Credentials,
		challenge:    deps.Challenge,
		verification: deps.Verification,
		otp:          deps.OTP,
		questions:    deps.Questions,
		answers:      deps.Answers,
		metrics:      deps.Metrics,
		now:          deps.Now,
	}
	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) Start(ctx context.Context) (*domain.RecoverySession, error) {
	return s.newSession(ctx, domain.StepEmail, "", false)
}

func (s *service) Get(ctx context.Context, sessionID string) (*domain.RecoverySession, error) {
	return s.sessions.Load(ctx, sessionID)
}

func (s *service) SubmitEmail(ctx context.Context, sessionID string, req EmailRequest) (*StepResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	return s.submit(ctx, sessionID, domain.StepEmail, func(ctx context.Context, sess *domain.RecoverySession) (string, error) {
		if err := validate.Struct(req); err != nil {
			return "", err
		}
		if err := s.challenge.Verify(ctx, req.CaptchaToken, req.RemoteIP); err != nil {
			return "", err
		}
		exists, err := s.credentials.UserExists(ctx, req.Email)
		if err != nil {
			return "", providerError(err)
		}
		if !exists {
			if _, err := s.verification.Issue(ctx, req.Email); err != nil {
				return "", err
			}
			return NoticeCheckEmail, nil
		}
		if err := s.credentials.SendPasswordReset(ctx, req.Email); err != nil {
			return "", providerError(err)
		}
		sess.Email = req.Email
		sess.CurrentStep = domain.StepChannel
		return NoticeResetEmailSent, nil
	})
}

// SubmitChannel issues an OTP to the given WhatsApp number. It is also
// accepted at the OTP step, where it replaces the outstanding code.
func (s *service) SubmitChannel(ctx context.Context, sessionID string, req ChannelRequest) (*StepResult, error) {
	req.WhatsApp = strings.TrimSpace(req.WhatsApp)
	return s.submit(ctx, sessionID, domain.StepChannel, func(ctx context.Context, sess *domain.RecoverySession) (string, error) {
		if err := validate.Struct(req); err != nil {
			return "", err
		}
		rec, err := s.otp.Issue(ctx, req.WhatsApp)
		if err != nil {
			return "", err
		}
		sess.PendingOTP = rec
		sess.CurrentStep = domain.StepOTP
		return NoticeOtpSent, nil
	})
}

// SubmitOTP compares the code with the outstanding one. The outstanding code
// is discarded on every compare, matched or not.
func (s *service) SubmitOTP(ctx context.Context, sessionID string, req OTPRequest) (*StepResult, error) {
	return s.submit(ctx, sessionID, domain.StepOTP, func(ctx context.Context, sess *domain.RecoverySession) (string, error) {
		if err := validate.Struct(req); err != nil {
			return "", err
		}
		pending := sess.PendingOTP
		sess.PendingOTP = nil
		if err := s.otp.Verify(req.OTP, pending); err != nil {
			sess.UpdatedAt = s.now().UTC()
			if serr := s.sessions.Save(ctx, sess); serr != nil {
				return "", serr
			}
			return "", err
		}
		sess.CurrentStep = domain.StepSecurityQuestion
		return NoticeOtpVerified, nil
	})
}

func (s *service) SubmitSecurityQuestion(ctx context.Context, sessionID string, req SecurityQuestionRequest) (*StepResult, error) {
	return s.submit(ctx, sessionID, domain.StepSecurityQuestion, func(ctx context.Context, sess *domain.RecoverySession) (string, error) {
		if err := validate.Struct(req); err != nil {
			return "", err
		}
		userID, err := s.owner(ctx, sess)
		if err != nil {
			return "", err
		}
		q, err := s.questions.Resolve(ctx, req.QuestionID, req.CustomQuestion)
		if err != nil {
			return "", providerError(err)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Answer), bcrypt.DefaultCost)
		if err != nil {
			return "", err
		}
		answer := &domain.SecurityAnswer{
			ID:         id.New(),
			QuestionID: q.ID,
			Answer:     string(hash),
			UserID:     userID,
			Status:     domain.AnswerStatusAnswered,
			CreatedAt:  s.now().UTC(),
		}
		if err := s.answers.Put(ctx, answer); err != nil {
			slog.Warn("security answer insert failed after catalog insert", "question_id", q.ID, "err", err)
			return "", providerError(err)
		}
		sess.UserID = userID
		sess.CurrentStep = domain.StepPassword
		return NoticeQuestionSaved, nil
	})
}

// SubmitPassword sets the new credential and resets the session to the first step.
func (s *service) SubmitPassword(ctx context.Context, sessionID string, req PasswordRequest) (*StepResult, error) {
	return s.submit(ctx, sessionID, domain.StepPassword, func(ctx context.Context, sess *domain.RecoverySession) (string, error) {
		if err := validate.Struct(req); err != nil {
			return "", err
		}
		userID, err := s.owner(ctx, sess)
		if err != nil {
			return "", err
		}
		if err := s.credentials.SetPassword(ctx, userID, req.Password); err != nil {
			return "", providerError(err)
		}
		sess.Reset(s.now().UTC())
		return NoticePasswordUpdated, nil
	})
}

func (s *service) ConfirmReset(ctx context.Context, sessionID string, req ConfirmResetRequest) (*StepResult, error) {
	req.ResetToken = strings.TrimSpace(req.ResetToken)
	return s.run(ctx, sessionID, "confirm_reset", confirmable, func(ctx context.Context, sess *domain.RecoverySession) (string, error) {
		if err := validate.Struct(req); err != nil {
			return "", err
		}
		userID, err := s.credentials.VerifyReset(ctx, sess.Email, req.ResetToken)
		if err != nil {
			return "", providerError(err)
		}
		sess.EmailVerified = true
		sess.UserID = userID
		return NoticeEmailVerified, nil
	})
}

func (s *service) ResumeFromLink(ctx context.Context, req ResumeRequest) (*StepResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if domain.Step(req.Step) != domain.StepChannel {
		return nil, fmt.Errorf("verification links resume at step %d only: %w", domain.StepChannel, domain.ErrBadRequest)
	}
	err := s.verification.Redeem(ctx, req.Email, req.Token)
	s.metrics.ObserveRedeem(err == nil)
	if err != nil {
		return nil, err
	}
	sess, err := s.newSession(ctx, domain.StepChannel, req.Email, true)
	if err != nil {
		return nil, err
	}
	return &StepResult{Session: sess, Notice: NoticeEmailVerified}, nil
}

type stepFunc func(ctx context.Context, sess *domain.RecoverySession) (notice string, err error)

func (s *service) submit(ctx context.Context, sessionID string, step domain.Step, fn stepFunc) (*StepResult, error) {
	return s.run(ctx, sessionID, step.String(), func(current domain.Step) bool { return accepts(current, step) }, fn)
}

// run executes fn under the session's busy flag once gate admits the
// session's current step. The session is only written back when fn succeeds,
// so a failed step never moves CurrentStep.
func (s *service) run(ctx context.Context, sessionID, name string, gate func(domain.Step) bool, fn stepFunc) (*StepResult, error) {
	start := s.now()
	outcome := metrics.OutcomeError
	defer func() { s.metrics.ObserveStep(name, outcome, s.now().Sub(start)) }()

	acquired, err := s.sessions.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		sess, err := s.sessions.Load(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		outcome = metrics.OutcomeBusy
		return &StepResult{Session: sess, Notice: NoticeSubmitInProgress, Busy: true}, nil
	}
	defer func() {
		if err := s.sessions.Unlock(context.WithoutCancel(ctx), sessionID); err != nil {
			slog.Warn("failed to clear recovery session busy flag", "session_id", sessionID, "err", err)
		}
	}()

	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !gate(sess.CurrentStep) {
		return nil, fmt.Errorf("cannot submit %s while at %s: %w", name, sess.CurrentStep, domain.ErrStepOutOfOrder)
	}

	before := sess.CurrentStep
	notice, err := fn(ctx, sess)
	if err != nil {
		return nil, err
	}
	sess.UpdatedAt = s.now().UTC()
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	outcome = metrics.OutcomeStayed
	if sess.CurrentStep != before {
		outcome = metrics.OutcomeAdvanced
	}
	return &StepResult{Session: sess, Notice: notice}, nil
}

// accepts reports whether a submit for step is valid while the session is at current.
func accepts(current, step domain.Step) bool {
	return current == step || (current == domain.StepOTP && step == domain.StepChannel)
}

// confirmable reports whether a reset credential can be confirmed at current:
// any step after the email has been accepted.
func confirmable(current domain.Step) bool {
	return current >= domain.StepChannel && current <= domain.StepPassword
}

// owner resolves the identity whose answer and password the session sets.
// The session must have proven control of its email, either through a
// verification link or a confirmed reset credential. A proven email unknown
// to the store is provisioned.
func (s *service) owner(ctx context.Context, sess *domain.RecoverySession) (string, error) {
	if !sess.EmailVerified {
		return "", fmt.Errorf("email ownership not confirmed: %w", domain.ErrUnauthorized)
	}
	if sess.UserID != "" {
		return sess.UserID, nil
	}
	userID, err := s.credentials.LookupUserID(ctx, sess.Email)
	if err == nil {
		return userID, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return "", providerError(err)
	}
	userID, err = s.credentials.ProvisionUser(ctx, sess.Email)
	if err != nil {
		return "", providerError(err)
	}
	return userID, nil
}

func (s *service) newSession(ctx context.Context, step domain.Step, email string, verified bool) (*domain.RecoverySession, error) {
	now := s.now().UTC()
	sess := &domain.RecoverySession{
		ID:            id.New(),
		CurrentStep:   step,
		Email:         email,
		EmailVerified: verified,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

var knownErrors = []error{
	domain.ErrValidation,
	domain.ErrChallengeFailed,
	domain.ErrInvalidOrExpiredToken,
	domain.ErrOtpMismatch,
	domain.ErrProvider,
	domain.ErrCatalogReferenceMissing,
	domain.ErrStepOutOfOrder,
	domain.ErrNotFound,
	domain.ErrConflict,
	domain.ErrBadRequest,
	domain.ErrUnauthorized,
}

// providerError tags collaborator failures that carry no domain meaning.
func providerError(err error) error {
	for _, known := range knownErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrProvider, err)
}

type noopMetrics struct{}

func (noopMetrics) ObserveStep(string, string, time.Duration) {}
func (noopMetrics) ObserveRedeem(bool)                       {}
