package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corvexa/it-services-portal/internal/metrics"
	"github.com/corvexa/it-services-portal/internal/model"
	"github.com/corvexa/it-services-portal/internal/notify"
	"github.com/corvexa/it-services-portal/internal/repository"
	"github.com/corvexa/it-services-portal/internal/utils"
)

// Redirect targets returned after a successful verification.
const (
	AdminRedirect  = "/AdminDashboard.html"
	ClientRedirect = "/ClientPortal.html"
)

const minPasswordLen = 8

// AuthConfig carries the token lifetimes and secrets of AuthService.
type AuthConfig struct {
	JWTSecret     string
	AccessTTL     time.Duration
	CodeTTL       time.Duration
	ResetTTL      time.Duration
	MaxAttempts   int // failed verifications per code; 0 disables the limit
	BcryptCost    int
	PublicBaseURL string
}

// AuthService runs the sign-in state machine: password check, one-time
// code by email, code verification, access token.
type AuthService struct {
	users    UserStore
	codes    CodeStore
	resets   ResetStore
	attempts AttemptCounter
	notifier notify.Notifier
	verifier *utils.PasswordVerifier
	cfg      AuthConfig
	log      *slog.Logger
	now      func() time.Time
}

func NewAuthService(users UserStore, codes CodeStore, resets ResetStore, attempts AttemptCounter,
	notifier notify.Notifier, cfg AuthConfig, log *slog.Logger) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	return &AuthService{
		users:    users,
		codes:    codes,
		resets:   resets,
		attempts: attempts,
		notifier: notifier,
		verifier: utils.NewPasswordVerifier(cfg.BcryptCost),
		cfg:      cfg,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// VerifyResult is returned by a successful VerifyMFA.
type VerifyResult struct {
	Token    utils.AccessToken
	Redirect string
	User     model.User
}

// SignIn checks the password and, on success, emails a fresh code that
// replaces any pending one.
func (s *AuthService) SignIn(ctx context.Context, email, password string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.verifier.Verify("", password)
		metrics.SignInsTotal.WithLabelValues("invalid").Inc()
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if !s.verifier.Verify(u.PasswordHash, password) || !u.IsActive {
		metrics.SignInsTotal.WithLabelValues("invalid").Inc()
		return ErrInvalidCredentials
	}
	if err := s.issueCode(ctx, u); err != nil {
		return err
	}
	metrics.SignInsTotal.WithLabelValues("code_sent").Inc()
	return nil
}

// ResendCode issues a new code while a sign-in is pending.  Unknown
// emails and expired sign-ins both yield ErrNoPendingCode.
func (s *AuthService) ResendCode(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNoPendingCode
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if _, err := s.codes.Pending(ctx, u.ID, s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoPendingCode
		}
		return fmt.Errorf("load pending code: %w", err)
	}
	return s.issueCode(ctx, u)
}

func (s *AuthService) issueCode(ctx context.Context, u model.User) error {
	code, err := utils.NewOTPCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	now := s.now()
	if err := s.codes.Upsert(ctx, model.OneTimeCode{
		UserID:    u.ID,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.CodeTTL),
	}); err != nil {
		return fmt.Errorf("store code: %w", err)
	}
	if err := s.attempts.Reset(ctx, u.ID); err != nil {
		s.log.Warn("reset attempt counter failed", "user_id", u.ID, "error", err)
	}
	s.notifier.Send(ctx, notify.OTPCode(u.Email, code, s.cfg.CodeTTL))
	return nil
}

// VerifyMFA consumes the pending code and issues an access token.
func (s *AuthService) VerifyMFA(ctx context.Context, email, code string) (VerifyResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		metrics.MFAVerificationsTotal.WithLabelValues("unknown_user").Inc()
		return VerifyResult{}, ErrUserNotFound
	}
	if err != nil {
		return VerifyResult{}, fmt.Errorf("load user: %w", err)
	}

	now := s.now()
	ok, err := s.codes.Consume(ctx, u.ID, code, now)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("consume code: %w", err)
	}
	if !ok {
		return VerifyResult{}, s.recordFailure(ctx, u.ID)
	}

	if err := s.attempts.Reset(ctx, u.ID); err != nil {
		s.log.Warn("reset attempt counter failed", "user_id", u.ID, "error", err)
	}
	tok, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.Email, u.Role, s.cfg.AccessTTL, now)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("sign token: %w", err)
	}
	metrics.MFAVerificationsTotal.WithLabelValues("ok").Inc()
	return VerifyResult{Token: tok, Redirect: RedirectFor(u), User: u}, nil
}

// recordFailure counts a failed verification.  Once MaxAttempts is reached
// the pending code is deleted so no further guess can succeed.
func (s *AuthService) recordFailure(ctx context.Context, userID uint64) error {
	n, err := s.attempts.Incr(ctx, userID, s.cfg.CodeTTL)
	if err != nil {
		s.log.Warn("count failed verification", "user_id", userID, "error", err)
		n = 0
	}
	if s.cfg.MaxAttempts > 0 && n >= int64(s.cfg.MaxAttempts) {
		if err := s.codes.Delete(ctx, userID); err != nil {
			return fmt.Errorf("delete code: %w", err)
		}
		metrics.MFAVerificationsTotal.WithLabelValues("locked").Inc()
		s.log.Info("verification locked", "user_id", userID, "failures", n)
		return ErrTooManyAttempts
	}
	metrics.MFAVerificationsTotal.WithLabelValues("invalid").Inc()
	return ErrInvalidCode
}

// RedirectFor picks the landing page from the account role.
func RedirectFor(u model.User) string {
	if u.IsAdmin() {
		return AdminRedirect
	}
	return ClientRedirect
}

// ForgotPassword emails a reset link when the account exists.  It reports
// success for unknown emails too.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Debug("password reset for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	token, err := utils.RandomHex(32)
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}
	if err := s.resets.Upsert(ctx, model.PasswordReset{
		UserID:    u.ID,
		Token:     token,
		ExpiresAt: s.now().Add(s.cfg.ResetTTL),
	}); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	link := s.cfg.PublicBaseURL + "/reset-password.html?token=" + token
	s.notifier.Send(ctx, notify.PasswordReset(u.Email, link, s.cfg.ResetTTL))
	return nil
}

// ResetPassword replaces the password of the token's owner and consumes
// the token.  Unknown or expired tokens yield repository.ErrInvalidToken.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	fe := fieldErrors{}
	fe.required("token", token)
	if len(newPassword) < minPasswordLen {
		fe["newPassword"] = fmt.Sprintf("min %d characters", minPasswordLen)
	}
	if err := fe.err(); err != nil {
		return err
	}
	hash, err := utils.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return &ValidationError{Fields: map[string]string{"newPassword": "max 72 bytes"}}
		}
		return err
	}
	userID, err := s.resets.ResetPassword(ctx, token, hash, s.now())
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	s.log.Info("password reset", "user_id", userID)
	return nil
}
