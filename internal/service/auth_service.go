package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"go-tenant-auth-service/internal/domain"
	"go-tenant-auth-service/internal/observability"
	"go-tenant-auth-service/internal/repository"
	"go-tenant-auth-service/internal/security"
)

const tokenValueBytes = 32

type AuthOptions struct {
	VerificationTTL   time.Duration
	PasswordResetTTL  time.Duration
	AccessTTL         time.Duration
	RefreshTTL        time.Duration
	PublicBaseURL     string
	MinPasswordLength int
}

type SignupInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	IP        string
	UserAgent string
}

type UserProfile struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

type LoginResult struct {
	Access  string      `json:"access"`
	Refresh string      `json:"refresh"`
	User    UserProfile `json:"user"`
}

// AuthService drives the credential lifecycle: signup, the one-way
// Unverified -> Verified transition, login gating, and password reset.
type AuthService struct {
	users    repository.UserRepository
	tokens   repository.TokenRepository
	jwt      *security.JWTManager
	notifier Notifier
	logger   *slog.Logger
	opts     AuthOptions
}

func NewAuthService(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	jwtMgr *security.JWTManager,
	notifier Notifier,
	logger *slog.Logger,
	opts AuthOptions,
) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		jwt:      jwtMgr,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
	}
}

// Signup creates an unverified account and dispatches a verification
// link. The created user is returned but not logged in.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	if len(in.Password) < s.opts.MinPasswordLength {
		observability.RecordAuthEvent(ctx, "signup", "invalid_password")
		return nil, ErrPasswordTooShort
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		IsActive:     true,
	}
	if err := s.users.Create(user); err != nil {
		outcome := "error"
		if errors.Is(err, repository.ErrEmailTaken) || errors.Is(err, repository.ErrUsernameTaken) {
			outcome = "conflict"
		}
		observability.RecordAuthEvent(ctx, "signup", outcome)
		return nil, err
	}

	token, err := s.issueToken(user, domain.TokenPurposeEmailVerify, s.opts.VerificationTTL, in.IP, in.UserAgent)
	if err != nil {
		observability.RecordAuthEvent(ctx, "signup", "token_error")
		return nil, err
	}
	s.dispatchVerification(ctx, user, token)

	observability.RecordAuthEvent(ctx, "signup", "success")
	return user, nil
}

// VerifyEmail redeems the token and marks the owner verified. Every
// ledger failure collapses to ErrTokenInvalid so callers cannot tell an
// unknown token from a consumed or expired one.
func (s *AuthService) VerifyEmail(ctx context.Context, tokenValue string) (*domain.User, error) {
	token, err := s.tokens.Redeem(tokenValue, domain.TokenPurposeEmailVerify, time.Now().UTC())
	if err != nil {
		if isLedgerFailure(err) {
			observability.RecordAuthEvent(ctx, "verify_email", "invalid_token")
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	if err := s.users.MarkEmailVerified(token.UserID, time.Now().UTC()); err != nil {
		return nil, err
	}
	observability.RecordAuthEvent(ctx, "verify_email", "success")
	return &token.User, nil
}

// ResendVerification never reveals whether the email is registered:
// unknown addresses and already-verified accounts get the same silent
// success, with the distinction visible only in logs.
func (s *AuthService) ResendVerification(ctx context.Context, email, ip, userAgent string) error {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.logger.InfoContext(ctx, "verification resend for unknown email")
			observability.RecordAuthEvent(ctx, "resend_verification", "unknown_email")
			return nil
		}
		return err
	}
	if user.IsVerified() {
		s.logger.InfoContext(ctx, "verification resend for already verified account", "user_id", user.ID)
		observability.RecordAuthEvent(ctx, "resend_verification", "already_verified")
		return nil
	}

	token, err := s.issueToken(user, domain.TokenPurposeEmailVerify, s.opts.VerificationTTL, ip, userAgent)
	if err != nil {
		return err
	}
	s.dispatchVerification(ctx, user, token)
	observability.RecordAuthEvent(ctx, "resend_verification", "success")
	return nil
}

// Login resolves the identifier as normalized email first, then
// username, verifies the password, and gates on active and verified
// state before issuing the token pair.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(identifier)
	if errors.Is(err, repository.ErrUserNotFound) {
		user, err = s.users.FindByUsername(identifier)
	}
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			observability.RecordAuthEvent(ctx, "login", "invalid_credentials")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !security.VerifyPassword(user.PasswordHash, password) {
		observability.RecordAuthEvent(ctx, "login", "invalid_credentials")
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		observability.RecordAuthEvent(ctx, "login", "disabled")
		return nil, ErrAccountDisabled
	}
	if !user.IsVerified() {
		observability.RecordAuthEvent(ctx, "login", "unverified")
		return nil, ErrEmailNotVerified
	}

	access, err := s.jwt.SignAccessToken(user.ID, user.IsStaff, s.opts.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwt.SignRefreshToken(user.ID, s.opts.RefreshTTL)
	if err != nil {
		return nil, err
	}

	observability.RecordAuthEvent(ctx, "login", "success")
	return &LoginResult{
		Access:  access,
		Refresh: refresh,
		User: UserProfile{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
		},
	}, nil
}

// Refresh exchanges a valid refresh token for a new access/refresh
// pair. Account state is re-checked so a disabled user cannot keep
// minting access tokens from an old refresh token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.jwt.ParseRefreshToken(refreshToken)
	if err != nil {
		observability.RecordAuthEvent(ctx, "refresh", "invalid_token")
		return nil, ErrInvalidCredentials
	}
	subject, err := claims.SubjectID()
	if err != nil {
		observability.RecordAuthEvent(ctx, "refresh", "invalid_token")
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.FindByID(subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			observability.RecordAuthEvent(ctx, "refresh", "invalid_token")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		observability.RecordAuthEvent(ctx, "refresh", "disabled")
		return nil, ErrAccountDisabled
	}

	access, err := s.jwt.SignAccessToken(user.ID, user.IsStaff, s.opts.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwt.SignRefreshToken(user.ID, s.opts.RefreshTTL)
	if err != nil {
		return nil, err
	}

	observability.RecordAuthEvent(ctx, "refresh", "success")
	return &LoginResult{
		Access:  access,
		Refresh: refresh,
		User: UserProfile{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
		},
	}, nil
}

// RequestPasswordReset mirrors ResendVerification's non-leaking shape
// for the password_reset purpose.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email, ip, userAgent string) error {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.logger.InfoContext(ctx, "password reset requested for unknown email")
			observability.RecordAuthEvent(ctx, "request_password_reset", "unknown_email")
			return nil
		}
		return err
	}

	token, err := s.issueToken(user, domain.TokenPurposePasswordReset, s.opts.PasswordResetTTL, ip, userAgent)
	if err != nil {
		return err
	}
	notification := TokenNotification{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
		Link:      fmt.Sprintf("%s/api/v1/auth/reset-password?token=%s", s.opts.PublicBaseURL, token.Token),
	}
	if err := s.notifier.SendPasswordReset(ctx, notification); err != nil {
		s.logger.ErrorContext(ctx, "password reset dispatch failed", "user_id", user.ID, "error", err)
	}
	observability.RecordAuthEvent(ctx, "request_password_reset", "success")
	return nil
}

// ResetPassword redeems a password_reset token and replaces the stored
// hash, stamping last_password_change_at.
func (s *AuthService) ResetPassword(ctx context.Context, tokenValue, newPassword string) error {
	if len(newPassword) < s.opts.MinPasswordLength {
		return ErrPasswordTooShort
	}
	token, err := s.tokens.Redeem(tokenValue, domain.TokenPurposePasswordReset, time.Now().UTC())
	if err != nil {
		if isLedgerFailure(err) {
			observability.RecordAuthEvent(ctx, "reset_password", "invalid_token")
			return ErrTokenInvalid
		}
		return err
	}
	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(token.UserID, hash, time.Now().UTC()); err != nil {
		return err
	}
	observability.RecordAuthEvent(ctx, "reset_password", "success")
	return nil
}

func (s *AuthService) issueToken(user *domain.User, purpose domain.TokenPurpose, ttl time.Duration, ip, userAgent string) (*domain.SingleUseToken, error) {
	value, err := security.NewRandomString(tokenValueBytes)
	if err != nil {
		return nil, err
	}
	token := &domain.SingleUseToken{
		UserID:           user.ID,
		Token:            value,
		Purpose:          purpose,
		ExpiresAt:        time.Now().UTC().Add(ttl),
		CreatedIP:        ip,
		CreatedUserAgent: userAgent,
	}
	if err := s.tokens.Create(token); err != nil {
		return nil, err
	}
	return token, nil
}

func (s *AuthService) dispatchVerification(ctx context.Context, user *domain.User, token *domain.SingleUseToken) {
	notification := TokenNotification{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
		Link:      fmt.Sprintf("%s/api/v1/auth/verify-email?token=%s", s.opts.PublicBaseURL, token.Token),
	}
	if err := s.notifier.SendEmailVerification(ctx, notification); err != nil {
		s.logger.ErrorContext(ctx, "verification dispatch failed", "user_id", user.ID, "error", err)
	}
}

func isLedgerFailure(err error) bool {
	return errors.Is(err, repository.ErrTokenNotFound) ||
		errors.Is(err, repository.ErrTokenConsumed) ||
		errors.Is(err, repository.ErrTokenExpired)
}
