package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/njprem/fitcity-auth/internal/domain"
	"github.com/njprem/fitcity-auth/internal/repository/ports"
	"github.com/njprem/fitcity-auth/internal/util"
)

type PasswordResetSender interface {
	SendPasswordReset(ctx context.Context, notice domain.PasswordResetNotice) error
}

type SessionIssuer interface {
	Generate(userID uuid.UUID) (string, time.Time, error)
}

type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// mailDispatchTimeout bounds one reset email send, which runs after the
// forgot-password response has been written.
const mailDispatchTimeout = 30 * time.Second

type AuthService struct {
	users        ports.UserRepository
	hasher       util.PasswordHasher
	sessions     SessionIssuer
	resets       *PasswordResetManager
	mailer       PasswordResetSender
	resetPageURL string
	logger       *slog.Logger

	// decoyHash is checked on logins for unknown emails so they cost the
	// same hash comparison as a wrong password.
	decoyHash  string
	dispatches sync.WaitGroup
}

// NewAuthService wires the auth flows. resetPageURL is the page the emailed
// link points at; the token is appended as the "token" query parameter.
func NewAuthService(
	users ports.UserRepository,
	hasher util.PasswordHasher,
	sessions SessionIssuer,
	resets *PasswordResetManager,
	mailer PasswordResetSender,
	resetPageURL string,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	decoy, err := hasher.Hash("fitcity-auth-decoy-password")
	if err != nil {
		logger.Warn("decoy password hash unavailable", "error", err)
	}
	return &AuthService{
		users:        users,
		hasher:       hasher,
		sessions:     sessions,
		resets:       resets,
		mailer:       mailer,
		resetPageURL: resetPageURL,
		logger:       logger,
		decoyHash:    decoy,
	}
}

// Wait blocks until every reset email started by RequestPasswordReset has
// finished. Call it on shutdown after the HTTP server has stopped.
func (s *AuthService) Wait() {
	s.dispatches.Wait()
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		s.logger.InfoContext(ctx, "registration rejected: email exists", "email", email)
		return nil, ErrEmailAlreadyUsed
	} else if !errors.Is(err, ports.ErrNotFound) {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "FindByEmail").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "Hash").
			Wrap(err)
	}

	user, err := s.users.Create(ctx, name, email, hash)
	if err != nil {
		if errors.Is(err, ports.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyUsed
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "Create").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID.String(), "email", user.Email)
	return user, nil
}

// Login returns ErrInvalidCredentials for both an unknown email and a wrong
// password so callers cannot tell which one happened.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			s.hasher.Verify(password, s.decoyHash)
			s.logger.InfoContext(ctx, "login rejected: unknown email", "email", email)
			return nil, ErrInvalidCredentials
		}
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "FindByEmail").
			Wrap(err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.InfoContext(ctx, "login rejected: wrong password", "user_id", user.ID.String())
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.sessions.Generate(user.ID)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "Generate").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "login succeeded", "user_id", user.ID.String())
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// RequestPasswordReset issues a token when the email belongs to a user and
// hands the email to the mailer in the background. Unknown emails and failed
// deliveries both return nil; a failed delivery revokes the token it could
// not deliver and is only logged. Only store failures are returned.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrMissingFields
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			s.logger.InfoContext(ctx, "password reset requested for unknown email", "email", email)
			return nil
		}
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "FindByEmail").
			Wrap(err)
	}

	token, expiresAt, err := s.resets.Issue(ctx, user)
	if err != nil {
		return err
	}

	if s.mailer == nil {
		s.logger.ErrorContext(ctx, "password reset email not sent: no mailer configured", "user_id", user.ID.String())
		s.revoke(ctx, user)
		return nil
	}

	notice := domain.PasswordResetNotice{
		Email:     user.Email,
		Name:      user.Name,
		ResetURL:  s.resetLink(token),
		ExpiresAt: expiresAt,
	}
	s.dispatches.Add(1)
	go s.dispatch(context.WithoutCancel(ctx), user, notice)
	return nil
}

func (s *AuthService) dispatch(ctx context.Context, user *domain.User, notice domain.PasswordResetNotice) {
	defer s.dispatches.Done()
	ctx, cancel := context.WithTimeout(ctx, mailDispatchTimeout)
	defer cancel()

	if err := s.mailer.SendPasswordReset(ctx, notice); err != nil {
		s.logger.ErrorContext(ctx, "password reset email failed", "user_id", user.ID.String(), "error", err)
		s.revoke(ctx, user)
		return
	}
	s.logger.InfoContext(ctx, "password reset email dispatched", "user_id", user.ID.String())
}

// VerifyResetToken reports the user a token belongs to without using it up.
func (s *AuthService) VerifyResetToken(ctx context.Context, token string) (*domain.User, error) {
	return s.resets.Verify(ctx, token)
}

// ResetPassword validates the new password before touching stored state,
// then consumes token.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if strings.TrimSpace(token) == "" || newPassword == "" {
		return ErrMissingFields
	}
	if len(newPassword) < util.MinPasswordLength {
		return ErrPasswordTooShort
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "Hash").
			Wrap(err)
	}

	user, err := s.resets.Consume(ctx, token, hash)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "password reset completed", "user_id", user.ID.String())
	return nil
}

func (s *AuthService) revoke(ctx context.Context, user *domain.User) {
	if err := s.resets.Revoke(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "revoking undelivered reset token failed", "user_id", user.ID.String(), "error", err)
	}
}

func (s *AuthService) resetLink(token string) string {
	u, err := url.Parse(s.resetPageURL)
	if err != nil || s.resetPageURL == "" {
		return "/reset-password?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
