package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/oops"

	"github.com/njprem/fitcity-auth/internal/service"
	"github.com/njprem/fitcity-auth/internal/util"
)

const (
	msgRegistered     = "Account created successfully"
	msgLoggedIn       = "Login successful"
	msgResetRequested = "If an account with that email exists, a password reset link has been sent"
	msgResetDone      = "Password has been reset successfully"
	msgServerError    = "Server error"
	msgBadBody        = "Invalid request body"
)

type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{auth: auth, logger: logger}
}

// RegisterAuth mounts the auth endpoints on g (normally /api/v1/auth).
func (h *AuthHandler) RegisterAuth(g *echo.Group) {
	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/forgot-password", h.forgotPassword)
	g.POST("/reset-password", h.resetPassword)
	g.POST("/verify-reset-token", h.verifyResetToken)
}

// register godoc
// @Summary Register with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body RegisterRequest true "Registration payload"
// @Success 201 {object} RegisterResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(msgBadBody))
	}
	user, err := h.auth.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return h.respondError(c, err, "Please provide name, email and password")
	}
	return c.JSON(http.StatusCreated, RegisterResponse{
		Status:  util.StatusSuccess,
		UserID:  user.ID.String(),
		Message: msgRegistered,
	})
}

// login godoc
// @Summary Login with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body LoginRequest true "Login payload"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(msgBadBody))
	}
	result, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return h.respondError(c, err, "Please provide email and password")
	}
	return c.JSON(http.StatusOK, LoginResponse{
		Status:    util.StatusSuccess,
		Token:     result.Token,
		UserID:    result.User.ID.String(),
		ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339),
		Message:   msgLoggedIn,
	})
}

// forgotPassword godoc
// @Summary Request a password reset link
// @Description Always answers with the same message whether or not the email is registered.
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body ForgotPasswordRequest true "Email to reset"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/forgot-password [post]
func (h *AuthHandler) forgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(msgBadBody))
	}
	if err := h.auth.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return h.respondError(c, err, "Please provide an email")
	}
	return c.JSON(http.StatusOK, util.Success(msgResetRequested))
}

// resetPassword godoc
// @Summary Set a new password with a reset token
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body ResetPasswordRequest true "Token and new password"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/reset-password [post]
func (h *AuthHandler) resetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(msgBadBody))
	}
	if err := h.auth.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return h.respondError(c, err, "Please provide token and new password")
	}
	return c.JSON(http.StatusOK, util.Success(msgResetDone))
}

// verifyResetToken godoc
// @Summary Check whether a reset token is still usable
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body VerifyResetTokenRequest true "Token to check"
// @Success 200 {object} VerifyResetTokenResponse
// @Failure 400 {object} VerifyResetTokenResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/verify-reset-token [post]
func (h *AuthHandler) verifyResetToken(c echo.Context) error {
	var req VerifyResetTokenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(msgBadBody))
	}
	_, err := h.auth.VerifyResetToken(c.Request().Context(), req.Token)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, VerifyResetTokenResponse{Status: util.StatusSuccess, Valid: true})
	case errors.Is(err, service.ErrResetTokenInvalid):
		return c.JSON(http.StatusBadRequest, VerifyResetTokenResponse{
			Status:  util.StatusError,
			Valid:   false,
			Message: "Invalid or expired reset token",
		})
	default:
		return h.respondError(c, err, "Please provide a reset token")
	}
}

// respondError is the single place service errors become HTTP responses.
// missing is the endpoint-specific text for ErrMissingFields.
func (h *AuthHandler) respondError(c echo.Context, err error, missing string) error {
	switch {
	case errors.Is(err, service.ErrMissingFields), errors.Is(err, service.ErrResetTokenMissing):
		return c.JSON(http.StatusBadRequest, util.Error(missing))
	case errors.Is(err, service.ErrPasswordTooShort):
		return c.JSON(http.StatusBadRequest, util.Error("Password must be at least 6 characters long"))
	case errors.Is(err, service.ErrEmailAlreadyUsed):
		return c.JSON(http.StatusBadRequest, util.Error("Email already exists"))
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, util.Error("Invalid email or password"))
	case errors.Is(err, service.ErrResetTokenInvalid):
		return c.JSON(http.StatusBadRequest, util.Error("Invalid or expired reset token"))
	}

	attrs := []any{"path", c.Path(), "error", err}
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs = append(attrs, "code", oopsErr.Code())
	}
	h.logger.ErrorContext(c.Request().Context(), "auth request failed", attrs...)
	return c.JSON(http.StatusInternalServerError, util.Error(msgServerError))
}
