package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"kingspos/internal/auth"
	"kingspos/internal/errors"
	"kingspos/internal/logger"
	"kingspos/internal/model"
	"kingspos/internal/service"
)

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
	tokens      *auth.TokenService
	cookie      CookieConfig
	log         zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, tokens *auth.TokenService, cookie CookieConfig, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		tokens:      tokens,
		cookie:      cookie,
		log:         logger.Component(log, "auth_handler"),
	}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents an authentication response. The token is also set
// as the session cookie.
type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

// Register godoc
// @Summary Register a new user
// @Description Creates the user and starts a session.
// @Tags users
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, sess, err := h.authService.Register(c.Request().Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	return h.respondWithSession(c, http.StatusCreated, user, sess)
}

// Login godoc
// @Summary Login user
// @Tags users
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, sess, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return fail(c, h.log, err)
	}
	return h.respondWithSession(c, http.StatusOK, user, sess)
}

// Logout godoc
// @Summary Logout user
// @Description Destroys the current session and clears the session cookie.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authService.Logout(c.Request().Context(), currentSessionID(c)); err != nil {
		return fail(c, h.log, err)
	}
	c.SetCookie(h.newCookie("", time.Unix(0, 0), -1))
	return c.JSON(http.StatusOK, MessageResponse{Message: "logged out successfully"})
}

func (h *AuthHandler) respondWithSession(c echo.Context, status int, user *model.User, sess *auth.Session) error {
	token, err := h.tokens.Issue(sess)
	if err != nil {
		return fail(c, h.log, errors.Internal("issue session token", err))
	}
	c.SetCookie(h.newCookie(token, sess.ExpiresAt, int(time.Until(sess.ExpiresAt).Seconds())))
	return c.JSON(status, AuthResponse{Token: token, ExpiresAt: sess.ExpiresAt, User: user})
}

// newCookie builds the session cookie. Clearing uses the same attributes so
// browsers match it to the one that was set.
func (h *AuthHandler) newCookie(value string, expires time.Time, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if h.cookie.Secure {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: sameSite,
	}
}
