package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"kingspos/internal/errors"
	"kingspos/internal/logger"
	"kingspos/internal/service"
)

// UserHandler bundles profile and user administration handlers.
type UserHandler struct {
	svc service.UserService
	log zerolog.Logger
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService, log zerolog.Logger) *UserHandler {
	return &UserHandler{svc: svc, log: logger.Component(log, "user_handler")}
}

// Profile godoc
// @Summary Current user profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/profile [get]
func (h *UserHandler) Profile(c echo.Context) error {
	sess := CurrentSession(c)
	if sess == nil {
		return fail(c, h.log, errors.ErrUnauthorized)
	}
	user, err := h.svc.Profile(c.Request().Context(), sess.Claim.UserID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, user)
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /users/users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, users)
}

// DeleteUser godoc
// @Summary Delete user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteUser(c.Request().Context(), id); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "user removed"})
}
