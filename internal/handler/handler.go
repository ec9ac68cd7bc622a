package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"kingspos/internal/auth"
	"kingspos/internal/errors"
)

// SessionContextKey is where the session middleware stores the resolved
// *auth.Session.
const SessionContextKey = "session"

// SessionIDContextKey holds the raw session id from a verified token, even
// when the session itself is gone.
const SessionIDContextKey = "session_id"

// CurrentSession returns the live session for the request, if any.
func CurrentSession(c echo.Context) *auth.Session {
	sess, _ := c.Get(SessionContextKey).(*auth.Session)
	return sess
}

func currentSessionID(c echo.Context) string {
	id, _ := c.Get(SessionIDContextKey).(string)
	return id
}

// fail converts a service error into the JSON error envelope. Internal
// failures are logged with their cause and reported generically.
func fail(c echo.Context, log zerolog.Logger, err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	if httpErr.StatusCode == http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("request failed")
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func badRequest(code, message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{Error: message, Code: code})
}

// bindAndValidate decodes the body into req and runs struct validation.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return badRequest("INVALID_REQUEST", "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return badRequest("VALIDATION_ERROR", err.Error())
	}
	return nil
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, badRequest("INVALID_ID", "invalid id")
	}
	return id, nil
}

// MessageResponse is returned by endpoints with no resource body.
type MessageResponse struct {
	Message string `json:"message"`
}
