package auth

import (
	"time"

	apperrors "kingspos/internal/errors"
)

// RequireAuthenticated admits any live session.
func RequireAuthenticated(sess *Session, now time.Time) error {
	if sess == nil || sess.Expired(now) {
		return apperrors.ErrUnauthorized
	}
	return nil
}

// RequireRole admits a live session whose role is one of roles. The
// authentication check always runs first, so a missing session is reported
// as unauthorized rather than forbidden.
func RequireRole(sess *Session, now time.Time, roles ...string) error {
	if err := RequireAuthenticated(sess, now); err != nil {
		return err
	}
	if sess.Claim.Role == "" {
		return apperrors.ErrForbidden
	}
	for _, r := range roles {
		if sess.Claim.Role == r {
			return nil
		}
	}
	return apperrors.ErrForbidden
}
