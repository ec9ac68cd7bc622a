package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"kingspos/internal/auth"
	apperrors "kingspos/internal/errors"
	"kingspos/internal/logger"
	"kingspos/internal/model"
	"kingspos/internal/repository"
)

const minPasswordLength = 6

// RegisterInput carries the fields accepted at sign-up.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// AuthService handles credential checks and the session lifecycle.
type AuthService interface {
	// Register creates the user and signs them in.
	Register(ctx context.Context, in RegisterInput) (*model.User, *auth.Session, error)
	Login(ctx context.Context, email, password string) (*model.User, *auth.Session, error)
	// Resolve returns nil, nil for unknown or expired sessions.
	Resolve(ctx context.Context, sessionID string) (*auth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

type authService struct {
	users    repository.UserRepository
	hasher   auth.Hasher
	sessions auth.SessionStore
	roles    map[string]struct{}
	log      zerolog.Logger
	now      func() time.Time
}

// NewAuthService creates a new authentication service. roles is the set a
// user may be registered with.
func NewAuthService(users repository.UserRepository, hasher auth.Hasher, sessions auth.SessionStore, roles []string, log zerolog.Logger) AuthService {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return &authService{
		users:    users,
		hasher:   hasher,
		sessions: sessions,
		roles:    allowed,
		log:      logger.Component(log, "auth"),
		now:      time.Now,
	}
}

// NormalizeEmail is the identity key for users.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, *auth.Session, error) {
	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)
	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = model.RoleUser
	}

	if name == "" {
		return nil, nil, apperrors.Validation("NAME_REQUIRED", "name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, nil, apperrors.Validation("INVALID_EMAIL", "a valid email is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, nil, apperrors.Validationf("PASSWORD_TOO_SHORT", "password must be at least %d characters", minPasswordLength)
	}
	if _, ok := s.roles[role]; !ok {
		return nil, nil, apperrors.ErrInvalidRole
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, nil, apperrors.ErrUserAlreadyExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperrors.Internal("check user existence", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, nil, apperrors.Internal("hash password", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// The unique index settles concurrent registrations.
		if errors.Is(err, apperrors.ErrUserAlreadyExists) {
			return nil, nil, apperrors.ErrUserAlreadyExists
		}
		return nil, nil, apperrors.Internal("create user", err)
	}

	sess, err := s.startSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	s.log.Info().Str("user_id", user.ID.String()).Str("role", user.Role).Msg("user registered")
	return user, sess, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*model.User, *auth.Session, error) {
	user, err := s.users.FindByEmailWithPassword(ctx, NormalizeEmail(email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, apperrors.Internal("find user", err)
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	sess, err := s.startSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	user.PasswordHash = ""
	return user, sess, nil
}

func (s *authService) startSession(ctx context.Context, user *model.User) (*auth.Session, error) {
	sess := auth.NewSession(auth.Claim{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
	}, s.now())
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, apperrors.Internal("save session", err)
	}
	return sess, nil
}

func (s *authService) Resolve(ctx context.Context, sessionID string) (*auth.Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Internal("load session", err)
	}
	if sess == nil || sess.Expired(s.now()) {
		return nil, nil
	}
	return sess, nil
}

func (s *authService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return apperrors.ErrNoSession
	}
	existed, err := s.sessions.Delete(ctx, sessionID)
	if err != nil {
		s.log.Error().Err(err).Str("session", logger.Mask(sessionID)).Msg("logout failed")
		return apperrors.Internal("logout failed", err)
	}
	if !existed {
		return apperrors.ErrNoSession
	}
	return nil
}
