package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kingspos/internal/cache"
	apperrors "kingspos/internal/errors"
	"kingspos/internal/model"
	"kingspos/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// UserService exposes profile and user administration operations.
type UserService interface {
	Profile(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewUserService builds a UserService. The cache is optional; profile reads
// fall back to the repository whenever it misses or fails.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return "user:" + id.String()
}

func (s *userService) Profile(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if s.cache != nil {
		if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
			var cached model.User
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, apperrors.Internal("find user", err)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(user); err == nil {
			_ = s.cache.Set(ctx, s.cacheKey(id), payload, userCacheTTL)
		}
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("list users", err)
	}
	return users, nil
}

// DeleteUser removes the account. Sessions already issued for it stay valid
// until they expire.
func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrUserNotFound
	}
	if err != nil {
		return apperrors.Internal("delete user", err)
	}
	if s.cache != nil {
		_, _ = s.cache.Del(ctx, s.cacheKey(id))
	}
	return nil
}
