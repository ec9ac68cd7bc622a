package service

import (
	"context"
	"fmt"

	"kingspos/internal/cache"
	"kingspos/internal/model"
)

// NumberSequence hands out document numbers.
type NumberSequence interface {
	Next(ctx context.Context, t model.DocumentType) (string, error)
}

// RedisSequence numbers documents per type with an atomic Redis counter,
// e.g. QUO-000001 and INV-000001.
type RedisSequence struct {
	cache *cache.Client
}

// NewRedisSequence creates a Redis-backed sequence.
func NewRedisSequence(c *cache.Client) *RedisSequence {
	return &RedisSequence{cache: c}
}

// Next returns the next number for t.
func (s *RedisSequence) Next(ctx context.Context, t model.DocumentType) (string, error) {
	n, err := s.cache.Incr(ctx, "document_seq:"+string(t))
	if err != nil {
		return "", fmt.Errorf("next document number: %w", err)
	}
	return fmt.Sprintf("%s-%06d", numberPrefix(t), n), nil
}

func numberPrefix(t model.DocumentType) string {
	if t == model.DocumentInvoice {
		return "INV"
	}
	return "QUO"
}
