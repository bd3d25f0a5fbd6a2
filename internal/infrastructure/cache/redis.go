package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/waste3d/coursehub/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type TokenCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTokenCache(client *redis.Client, ttl time.Duration) *TokenCache {
	return &TokenCache{client: client, ttl: ttl}
}

func refreshKey(token string) string {
	return "refresh_token:" + token
}

func (c *TokenCache) SaveRefresh(ctx context.Context, userID string, refreshToken string) error {
	return c.client.Set(ctx, refreshKey(refreshToken), userID, c.ttl).Err()
}

// ConsumeRefresh removes a stored refresh token and returns its owner in one GETDEL,
// so a token can be exchanged only once. ErrInvalidToken if it was revoked or expired.
func (c *TokenCache) ConsumeRefresh(ctx context.Context, refreshToken string) (string, error) {
	val, err := c.client.GetDel(ctx, refreshKey(refreshToken)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrInvalidToken
		}
		return "", err
	}
	return val, nil
}

func (c *TokenCache) DeleteRefresh(ctx context.Context, refreshToken string) error {
	return c.client.Del(ctx, refreshKey(refreshToken)).Err()
}

type DraftCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDraftCache(client *redis.Client, ttl time.Duration) *DraftCache {
	return &DraftCache{client: client, ttl: ttl}
}

func draftKey(id uuid.UUID) string {
	return "course:draft:" + id.String()
}

func (c *DraftCache) Save(ctx context.Context, draft *domain.CourseDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, draftKey(draft.ID), data, c.ttl).Err()
}

func (c *DraftCache) Get(ctx context.Context, id uuid.UUID) (*domain.CourseDraft, error) {
	val, err := c.client.Get(ctx, draftKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrDraftNotFound
		}
		return nil, err
	}
	var draft domain.CourseDraft
	if err := json.Unmarshal(val, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

func (c *DraftCache) Delete(ctx context.Context, id uuid.UUID) error {
	return c.client.Del(ctx, draftKey(id)).Err()
}
