package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"

	"booking-intelligence/internal/models"
)

var ErrCacheMiss = errors.New("cache miss")

const (
	groupPrefix          = "ab_group:"
	quotePrefix          = "quote:"
	recommendationPrefix = "recommendation:"
)

type Redis struct {
	Client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{Client: client}
}

func (r *Redis) Ping(ctx context.Context) error {
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// AssignGroup stores group for the user unless one is already stored, and
// returns whichever group is in Redis afterwards.
func (r *Redis) AssignGroup(ctx context.Context, userID string, group models.ABGroup, ttl time.Duration) (models.ABGroup, bool, error) {
	key := groupPrefix + userID
	ok, err := r.Client.SetNX(ctx, key, string(group), ttl).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return group, true, nil
	}
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		// Expired between SETNX and GET.
		return group, false, nil
	}
	if err != nil {
		return "", false, err
	}
	return models.ABGroup(val), false, nil
}

func (r *Redis) SetGroup(ctx context.Context, userID string, group models.ABGroup, ttl time.Duration) error {
	return r.Client.Set(ctx, groupPrefix+userID, string(group), ttl).Err()
}

func (r *Redis) SaveQuote(ctx context.Context, quote *models.PriceQuote, ttl time.Duration) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("encode quote: %w", err)
	}
	return r.Client.Set(ctx, quotePrefix+quote.QuoteID, data, ttl).Err()
}

func (r *Redis) GetQuote(ctx context.Context, quoteID string) (*models.PriceQuote, error) {
	data, err := r.Client.Get(ctx, quotePrefix+quoteID).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	var quote models.PriceQuote
	if err := json.Unmarshal(data, &quote); err != nil {
		return nil, fmt.Errorf("decode quote: %w", err)
	}
	return &quote, nil
}

func (r *Redis) SaveRecommendation(ctx context.Context, key string, resp *models.RecommendationResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode recommendation: %w", err)
	}
	return r.Client.Set(ctx, recommendationPrefix+key, data, ttl).Err()
}

func (r *Redis) GetRecommendation(ctx context.Context, key string) (*models.RecommendationResponse, error) {
	data, err := r.Client.Get(ctx, recommendationPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	var resp models.RecommendationResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode recommendation: %w", err)
	}
	return &resp, nil
}

// InvalidateRecommendations drops every cached response, e.g. after a new
// model is trained.
func (r *Redis) InvalidateRecommendations(ctx context.Context) error {
	iter := r.Client.Scan(ctx, 0, recommendationPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.Client.Del(ctx, keys...).Err()
}
