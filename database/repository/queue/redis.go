package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"careai/models"

	"github.com/go-redis/redis/v8"
)

// casRetries bounds optimistic retry on WATCH contention.
const casRetries = 8

// RedisRepository stores the whole collection as one JSON value under a
// single key, mirroring the shared key/value store both processes poll.
type RedisRepository struct {
	client *redis.Client
	key    string
}

// NewRedisRepo returns a Repository backed by the given Redis client.
func NewRedisRepo(client *redis.Client, key string) *RedisRepository {
	return &RedisRepository{client: client, key: key}
}

func (r *RedisRepository) Load(ctx context.Context) ([]models.HandoffRequest, error) {
	data, err := r.client.Get(ctx, r.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load handoff queue: %w", err)
	}
	var reqs []models.HandoffRequest
	if err := json.Unmarshal([]byte(data), &reqs); err != nil {
		return nil, fmt.Errorf("parse handoff queue: %w", err)
	}
	return reqs, nil
}

func (r *RedisRepository) Save(ctx context.Context, reqs []models.HandoffRequest) error {
	b, err := json.Marshal(reqs)
	if err != nil {
		return fmt.Errorf("marshal handoff queue: %w", err)
	}
	if err := r.client.Set(ctx, r.key, b, 0).Err(); err != nil {
		return fmt.Errorf("save handoff queue: %w", err)
	}
	return nil
}

func (r *RedisRepository) Append(ctx context.Context, req models.HandoffRequest) error {
	return r.watch(ctx, func(cur []models.HandoffRequest) ([]models.HandoffRequest, error) {
		return append(cur, req), nil
	})
}

func (r *RedisRepository) Get(ctx context.Context, id string) (*models.HandoffRequest, error) {
	reqs, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range reqs {
		if reqs[i].ID == id {
			return &reqs[i], nil
		}
	}
	return nil, ErrNotFound
}

func (r *RedisRepository) CompareAndSwap(ctx context.Context, id string, expected models.HandoffStatus, mutate Mutation) (*models.HandoffRequest, error) {
	var out *models.HandoffRequest
	err := r.watch(ctx, func(cur []models.HandoffRequest) ([]models.HandoffRequest, error) {
		out = nil
		for i := range cur {
			if cur[i].ID != id {
				continue
			}
			if cur[i].Status != expected {
				return nil, ErrConflict
			}
			if err := mutate(&cur[i]); err != nil {
				return nil, err
			}
			cp := cur[i]
			out = &cp
			return cur, nil
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// watch runs a read-modify-write under WATCH so a concurrent writer forces
// a retry instead of a silent lost update.
func (r *RedisRepository) watch(ctx context.Context, fn func([]models.HandoffRequest) ([]models.HandoffRequest, error)) error {
	for attempt := 0; attempt < casRetries; attempt++ {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, r.key).Result()
			var cur []models.HandoffRequest
			switch {
			case err == redis.Nil:
				cur = nil
			case err != nil:
				return fmt.Errorf("load handoff queue: %w", err)
			default:
				if err := json.Unmarshal([]byte(data), &cur); err != nil {
					return fmt.Errorf("parse handoff queue: %w", err)
				}
			}

			next, err := fn(cur)
			if err != nil {
				return err
			}
			b, err := json.Marshal(next)
			if err != nil {
				return fmt.Errorf("marshal handoff queue: %w", err)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, r.key, b, 0)
				return nil
			})
			return err
		}, r.key)

		if err == redis.TxFailedErr {
			continue
		}
		return err
	}
	return ErrConflict
}
