package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stagebook/stagebook/internal/domain"
	"github.com/stagebook/stagebook/internal/draft"
)

// DraftStore persists in-progress booking drafts as JSON with a TTL, the
// server-side analogue of the browser storage the flow used to rely on.
// Implements draft.Store.
type DraftStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDraftStore(rdb *redis.Client, ttl time.Duration) *DraftStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}

	return &DraftStore{rdb: rdb, ttl: ttl}
}

func (s *DraftStore) Save(ctx context.Context, d *domain.Draft) error {
	const op = "redis.DraftStore.Save"

	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := s.rdb.Set(ctx, KeyDraft(d.ID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (s *DraftStore) Load(ctx context.Context, id string) (*domain.Draft, error) {
	const op = "redis.DraftStore.Load"

	v, err := s.rdb.Get(ctx, KeyDraft(id)).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("%s:%w", op, draft.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	var d domain.Draft
	if err := json.Unmarshal([]byte(v), &d); err != nil {
		// No version tag on the draft format: an unreadable draft is treated
		// as missing and the visitor starts over.
		return nil, fmt.Errorf("%s:%w", op, draft.ErrNotFound)
	}

	return &d, nil
}

func (s *DraftStore) Delete(ctx context.Context, id string) error {
	const op = "redis.DraftStore.Delete"

	if err := s.rdb.Del(ctx, KeyDraft(id)).Err(); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}
