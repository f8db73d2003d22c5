package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stockdesk/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrDraftNotFound = errors.New("draft not found")
	ErrDraftExists   = errors.New("draft already exists")
	// ErrDraftConflict means the draft changed since it was read.
	ErrDraftConflict = errors.New("draft was modified concurrently")
)

const draftKeyPrefix = "draft:"

// DraftStore keeps in-progress drafts in Redis with a sliding TTL.
type DraftStore interface {
	Create(ctx context.Context, draft *domain.Draft) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Draft, error)
	// Save writes draft if the stored version still equals draft.Version, then bumps the version.
	Save(ctx context.Context, draft *domain.Draft) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type draftStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDraftStore creates a Redis backed DraftStore
func NewDraftStore(client *redis.Client, ttl time.Duration) DraftStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &draftStore{client: client, ttl: ttl}
}

func draftKey(id uuid.UUID) string {
	return draftKeyPrefix + id.String()
}

func (s *draftStore) Create(ctx context.Context, draft *domain.Draft) error {
	draft.Version = 1
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}

	ok, err := s.client.SetNX(ctx, draftKey(draft.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to create draft: %w", err)
	}
	if !ok {
		return ErrDraftExists
	}
	return nil
}

func (s *draftStore) Get(ctx context.Context, id uuid.UUID) (*domain.Draft, error) {
	key := draftKey(id)
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}

	// Reading a draft keeps it alive.
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to refresh draft ttl: %w", err)
	}

	return decodeDraft(data)
}

func (s *draftStore) Save(ctx context.Context, draft *domain.Draft) error {
	key := draftKey(draft.ID)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrDraftNotFound
			}
			return fmt.Errorf("failed to load draft: %w", err)
		}
		stored, err := decodeDraft(data)
		if err != nil {
			return err
		}
		if stored.Version != draft.Version {
			return ErrDraftConflict
		}

		next := *draft
		next.Version = draft.Version + 1
		encoded, err := json.Marshal(&next)
		if err != nil {
			return fmt.Errorf("failed to encode draft: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		draft.Version = next.Version
		return nil
	}

	err := s.client.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrDraftConflict
	}
	if err != nil && !errors.Is(err, ErrDraftConflict) && !errors.Is(err, ErrDraftNotFound) {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return err
}

func (s *draftStore) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.client.Del(ctx, draftKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	if n == 0 {
		return ErrDraftNotFound
	}
	return nil
}

func decodeDraft(data []byte) (*domain.Draft, error) {
	var d domain.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	domain.Normalize(&d)
	return &d, nil
}
