// Package redis reserves fingerprints with SET NX, for deployments that run ingestion
// workers against a shared Redis.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrJamesThe3rd/nfrecon/internal/fingerprint"
)

const reserveAttempts = 3

type Registry struct {
	client goredis.UniversalClient
	prefix string
}

func New(client goredis.UniversalClient) *Registry {
	return &Registry{client: client, prefix: "nfrecon:fp"}
}

func (r *Registry) key(tenantID uuid.UUID, fp string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, tenantID, fp)
}

func (r *Registry) Reserve(ctx context.Context, tenantID uuid.UUID, fp string, documentID uuid.UUID) error {
	k := r.key(tenantID, fp)

	for range reserveAttempts {
		ok, err := r.client.SetNX(ctx, k, documentID.String(), 0).Result()
		if err != nil {
			return fmt.Errorf("reserving fingerprint: %w", err)
		}

		if ok {
			return nil
		}

		holder, err := r.client.Get(ctx, k).Result()
		if errors.Is(err, goredis.Nil) {
			continue
		}

		if err != nil {
			return fmt.Errorf("looking up fingerprint holder: %w", err)
		}

		id, err := uuid.Parse(holder)
		if err != nil {
			return fmt.Errorf("parsing fingerprint holder %q: %w", holder, err)
		}

		return &fingerprint.ReservedError{DocumentID: id}
	}

	return fmt.Errorf("reserving fingerprint: %w", fingerprint.ErrReserved)
}

func (r *Registry) Release(ctx context.Context, tenantID uuid.UUID, fp string) error {
	if err := r.client.Del(ctx, r.key(tenantID, fp)).Err(); err != nil {
		return fmt.Errorf("releasing fingerprint: %w", err)
	}

	return nil
}
