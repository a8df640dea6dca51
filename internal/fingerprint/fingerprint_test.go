package fingerprint_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/nfrecon/internal/fingerprint"
)

func TestCompute(t *testing.T) {
	a := fingerprint.Compute([]byte("invoice"))
	b := fingerprint.Compute([]byte("invoice"))
	c := fingerprint.Compute([]byte("invoice "))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "sha256:", a[:7])
	assert.Len(t, a, 7+64)
}

func TestMemory_ReserveOnce(t *testing.T) {
	ctx := context.Background()
	reg := fingerprint.NewMemory()
	tenant := uuid.New()
	first := uuid.New()

	require.NoError(t, reg.Reserve(ctx, tenant, "fp", first))

	err := reg.Reserve(ctx, tenant, "fp", uuid.New())
	require.ErrorIs(t, err, fingerprint.ErrReserved)

	var reserved *fingerprint.ReservedError
	require.ErrorAs(t, err, &reserved)
	assert.Equal(t, first, reserved.DocumentID)

	// Fingerprints are scoped per tenant.
	require.NoError(t, reg.Reserve(ctx, uuid.New(), "fp", uuid.New()))

	require.NoError(t, reg.Release(ctx, tenant, "fp"))
	require.NoError(t, reg.Reserve(ctx, tenant, "fp", uuid.New()))
}

func TestMemory_ConcurrentReserve(t *testing.T) {
	ctx := context.Background()
	reg := fingerprint.NewMemory()
	tenant := uuid.New()

	const workers = 32

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		rejected int
	)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			err := reg.Reserve(ctx, tenant, "same-bytes", uuid.New())

			mu.Lock()
			defer mu.Unlock()

			if err == nil {
				accepted++
				return
			}

			assert.ErrorIs(t, err, fingerprint.ErrReserved)
			rejected++
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Equal(t, workers-1, rejected)
}
