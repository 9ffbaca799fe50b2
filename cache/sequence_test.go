package cache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"invoicing-backend/invoicing"
)

func newTestSequencer(t *testing.T) (*RedisSequencer, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSequencer(client), mr
}

func TestRedisSequencerPerOrganization(t *testing.T) {
	seq, mr := newTestSequencer(t)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := seq.Next(ctx, "org-a")
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(want), got)
	}
	got, err := seq.Next(ctx, "org-b")
	require.NoError(t, err)
	assert.Equal(t, "1", got)

	stored, err := mr.Get(SequenceKey("org-a"))
	require.NoError(t, err)
	assert.Equal(t, "3", stored)
}

func TestRedisSequencerContinuesSeededValue(t *testing.T) {
	seq, mr := newTestSequencer(t)
	require.NoError(t, mr.Set(SequenceKey("org-a"), "41"))

	a := invoicing.NewNumberAllocator(seq, false, nil, nil)
	n, err := a.Allocate(context.Background(), "org-a")
	require.NoError(t, err)
	assert.Equal(t, "INV-00042", n.Value)
	assert.True(t, n.Sequential)
}

func TestRedisSequencerConcurrent(t *testing.T) {
	seq, _ := newTestSequencer(t)

	const callers = 50
	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
		g    errgroup.Group
	)
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			v, err := seq.Next(context.Background(), "org-a")
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if seen[v] {
				return errors.New("duplicate " + v)
			}
			seen[v] = true
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, seen, callers)
}

func TestRedisSequencerUnavailable(t *testing.T) {
	seq, mr := newTestSequencer(t)
	mr.Close()

	_, err := seq.Next(context.Background(), "org-a")
	require.Error(t, err)

	_, err = invoicing.NewNumberAllocator(seq, false, nil, nil).Allocate(context.Background(), "org-a")
	assert.ErrorIs(t, err, invoicing.ErrPersistence)
}
