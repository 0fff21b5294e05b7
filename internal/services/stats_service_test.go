package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/primedraws/primedraws-backend/internal/apperrors"
	"github.com/primedraws/primedraws-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeStatsCache is a map-backed StatsCache that counts setter invocations
type fakeStatsCache struct {
	entries map[string][]byte
	sets    int
	fail    bool
}

func newFakeStatsCache() *fakeStatsCache {
	return &fakeStatsCache{entries: make(map[string][]byte)}
}

func (c *fakeStatsCache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, setter func() (interface{}, error)) error {
	if c.fail {
		return errors.New("cache unavailable")
	}
	if data, ok := c.entries[key]; ok {
		return json.Unmarshal(data, dest)
	}
	value, err := setter()
	if err != nil {
		return err
	}
	c.sets++
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = data
	return json.Unmarshal(data, dest)
}

func (c *fakeStatsCache) Delete(ctx context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func newStatsFixture(t *testing.T, cache StatsCache) (*allocFixture, *StatsServiceImpl) {
	t.Helper()
	f := newAllocFixture(t, 100, 10)
	service := NewStatsService(
		&memCompetitionRepo{s: f.store},
		&memTicketRepo{s: f.store},
		&memPrizeRepo{s: f.store},
		cache, 5*time.Second,
	)
	return f, service
}

func TestStatsService_GetPoolStats(t *testing.T) {
	ctx := context.Background()

	t.Run("rolls up a partially sold pool", func(t *testing.T) {
		f, service := newStatsFixture(t, nil)

		userID := f.store.addUser(models.User{})
		orderID := f.newOrder(userID, 30)
		claimed, err := f.service.ClaimTickets(ctx, f.compID, userID, orderID, 30)
		require.NoError(t, err)

		_, err = f.service.RevealTicket(ctx, claimed[0].TicketID, userID)
		require.NoError(t, err)

		stats, err := service.GetPoolStats(ctx, f.compID)
		require.NoError(t, err)

		assert.True(t, stats.Locked)
		assert.Equal(t, 100, stats.MaxTickets)
		assert.Equal(t, 30, stats.Sold)
		assert.Equal(t, 70, stats.Available)
		assert.Equal(t, 10, stats.WithPrizes)
		assert.Equal(t, 1, stats.Revealed)
		assert.Equal(t, 100, stats.Sold+stats.Available, "sold and available always cover the pool")

		require.Len(t, stats.PerPrize, 1)
		breakdown := stats.PerPrize[0]
		assert.Equal(t, f.prizeID, breakdown.PrizeID)
		assert.Equal(t, 10, breakdown.TotalQuantity)
		assert.Equal(t, 10, breakdown.Allocated+breakdown.Remaining,
			"allocated and remaining always cover the prize quantity")
	})

	t.Run("reports an unsold pool untouched", func(t *testing.T) {
		f, service := newStatsFixture(t, nil)

		stats, err := service.GetPoolStats(ctx, f.compID)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Sold)
		assert.Equal(t, 100, stats.Available)
		assert.Equal(t, 10, stats.PerPrize[0].Remaining)
		assert.Equal(t, 0, stats.PerPrize[0].Allocated)
	})

	t.Run("serves repeated reads from the cache", func(t *testing.T) {
		cache := newFakeStatsCache()
		f, service := newStatsFixture(t, cache)

		first, err := service.GetPoolStats(ctx, f.compID)
		require.NoError(t, err)
		second, err := service.GetPoolStats(ctx, f.compID)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, cache.sets, "the rollup is computed once and then served cached")
	})

	t.Run("falls back to a live computation when the cache fails", func(t *testing.T) {
		cache := newFakeStatsCache()
		cache.fail = true
		f, service := newStatsFixture(t, cache)

		stats, err := service.GetPoolStats(ctx, f.compID)
		require.NoError(t, err)
		assert.Equal(t, 100, stats.MaxTickets)
	})

	t.Run("reports an unknown competition", func(t *testing.T) {
		_, service := newStatsFixture(t, nil)
		_, err := service.GetPoolStats(ctx, primitive.NewObjectID())
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
	})
}
