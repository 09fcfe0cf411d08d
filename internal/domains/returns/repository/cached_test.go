package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordermodel "campus-market-backend/internal/domains/order/model"
	orderrepo "campus-market-backend/internal/domains/order/repository"
	"campus-market-backend/internal/domains/returns/model"
)

// fakeCache stores JSON in a map, the same encoding the Redis client uses.
type fakeCache struct {
	mu      sync.Mutex
	items   map[string][]byte
	failAll error
	gets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: make(map[string][]byte)}
}

func (c *fakeCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.failAll != nil {
		return false, c.failAll
	}
	raw, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failAll != nil {
		return c.failAll
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.items[key] = raw
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

func (c *fakeCache) Ping(context.Context) error { return c.failAll }

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

func newCachedFixture(t *testing.T) (*MemoryStore, *fakeCache, Store, uuid.UUID, uuid.UUID) {
	t.Helper()
	buyer, seller, orderID := uuid.New(), uuid.New(), uuid.New()
	mem := NewMemoryStore(orderrepo.NewMemoryOrderLookup(ordermodel.OrderDetails{
		ID: orderID, Status: ordermodel.OrderStatusCompleted, BuyerID: buyer, SellerID: seller,
	}), []string{ordermodel.OrderStatusCompleted})
	c := newFakeCache()

	out, err := mem.Create(context.Background(), model.NewReturnRequest{
		OrderID: orderID, BuyerID: buyer,
		RequestReasonDetail: "wrong edition", ReturnReasonCode: model.ReasonWrongItemReceived,
	})
	require.NoError(t, err)
	require.True(t, out.OK())

	return mem, c, NewCachedStore(mem, c, time.Minute), out.ID, seller
}

func TestCachedStore_DoesNotCacheActiveRequests(t *testing.T) {
	ctx := context.Background()
	_, c, store, id, seller := newCachedFixture(t)

	req, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StateAwaitingSeller, req.State)
	assert.False(t, c.has(returnCacheKey(id)))

	// A write through the wrapper is visible on the next read.
	out, err := store.Handle(ctx, id, seller, false, nil)
	require.NoError(t, err)
	require.True(t, out.OK())

	req, err = store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StateSellerRejected, req.State)
	assert.False(t, c.has(returnCacheKey(id)))
}

func TestCachedStore_CachesTerminalRequests(t *testing.T) {
	ctx := context.Background()
	_, c, store, id, seller := newCachedFixture(t)

	_, err := store.Handle(ctx, id, seller, true, nil)
	require.NoError(t, err)

	first, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StateSellerApproved, first.State)
	assert.True(t, c.has(returnCacheKey(id)))

	second, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.State, second.State)
	assert.Len(t, second.ResolutionDetails, 2)
}

func TestCachedStore_MissingRequest(t *testing.T) {
	_, c, store, _, _ := newCachedFixture(t)

	req, err := store.GetByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, req)
	assert.Empty(t, c.items)
}

func TestCachedStore_CacheFailureFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	_, c, store, id, seller := newCachedFixture(t)
	c.failAll = errors.New("connection refused")

	_, err := store.Handle(ctx, id, seller, true, nil)
	require.NoError(t, err)

	req, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, model.StateSellerApproved, req.State)
	assert.Equal(t, 1, c.gets)
}
