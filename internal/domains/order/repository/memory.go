package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"campus-market-backend/internal/domains/order/model"
)

// MemoryOrderLookup is an in-process OrderLookup, used by the in-memory
// return store and by tests.
type MemoryOrderLookup struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]model.OrderDetails
}

func NewMemoryOrderLookup(orders ...model.OrderDetails) *MemoryOrderLookup {
	l := &MemoryOrderLookup{orders: make(map[uuid.UUID]model.OrderDetails, len(orders))}
	for _, o := range orders {
		l.orders[o.ID] = o
	}
	return l
}

// Put inserts or replaces an order.
func (l *MemoryOrderLookup) Put(order model.OrderDetails) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.orders[order.ID] = order
}

func (l *MemoryOrderLookup) GetOrderDetails(_ context.Context, orderID uuid.UUID) (*model.OrderDetails, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	o, ok := l.orders[orderID]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	return &o, nil
}
