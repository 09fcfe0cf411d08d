package repository

import (
	"context"

	"github.com/google/uuid"

	"campus-market-backend/internal/domains/order/model"
)

// OrderLookup is read-only access to order eligibility data.
type OrderLookup interface {
	// GetOrderDetails returns model.ErrOrderNotFound when the order does not exist.
	GetOrderDetails(ctx context.Context, orderID uuid.UUID) (*model.OrderDetails, error)
}
