package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// ORDER STATUS CONSTANTS
// =====================================================
const (
	OrderStatusPendingSellerConfirmation = "PendingSellerConfirmation"
	OrderStatusConfirmedBySeller         = "ConfirmedBySeller"
	OrderStatusCompleted                 = "Completed"
	OrderStatusCancelled                 = "Cancelled"
)

var ErrOrderNotFound = errors.New("order not found")

// =====================================================
// READ MODEL: OrderDetails
// =====================================================

// OrderDetails is the read-only view of an order that the return workflow
// needs: who bought, who sold, what, and where the order stands.
type OrderDetails struct {
	ID          uuid.UUID       `json:"id"`
	Status      string          `json:"status"`
	BuyerID     uuid.UUID       `json:"buyer_id"`
	SellerID    uuid.UUID       `json:"seller_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}
