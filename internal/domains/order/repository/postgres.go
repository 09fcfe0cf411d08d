package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campus-market-backend/internal/domains/order/model"
)

type postgresOrderLookup struct {
	pool *pgxpool.Pool
}

func NewPostgresOrderLookup(pool *pgxpool.Pool) OrderLookup {
	return &postgresOrderLookup{pool: pool}
}

func (r *postgresOrderLookup) GetOrderDetails(ctx context.Context, orderID uuid.UUID) (*model.OrderDetails, error) {
	query := `
		SELECT
			o.id, o.status, o.buyer_id, p.seller_id, p.id, p.name,
			o.total_amount, o.created_at
		FROM orders o
		JOIN products p ON p.id = o.product_id
		WHERE o.id = $1
	`

	var d model.OrderDetails
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&d.ID,
		&d.Status,
		&d.BuyerID,
		&d.SellerID,
		&d.ProductID,
		&d.ProductName,
		&d.TotalAmount,
		&d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order details: %w", err)
	}

	return &d, nil
}
