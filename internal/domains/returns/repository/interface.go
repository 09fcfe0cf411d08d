package repository

import (
	"context"

	"github.com/google/uuid"

	"campus-market-backend/internal/domains/returns/model"
)

// =====================================================
// RETURN REQUEST STORE
// =====================================================

// Store is the durable record of return requests. Every write is one atomic
// conditional update keyed by the expected current state. Business failures
// come back as a model.Outcome; a non-nil error always means infrastructure
// failure.
type Store interface {
	// Create opens a request for an order the buyer owns, if the order is
	// returnable and has no active request. Success carries the new ID.
	Create(ctx context.Context, in model.NewReturnRequest) (model.Outcome, error)

	// Handle records the seller's decision on an awaiting_seller request.
	Handle(ctx context.Context, id, sellerID uuid.UUID, agree bool, notes *string) (model.Outcome, error)

	// RequestIntervention escalates a seller_rejected request to an admin.
	RequestIntervention(ctx context.Context, id, buyerID uuid.UUID, reason string) (model.Outcome, error)

	// AdminResolve closes an awaiting_admin_resolution request. Callers have
	// already checked the admin role.
	AdminResolve(ctx context.Context, id, adminID uuid.UUID, action model.ResolutionAction, notes *string) (model.Outcome, error)

	// GetByID returns nil, nil when the request does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.ReturnRequest, error)

	// GetByUserID lists requests where the user is buyer or seller, newest
	// first. userExists is false when the user itself is unknown.
	GetByUserID(ctx context.Context, userID uuid.UUID) (requests []model.ReturnRequest, userExists bool, err error)

	// ListAll is the admin queue, oldest first.
	ListAll(ctx context.Context, filter model.AdminListFilter) ([]model.ReturnRequest, int, error)
}
