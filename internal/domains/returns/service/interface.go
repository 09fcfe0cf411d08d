package service

import (
	"context"

	"github.com/google/uuid"

	"campus-market-backend/internal/domains/returns/model"
)

// ReturnService owns the return/dispute workflow rules. Every error it
// returns is a *model.ReturnError.
type ReturnService interface {
	// Buyer
	Create(ctx context.Context, orderID, buyerID uuid.UUID, reasonDetail string, reasonCode model.ReasonCode) (*CreateResult, error)
	RequestIntervention(ctx context.Context, requestID, buyerID uuid.UUID, reason string) (model.State, error)

	// Seller
	Handle(ctx context.Context, requestID, sellerID uuid.UUID, agree bool, notes *string) (model.State, error)

	// Admin (role enforced by the caller)
	AdminResolve(ctx context.Context, requestID, adminID uuid.UUID, action model.ResolutionAction, notes *string) (model.State, error)
	ListAll(ctx context.Context, filter model.AdminListFilter) (*ListPage, error)

	// Reads
	GetDetail(ctx context.Context, requestID, requesterID uuid.UUID, requesterRoles []model.Role) (*model.ReturnDetail, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.ReturnRequest, error)
}

type CreateResult struct {
	ID    uuid.UUID   `json:"id"`
	State model.State `json:"state"`
}

// ListPage is one page of the admin queue, with the page actually served.
type ListPage struct {
	Items    []model.ReturnRequest
	Total    int
	Page     int
	PageSize int
}

// Config carries the workflow limits.
type Config struct {
	Limits          model.Limits
	DefaultPageSize int
	MaxPageSize     int
}
