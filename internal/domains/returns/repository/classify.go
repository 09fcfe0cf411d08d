package repository

import (
	"fmt"

	"github.com/google/uuid"

	"campus-market-backend/internal/domains/returns/model"
)

// snapshot is the part of a request needed to explain a failed conditional write.
type snapshot struct {
	BuyerID  uuid.UUID
	SellerID uuid.UUID
	State    model.State
}

// classifyTransition explains why a conditional write did not apply.
// Order matters: missing, then not allowed, then wrong state.
func classifyTransition(current *snapshot, permitted bool, expected model.State) model.Outcome {
	if current == nil {
		return model.NotFoundOutcome("return request not found")
	}
	if !permitted {
		return model.ForbiddenOutcome("caller is not allowed to act on this return request")
	}
	if current.State != expected {
		return model.ConflictOutcome(fmt.Sprintf("return request is %s, expected %s", current.State, expected))
	}
	return model.ConflictOutcome("return request was modified concurrently")
}

func handlePermitted(current *snapshot, sellerID uuid.UUID) bool {
	return current != nil && model.CanHandle(current.SellerID, sellerID)
}

func escalatePermitted(current *snapshot, buyerID uuid.UUID) bool {
	return current != nil && model.CanEscalate(current.BuyerID, buyerID)
}

// classifyCreate explains why an insert did not happen. orderBuyer is nil
// when the order does not exist.
func classifyCreate(orderBuyer *uuid.UUID, orderStatus string, buyerID uuid.UUID, returnable map[string]struct{}) model.Outcome {
	if orderBuyer == nil || !model.CanCreate(*orderBuyer, buyerID) {
		return model.NotFoundOutcome("order not found")
	}
	if _, ok := returnable[orderStatus]; !ok {
		return model.ConflictOutcome(fmt.Sprintf("order status %s is not eligible for return", orderStatus))
	}
	return model.ConflictOutcome("an active return request already exists for this order")
}

func statusSet(statuses []string) map[string]struct{} {
	set := make(map[string]struct{}, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return set
}

func derefOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
