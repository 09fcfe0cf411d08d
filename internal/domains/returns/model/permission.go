package model

import (
	"strings"

	"github.com/google/uuid"
)

// Role is the capacity in which a principal acts on a return request.
// Buyer and seller are relative to the request; admin comes from the token.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// ParseRoles maps token roles onto Role values, dropping unknown ones
// (plain "user" included).
func ParseRoles(raw []string) []Role {
	roles := make([]Role, 0, len(raw))
	for _, r := range raw {
		switch Role(strings.ToLower(strings.TrimSpace(r))) {
		case RoleBuyer:
			roles = append(roles, RoleBuyer)
		case RoleSeller:
			roles = append(roles, RoleSeller)
		case RoleAdmin:
			roles = append(roles, RoleAdmin)
		}
	}
	return roles
}

func HasRole(roles []Role, want Role) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}

// CanCreate: only the order's buyer opens a return.
func CanCreate(orderBuyerID, actorID uuid.UUID) bool {
	return isParty(orderBuyerID, actorID)
}

// CanHandle: only the request's seller adjudicates.
func CanHandle(sellerID, actorID uuid.UUID) bool {
	return isParty(sellerID, actorID)
}

// CanEscalate: only the request's buyer asks for an admin.
func CanEscalate(buyerID, actorID uuid.UUID) bool {
	return isParty(buyerID, actorID)
}

// CanResolve: admins only.
func CanResolve(roles []Role) bool {
	return HasRole(roles, RoleAdmin)
}

// CanView: the two parties and any admin.
func CanView(roles []Role, isBuyer, isSeller bool) bool {
	return isBuyer || isSeller || HasRole(roles, RoleAdmin)
}

func isParty(partyID, actorID uuid.UUID) bool {
	return actorID != uuid.Nil && actorID == partyID
}
