package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// =====================================================
// STATE MACHINE
// =====================================================

// State is the workflow state of a return request, persisted as snake_case.
type State string

const (
	StateAwaitingSeller          State = "awaiting_seller"
	StateSellerApproved          State = "seller_approved"
	StateSellerRejected          State = "seller_rejected"
	StateAwaitingAdminResolution State = "awaiting_admin_resolution"
	StateResolvedRefundApproved  State = "resolved_refund_approved"
	StateResolvedSellerSupported State = "resolved_seller_supported"
	StateResolvedRefundCompleted State = "resolved_refund_completed"
	StateResolvedClosed          State = "resolved_closed"
)

// transitions is the full forward graph. States without an entry are terminal.
var transitions = map[State][]State{
	StateAwaitingSeller: {StateSellerApproved, StateSellerRejected},
	StateSellerRejected: {StateAwaitingAdminResolution},
	StateAwaitingAdminResolution: {
		StateResolvedRefundApproved,
		StateResolvedSellerSupported,
		StateResolvedRefundCompleted,
		StateResolvedClosed,
	},
}

// ActiveStates count towards the one-open-request-per-order rule.
var ActiveStates = []State{
	StateAwaitingSeller,
	StateSellerRejected,
	StateAwaitingAdminResolution,
}

func (s State) IsValid() bool {
	switch s {
	case StateAwaitingSeller, StateSellerApproved, StateSellerRejected, StateAwaitingAdminResolution,
		StateResolvedRefundApproved, StateResolvedSellerSupported, StateResolvedRefundCompleted, StateResolvedClosed:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s State) IsTerminal() bool {
	return s.IsValid() && len(transitions[s]) == 0
}

// IsActive reports whether s still blocks a new request for the same order.
func (s State) IsActive() bool {
	for _, a := range ActiveStates {
		if s == a {
			return true
		}
	}
	return false
}

// CanTransition reports whether from → to is an edge of the workflow graph.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// =====================================================
// ENUMS
// =====================================================

type ReasonCode string

const (
	ReasonDefective         ReasonCode = "DEFECTIVE"
	ReasonNotAsDescribed    ReasonCode = "NOT_AS_DESCRIBED"
	ReasonWrongItemReceived ReasonCode = "WRONG_ITEM_RECEIVED"
	ReasonMissingParts      ReasonCode = "MISSING_PARTS"
	ReasonChangedMind       ReasonCode = "CHANGED_MIND"
	ReasonOther             ReasonCode = "OTHER"
)

var ReasonCodes = []ReasonCode{
	ReasonDefective, ReasonNotAsDescribed, ReasonWrongItemReceived,
	ReasonMissingParts, ReasonChangedMind, ReasonOther,
}

func (r ReasonCode) IsValid() bool {
	for _, c := range ReasonCodes {
		if r == c {
			return true
		}
	}
	return false
}

type ResolutionAction string

const (
	ResolutionRefundApproved  ResolutionAction = "REFUND_APPROVED"
	ResolutionSellerSupported ResolutionAction = "SELLER_SUPPORTED"
	ResolutionRefundCompleted ResolutionAction = "REFUND_COMPLETED"
	ResolutionClosed          ResolutionAction = "CLOSED"
)

var resolutionStates = map[ResolutionAction]State{
	ResolutionRefundApproved:  StateResolvedRefundApproved,
	ResolutionSellerSupported: StateResolvedSellerSupported,
	ResolutionRefundCompleted: StateResolvedRefundCompleted,
	ResolutionClosed:          StateResolvedClosed,
}

func (a ResolutionAction) IsValid() bool {
	_, ok := resolutionStates[a]
	return ok
}

// TargetState is the terminal state an admin resolution leads to.
// The second value is false for unknown actions.
func (a ResolutionAction) TargetState() (State, bool) {
	s, ok := resolutionStates[a]
	return s, ok
}

// =====================================================
// AUDIT LOG
// =====================================================

// Audit actions
const (
	AuditActionCreated               = "created"
	AuditActionSellerApproved        = "seller_approved"
	AuditActionSellerRejected        = "seller_rejected"
	AuditActionInterventionRequested = "intervention_requested"
	AuditActionAdminResolved         = "admin_resolved"
)

// AuditEntry is one line of the append-only resolution log.
type AuditEntry struct {
	ActorID   uuid.UUID `json:"actor_id"`
	ActorRole Role      `json:"actor_role"`
	Action    string    `json:"action"`
	FromState State     `json:"from_state,omitempty"`
	ToState   State     `json:"to_state"`
	Note      string    `json:"note,omitempty"`
	At        time.Time `json:"at"`
}

// =====================================================
// ENTITY: ReturnRequest
// =====================================================
type ReturnRequest struct {
	ID                  uuid.UUID  `json:"id"`
	OrderID             uuid.UUID  `json:"order_id"`
	BuyerID             uuid.UUID  `json:"buyer_id"`
	SellerID            uuid.UUID  `json:"seller_id"`
	ProductID           uuid.UUID  `json:"product_id"`
	RequestReasonDetail string     `json:"request_reason_detail"`
	ReturnReasonCode    ReasonCode `json:"return_reason_code"`
	State               State      `json:"state"`

	// Seller adjudication
	SellerNotes      *string    `json:"seller_notes,omitempty"`
	SellerActionTime *time.Time `json:"seller_action_time,omitempty"`

	// Buyer escalation
	InterventionReason *string    `json:"intervention_reason,omitempty"`
	InterventionTime   *time.Time `json:"intervention_time,omitempty"`

	// Admin resolution
	ResolutionAction *ResolutionAction `json:"resolution_action,omitempty"`
	AdminID          *uuid.UUID        `json:"admin_id,omitempty"`
	AdminNotes       *string           `json:"admin_notes,omitempty"`
	ResolutionTime   *time.Time        `json:"resolution_time,omitempty"`

	ResolutionDetails []AuditEntry `json:"resolution_details"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`

	// Joined from products, read-only
	ProductName string `json:"product_name,omitempty"`
}

// IsParty reports whether userID is the request's buyer or seller.
func (r *ReturnRequest) IsParty(userID uuid.UUID) bool {
	return userID == r.BuyerID || userID == r.SellerID
}

// NewReturnRequest is what the store needs to open a request. Seller and
// product are resolved from the order by the store itself.
type NewReturnRequest struct {
	OrderID             uuid.UUID
	BuyerID             uuid.UUID
	RequestReasonDetail string
	ReturnReasonCode    ReasonCode
}

// AdminListFilter selects requests for the admin queue.
type AdminListFilter struct {
	State    *State
	Page     int
	PageSize int
}

// Offset saturates at math.MaxInt instead of wrapping negative.
func (f AdminListFilter) Offset() int {
	if f.Page < 1 || f.PageSize < 1 {
		return 0
	}
	if f.Page-1 > math.MaxInt/f.PageSize {
		return math.MaxInt
	}
	return (f.Page - 1) * f.PageSize
}
