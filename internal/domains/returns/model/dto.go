package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// REQUEST DTOs
// =====================================================

// CreateReturnRequest is the body of POST /returns.
type CreateReturnRequest struct {
	OrderID             string `json:"order_id"`
	RequestReasonDetail string `json:"request_reason_detail"`
	ReturnReasonCode    string `json:"return_reason_code"`
}

func (r CreateReturnRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OrderID,
			validation.Required.Error("order_id is required"),
			is.UUID.Error("order_id must be a UUID"),
		),
		validation.Field(&r.RequestReasonDetail,
			validation.By(notBlank("request_reason_detail is required")),
		),
		validation.Field(&r.ReturnReasonCode,
			validation.Required.Error("return_reason_code is required"),
			validation.By(knownReasonCode),
		),
	)
}

// HandleReturnRequest is the seller's decision, PUT /returns/:id/handle.
type HandleReturnRequest struct {
	IsAgree *bool   `json:"is_agree"`
	Notes   *string `json:"notes"`
}

func (r HandleReturnRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IsAgree, validation.NotNil.Error("is_agree is required")),
	)
}

// InterveneRequest is the buyer's escalation, PUT /returns/:id/intervene.
type InterveneRequest struct {
	InterventionReason string `json:"intervention_reason"`
}

func (r InterveneRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.InterventionReason,
			validation.By(notBlank("intervention_reason is required")),
		),
	)
}

// AdminResolveRequest is the body of PUT /returns/:id/admin/resolve.
type AdminResolveRequest struct {
	ResolutionAction string  `json:"resolution_action"`
	AdminNotes       *string `json:"admin_notes"`
}

func (r AdminResolveRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ResolutionAction,
			validation.Required.Error("resolution_action is required"),
			validation.By(knownResolutionAction),
		),
	)
}

// AdminListQuery is bound from GET /returns/admin query params.
// Zero values mean "use the default".
type AdminListQuery struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	State    string `form:"state"`
}

// =====================================================
// RESPONSE DTOs
// =====================================================

// ReturnStateResponse answers every transition endpoint.
type ReturnStateResponse struct {
	ID    uuid.UUID `json:"id"`
	State State     `json:"state"`
}

// OrderSummary is the order data shown next to a return request.
type OrderSummary struct {
	Status      string          `json:"status"`
	ProductName string          `json:"product_name"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// ReturnDetail is a full request plus its order summary (nil when the
// order could not be loaded).
type ReturnDetail struct {
	*ReturnRequest
	Order *OrderSummary `json:"order,omitempty"`
}

// ReturnListItem is the compact row used by both listings.
type ReturnListItem struct {
	ID               uuid.UUID  `json:"id"`
	OrderID          uuid.UUID  `json:"order_id"`
	ProductName      string     `json:"product_name,omitempty"`
	BuyerID          uuid.UUID  `json:"buyer_id"`
	SellerID         uuid.UUID  `json:"seller_id"`
	ReturnReasonCode ReasonCode `json:"return_reason_code"`
	State            State      `json:"state"`
	CreatedAt        time.Time  `json:"created_at"`
}

func ToListItems(requests []ReturnRequest) []ReturnListItem {
	items := make([]ReturnListItem, 0, len(requests))
	for _, r := range requests {
		items = append(items, ReturnListItem{
			ID:               r.ID,
			OrderID:          r.OrderID,
			ProductName:      r.ProductName,
			BuyerID:          r.BuyerID,
			SellerID:         r.SellerID,
			ReturnReasonCode: r.ReturnReasonCode,
			State:            r.State,
			CreatedAt:        r.CreatedAt,
		})
	}
	return items
}
