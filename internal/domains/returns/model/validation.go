package model

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// Limits bounds the free text fields of a return request.
type Limits struct {
	MaxReasonLength int
	MaxNotesLength  int
}

// ValidateCreate checks a new request before it may reach the store.
func ValidateCreate(orderID, buyerID uuid.UUID, reasonDetail string, reasonCode ReasonCode, l Limits) error {
	return validation.Errors{
		"order_id": validation.Validate(orderID, validation.By(notNilID("order_id is required"))),
		"buyer_id": validation.Validate(buyerID, validation.By(notNilID("buyer_id is required"))),
		"request_reason_detail": validation.Validate(reasonDetail,
			validation.By(notBlank("request_reason_detail is required")),
			validation.By(maxRunes(l.MaxReasonLength, "request_reason_detail is too long")),
		),
		"return_reason_code": validation.Validate(reasonCode,
			validation.By(requiredEnum("return_reason_code is required")),
			validation.By(knownReasonCode),
		),
	}.Filter()
}

// ValidateHandle checks a seller decision.
func ValidateHandle(requestID, sellerID uuid.UUID, notes *string, l Limits) error {
	return validation.Errors{
		"request_id": validation.Validate(requestID, validation.By(notNilID("request_id is required"))),
		"seller_id":  validation.Validate(sellerID, validation.By(notNilID("seller_id is required"))),
		"notes":      validation.Validate(notes, validation.By(maxRunes(l.MaxNotesLength, "notes is too long"))),
	}.Filter()
}

// ValidateIntervention checks a buyer escalation. The reason is mandatory.
func ValidateIntervention(requestID, buyerID uuid.UUID, reason string, l Limits) error {
	return validation.Errors{
		"request_id": validation.Validate(requestID, validation.By(notNilID("request_id is required"))),
		"buyer_id":   validation.Validate(buyerID, validation.By(notNilID("buyer_id is required"))),
		"intervention_reason": validation.Validate(reason,
			validation.By(notBlank("intervention_reason is required")),
			validation.By(maxRunes(l.MaxReasonLength, "intervention_reason is too long")),
		),
	}.Filter()
}

// ValidateResolve checks an admin resolution.
func ValidateResolve(requestID, adminID uuid.UUID, action ResolutionAction, notes *string, l Limits) error {
	return validation.Errors{
		"request_id": validation.Validate(requestID, validation.By(notNilID("request_id is required"))),
		"admin_id":   validation.Validate(adminID, validation.By(notNilID("admin_id is required"))),
		"resolution_action": validation.Validate(action,
			validation.By(requiredEnum("resolution_action is required")),
			validation.By(knownResolutionAction),
		),
		"admin_notes": validation.Validate(notes, validation.By(maxRunes(l.MaxNotesLength, "admin_notes is too long"))),
	}.Filter()
}

// FieldErrors flattens ozzo validation errors into field → message.
// Returns nil for errors that are not validation errors.
func FieldErrors(err error) map[string]string {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for field, e := range verrs {
		if e != nil {
			out[field] = e.Error()
		}
	}
	return out
}

// =====================================================
// RULES
// =====================================================

func notBlank(message string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return errors.New(message)
		}
		return nil
	}
}

// notNilID rejects uuid.Nil; ozzo's Required treats a fixed-size array as never empty.
func notNilID(message string) validation.RuleFunc {
	return func(value interface{}) error {
		if id, _ := value.(uuid.UUID); id == uuid.Nil {
			return errors.New(message)
		}
		return nil
	}
}

func requiredEnum(message string) validation.RuleFunc {
	return func(value interface{}) error {
		switch v := value.(type) {
		case ReasonCode:
			if v == "" {
				return errors.New(message)
			}
		case ResolutionAction:
			if v == "" {
				return errors.New(message)
			}
		}
		return nil
	}
}

func maxRunes(limit int, message string) validation.RuleFunc {
	return func(value interface{}) error {
		var s string
		switch v := value.(type) {
		case string:
			s = v
		case *string:
			if v == nil {
				return nil
			}
			s = *v
		}
		if len([]rune(s)) > limit {
			return errors.New(message)
		}
		return nil
	}
}

func knownReasonCode(value interface{}) error {
	var code ReasonCode
	switch v := value.(type) {
	case string:
		code = ReasonCode(v)
	case ReasonCode:
		code = v
	}
	if code == "" || code.IsValid() {
		return nil
	}
	return errors.New("return_reason_code is not a known reason code")
}

func knownResolutionAction(value interface{}) error {
	var action ResolutionAction
	switch v := value.(type) {
	case string:
		action = ResolutionAction(v)
	case ResolutionAction:
		action = v
	}
	if action == "" || action.IsValid() {
		return nil
	}
	return errors.New("resolution_action is not a known action")
}
