package model

import (
	"fmt"

	"github.com/google/uuid"
)

// OutcomeKind tags the result of a conditional store write.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeNotFound
	OutcomeConflict
	OutcomeForbidden
	OutcomeInvalid
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeConflict:
		return "conflict"
	case OutcomeForbidden:
		return "forbidden"
	case OutcomeInvalid:
		return "invalid"
	}
	return fmt.Sprintf("outcome(%d)", int(k))
}

// Outcome is the structured answer of every store write. ID and State are
// set on success; Reason is a human readable explanation otherwise.
type Outcome struct {
	Kind   OutcomeKind
	ID     uuid.UUID
	State  State
	Reason string
}

func (o Outcome) OK() bool { return o.Kind == OutcomeSuccess }

func SuccessOutcome(id uuid.UUID, state State) Outcome {
	return Outcome{Kind: OutcomeSuccess, ID: id, State: state}
}

func NotFoundOutcome(reason string) Outcome {
	return Outcome{Kind: OutcomeNotFound, Reason: reason}
}

func ConflictOutcome(reason string) Outcome {
	return Outcome{Kind: OutcomeConflict, Reason: reason}
}

func ForbiddenOutcome(reason string) Outcome {
	return Outcome{Kind: OutcomeForbidden, Reason: reason}
}

func InvalidOutcome(reason string) Outcome {
	return Outcome{Kind: OutcomeInvalid, Reason: reason}
}
