package domain

import (
	"fmt"
	"strings"
)

// TransitionPolicy decides which operator-driven status changes are legal.
// Terminal orders are rejected before the policy is consulted.
type TransitionPolicy string

const (
	// PolicyPermissive lets operators jump to any forward state from a non-terminal order.
	PolicyPermissive TransitionPolicy = "permissive"
	// PolicyStrict only allows the next step of the delivery chain, or cancelling a PLACED order.
	PolicyStrict TransitionPolicy = "strict"
)

var operatorTargets = map[Status]bool{
	StatusShipped:        true,
	StatusOutForDelivery: true,
	StatusDelivered:      true,
	StatusCancelled:      true,
}

var strictTransitions = map[Status]Status{
	StatusPlaced:         StatusShipped,
	StatusShipped:        StatusOutForDelivery,
	StatusOutForDelivery: StatusDelivered,
}

func ParsePolicy(s string) (TransitionPolicy, error) {
	switch TransitionPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyPermissive, "":
		return PolicyPermissive, nil
	case PolicyStrict:
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("unknown transition policy %q", s)
	}
}

// IsOperatorTarget reports whether an operator may request status.
func IsOperatorTarget(status Status) bool {
	return operatorTargets[status]
}

func (p TransitionPolicy) Allows(from, to Status) bool {
	if from.IsTerminal() || !IsOperatorTarget(to) {
		return false
	}
	if p != PolicyStrict {
		return true
	}
	if to == StatusCancelled {
		return from == StatusPlaced
	}
	return strictTransitions[from] == to
}
