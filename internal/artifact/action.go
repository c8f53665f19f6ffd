package artifact

import (
	"fmt"
	"strings"
)

// Action is a user support action.
type Action string

const (
	ActionVote     Action = "vote"
	ActionStake    Action = "stake"
	ActionInteract Action = "interact"
)

// Actions lists every valid support action.
var Actions = []Action{ActionVote, ActionStake, ActionInteract}

// ParseAction converts s to an Action. Anything outside the closed set is
// rejected rather than treated as interact.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.TrimSpace(s)); a {
	case ActionVote, ActionStake, ActionInteract:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q (want vote, stake or interact)", ErrInvalidAction, s)
	}
}

// Valid reports whether a is exactly one of the known actions. Unlike
// ParseAction it does not trim.
func (a Action) Valid() bool {
	switch a {
	case ActionVote, ActionStake, ActionInteract:
		return true
	}
	return false
}

// riskReduction is how many risk points a lowers before the floor applies.
func (a Action) riskReduction() int {
	switch a {
	case ActionVote:
		return 2
	case ActionStake:
		return 5
	case ActionInteract:
		return 1
	}
	panic(fmt.Sprintf("artifact: unvalidated action %q", string(a)))
}
