package workflow

import (
	"fmt"
	"strings"
)

// Request asks to move an order to Target on behalf of Actor.
type Request struct {
	Actor    Actor
	Target   Status
	Feedback string
}

type edge struct {
	from Status
	to   Status
}

type rule struct {
	allowed       func(Actor, Assignment) bool
	needsFeedback bool
}

// rules is the complete transition table. A pair missing from it is never legal.
var rules = map[edge]rule{
	{StatusPending, StatusProcessing}:      {allowed: assignedJunior},
	{StatusPending, StatusCancelled}:       {allowed: ownerOrAdmin},
	{StatusProcessing, StatusQualityCheck}: {allowed: assignedJunior},
	{StatusQualityCheck, StatusReady}:      {allowed: assignedMainOrAdmin},
	{StatusQualityCheck, StatusProcessing}: {allowed: assignedMainOrAdmin, needsFeedback: true},
	{StatusReady, StatusDelivered}:         {allowed: anyBakerOrSystem},
}

func assignedJunior(a Actor, asg Assignment) bool {
	return a.Role == RoleJuniorBaker && asg.HasJuniorBaker() && a.UserID == asg.JuniorBakerID
}

func ownerOrAdmin(a Actor, asg Assignment) bool {
	if a.Role == RoleAdmin {
		return true
	}
	return a.Role == RoleCustomer && a.UserID == asg.CustomerID
}

func assignedMainOrAdmin(a Actor, asg Assignment) bool {
	if a.Role == RoleAdmin {
		return true
	}
	return a.Role == RoleMainBaker && asg.HasMainBaker() && a.UserID == asg.MainBakerID
}

func anyBakerOrSystem(a Actor, _ Assignment) bool {
	return a.Role.IsBaker() || a.Role == RoleAdmin || a.Role == RoleSystem
}

// Transition validates req against the table and returns the resulting status.
// Checks run in order: known statuses, table entry, actor, feedback.
func Transition(current Status, asg Assignment, req Request) (Status, error) {
	if err := current.Validate(); err != nil {
		return "", err
	}
	if err := req.Target.Validate(); err != nil {
		return "", err
	}

	r, ok := rules[edge{current, req.Target}]
	if !ok {
		return "", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, req.Target)
	}
	if !r.allowed(req.Actor, asg) {
		return "", fmt.Errorf("%w: %s cannot move order from %s to %s", ErrUnauthorized, req.Actor.Role, current, req.Target)
	}
	if r.needsFeedback && strings.TrimSpace(req.Feedback) == "" {
		return "", ErrMissingFeedback
	}
	return req.Target, nil
}

// Available returns the targets actor could legally request from current,
// ignoring feedback requirements. Order follows Statuses().
func Available(current Status, asg Assignment, actor Actor) []Status {
	var out []Status
	for _, target := range Statuses() {
		r, ok := rules[edge{current, target}]
		if ok && r.allowed(actor, asg) {
			out = append(out, target)
		}
	}
	return out
}

// RequiresFeedback reports whether the from -> to transition needs feedback text.
func RequiresFeedback(from, to Status) bool {
	return rules[edge{from, to}].needsFeedback
}

// AssignRequest asks to put JuniorBakerID on an order.
// OnTeam must report membership in the team of TeamOwner(asg, Actor).
type AssignRequest struct {
	Actor         Actor
	JuniorBakerID int64
	OnTeam        bool
}

// TeamOwner returns the main baker whose team an assignment by actor is checked against.
func TeamOwner(asg Assignment, actor Actor) (int64, error) {
	switch actor.Role {
	case RoleMainBaker:
		if asg.HasMainBaker() && asg.MainBakerID != actor.UserID {
			return 0, fmt.Errorf("%w: order belongs to another main baker", ErrUnauthorized)
		}
		return actor.UserID, nil
	case RoleAdmin:
		if !asg.HasMainBaker() {
			return 0, fmt.Errorf("%w: order has no main baker to assign on behalf of", ErrUnauthorized)
		}
		return asg.MainBakerID, nil
	default:
		return 0, fmt.Errorf("%w: %s cannot assign bakers", ErrUnauthorized, actor.Role)
	}
}

// Assign validates a junior baker assignment and returns the updated assignment.
// The status does not change; the junior starts work with pending -> processing.
func Assign(current Status, asg Assignment, req AssignRequest) (Assignment, error) {
	if err := current.Validate(); err != nil {
		return asg, err
	}
	if current != StatusPending {
		return asg, fmt.Errorf("%w: cannot assign a baker to a %s order", ErrInvalidTransition, current)
	}
	owner, err := TeamOwner(asg, req.Actor)
	if err != nil {
		return asg, err
	}
	if req.JuniorBakerID == 0 || !req.OnTeam {
		return asg, fmt.Errorf("%w: junior baker %d is not on the team of main baker %d", ErrUnauthorized, req.JuniorBakerID, owner)
	}
	if asg.HasJuniorBaker() {
		return asg, ErrAlreadyAssigned
	}

	asg.MainBakerID = owner
	asg.JuniorBakerID = req.JuniorBakerID
	return asg, nil
}
