package workflow

import "errors"

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnauthorized      = errors.New("actor is not allowed to perform this transition")
	ErrMissingFeedback   = errors.New("feedback is required when rejecting a quality check")
	ErrAlreadyAssigned   = errors.New("order already has a junior baker assigned")
	ErrUnknownStatus     = errors.New("unknown order status")
	ErrUnknownRole       = errors.New("unknown role")
)
