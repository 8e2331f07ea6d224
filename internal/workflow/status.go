package workflow

import (
	"fmt"
	"strings"
)

// Status is the fulfillment state of an order.
type Status string

const (
	StatusPending      Status = "pending"
	StatusProcessing   Status = "processing"
	StatusQualityCheck Status = "quality_check"
	StatusReady        Status = "ready"
	StatusDelivered    Status = "delivered"
	StatusCancelled    Status = "cancelled"
)

// Statuses lists every member of the status enumeration in lifecycle order.
func Statuses() []Status {
	return []Status{
		StatusPending,
		StatusProcessing,
		StatusQualityCheck,
		StatusReady,
		StatusDelivered,
		StatusCancelled,
	}
}

// ParseStatus normalises and validates a status string.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if err := s.Validate(); err != nil {
		return "", err
	}
	return s, nil
}

// Validate reports whether s is one of the six known statuses.
func (s Status) Validate() error {
	switch s {
	case StatusPending, StatusProcessing, StatusQualityCheck, StatusReady, StatusDelivered, StatusCancelled:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStatus, string(s))
	}
}

// IsTerminal reports whether no transition may leave s.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// TriggersCommission reports whether entering s creates baker earnings.
func (s Status) TriggersCommission() bool {
	return s == StatusDelivered
}

func (s Status) String() string {
	return string(s)
}
