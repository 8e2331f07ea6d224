package order

import (
	"errors"

	"github.com/bakery-bliss/bakery/internal/commission"
	repo "github.com/bakery-bliss/bakery/internal/repository/order"
	"github.com/bakery-bliss/bakery/internal/workflow"
	"github.com/bakery-bliss/bakery/pkg/errorbank"
)

// Stable error codes carried in the "code" detail of AppError responses.
const (
	CodeUnauthorized           = "unauthorized"
	CodeInvalidTransition      = "invalid_transition"
	CodeMissingFeedback        = "missing_feedback"
	CodeNotFound               = "not_found"
	CodeConcurrentModification = "concurrent_modification"
	CodeAlreadyAssigned        = "already_assigned"
	CodeUnknownStatus          = "unknown_status"
)

// toAppError translates domain and repository errors into AppErrors, keeping the cause.
func toAppError(err error) error {
	var appErr *errorbank.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, workflow.ErrUnauthorized):
		return errorbank.Forbidden("you are not allowed to perform this action on the order",
			errorbank.WithCode(CodeUnauthorized), errorbank.WithCause(err))
	case errors.Is(err, workflow.ErrInvalidTransition):
		return errorbank.Unprocessable("the requested status change is not allowed",
			errorbank.WithCode(CodeInvalidTransition), errorbank.WithCause(err))
	case errors.Is(err, workflow.ErrMissingFeedback):
		return errorbank.BadRequest("feedback is required when rejecting a quality check",
			errorbank.WithCode(CodeMissingFeedback), errorbank.WithCause(err))
	case errors.Is(err, workflow.ErrAlreadyAssigned):
		return errorbank.Conflict("order already has a junior baker assigned",
			errorbank.WithCode(CodeAlreadyAssigned), errorbank.WithCause(err))
	case errors.Is(err, workflow.ErrUnknownStatus):
		return errorbank.BadRequest("unknown order status",
			errorbank.WithCode(CodeUnknownStatus), errorbank.WithCause(err))
	case errors.Is(err, repo.ErrConcurrentModification):
		return errorbank.Conflict("order was modified by another request; reload and retry",
			errorbank.WithCode(CodeConcurrentModification), errorbank.WithCause(err))
	case errors.Is(err, repo.ErrNotFound):
		return notFound()
	case errors.Is(err, commission.ErrUnsupportedRole), errors.Is(err, commission.ErrNegativeTotal):
		return errorbank.Internal("failed to calculate commission", errorbank.WithCause(err))
	default:
		return errorbank.Internal("order operation failed", errorbank.WithCause(err))
	}
}

func notFound() error {
	return errorbank.NotFound("order not found", errorbank.WithCode(CodeNotFound))
}
