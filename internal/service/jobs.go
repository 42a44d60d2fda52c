package service

import (
	"context"
	"errors"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/apierror"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JobQueue receives follow-up work that must not fail the request path.
// It is implemented by worker.Dispatcher; nil disables enqueueing.
type JobQueue interface {
	EnqueueRegisterSale(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, method string) error
	EnqueueClosingReport(ctx context.Context, registerID uuid.UUID) error
}

// storeErr classifies a repository failure for the caller.
func storeErr(err error, what string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apierror.NotFound("%s not found", what)
	case errors.Is(err, repository.ErrStaleWrite):
		return apierror.InvalidState("%s was modified concurrently", what)
	case errors.Is(err, repository.ErrDuplicate):
		return apierror.Conflict("%s already exists", what)
	default:
		return apierror.Internal(err, "failed to access "+what)
	}
}
