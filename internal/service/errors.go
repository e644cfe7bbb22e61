package service

import (
	"errors"
	"fmt"

	"khatapos/internal/model"
)

var (
	// ErrCustomerNotFound means no bills or credits exist for the phone.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrStoreWrite marks a failed write against the ledger record store.
	ErrStoreWrite = errors.New("ledger store write failed")
	// ErrAllocationInProgress means another caller holds the per-customer
	// allocation lock.
	ErrAllocationInProgress = errors.New("a payment for this customer is already being recorded")
)

// PartialAllocationError reports an allocation saga that stopped mid-sequence.
// The writes before the failure remain applied — there is no cross-bill
// rollback. Applied lists the payment events that were persisted so the caller
// can retry the remainder or reconcile manually instead of silently discarding
// or silently retrying the whole payment.
type PartialAllocationError struct {
	Applied []model.PaymentEvent
	Err     error
}

func (e *PartialAllocationError) Error() string {
	return fmt.Sprintf("allocation stopped after %d of the planned writes: %v", len(e.Applied), e.Err)
}

func (e *PartialAllocationError) Unwrap() error { return e.Err }
