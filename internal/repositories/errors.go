package repositories

import "errors"

// ErrClaimConflict signals that a concurrent claimer raced the same tickets
// and the transaction was rolled back. The caller may retry.
var ErrClaimConflict = errors.New("ticket claim conflict")

// ErrNoTransition signals that a fulfillment state transition's guard did
// not match (wrong owner, terminal status, or expired deadline). The caller
// inspects the current record to report the precise reason.
var ErrNoTransition = errors.New("fulfillment transition not applicable")
