package services

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors for the engine. Handlers dispatch on these with
// errors.Is to pick a response status; the services themselves never
// retry — upstream failures are surfaced as a distinct class so the
// caller can decide.

// Validation — bad input, never retried.
var (
	ErrInvalidAddress     = errors.New("invalid address")
	ErrSelfReferral       = errors.New("self-referral is not allowed")
	ErrInvalidProof       = errors.New("invalid proof URL")
	ErrInvalidTransaction = errors.New("invalid transaction reference")
)

// Conflict — the record already exists or the operation is already
// underway.
var (
	ErrAlreadyRegistered    = errors.New("user already registered")
	ErrDuplicateTransaction = errors.New("transaction already processed")
	ErrTaskExists           = errors.New("task ID already exists")
	ErrClaimInProgress      = errors.New("a claim is already in progress")
)

// Not found.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrReferrerNotFound = errors.New("referrer not found")
	ErrTaskNotFound     = errors.New("task not found")
)

// State — the entity exists but is not in a state that allows the
// operation.
var (
	ErrNothingToClaim = errors.New("no rewards to claim")
)

// Upstream — an external collaborator failed or could not be reached.
var (
	ErrUnverifiableProof   = errors.New("proof could not be verified")
	ErrPayoutSubmission    = errors.New("payout submission failed")
	ErrUpstreamTimeout     = errors.New("upstream call timed out")
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
)

// classifyUpstream folds a transport error into the upstream taxonomy.
// Timeouts get their own sentinel so callers can distinguish "slow"
// from "broken".
func classifyUpstream(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrUpstreamTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ErrUpstreamTimeout
	}
	return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
}
