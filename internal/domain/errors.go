package domain

import "github.com/pkg/errors"

// Closed error taxonomy of the evaluation loop. Everything listed here is
// recovered locally (skip the user or asset, keep the cycle going); anything
// else escapes to the supervisor as an unexpected error.
var (
	// ErrMissingCredentials means a user has no exchange credentials recorded.
	ErrMissingCredentials = errors.New("user has no exchange credentials")

	// ErrMissingField means an asset record or balance lookup lacks an expected field.
	ErrMissingField = errors.New("asset record is missing a required field")

	// ErrZeroCostBasis means the recorded cost basis is zero and profit cannot be computed.
	ErrZeroCostBasis = errors.New("cost basis is zero")

	// ErrInsufficientHistory means the price series is too short to build samples.
	ErrInsufficientHistory = errors.New("insufficient price history")

	// ErrExternalCall means a collaborator returned a non-success response.
	ErrExternalCall = errors.New("external call failed")
)
