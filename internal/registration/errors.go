package registration

import "errors"

var (
	ErrInvalidClient       = errors.New("registration: clientId is required")
	ErrRateLimited         = errors.New("registration: too many registration attempts, try again shortly")
	ErrLockTimeout         = errors.New("registration: timed out waiting for registration lock")
	ErrLicenseLimitReached = errors.New("registration: license limit reached for client")
	ErrIdentifierConflict  = errors.New("registration: identifier already allocated")
	ErrMalformedIdentifier = errors.New("registration: malformed device identifier")

	ErrDeviceNotFound  = errors.New("device: not found")
	ErrAlreadyApproved = errors.New("device: already approved")
	ErrCodeMismatch    = errors.New("device: approval code does not match")
)
