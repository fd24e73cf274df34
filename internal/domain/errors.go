package domain

import "errors"

// Error taxonomy for the presence and delivery core. Handlers map these onto
// the wire protocol: ErrUnauthorized closes the transport, ErrMaxConnections
// emits an error event and then closes, the rest emit an error event and
// leave the connection open.
var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrMaxConnections = errors.New("maximum number of connections exceeded")
	ErrValidation     = errors.New("validation failed")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
)
