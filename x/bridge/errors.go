package bridge

import (
	"github.com/iov-one/htlc/errors"
)

// Bridge specific errors. Authorization failures use errors.ErrUnauthorized
// and missing transfers use errors.ErrNotFound.
var (
	ErrZeroAddress            = errors.Register(1000, "zero address")
	ErrZeroAmount             = errors.Register(1001, "zero amount")
	ErrAlreadyInitialized     = errors.Register(1002, "already initialized")
	ErrAlreadyFinalized       = errors.Register(1003, "transfer already finalized")
	ErrInvalidStateTransition = errors.Register(1004, "invalid state transition")
	ErrTimelockExpired        = errors.Register(1005, "timelock expired")
	ErrTimelockNotExpired     = errors.Register(1006, "timelock not expired")
	ErrInvalidSecret          = errors.Register(1007, "invalid secret")
	ErrValueTransferFailed    = errors.Register(1008, "value transfer failed")
	ErrInsufficientBalance    = errors.Register(1009, "insufficient balance")
	ErrDuplicateID            = errors.Register(1010, "duplicate transfer id")
	ErrNotInitialized         = errors.Register(1011, "bridge not initialized")
)
