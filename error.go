package match

import "errors"

var (
	ErrInvalidParam         = errors.New("the param is invalid")
	ErrNotFound             = errors.New("not found")
	ErrDuplicateID          = errors.New("order id is already resting")
	ErrCapacityExceeded     = errors.New("order pool capacity exceeded")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrInvariantViolation   = errors.New("order book invariant violated")
	ErrSequenceGap          = errors.New("sequence gap detected")
	ErrTimeout              = errors.New("timeout")
	ErrShutdown             = errors.New("order book is shutting down")
)
