package service

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrIdempotencyInProgress = errors.New("a request with this idempotency key is still in progress")
	ErrInvalidSource         = errors.New("invalid catalog source")
	ErrPaymentDeclined       = errors.New("payment declined")
	ErrCartEmpty             = errors.New("cart is empty")
)
