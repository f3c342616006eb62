package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("invalid state for operation")
	ErrInsufficientPayment = errors.New("outstanding balance must be settled before closing")
	ErrValidation          = errors.New("validation failed")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrCurrencyMismatch    = errors.New("currency mismatch")
	ErrConcurrentUpdate    = errors.New("concurrent update, please retry")
	ErrAlreadyExists       = errors.New("already exists")
)
