package token

import "errors"

var (
	ErrResourceMismatch    = errors.New("token: resource address mismatch")
	ErrInvalidAmount       = errors.New("token: amount must be non-negative")
	ErrInsufficientBalance = errors.New("token: insufficient balance")
	ErrIndivisibleAmount   = errors.New("token: amount not representable at resource divisibility")
	ErrUnknownReceipt      = errors.New("token: unknown or already burned receipt")
)
