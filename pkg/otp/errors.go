package otp

import "errors"

var (
	ErrWeakPolicy       = errors.New("otp policy is too weak")
	ErrInvalidAlphabet  = errors.New("invalid otp alphabet")
	ErrInvalidLength    = errors.New("invalid otp length")
	ErrFailedToGenerate = errors.New("failed to generate otp")
	ErrInvalidCode      = errors.New("invalid otp format")
)
