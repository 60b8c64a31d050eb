package webhook

import "errors"

var (
	ErrInvalidConfiguration = errors.New("invalid webhook configuration")
	ErrInvalidPayload       = errors.New("invalid webhook payload")
	ErrMissingSignature     = errors.New("missing webhook signature headers")
	ErrInvalidSignature     = errors.New("webhook signature mismatch")
	ErrSignatureExpired     = errors.New("webhook signature timestamp outside the accepted window")
)
