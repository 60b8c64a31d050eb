package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	HeaderSignature = "X-Webhook-Signature"
	HeaderTimestamp = "X-Webhook-Timestamp"
	HeaderID        = "X-Webhook-ID"

	// DefaultMaxAge is the replay window used when Verify gets a zero maxAge.
	DefaultMaxAge = 5 * time.Minute

	// maxClockSkew tolerates senders whose clock runs slightly ahead.
	maxClockSkew = time.Minute
)

// SignatureHeaders carries the signature of one delivery.
type SignatureHeaders struct {
	Signature string
	Timestamp int64
	ID        string
}

// Apply sets the headers on h.
func (s SignatureHeaders) Apply(h http.Header) {
	h.Set(HeaderSignature, s.Signature)
	h.Set(HeaderTimestamp, strconv.FormatInt(s.Timestamp, 10))
	if s.ID != "" {
		h.Set(HeaderID, s.ID)
	}
}

// Sign computes hex(HMAC-SHA256(secret, timestamp + "." + payload)).
// Binding the timestamp lets receivers reject replays.
func Sign(secret string, payload []byte, at time.Time) (SignatureHeaders, error) {
	if secret == "" {
		return SignatureHeaders{}, fmt.Errorf("%w: secret is required", ErrInvalidConfiguration)
	}
	if len(payload) == 0 {
		return SignatureHeaders{}, fmt.Errorf("%w: payload cannot be empty", ErrInvalidPayload)
	}

	timestamp := at.Unix()
	return SignatureHeaders{
		Signature: compute(secret, timestamp, payload),
		Timestamp: timestamp,
		ID:        uuid.NewString(),
	}, nil
}

// Verify checks the signature in constant time and that the timestamp lies
// within maxAge of now (DefaultMaxAge when zero).
func Verify(secret string, payload []byte, headers SignatureHeaders, maxAge time.Duration) error {
	if secret == "" {
		return fmt.Errorf("%w: secret is required", ErrInvalidConfiguration)
	}
	if headers.Signature == "" || headers.Timestamp == 0 {
		return ErrMissingSignature
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	age := time.Since(time.Unix(headers.Timestamp, 0))
	if age > maxAge || age < -maxClockSkew {
		return fmt.Errorf("%w: age %v", ErrSignatureExpired, age.Round(time.Second))
	}

	expected := compute(secret, headers.Timestamp, payload)
	if !hmac.Equal([]byte(expected), []byte(headers.Signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// FromHTTPHeader reads the signature headers of a request.
func FromHTTPHeader(h http.Header) (SignatureHeaders, error) {
	sig := SignatureHeaders{
		Signature: h.Get(HeaderSignature),
		ID:        h.Get(HeaderID),
	}
	if sig.Signature == "" {
		return SignatureHeaders{}, ErrMissingSignature
	}

	raw := h.Get(HeaderTimestamp)
	if raw == "" {
		return SignatureHeaders{}, ErrMissingSignature
	}
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return SignatureHeaders{}, fmt.Errorf("%w: invalid timestamp %q", ErrMissingSignature, raw)
	}
	sig.Timestamp = ts
	return sig, nil
}

func compute(secret string, timestamp int64, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(strconv.FormatInt(timestamp, 10)))
	h.Write([]byte{'.'})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
