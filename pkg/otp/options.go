package otp

import "io"

type options struct {
	length   int
	alphabet string
	random   io.Reader
}

// Option configures a generator.
type Option func(*options)

// WithLength sets the number of symbols.
func WithLength(n int) Option {
	return func(o *options) {
		o.length = n
	}
}

// WithAlphabet sets the symbols codes are drawn from.
func WithAlphabet(alphabet string) Option {
	return func(o *options) {
		o.alphabet = alphabet
	}
}

// WithDigits switches to numeric codes of n digits.
func WithDigits(n int) Option {
	return func(o *options) {
		o.alphabet = DigitsAlphabet
		o.length = n
	}
}

// WithRandomSource replaces crypto/rand.Reader. Meant for tests.
func WithRandomSource(r io.Reader) Option {
	return func(o *options) {
		if r != nil {
			o.random = r
		}
	}
}
