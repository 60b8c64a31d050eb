package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"strings"
)

const (
	// CrockfordAlphabet is Crockford's base32 set: no I, L, O or U, so codes
	// survive being read aloud or retyped.
	CrockfordAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

	// DigitsAlphabet is used by WithDigits.
	DigitsAlphabet = "0123456789"

	DefaultLength = 8
	MaxLength     = 64

	// MinEntropyBits is the floor for custom policies. Six decimal digits
	// (19.9 bits) are accepted as the conventional numeric minimum.
	MinEntropyBits   = 20
	MinNumericLength = 6
)

// Generator produces one-time passwords.
type Generator interface {
	Generate() (string, error)
}

// Policy describes the codes a generator produces.
type Policy struct {
	Length      int
	Alphabet    string
	EntropyBits float64
}

// CodeGenerator draws every symbol uniformly from the alphabet using a
// cryptographically secure source. Safe for concurrent use.
type CodeGenerator struct {
	length   int
	alphabet string
	max      *big.Int
	random   io.Reader
}

var _ Generator = (*CodeGenerator)(nil)

// New creates a generator. Without options it produces 8 Crockford base32
// symbols (40 bits).
func New(opts ...Option) (*CodeGenerator, error) {
	o := &options{
		length:   DefaultLength,
		alphabet: CrockfordAlphabet,
		random:   rand.Reader,
	}
	for _, opt := range opts {
		opt(o)
	}

	if err := validateAlphabet(o.alphabet); err != nil {
		return nil, err
	}
	if o.length < 1 || o.length > MaxLength {
		return nil, fmt.Errorf("%w: %d, must be between 1 and %d", ErrInvalidLength, o.length, MaxLength)
	}

	bits := entropy(o.length, len(o.alphabet))
	numeric := o.alphabet == DigitsAlphabet && o.length >= MinNumericLength
	if bits < MinEntropyBits && !numeric {
		return nil, fmt.Errorf("%w: %.1f bits, need at least %d", ErrWeakPolicy, bits, MinEntropyBits)
	}

	return &CodeGenerator{
		length:   o.length,
		alphabet: o.alphabet,
		max:      big.NewInt(int64(len(o.alphabet))),
		random:   o.random,
	}, nil
}

// Generate returns a fresh code.
func (g *CodeGenerator) Generate() (string, error) {
	var b strings.Builder
	b.Grow(g.length)

	for range g.length {
		n, err := rand.Int(g.random, g.max)
		if err != nil {
			return "", errors.Join(ErrFailedToGenerate, err)
		}
		b.WriteByte(g.alphabet[n.Int64()])
	}
	return b.String(), nil
}

// Validate checks that code could have been produced by this generator.
// It says nothing about whether the code was issued or is still valid.
func (g *CodeGenerator) Validate(code string) error {
	if len(code) != g.length {
		return fmt.Errorf("%w: expected %d symbols, got %d", ErrInvalidCode, g.length, len(code))
	}
	for i := range len(code) {
		if strings.IndexByte(g.alphabet, code[i]) < 0 {
			return fmt.Errorf("%w: unexpected symbol %q", ErrInvalidCode, code[i])
		}
	}
	return nil
}

// Policy reports length, alphabet and entropy.
func (g *CodeGenerator) Policy() Policy {
	return Policy{
		Length:      g.length,
		Alphabet:    g.alphabet,
		EntropyBits: entropy(g.length, len(g.alphabet)),
	}
}

// Hash returns the hex SHA-256 of code, for storing issued codes.
func Hash(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// Verify compares code against a value produced by Hash in constant time.
func Verify(code, hashed string) bool {
	return subtle.ConstantTimeCompare([]byte(Hash(code)), []byte(hashed)) == 1
}

func entropy(length, symbols int) float64 {
	return float64(length) * math.Log2(float64(symbols))
}

func validateAlphabet(alphabet string) error {
	if len(alphabet) < 2 {
		return fmt.Errorf("%w: need at least 2 symbols", ErrInvalidAlphabet)
	}

	var seen [128]bool
	for i := range len(alphabet) {
		c := alphabet[i]
		if c <= ' ' || c > '~' {
			return fmt.Errorf("%w: symbol %q is not printable ASCII", ErrInvalidAlphabet, c)
		}
		if seen[c] {
			return fmt.Errorf("%w: duplicate symbol %q", ErrInvalidAlphabet, c)
		}
		seen[c] = true
	}
	return nil
}
