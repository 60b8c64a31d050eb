package otp

// Config selects the code policy from the environment. Digits, when set,
// wins over Length and Alphabet.
type Config struct {
	Length   int    `env:"OTP_LENGTH" envDefault:"8"`
	Alphabet string `env:"OTP_ALPHABET" envDefault:"0123456789ABCDEFGHJKMNPQRSTVWXYZ"`
	Digits   int    `env:"OTP_DIGITS"`
}

// NewFromConfig creates a generator from cfg.
func NewFromConfig(cfg Config, opts ...Option) (*CodeGenerator, error) {
	base := []Option{WithLength(cfg.Length), WithAlphabet(cfg.Alphabet)}
	if cfg.Digits > 0 {
		base = []Option{WithDigits(cfg.Digits)}
	}
	return New(append(base, opts...)...)
}
