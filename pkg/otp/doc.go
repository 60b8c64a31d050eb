// Package otp generates one-time passwords from crypto/rand.
//
// The default policy is 8 symbols of Crockford base32 (40 bits), which
// keeps collisions out of reach for realistic volumes while staying easy to
// type. Numeric codes are available through WithDigits:
//
//	gen, err := otp.New(otp.WithDigits(6))
//	if err != nil {
//		return err
//	}
//	code, err := gen.Generate()
//
// Policies below 20 bits of entropy are rejected with ErrWeakPolicy, except
// the conventional six or more digits. The package does not track issuance,
// expiry or consumption; store Hash(code) and compare with Verify.
package otp
