// Package signature verifies that inbound webhook payloads originated from
// the streaming platform, via an HMAC-SHA256 of the raw request body.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// Prefix is the scheme prefix carried in the x-signature header.
const Prefix = "sha256="

var (
	ErrMissingSignature   = errors.New("signature header is missing")
	ErrMalformedSignature = errors.New("signature header is malformed")
	ErrInvalidSignature   = errors.New("signature does not match payload")
	// ErrNoSecret is returned in strict mode when no secret is configured.
	ErrNoSecret = errors.New("no webhook secret configured")
)

// Result describes the outcome of a verification.
type Result struct {
	// Skipped is true when verification was bypassed because no secret is
	// configured and strict mode is off.
	Skipped bool
	// SignaturePresent is true when the request carried a signature header.
	// A present signature with no configured secret is surfaced as a
	// warning-level condition by the caller.
	SignaturePresent bool
}

// Verifier checks webhook signatures against a shared secret.
type Verifier struct {
	secret string
	strict bool
}

// NewVerifier creates a verifier. With an empty secret, verification is
// skipped unless strict is set, in which case every request is rejected
// until a secret is provisioned.
func NewVerifier(secret string, strict bool) *Verifier {
	return &Verifier{secret: secret, strict: strict}
}

// Enabled returns true if requests are actually verified.
func (v *Verifier) Enabled() bool {
	return v.secret != ""
}

// Verify checks the x-signature header value against the raw body. The
// comparison is constant-time to prevent timing side-channels.
func (v *Verifier) Verify(body []byte, header string) (Result, error) {
	result := Result{SignaturePresent: header != ""}

	if v.secret == "" {
		if v.strict {
			return result, ErrNoSecret
		}
		result.Skipped = true
		return result, nil
	}

	if header == "" {
		return result, ErrMissingSignature
	}
	if !strings.HasPrefix(header, Prefix) {
		return result, ErrMalformedSignature
	}

	supplied, err := hex.DecodeString(strings.TrimPrefix(header, Prefix))
	if err != nil {
		return result, ErrMalformedSignature
	}

	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	if !hmac.Equal(supplied, expected) {
		return result, ErrInvalidSignature
	}

	return result, nil
}

// Sign computes the x-signature header value for a body. Used by tests and
// by senders implementing the same scheme.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return Prefix + hex.EncodeToString(mac.Sum(nil))
}
