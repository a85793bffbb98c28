package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strconv"
	"strings"
	"time"
)

// Verification failure reasons. Callers treat ReasonRateLimited as a throttle
// signal and ignore the rest (a forged or stale cookie is the same as no cookie).
const (
	ReasonBadToken     = "bad token"
	ReasonBadSignature = "bad signature"
	ReasonRateLimited  = "rate limited"
)

// Signer mints and validates time-windowed submission tokens. A token is
// "<issuedAt unix seconds>.<base64url(hmac-sha256(secret, issuedAt))>" and is
// the only cooldown state in the system: it lives in the client's cookie,
// never on the server.
type Signer struct {
	secret []byte
}

// New creates a Signer over a server-held secret.
func New(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign produces the token for a given issue timestamp. Deterministic: the
// same secret and timestamp always yield the same token.
func (s *Signer) Sign(issuedAt int64) string {
	msg := strconv.FormatInt(issuedAt, 10)
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(msg))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return msg + "." + sig
}

// Verify reports whether the token is valid and outside the cooldown window.
// An invalid result carries one of the Reason constants.
func (s *Signer) Verify(token string, window time.Duration) (bool, string) {
	return s.VerifyAt(token, window, time.Now())
}

// VerifyAt is Verify with an explicit clock.
func (s *Signer) VerifyAt(token string, window time.Duration, now time.Time) (bool, string) {
	tsStr, _, found := strings.Cut(token, ".")
	if !found {
		return false, ReasonBadToken
	}
	issuedAt, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return false, ReasonBadToken
	}

	expected := s.Sign(issuedAt)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(token)) != 1 {
		return false, ReasonBadSignature
	}

	if now.Unix()-issuedAt < int64(window/time.Second) {
		return false, ReasonRateLimited
	}

	return true, ""
}
