// Package signing implements the self-contained signed tokens used for
// email verification and password reset.
//
// A token carries everything needed to verify it: the subject user id and
// the issue time, HMAC-SHA256 signed under a purpose-specific salt so a
// token minted for one purpose is never accepted for another. No server-side
// token table exists; expiry is evaluated against the embedded issue time
// at verification.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/breemind-dev/breemind/internal/domain"
)

const (
	PurposeEmailVerification = "email-verification"
	PurposePasswordReset     = "password-reset"
)

var (
	ErrBadSignature = errors.New("bad token signature")
	ErrExpired      = errors.New("token expired")
)

type payload struct {
	UserId   domain.UserId `json:"user_id"`
	IssuedAt int64         `json:"issued_at"`
}

type Signer struct {
	key []byte
}

func New(key string) *Signer {
	return &Signer{key: []byte(key)}
}

// Sign produces a token of the form base64url(payload).base64url(mac),
// where the mac covers purpose||"."||payload.
func (s *Signer) Sign(purpose string, userId domain.UserId, issuedAt time.Time) string {
	raw, err := json.Marshal(payload{UserId: userId, IssuedAt: issuedAt.Unix()})
	if err != nil {
		// payload is two integers, marshal cannot fail
		panic(err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(raw)
	return encoded + "." + base64.RawURLEncoding.EncodeToString(s.mac(purpose, encoded))
}

// Verify checks signature and expiry and returns the embedded user id.
// Signature comparison is constant-time. Tokens older than maxAge relative
// to their embedded issue time fail with ErrExpired; any structural or
// signature problem fails with ErrBadSignature.
func (s *Signer) Verify(purpose, token string, maxAge time.Duration) (domain.UserId, error) {
	encoded, macPart, found := strings.Cut(token, ".")
	if !found {
		return 0, ErrBadSignature
	}

	gotMac, err := base64.RawURLEncoding.DecodeString(macPart)
	if err != nil {
		return 0, ErrBadSignature
	}
	if !hmac.Equal(gotMac, s.mac(purpose, encoded)) {
		return 0, ErrBadSignature
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return 0, ErrBadSignature
	}
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return 0, ErrBadSignature
	}

	if time.Since(time.Unix(p.IssuedAt, 0)) > maxAge {
		return 0, ErrExpired
	}
	return p.UserId, nil
}

func (s *Signer) mac(purpose, encodedPayload string) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(purpose))
	mac.Write([]byte("."))
	mac.Write([]byte(encodedPayload))
	return mac.Sum(nil)
}
