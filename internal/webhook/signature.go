package webhook

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mattjoyce/slashgw/internal/interaction"
)

// Header names carrying the platform's request signature.
const (
	HeaderSignature = "X-Signature-Ed25519"
	HeaderTimestamp = "X-Signature-Timestamp"
)

var (
	ErrMissingSignature   = errors.New("signature header is required")
	ErrMissingTimestamp   = errors.New("timestamp header is required")
	ErrMalformedSignature = errors.New("signature is not valid hex")
	ErrInvalidSignature   = errors.New("invalid signature")
)

// ParsePublicKey decodes a hex-encoded raw Ed25519 public key.
func ParsePublicKey(hexKey string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return nil, fmt.Errorf("public key is not valid hex: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// Verifier checks request signatures against the application's public key.
// It holds no mutable state and is safe for concurrent use.
type Verifier struct {
	key ed25519.PublicKey
}

// NewVerifier returns a Verifier for key.
func NewVerifier(key ed25519.PublicKey) (*Verifier, error) {
	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(key))
	}
	k := make(ed25519.PublicKey, len(key))
	copy(k, key)
	return &Verifier{key: k}, nil
}

// Verify checks that signature (hex) signs timestamp || body.
// body must be the bytes exactly as received.
//
// Every failure is an interaction.KindUnauthenticated error wrapping one of
// the Err* sentinels above.
func (v *Verifier) Verify(body []byte, timestamp, signature string) error {
	if signature == "" {
		return unauthenticated(ErrMissingSignature)
	}
	if timestamp == "" {
		return unauthenticated(ErrMissingTimestamp)
	}

	sig, err := hex.DecodeString(signature)
	if err != nil {
		return unauthenticated(ErrMalformedSignature)
	}

	if !ed25519.Verify(v.key, signedMessage(timestamp, body), sig) {
		return unauthenticated(ErrInvalidSignature)
	}
	return nil
}

// VerifyRequest reads the signature headers from h and verifies body.
func (v *Verifier) VerifyRequest(h http.Header, body []byte) error {
	return v.Verify(body, h.Get(HeaderTimestamp), h.Get(HeaderSignature))
}

// signedMessage builds timestamp || body without touching body's backing array.
func signedMessage(timestamp string, body []byte) []byte {
	msg := make([]byte, 0, len(timestamp)+len(body))
	msg = append(msg, timestamp...)
	return append(msg, body...)
}

func unauthenticated(err error) error {
	return interaction.NewError(interaction.KindUnauthenticated, "signature verification failed", err)
}
