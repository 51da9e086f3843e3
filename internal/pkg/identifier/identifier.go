package identifier

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	sessionAlphabet   = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	riderCodeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

	sessionLength   = 24
	riderCodeLength = 8
)

// NewSessionID mints an opaque session identifier for an anonymous visitor.
func NewSessionID() (string, error) {
	id, err := gonanoid.Generate(sessionAlphabet, sessionLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return id, nil
}

// NewRiderCode mints a human-shareable referral code. The alphabet excludes
// easily confused characters (0/O, 1/I/L).
func NewRiderCode() (string, error) {
	code, err := gonanoid.Generate(riderCodeAlphabet, riderCodeLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate rider code: %w", err)
	}
	return strings.ToUpper(code), nil
}
