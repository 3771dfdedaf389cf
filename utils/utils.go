package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
)

// CreateReferralCode returns a random hex code of length 2*n characters.
func CreateReferralCode(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("code length must be positive")
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate referral code: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ReferralCodeFromURL extracts the ref query parameter from a page URL.
// Returns "" when the URL is unparseable or carries no code.
func ReferralCodeFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("ref")
}

func StringPtr(s string) *string {
	return &s
}
