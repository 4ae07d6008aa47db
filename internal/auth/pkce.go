package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// PKCE parameter sizes per RFC 7636. 32 random bytes produce a 43-character
// base64url verifier, the minimum length the RFC allows.
const (
	codeVerifierBytes = 32
	stateBytes        = 16

	codeChallengeMethodS256 = "S256"
)

// GenerateCodeVerifier returns a new high-entropy PKCE code verifier.
func GenerateCodeVerifier() (string, error) {
	b := make([]byte, codeVerifierBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate code verifier: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ComputeCodeChallenge derives the S256 code challenge for a verifier.
// The same verifier always yields the same challenge.
func ComputeCodeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// GenerateState returns a random state value used to bind the authorization
// redirect to the flow that initiated it.
func GenerateState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
