package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content digests. The version suffix enables future
// algorithm migration without colliding with old digests.
const (
	DomainStep  = "slate/step/v1"
	DomainEvent = "slate/event/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents domain/data
// boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StepDigest computes the content digest of an archived step payload. The
// payload must marshal canonically; the digest is stable across runs given
// the same step content.
func StepDigest(payload any) (string, error) {
	canonical, err := MarshalCanonical(payload)
	if err != nil {
		return "", fmt.Errorf("StepDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainStep, canonical), nil
}

// EventDigest computes the content digest of an archived event payload.
func EventDigest(payload any) (string, error) {
	canonical, err := MarshalCanonical(payload)
	if err != nil {
		return "", fmt.Errorf("EventDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEvent, canonical), nil
}
