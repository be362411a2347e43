// Copyright 2025 Certen Protocol
//
// Package witness implements reference particle.WitnessData oracles: the
// constraint machine never verifies a signature itself, it only asks a
// WitnessData whether a fingerprint signed. These bundles are the thing
// that answers that question for two concrete signature schemes.
package witness

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Ed25519Bundle verifies and caches Ed25519 signatures over a single
// fixed message (typically an atom's content hash).
type Ed25519Bundle struct {
	message []byte
	valid   map[string]struct{}
}

// NewEd25519Bundle verifies every (pubkey, signature) pair against
// message up front and indexes the ones that check out by the hex-encoded
// sha256 of the public key, the fingerprint format IsSignedBy expects.
// Entries with a malformed key or a failing signature are silently
// dropped: an atom signed by nobody valid simply has an empty bundle.
func NewEd25519Bundle(message []byte, sigs map[string][]byte) *Ed25519Bundle {
	b := &Ed25519Bundle{message: message, valid: make(map[string]struct{})}
	for keyHex, sig := range sigs {
		pub, err := hex.DecodeString(keyHex)
		if err != nil || len(pub) != ed25519.PublicKeySize {
			continue
		}
		if !ed25519.Verify(pub, message, sig) {
			continue
		}
		b.valid[fingerprintOf(pub)] = struct{}{}
	}
	return b
}

func fingerprintOf(pub []byte) string {
	sum := sha256.Sum256(pub)
	return hex.EncodeToString(sum[:])
}

// IsSignedBy implements particle.WitnessData.
func (b *Ed25519Bundle) IsSignedBy(fingerprint string) bool {
	_, ok := b.valid[fingerprint]
	return ok
}

// Fingerprint returns the fingerprint IsSignedBy expects for a raw
// Ed25519 public key, for scrypts that need to compute it from a
// particle's stored key rather than look it up by string.
func Fingerprint(pub ed25519.PublicKey) (string, error) {
	if len(pub) != ed25519.PublicKeySize {
		return "", fmt.Errorf("witness: invalid ed25519 public key size %d", len(pub))
	}
	return fingerprintOf(pub), nil
}
