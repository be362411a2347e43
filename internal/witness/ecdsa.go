// Copyright 2025 Certen Protocol

package witness

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// ECDSABundle verifies secp256k1 signatures over a single fixed message
// hash and indexes the recovered signer addresses via go-ethereum's
// signature-recovery and address-derivation helpers.
type ECDSABundle struct {
	valid map[string]struct{}
}

// NewECDSABundle recovers the signer of each signature over hash via
// crypto.SigToPub and indexes its checksummed address as a fingerprint.
// A malformed signature is dropped rather than failing bundle
// construction, matching Ed25519Bundle's forgiving-build/strict-lookup
// shape.
func NewECDSABundle(hash [32]byte, sigs [][]byte) *ECDSABundle {
	b := &ECDSABundle{valid: make(map[string]struct{})}
	for _, sig := range sigs {
		pub, err := crypto.SigToPub(hash[:], sig)
		if err != nil {
			continue
		}
		addr := crypto.PubkeyToAddress(*pub)
		b.valid[addr.Hex()] = struct{}{}
	}
	return b
}

// IsSignedBy implements particle.WitnessData. fingerprint is the
// checksummed hex address (common.Address.Hex()) of the expected signer.
func (b *ECDSABundle) IsSignedBy(fingerprint string) bool {
	_, ok := b.valid[fingerprint]
	return ok
}

// RequireAddress is a convenience helper for witness checks over an
// ECDSABundle: it returns an error unless fingerprint (an address hex
// string) is present.
func RequireAddress(b *ECDSABundle, fingerprint string) error {
	if !b.IsSignedBy(fingerprint) {
		return fmt.Errorf("witness: no valid ECDSA signature from %s", fingerprint)
	}
	return nil
}
