// Copyright 2025 Certen Protocol

package zkwitness

// Bundle implements particle.WitnessData by verifying a set of Groth16
// proofs up front and indexing the ones that check out by their public
// commitment's fingerprint — the same forgiving-build, strict-lookup
// shape as witness.Ed25519Bundle, but the "signature" here never reveals
// the underlying secret.
type Bundle struct {
	valid map[string]struct{}
}

// NewBundle verifies every proof against prover's verifying key and
// indexes the ones that succeed. A failing proof is dropped rather than
// failing construction: an atom with one bad proof among several valid
// ones should still authorize the valid signers.
func NewBundle(prover *Prover, proofs []*Proof) *Bundle {
	b := &Bundle{valid: make(map[string]struct{})}
	for _, pr := range proofs {
		if err := prover.Verify(pr); err != nil {
			continue
		}
		b.valid[Fingerprint(pr)] = struct{}{}
	}
	return b
}

// IsSignedBy implements particle.WitnessData.
func (b *Bundle) IsSignedBy(fingerprint string) bool {
	_, ok := b.valid[fingerprint]
	return ok
}
