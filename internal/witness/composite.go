// Copyright 2025 Certen Protocol

package witness

import "github.com/certenlabs/cm-core/pkg/particle"

// CompositeBundle lets an atom mix witness schemes: IsSignedBy succeeds
// if any one of the wrapped bundles recognizes the fingerprint. Scrypts
// that accept either an Ed25519 operator key or an ECDSA address as a
// witness use this instead of picking one scheme atom-wide.
type CompositeBundle struct {
	bundles []particle.WitnessData
}

// NewCompositeBundle wraps bundles, skipping any nil entries.
func NewCompositeBundle(bundles ...particle.WitnessData) *CompositeBundle {
	c := &CompositeBundle{}
	for _, b := range bundles {
		if b != nil {
			c.bundles = append(c.bundles, b)
		}
	}
	return c
}

// IsSignedBy implements particle.WitnessData.
func (c *CompositeBundle) IsSignedBy(fingerprint string) bool {
	for _, b := range c.bundles {
		if b.IsSignedBy(fingerprint) {
			return true
		}
	}
	return false
}
