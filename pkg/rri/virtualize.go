// Copyright 2025 Certen Protocol

package rri

import (
	"github.com/certenlabs/cm-core/pkg/particle"
	"github.com/certenlabs/cm-core/pkg/spin"
	"github.com/certenlabs/cm-core/pkg/store"
)

// NewZeroNonceTransformer builds the RRI-zero-nonce state transformer: any
// never-stored rri.Particle at nonce 0 virtualizes to UP, so an unused
// resource identifier is implicitly available for its first transition
// without ever having been explicitly pushed UP by a prior atom.
func NewZeroNonceTransformer() store.StateTransformer {
	return store.NewTransformer(func(p particle.Particle) bool {
		rp, ok := p.(Particle)
		if !ok {
			return false
		}
		return rp.Nonce == 0
	}, spin.UP)
}
