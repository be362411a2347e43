// Copyright 2025 Certen Protocol
//
// Virtualization: a predicate-driven override of the base store's NEUTRAL
// answer. Transformers are composed as a stack; the core guarantees the
// RRI-zero-nonce transformer sits innermost (closest to the base store),
// so it is consulted before any outer, application-registered transformer.
package store

import (
	"github.com/certenlabs/cm-core/pkg/euid"
	"github.com/certenlabs/cm-core/pkg/particle"
	"github.com/certenlabs/cm-core/pkg/spin"
)

// StateTransformer is a pure predicate paired with a virtualized default
// spin. It never consults the store itself; VirtualizedStore only applies
// a transformer's default when the base store reports NEUTRAL.
type StateTransformer interface {
	Matches(p particle.Particle) bool
	DefaultSpin() spin.Spin
}

type transformerFunc struct {
	matches func(particle.Particle) bool
	def     spin.Spin
}

func (t transformerFunc) Matches(p particle.Particle) bool { return t.matches(p) }
func (t transformerFunc) DefaultSpin() spin.Spin            { return t.def }

// NewTransformer builds a StateTransformer from a predicate and its
// virtualized default spin.
func NewTransformer(matches func(particle.Particle) bool, def spin.Spin) StateTransformer {
	return transformerFunc{matches: matches, def: def}
}

// NewDefaultDestinationTransformer builds the "accept known particles"
// transformer: for any particle whose class is registered, if its
// declared destinations match what lookup (the registered shard mapper)
// computes, the particle virtualizes to NEUTRAL (legitimate, unseen);
// otherwise it is left to the caller to reject it with MissingDependency.
// lookup returns ok=false for unregistered classes, in which case the
// transformer does not match (so an unknown particle is not silently
// virtualized either way).
func NewDefaultDestinationTransformer(lookup func(p particle.Particle) (euid.Set, bool)) StateTransformer {
	return transformerFunc{
		matches: func(p particle.Particle) bool {
			computed, ok := lookup(p)
			if !ok {
				return false
			}
			return computed.Equal(p.Destinations())
		},
		def: spin.NEUTRAL,
	}
}

// VirtualizedStore wraps a base EngineStore with an ordered stack of
// StateTransformers. transformers[0] is innermost (consulted first);
// later entries are outer layers consulted only if no inner transformer
// matched. GetAtomContaining, StoreAtom, Supports, and DeleteAtom pass
// through to the base store unchanged — virtualization only ever affects
// the NEUTRAL answer from GetSpin.
type VirtualizedStore struct {
	base         EngineStore
	transformers []StateTransformer
}

// NewVirtualizedStore composes base with transformers, innermost first.
func NewVirtualizedStore(base EngineStore, transformers ...StateTransformer) *VirtualizedStore {
	return &VirtualizedStore{base: base, transformers: transformers}
}

// GetSpin implements EngineStore.
func (v *VirtualizedStore) GetSpin(p particle.Particle) spin.Spin {
	s := v.base.GetSpin(p)
	if s != spin.NEUTRAL {
		return s
	}
	for _, t := range v.transformers {
		if t.Matches(p) {
			return t.DefaultSpin()
		}
	}
	return spin.NEUTRAL
}

// GetAtomContaining implements EngineStore.
func (v *VirtualizedStore) GetAtomContaining(p particle.Particle, isInput bool) (*particle.Atom, error) {
	return v.base.GetAtomContaining(p, isInput)
}

// StoreAtom implements EngineStore.
func (v *VirtualizedStore) StoreAtom(atom *particle.Atom) error {
	return v.base.StoreAtom(atom)
}

// Supports implements EngineStore.
func (v *VirtualizedStore) Supports(destinations euid.Set) bool {
	return v.base.Supports(destinations)
}

// DeleteAtom implements EngineStore.
func (v *VirtualizedStore) DeleteAtom(atom *particle.Atom) error {
	return v.base.DeleteAtom(atom)
}
