// Copyright 2025 Certen Protocol

package cm

import (
	"github.com/certenlabs/cm-core/pkg/particle"
	"github.com/certenlabs/cm-core/pkg/store"
)

// Machine is a frozen, immutable compilation of particle definitions,
// transition procedures, kernel procedures, compute hooks, and
// virtualization transformers. It is safe to share across goroutines:
// Validate performs no suspension, holds no locks, and never mutates the
// machine or the caller's store.
type Machine struct {
	definitions  map[particle.ClassTag]ParticleDefinition
	procedures   map[TransitionToken]*TransitionProcedure
	kernelProcs  []KernelProcedure
	computes     map[string]ComputeFunc
	transformers []store.StateTransformer
}

// Validate decides whether atom is admissible against base, a snapshot of
// the engine store. It never mutates base; the caller decides whether to
// persist the atom via base.StoreAtom. On success it returns an
// ApplicationResult; on failure it returns a CMError pinpointing the
// offending instruction (or, for kernel checks, the full batch of
// failures).
func (m *Machine) Validate(atom *particle.Atom, base store.EngineStore) (*ApplicationResult, *CMError) {
	view := store.NewVirtualizedStore(base, m.transformers...)
	return m.validate(atom, view)
}
