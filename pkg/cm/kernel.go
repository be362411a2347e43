// Copyright 2025 Certen Protocol
//
// Kernel procedures and compute hooks: atom-level predicates and pure
// derived-value functions registered once at build time and run on every
// validate() call.
package cm

import (
	"fmt"

	"github.com/certenlabs/cm-core/pkg/particle"
)

// KernelProcedure is an atom-level predicate. Unlike every other check in
// the pipeline, kernel procedures all run to completion and their errors
// are collected into a single batched CMError rather than failing fast.
type KernelProcedure func(atom *particle.Atom) error

// ComputeFunc derives a pure, cache-friendly summary value from an atom
// that has already passed validation. Compute hooks never reject an atom;
// their only job is to populate ApplicationResult.
type ComputeFunc func(atom *particle.Atom) (any, error)

// ApplicationResult carries the registered compute hooks' outputs for an
// atom that validated successfully. The store is not mutated by Validate;
// the caller decides whether and when to call store.StoreAtom.
type ApplicationResult struct {
	Computed map[string]any
}

// KernelWitnessBundleNonEmpty rejects an atom with no witnesses at all.
// Most real atoms require at least one signature; an atom with zero
// witnesses can never satisfy any witness validator, so rejecting it here
// gives a clearer KernelProcedureError instead of a WitnessFailure deep
// inside dispatch. A particle.WitnessBundle is checked for emptiness;
// other WitnessData implementations expose no count, so for them only a
// missing bundle is rejected.
func KernelWitnessBundleNonEmpty(atom *particle.Atom) error {
	if atom.Witnesses == nil {
		return fmt.Errorf("atom carries no witness bundle")
	}
	if b, ok := atom.Witnesses.(particle.WitnessBundle); ok && len(b) == 0 {
		return fmt.Errorf("atom carries an empty witness bundle")
	}
	return nil
}

// KernelMaxParticleGroups rejects an atom with more than max particle
// groups, a coarse size bound a deployment can tune; the machine itself
// leaves bounding atom size to the caller.
func KernelMaxParticleGroups(max int) KernelProcedure {
	return func(atom *particle.Atom) error {
		if len(atom.Groups) > max {
			return fmt.Errorf("atom has %d particle groups, exceeds limit %d", len(atom.Groups), max)
		}
		return nil
	}
}

// ComputeTotalParticleCount is a reference compute hook summarizing how
// many spun particles an atom pushed, across all groups.
func ComputeTotalParticleCount(atom *particle.Atom) (any, error) {
	total := 0
	for _, g := range atom.Groups {
		total += len(g)
	}
	return total, nil
}
