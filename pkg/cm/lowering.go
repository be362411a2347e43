// Copyright 2025 Certen Protocol
//
// Atom lowering: a pure, deterministic walk of an atom's
// particle groups into a flat sequence of steps — PUSH instructions
// separated by group-boundary markers. Lowering enforces the two checks
// that never need the store: no particle pushed twice with the same
// target spin within one atom (ParticleConflict), and no particle pushed
// through a locally-incoherent spin sequence (SpinConflict).
package cm

import (
	"github.com/certenlabs/cm-core/pkg/particle"
	"github.com/certenlabs/cm-core/pkg/spin"
)

// Instruction is a single PUSH(particle, target-spin) with the
// DataPointer that located it in the original atom.
type Instruction struct {
	Particle particle.Particle
	Target   spin.Spin
	Pointer  particle.DataPointer
}

// StepKind distinguishes a PUSH step from a group-boundary marker.
type StepKind int

const (
	StepPush StepKind = iota
	StepGroupEnd
)

// Step is one element of a lowered atom: either a PUSH or the marker that
// closes the particle group it belongs to.
type Step struct {
	Kind       StepKind
	Push       Instruction
	GroupIndex int // valid for StepGroupEnd
}

// ToMicroInstructions lowers atom into a flat, ordered Step sequence,
// enforcing ParticleConflict and within-atom SpinConflict along the way.
func ToMicroInstructions(atom *particle.Atom) ([]Step, *CMError) {
	steps := make([]Step, 0, len(atom.Groups)*2)
	lastTarget := make(map[[32]byte]spin.Spin)
	seen := make(map[[32]byte]bool)

	for gi, group := range atom.Groups {
		seenInGroup := make(map[[32]byte]bool, len(group))
		for pi, sp := range group {
			ptr := particle.DataPointer{GroupIndex: gi, ParticleIndex: pi}
			id := sp.Particle.ID()

			if seenInGroup[id] {
				return nil, newErr(ParticleConflict, ptr,
					"particle pushed twice within the same group")
			}
			seenInGroup[id] = true

			if seen[id] {
				last := lastTarget[id]
				if sp.TargetSpin == last {
					return nil, newErr(ParticleConflict, ptr,
						"particle pushed twice with target spin %v", sp.TargetSpin)
				}
				next, err := spin.Next(last)
				if err != nil || next != sp.TargetSpin {
					return nil, newErr(SpinConflict, ptr,
						"target spin %v does not follow %v within this atom", sp.TargetSpin, last)
				}
			}
			seen[id] = true
			lastTarget[id] = sp.TargetSpin

			steps = append(steps, Step{
				Kind: StepPush,
				Push: Instruction{
					Particle: sp.Particle,
					Target:   sp.TargetSpin,
					Pointer:  ptr,
				},
			})
		}
		steps = append(steps, Step{Kind: StepGroupEnd, GroupIndex: gi})
	}
	return steps, nil
}

// ToParticleGroups reconstructs the ParticleGroup slices a Step sequence
// lowered from, discarding group-end markers. Used to test lowering's
// idempotence: ToMicroInstructions of the atom rebuilt from its own
// lowering must equal the original lowering, modulo group boundaries.
func ToParticleGroups(steps []Step) []particle.ParticleGroup {
	var groups []particle.ParticleGroup
	var current particle.ParticleGroup
	for _, s := range steps {
		switch s.Kind {
		case StepPush:
			current = append(current, particle.SpunParticle{
				Particle:   s.Push.Particle,
				TargetSpin: s.Push.Target,
			})
		case StepGroupEnd:
			groups = append(groups, current)
			current = nil
		}
	}
	return groups
}
