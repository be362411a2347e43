// Copyright 2025 Certen Protocol

package cm

import (
	"github.com/certenlabs/cm-core/pkg/euid"
	"github.com/certenlabs/cm-core/pkg/particle"
	"github.com/certenlabs/cm-core/pkg/rri"
)

// TransitionProcedure is the five-callback contract bound to a
// TransitionToken: it decides whether consuming `in` (going DOWN) to
// produce `out` (going UP) is legal, how much of each side is consumed,
// and whether the atom's witnesses authorize each side.
type TransitionProcedure struct {
	// Precondition returns nil if consuming in/inUsed to produce
	// out/outUsed is legal.
	Precondition func(in particle.Particle, inUsed UsedData, out particle.Particle, outUsed UsedData) error

	// InputUsedCompute returns (carry, true) if the input is not fully
	// consumed by this iteration and should be reused with the next
	// output. Returns (nil, false) when the input is fully consumed.
	InputUsedCompute func(in particle.Particle, inUsed UsedData, out particle.Particle, outUsed UsedData) (UsedData, bool)

	// OutputUsedCompute is InputUsedCompute's mirror for the output side.
	OutputUsedCompute func(in particle.Particle, inUsed UsedData, out particle.Particle, outUsed UsedData) (UsedData, bool)

	// InputWitnessValidator authorizes consuming in.
	InputWitnessValidator func(in particle.Particle, witnesses particle.WitnessData) error

	// OutputWitnessValidator authorizes producing out.
	OutputWitnessValidator func(out particle.Particle, witnesses particle.WitnessData) error
}

// ParticleDefinition is the registered definition for a particle class:
// how to compute its shards, how to statically validate an instance, and
// (optionally) how to read its RRI for cross-transition RRI-equality
// checks.
type ParticleDefinition struct {
	Class       particle.ClassTag
	ShardMapper func(particle.Particle) euid.Set
	StaticCheck func(particle.Particle) error
	// RRIMapper returns the particle's RRI and true if this class carries
	// one. A nil RRIMapper means the class is never RRI-coupled.
	RRIMapper func(particle.Particle) (rri.RRI, bool)
}
