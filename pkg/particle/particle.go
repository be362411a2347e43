// Copyright 2025 Certen Protocol
//
// Package particle defines the data model shared by the constraint engine's
// components: the opaque Particle leaf type, the SpunParticle/ParticleGroup/
// Atom structures that make up the engine's external interface, and the
// DataPointer used to anchor every error at the offending instruction.
package particle

import (
	"github.com/google/uuid"

	"github.com/certenlabs/cm-core/pkg/euid"
	"github.com/certenlabs/cm-core/pkg/spin"
)

// ClassTag identifies a particle's application-defined class, used as the
// key for definition lookup in the constraint machine's dispatch table.
type ClassTag string

// Particle is an opaque, content-addressed, immutable leaf value. Identity
// is by value equality, so ID must be deterministic over a particle's
// content: two particles with the same ID are the same particle.
type Particle interface {
	// ID returns the particle's content-address, used as the identity key
	// by the engine store and by spin-conflict detection within an atom.
	ID() [32]byte
	// Class returns the class tag used to look up the particle's
	// registered ParticleDefinition.
	Class() ClassTag
	// Destinations returns the shard identifiers this particle is routed
	// to. Must be non-empty for any particle pushed into an atom.
	Destinations() euid.Set
}

// DataPointer locates a SpunParticle within an atom for error reporting:
// the index of its ParticleGroup and the index of the particle within
// that group.
type DataPointer struct {
	GroupIndex    int
	ParticleIndex int
}

// SpunParticle pairs a particle with the spin it asserts after the
// instruction executes.
type SpunParticle struct {
	Particle   Particle
	TargetSpin spin.Spin
}

// ParticleGroup is a non-empty, ordered sequence of spun particles. Groups
// are the unit across which dispatch couples consecutive PUSH instructions.
type ParticleGroup []SpunParticle

// WitnessData is the witness oracle the constraint machine trusts for
// signature presence. The core never verifies signatures itself; it only
// asks whether a given public key (identified by fingerprint) is among the
// atom's witnesses.
type WitnessData interface {
	IsSignedBy(fingerprint string) bool
}

// WitnessBundle is the simplest WitnessData implementation: a set of
// signer fingerprints known (by some external process) to have validly
// signed the atom. IsSignedBy is O(1), per the engine's design notes.
type WitnessBundle map[string]struct{}

// NewWitnessBundle builds a WitnessBundle from a list of signer
// fingerprints.
func NewWitnessBundle(fingerprints ...string) WitnessBundle {
	b := make(WitnessBundle, len(fingerprints))
	for _, f := range fingerprints {
		b[f] = struct{}{}
	}
	return b
}

// IsSignedBy reports whether fingerprint is present in the bundle.
func (b WitnessBundle) IsSignedBy(fingerprint string) bool {
	_, ok := b[fingerprint]
	return ok
}

// Atom is the ledger's atomic unit of state change: an ordered list of
// particle groups plus a witness bundle. The core treats everything about
// an atom except its groups and witnesses as opaque to itself; ID exists
// purely so callers and error messages have a stable handle.
type Atom struct {
	ID        uuid.UUID
	Groups    []ParticleGroup
	Witnesses WitnessData
}
