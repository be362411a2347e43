// Copyright 2025 Certen Protocol

package rri

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/certenlabs/cm-core/pkg/euid"
	"github.com/certenlabs/cm-core/pkg/particle"
)

// ClassTag is the class tag every RRIParticle registers under.
const ClassTag particle.ClassTag = "RRIParticle"

// Particle is the canonical particle representing an RRI resource
// definition. Its Nonce tracks how many times the resource has been
// mutated; a Nonce of 0 means "never used," which is exactly the case
// the RRI-zero-nonce state transformer virtualizes to UP so a
// never-touched resource identifier is implicitly spendable.
type Particle struct {
	RRI   RRI
	Nonce uint64
	Dests euid.Set
}

// NewParticle builds an RRIParticle bound to a single destination shard,
// the common case for resource-definition particles.
func NewParticle(r RRI, nonce uint64, dest euid.EUID) Particle {
	return Particle{RRI: r, Nonce: nonce, Dests: euid.NewSet(dest)}
}

// ID implements particle.Particle. Identity is content-addressed over the
// RRI and nonce: two RRIParticles at different nonces are different
// particles, which is what lets the spin state machine track each
// mutation of the same resource as a distinct UP/DOWN pair.
func (p Particle) ID() [32]byte {
	h := sha256.New()
	h.Write(p.RRI.Address[:])
	h.Write([]byte(p.RRI.Name))
	var nb [8]byte
	binary.BigEndian.PutUint64(nb[:], p.Nonce)
	h.Write(nb[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Class implements particle.Particle.
func (p Particle) Class() particle.ClassTag { return ClassTag }

// Destinations implements particle.Particle.
func (p Particle) Destinations() euid.Set { return p.Dests }
