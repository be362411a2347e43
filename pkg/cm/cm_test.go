// Copyright 2025 Certen Protocol

package cm

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/certenlabs/cm-core/pkg/euid"
	"github.com/certenlabs/cm-core/pkg/particle"
	"github.com/certenlabs/cm-core/pkg/spin"
)

// testParticle is a minimal particle.Particle used across this package's
// tests: identity is content-addressed over class, key, and n, so two
// testParticles differ iff any of those three differ.
type testParticle struct {
	class particle.ClassTag
	key   string
	n     uint64
	dest  euid.EUID
}

func (p testParticle) ID() [32]byte {
	h := sha256.New()
	h.Write([]byte(p.class))
	h.Write([]byte(p.key))
	var nb [8]byte
	binary.BigEndian.PutUint64(nb[:], p.n)
	h.Write(nb[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func (p testParticle) Class() particle.ClassTag { return p.class }
func (p testParticle) Destinations() euid.Set   { return euid.NewSet(p.dest) }

var testDest = euid.FromBytes([]byte("shard-0"))

func push(p particle.Particle, target spin.Spin) particle.SpunParticle {
	return particle.SpunParticle{Particle: p, TargetSpin: target}
}

// testWitnesses is the simplest WitnessData: a fixed set of fingerprints.
type testWitnesses = particle.WitnessBundle
