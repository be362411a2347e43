// Copyright 2025 Certen Protocol
//
// Package testscrypt is a minimal reference scrypt used only by this
// module's tests and cmd/cmvalidate's demo atom: a single RRI-identified
// particle class with a trivial same-class transition. It is not a
// fungible token implementation; it exists solely to exercise C4's
// registration surface end-to-end the way a production scrypt would.
package testscrypt

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/certenlabs/cm-core/pkg/cm"
	"github.com/certenlabs/cm-core/pkg/euid"
	"github.com/certenlabs/cm-core/pkg/particle"
	"github.com/certenlabs/cm-core/pkg/rri"
	"github.com/certenlabs/cm-core/pkg/scrypt"
)

// ClassTag is the class BaseParticle registers under.
const ClassTag particle.ClassTag = "testscrypt.Base"

// BaseParticle is the scrypt's only particle class: an RRI-identified
// resource at a given nonce, routed to a single shard.
type BaseParticle struct {
	Resource rri.RRI
	Nonce    uint64
	Dest     euid.EUID
}

// ID implements particle.Particle.
func (p BaseParticle) ID() [32]byte {
	h := sha256.New()
	h.Write(p.Resource.Address[:])
	h.Write([]byte(p.Resource.Name))
	var nb [8]byte
	binary.BigEndian.PutUint64(nb[:], p.Nonce)
	h.Write(nb[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Class implements particle.Particle.
func (BaseParticle) Class() particle.ClassTag { return ClassTag }

// Destinations implements particle.Particle.
func (p BaseParticle) Destinations() euid.Set { return euid.NewSet(p.Dest) }

func rriMapper(p particle.Particle) (rri.RRI, bool) {
	bp, ok := p.(BaseParticle)
	if !ok {
		return rri.RRI{}, false
	}
	return bp.Resource, true
}

// Build registers BaseParticle and its Base -> Base nonce-advance
// transition and compiles the result into a ready-to-use machine. The
// nonce advance is a same-class transition, so it goes through
// CreateTransitionRoutine directly rather than CreateTransitionFromRRI
// (which mints a class's first instance from the RRIParticle itself).
func Build() (*cm.Machine, error) {
	env := scrypt.New()
	if err := env.RegisterParticleWithRRI(ClassTag, nil, nil, rriMapper); err != nil {
		return nil, err
	}
	if err := scrypt.CreateTransitionRoutine(env, ClassTag, ClassTag, nil, nil, nil); err != nil {
		return nil, err
	}
	return env.Build()
}
