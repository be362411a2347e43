// Copyright 2025 Certen Protocol
//
// Package scrypt implements the Constraint-Scrypt Environment (C4): the
// registration surface an application ("scrypt") programs against instead
// of touching pkg/cm's Builder directly. Environment wraps a cm.Builder
// with the ambient protections every scrypt gets for free — empty
// destination sets are always rejected, and RRI-mapped classes are
// validated eagerly rather than silently ignored at dispatch time.
package scrypt

import (
	"errors"
	"fmt"

	"github.com/certenlabs/cm-core/pkg/cm"
	"github.com/certenlabs/cm-core/pkg/euid"
	"github.com/certenlabs/cm-core/pkg/particle"
	"github.com/certenlabs/cm-core/pkg/rri"
)

// ErrNilRRIMapper is returned by RegisterParticleWithRRI when called with a
// nil mapper; an RRI-mapped class with no mapper is a contradiction, not a
// class that simply opts out of RRI coupling.
var ErrNilRRIMapper = errors.New("scrypt: rri mapper cannot be nil")

// ErrEmptyDestinations is wrapped into a particle's StaticCheck failure
// when Destinations() returns an empty set: every particle pushed into
// an atom must declare at least one shard.
var ErrEmptyDestinations = errors.New("scrypt: particle declares no destinations")

// ErrNullRRI is wrapped into an RRI-mapped particle's StaticCheck failure
// when its rriMapper returns ok == false: an RRI-mapped class promises an
// RRI on every instance, so a particle that fails to yield one is invalid.
var ErrNullRRI = errors.New("rri cannot be null")

// Environment is the BUILDING-state registration surface for one scrypt.
// Build freezes it into a *cm.Machine exactly like the underlying
// cm.Builder; Environment exists to layer ambient checks and convenience
// routines on top, not to replace the builder's state machine.
type Environment struct {
	b *cm.Builder
}

// New returns an empty Environment ready for registration.
func New() *Environment {
	return &Environment{b: cm.NewBuilder()}
}

// Builder exposes the underlying cm.Builder for routines (in this package
// or a caller's own ExecuteRoutine) that need direct access to AddProcedure
// or AddStateTransformer.
func (e *Environment) Builder() *cm.Builder {
	return e.b
}

func wrapStaticCheck(
	shardMapper func(particle.Particle) euid.Set,
	staticCheck func(particle.Particle) error,
	rriMapper func(particle.Particle) (rri.RRI, bool),
) func(particle.Particle) error {
	return func(p particle.Particle) error {
		if len(p.Destinations()) == 0 {
			return ErrEmptyDestinations
		}
		if shardMapper != nil {
			computed := shardMapper(p)
			if !computed.Equal(p.Destinations()) {
				return fmt.Errorf("scrypt: declared destinations do not match the registered shard mapper")
			}
		}
		if rriMapper != nil {
			if _, ok := rriMapper(p); !ok {
				return ErrNullRRI
			}
		}
		if staticCheck != nil {
			return staticCheck(p)
		}
		return nil
	}
}

// RegisterParticle registers a particle class with no RRI coupling.
// shardMapper may be nil to skip the destination cross-check; staticCheck
// may be nil to skip additional validation beyond the destination checks
// every registered class gets.
func (e *Environment) RegisterParticle(class particle.ClassTag, shardMapper func(particle.Particle) euid.Set, staticCheck func(particle.Particle) error) error {
	return e.b.AddParticleDefinition(cm.ParticleDefinition{
		Class:       class,
		ShardMapper: shardMapper,
		StaticCheck: wrapStaticCheck(shardMapper, staticCheck, nil),
	})
}

// RegisterParticleWithRRI registers an RRI-identified particle class.
// rriMapper must be non-nil: the class has no other way to participate in
// RRI-coupled transitions.
func (e *Environment) RegisterParticleWithRRI(
	class particle.ClassTag,
	shardMapper func(particle.Particle) euid.Set,
	staticCheck func(particle.Particle) error,
	rriMapper func(particle.Particle) (rri.RRI, bool),
) error {
	if rriMapper == nil {
		return ErrNilRRIMapper
	}
	return e.b.AddParticleDefinition(cm.ParticleDefinition{
		Class:       class,
		ShardMapper: shardMapper,
		StaticCheck: wrapStaticCheck(shardMapper, staticCheck, rriMapper),
		RRIMapper:   rriMapper,
	})
}

// AddKernelProcedure registers an atom-level predicate.
func (e *Environment) AddKernelProcedure(kp cm.KernelProcedure) error {
	return e.b.AddKernelProcedure(kp)
}

// AddCompute registers a compute hook under key.
func (e *Environment) AddCompute(key string, fn cm.ComputeFunc) error {
	return e.b.AddCompute(key, fn)
}

// ExecuteRoutine runs fn against the environment's underlying builder,
// the generic escape hatch for any registration pattern not covered by a
// named convenience routine.
func (e *Environment) ExecuteRoutine(fn func(b *cm.Builder) error) error {
	return fn(e.b)
}

// Build freezes the environment into an immutable *cm.Machine.
func (e *Environment) Build() (*cm.Machine, error) {
	return e.b.Build()
}
