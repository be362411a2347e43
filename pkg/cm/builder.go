// Copyright 2025 Certen Protocol
//
// Builder implements the BUILDING -> BUILT state machine a constraint
// environment is assembled through. While BUILDING it accepts
// registrations; Build() freezes it into an immutable Machine and
// rejects any further mutation.
package cm

import (
	"errors"
	"fmt"

	"github.com/certenlabs/cm-core/pkg/particle"
	"github.com/certenlabs/cm-core/pkg/rri"
	"github.com/certenlabs/cm-core/pkg/store"
)

// ErrDuplicateDefinition is returned by AddParticleDefinition when the
// class already has a registered definition.
var ErrDuplicateDefinition = errors.New("cm: duplicate particle definition")

// ErrDuplicateTransition is returned by AddProcedure when the token
// already has a registered procedure.
var ErrDuplicateTransition = errors.New("cm: duplicate transition")

// ErrAlreadyBuilt is returned by any mutating Builder method once Build
// has been called.
var ErrAlreadyBuilt = errors.New("cm: builder already built")

// Builder accumulates particle definitions, transition procedures, kernel
// procedures, compute hooks, and state transformers before compiling them
// into an immutable Machine.
type Builder struct {
	built        bool
	definitions  map[particle.ClassTag]ParticleDefinition
	procedures   map[TransitionToken]*TransitionProcedure
	kernelProcs  []KernelProcedure
	computes     map[string]ComputeFunc
	transformers []store.StateTransformer
}

// NewBuilder returns an empty, BUILDING-state Builder.
func NewBuilder() *Builder {
	return &Builder{
		definitions: make(map[particle.ClassTag]ParticleDefinition),
		procedures:  make(map[TransitionToken]*TransitionProcedure),
		computes:    make(map[string]ComputeFunc),
	}
}

// AddParticleDefinition registers def. Fails with ErrDuplicateDefinition
// if def.Class is already registered.
func (b *Builder) AddParticleDefinition(def ParticleDefinition) error {
	if b.built {
		return ErrAlreadyBuilt
	}
	if _, exists := b.definitions[def.Class]; exists {
		return fmt.Errorf("%w: class %q", ErrDuplicateDefinition, def.Class)
	}
	b.definitions[def.Class] = def
	return nil
}

// AddProcedure registers proc under tok. Fails with ErrDuplicateTransition
// if tok is already registered.
func (b *Builder) AddProcedure(tok TransitionToken, proc *TransitionProcedure) error {
	if b.built {
		return ErrAlreadyBuilt
	}
	if _, exists := b.procedures[tok]; exists {
		return fmt.Errorf("%w: %+v", ErrDuplicateTransition, tok)
	}
	b.procedures[tok] = proc
	return nil
}

// AddKernelProcedure registers an atom-level predicate run on every
// validate() call.
func (b *Builder) AddKernelProcedure(kp KernelProcedure) error {
	if b.built {
		return ErrAlreadyBuilt
	}
	b.kernelProcs = append(b.kernelProcs, kp)
	return nil
}

// AddCompute registers a compute hook under key. Re-registering the same
// key overwrites the previous hook; compute hooks are additive tooling,
// not an invariant-bearing registry like definitions or procedures.
func (b *Builder) AddCompute(key string, fn ComputeFunc) error {
	if b.built {
		return ErrAlreadyBuilt
	}
	b.computes[key] = fn
	return nil
}

// AddStateTransformer appends t to the virtualization stack. Transformers
// are consulted innermost-first in registration order: the first
// transformer added is consulted before the second, and so on, matching
// store.NewVirtualizedStore's transformers[0]-is-innermost convention.
// Build always places the RRI-zero-nonce transformer inside all of them.
func (b *Builder) AddStateTransformer(t store.StateTransformer) error {
	if b.built {
		return ErrAlreadyBuilt
	}
	b.transformers = append(b.transformers, t)
	return nil
}

// HasDefinition reports whether class is already registered, so callers
// composing registration helpers (e.g. pkg/scrypt) can preflight without
// trying and discarding an error.
func (b *Builder) HasDefinition(class particle.ClassTag) bool {
	_, ok := b.definitions[class]
	return ok
}

// Build freezes the builder into an immutable Machine. Subsequent calls
// to any Add* method return ErrAlreadyBuilt. The machine's virtualization
// stack is the RRI-zero-nonce transformer (innermost) followed by the
// registered transformers in registration order.
func (b *Builder) Build() (*Machine, error) {
	if b.built {
		return nil, ErrAlreadyBuilt
	}
	b.built = true

	defs := make(map[particle.ClassTag]ParticleDefinition, len(b.definitions))
	for k, v := range b.definitions {
		defs[k] = v
	}
	procs := make(map[TransitionToken]*TransitionProcedure, len(b.procedures))
	for k, v := range b.procedures {
		procs[k] = v
	}
	computes := make(map[string]ComputeFunc, len(b.computes))
	for k, v := range b.computes {
		computes[k] = v
	}
	kernelProcs := make([]KernelProcedure, len(b.kernelProcs))
	copy(kernelProcs, b.kernelProcs)
	transformers := make([]store.StateTransformer, 0, len(b.transformers)+1)
	transformers = append(transformers, rri.NewZeroNonceTransformer())
	transformers = append(transformers, b.transformers...)

	return &Machine{
		definitions:  defs,
		procedures:   procs,
		kernelProcs:  kernelProcs,
		computes:     computes,
		transformers: transformers,
	}, nil
}
