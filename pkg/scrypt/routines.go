// Copyright 2025 Certen Protocol
//
// Named routines: convenience registration helpers, working on the
// Environment's underlying cm.Builder, for the transition shapes almost
// every RRI-identified resource needs. All are plain compositions of cm.Builder.AddProcedure;
// a scrypt that needs something these don't cover reaches for
// ExecuteRoutine directly instead of a new named routine.
package scrypt

import (
	"fmt"

	"github.com/certenlabs/cm-core/pkg/cm"
	"github.com/certenlabs/cm-core/pkg/particle"
	"github.com/certenlabs/cm-core/pkg/rri"
)

// Precondition is the simplified two-particle precondition shape the named
// routines accept; neither needs per-side UsedData threading, so the full
// four-argument cm.TransitionProcedure.Precondition signature would only
// add noise at every call site.
type Precondition func(in, out particle.Particle) error

// WitnessCheck authorizes one side of a transition.
type WitnessCheck func(p particle.Particle, witnesses particle.WitnessData) error

// CreateTransitionRoutine registers a plain Void-to-Void transition
// between two classes: the building block CreateTransitionFromRRI is
// composed from, and the one a scrypt reaches for directly when it needs
// a plain two-particle transition. It adds no RRI check of its own; the
// machine still compares RRIs when both classes carry an RRI mapper.
func CreateTransitionRoutine(e *Environment, in, out particle.ClassTag, precond Precondition, inWitness, outWitness WitnessCheck) error {
	tok := cm.TransitionToken{
		InputClass:     in,
		InputUsedType:  cm.VoidUsedData{}.Type(),
		OutputClass:    out,
		OutputUsedType: cm.VoidUsedData{}.Type(),
	}
	proc := &cm.TransitionProcedure{
		Precondition: func(inP particle.Particle, _ cm.UsedData, outP particle.Particle, _ cm.UsedData) error {
			if precond == nil {
				return nil
			}
			return precond(inP, outP)
		},
	}
	if inWitness != nil {
		proc.InputWitnessValidator = func(p particle.Particle, w particle.WitnessData) error { return inWitness(p, w) }
	}
	if outWitness != nil {
		proc.OutputWitnessValidator = func(p particle.Particle, w particle.WitnessData) error { return outWitness(p, w) }
	}
	return e.Builder().AddProcedure(tok, proc)
}

// CreateTransitionFromRRI registers the canonical mint procedure for an
// RRI-identified resource class: consuming the RRIParticle itself produces
// the first instance of class. The precondition is trivially true unless
// precond overrides it, and used-computes return none on both sides (a
// one-shot transition, no multi-input carry). If inWitness is nil, the
// input side defaults to requiring a signature from the RRI's own
// address, since only the RRI's owner may mint against it.
func CreateTransitionFromRRI(e *Environment, class particle.ClassTag, precond Precondition, inWitness, outWitness WitnessCheck) error {
	if inWitness == nil {
		inWitness = requireRRIAddressSignature
	}
	return CreateTransitionRoutine(e, rri.ClassTag, class, precond, inWitness, outWitness)
}

// requireRRIAddressSignature is CreateTransitionFromRRI's default input
// witness validator: it demands a signature from the RRIParticle's own
// address, the same checksummed-hex fingerprint convention the ECDSA
// witness oracle indexes signers by.
func requireRRIAddressSignature(p particle.Particle, w particle.WitnessData) error {
	rp, ok := p.(rri.Particle)
	if !ok {
		return fmt.Errorf("scrypt: expected an RRIParticle input, got %T", p)
	}
	fingerprint := rp.RRI.Address.Hex()
	if !w.IsSignedBy(fingerprint) {
		return fmt.Errorf("scrypt: missing signature from rri address %s", fingerprint)
	}
	return nil
}

// combinedUsedData is the UsedData carry CreateTransitionFromRRICombined
// uses internally to mark "this output is not fully produced yet."
type combinedUsedData struct{}

// Type implements cm.UsedData.
func (combinedUsedData) Type() string { return "scrypt.Combined" }

// CreateTransitionFromRRICombined registers the two-token pair needed to
// merge exactly two consuming inputs into one RRI-identified output: the
// entry token (Void input, Void output) marks the output as pending a
// second input, and the continuation token (Void input, pending output)
// is what that second input's PUSH dispatches against. This is the
// two-input counterpart to CreateTransitionFromRRI's single-input
// mutation; a scrypt that needs to merge more than two inputs composes
// its own chain via ExecuteRoutine instead of a third named routine.
func CreateTransitionFromRRICombined(e *Environment, inClass, outClass particle.ClassTag, precond Precondition, inWitness, outWitness WitnessCheck) error {
	b := e.Builder()

	entryTok := cm.TransitionToken{
		InputClass:     inClass,
		InputUsedType:  cm.VoidUsedData{}.Type(),
		OutputClass:    outClass,
		OutputUsedType: cm.VoidUsedData{}.Type(),
	}
	continueTok := cm.TransitionToken{
		InputClass:     inClass,
		InputUsedType:  cm.VoidUsedData{}.Type(),
		OutputClass:    outClass,
		OutputUsedType: combinedUsedData{}.Type(),
	}

	checkPrecond := func(in, out particle.Particle) error {
		if precond == nil {
			return nil
		}
		return precond(in, out)
	}
	checkInWitness := func(p particle.Particle, w particle.WitnessData) error {
		if inWitness == nil {
			return nil
		}
		return inWitness(p, w)
	}
	checkOutWitness := func(p particle.Particle, w particle.WitnessData) error {
		if outWitness == nil {
			return nil
		}
		return outWitness(p, w)
	}

	if err := b.AddProcedure(entryTok, &cm.TransitionProcedure{
		Precondition: func(in particle.Particle, _ cm.UsedData, out particle.Particle, _ cm.UsedData) error {
			return checkPrecond(in, out)
		},
		OutputUsedCompute: func(particle.Particle, cm.UsedData, particle.Particle, cm.UsedData) (cm.UsedData, bool) {
			return combinedUsedData{}, true
		},
		InputWitnessValidator: func(p particle.Particle, w particle.WitnessData) error {
			return checkInWitness(p, w)
		},
	}); err != nil {
		return err
	}

	return b.AddProcedure(continueTok, &cm.TransitionProcedure{
		Precondition: func(in particle.Particle, _ cm.UsedData, out particle.Particle, _ cm.UsedData) error {
			return checkPrecond(in, out)
		},
		InputWitnessValidator: func(p particle.Particle, w particle.WitnessData) error {
			return checkInWitness(p, w)
		},
		OutputWitnessValidator: func(p particle.Particle, w particle.WitnessData) error {
			return checkOutWitness(p, w)
		},
	})
}
