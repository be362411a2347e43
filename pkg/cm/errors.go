// Copyright 2025 Certen Protocol
//
// Package cm implements the constraint machine (C3): atom lowering, the
// validation pipeline, transition dispatch, and the builder that freezes
// a compiled machine. See pkg/scrypt for the higher-level registration
// surface scrypts program against.
package cm

import (
	"fmt"
	"strings"

	"github.com/certenlabs/cm-core/pkg/particle"
)

// ErrorKind is the machine-readable reason validate() rejected an atom.
type ErrorKind string

const (
	UnknownParticle       ErrorKind = "UnknownParticle"
	StaticCheckFailed     ErrorKind = "StaticCheckFailed"
	SpinConflict          ErrorKind = "SpinConflict"
	ParticleConflict      ErrorKind = "ParticleConflict"
	MissingProcedure      ErrorKind = "MissingProcedure"
	PreconditionFailed    ErrorKind = "PreconditionFailed"
	RRIMismatch           ErrorKind = "RRIMismatch"
	WitnessFailure        ErrorKind = "WitnessFailure"
	UsedDataConflict      ErrorKind = "UsedDataConflict"
	UnbalancedGroup       ErrorKind = "UnbalancedGroup"
	KernelProcedureError  ErrorKind = "KernelProcedureError"
	MissingDependency     ErrorKind = "MissingDependency"
	UnsupportedOperation  ErrorKind = "UnsupportedOperation"
)

// CMError is the sole error surface of Validate: a kind, an optional
// DataPointer to the offending instruction, and a human-readable message.
// Every kind except KernelProcedureError is fail-fast and carries exactly
// one DataPointer; KernelProcedureError is the one batched kind and
// carries every failing kernel procedure's message in Batch instead.
type CMError struct {
	Kind    ErrorKind
	Pointer *particle.DataPointer
	Message string
	Batch   []string
}

func (e *CMError) Error() string {
	if e.Kind == KernelProcedureError {
		return fmt.Sprintf("%s: %s", e.Kind, strings.Join(e.Batch, "; "))
	}
	if e.Pointer != nil {
		return fmt.Sprintf("%s at (group %d, particle %d): %s", e.Kind, e.Pointer.GroupIndex, e.Pointer.ParticleIndex, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newErr(kind ErrorKind, ptr particle.DataPointer, format string, args ...any) *CMError {
	return &CMError{Kind: kind, Pointer: &ptr, Message: fmt.Sprintf(format, args...)}
}
