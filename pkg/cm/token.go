// Copyright 2025 Certen Protocol

package cm

import "github.com/certenlabs/cm-core/pkg/particle"

// UsedData threads residual state across consecutive transitions, for the
// partial-consumption case (e.g. a fungible input spending less than its
// full value into several outputs). VoidUsedData means "no carry."
type UsedData interface {
	// Type names the concrete UsedData variant for TransitionToken
	// dispatch; two procedures registered for the same classes but
	// different used-data types are different tokens.
	Type() string
}

// VoidUsedData is the carry value for a fully-consumed side.
type VoidUsedData struct{}

// Type implements UsedData.
func (VoidUsedData) Type() string { return "Void" }

// TransitionToken identifies a registered transition procedure by the
// 4-tuple of input class, input used-data type, output class, and output
// used-data type.
type TransitionToken struct {
	InputClass     particle.ClassTag
	InputUsedType  string
	OutputClass    particle.ClassTag
	OutputUsedType string
}
