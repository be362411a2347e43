// Copyright 2025 Certen Protocol
//
// Package rri implements the Radix Resource Identifier: a structured
// (address, name) pair that globally names a resource. Addresses reuse
// go-ethereum's 20-byte Address type, matching how the rest of the engine
// represents account/identity addresses.
package rri

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/ethereum/go-ethereum/common"
)

// nameAlphabet accepts the digits 1-9 and all ASCII letters; of the
// visually ambiguous characters only 0 is excluded (O, I and l match).
var nameAlphabet = regexp.MustCompile(`^[1-9A-Za-z]+$`)

// ErrInvalidName is returned when an RRI name is empty or contains a
// character outside nameAlphabet.
var ErrInvalidName = errors.New("rri: name must match [1-9A-Za-z]+")

// RRI is a structured identifier (address, name) naming a resource.
type RRI struct {
	Address common.Address
	Name    string
}

// New validates name and constructs an RRI.
func New(address common.Address, name string) (RRI, error) {
	if !nameAlphabet.MatchString(name) {
		return RRI{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return RRI{Address: address, Name: name}, nil
}

// Equal reports whether two RRIs name the same resource.
func (r RRI) Equal(other RRI) bool {
	return r.Address == other.Address && r.Name == other.Name
}

func (r RRI) String() string {
	return fmt.Sprintf("%s/%s", r.Address.Hex(), r.Name)
}
