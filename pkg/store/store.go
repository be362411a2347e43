// Copyright 2025 Certen Protocol
//
// Package store implements the constraint engine store (C2): a mapping
// from particle identity to (spin, containing-atom), with optional
// virtualization layered on top. The core never deletes an accepted atom;
// the store is append-only.
package store

import (
	"errors"
	"fmt"

	"github.com/certenlabs/cm-core/pkg/euid"
	"github.com/certenlabs/cm-core/pkg/particle"
	"github.com/certenlabs/cm-core/pkg/spin"
)

// ErrUnsupportedOperation is returned by DeleteAtom: the core does not
// support deletion of an accepted atom.
var ErrUnsupportedOperation = errors.New("store: operation not supported")

// ErrNotFound is returned by GetAtomContaining when the particle has never
// been pushed by any stored atom. Per spec, calling GetAtomContaining on a
// NEUTRAL particle is undefined; implementations return ErrNotFound rather
// than dereferencing a missing entry.
var ErrNotFound = errors.New("store: particle not found")

// EngineStore is the constraint engine's only mutable resource. The
// contract is exclusive-writer/many-reader: StoreAtom must be linearized
// by the caller against other committers, while GetSpin and
// GetAtomContaining may run concurrently with other readers.
type EngineStore interface {
	// GetSpin returns the current spin of p; NEUTRAL if p has never been
	// stored, unless a virtualization rule overrides that answer.
	GetSpin(p particle.Particle) spin.Spin
	// GetAtomContaining returns the atom that most recently drove p to
	// its current spin. isInput selects which side of a past transition
	// drove the particle (kept for parity with engines that record input
	// and output atoms separately; the in-memory store uses a single
	// most-recent-writer record for both).
	GetAtomContaining(p particle.Particle, isInput bool) (*particle.Atom, error)
	// StoreAtom atomically applies every PUSH micro-instruction in atom,
	// advancing each touched particle's spin by spin.Next.
	StoreAtom(atom *particle.Atom) error
	// Supports reports whether this store serves the given shard set.
	Supports(destinations euid.Set) bool
	// DeleteAtom always fails: the core is append-only with respect to
	// accepted atoms.
	DeleteAtom(atom *particle.Atom) error
}

type entry struct {
	spin    spin.Spin
	atomRef *particle.Atom
}

// InMemoryEngineStore is a conforming, in-memory EngineStore, the one the
// core's own tests exercise; on-disk persistence is an external
// collaborator out of the core's scope.
type InMemoryEngineStore struct {
	entries    map[[32]byte]entry
	shardsFunc func(euid.Set) bool
}

// NewInMemoryEngineStore builds an empty store. shardsFunc, if non-nil,
// backs Supports; a nil shardsFunc makes Supports always return true
// (a single-shard deployment serving everything).
func NewInMemoryEngineStore(shardsFunc func(euid.Set) bool) *InMemoryEngineStore {
	return &InMemoryEngineStore{
		entries:    make(map[[32]byte]entry),
		shardsFunc: shardsFunc,
	}
}

// GetSpin implements EngineStore.
func (s *InMemoryEngineStore) GetSpin(p particle.Particle) spin.Spin {
	e, ok := s.entries[p.ID()]
	if !ok {
		return spin.NEUTRAL
	}
	return e.spin
}

// GetAtomContaining implements EngineStore.
func (s *InMemoryEngineStore) GetAtomContaining(p particle.Particle, isInput bool) (*particle.Atom, error) {
	e, ok := s.entries[p.ID()]
	if !ok || e.atomRef == nil {
		return nil, fmt.Errorf("%w: particle %x", ErrNotFound, p.ID())
	}
	return e.atomRef, nil
}

// StoreAtom implements EngineStore. If any particle cannot advance, no
// entry is written. It is not transactional against concurrent writers;
// the caller is responsible for serializing commits.
func (s *InMemoryEngineStore) StoreAtom(atom *particle.Atom) error {
	staged := make(map[[32]byte]entry)
	for _, group := range atom.Groups {
		for _, sp := range group {
			id := sp.Particle.ID()
			cur := s.GetSpin(sp.Particle)
			if e, ok := staged[id]; ok {
				cur = e.spin
			}
			next, err := spin.Next(cur)
			if err != nil {
				return fmt.Errorf("store: cannot advance particle %x past %v: %w", id, cur, err)
			}
			staged[id] = entry{spin: next, atomRef: atom}
		}
	}
	for id, e := range staged {
		s.entries[id] = e
	}
	return nil
}

// Supports implements EngineStore.
func (s *InMemoryEngineStore) Supports(destinations euid.Set) bool {
	if s.shardsFunc == nil {
		return true
	}
	return s.shardsFunc(destinations)
}

// DeleteAtom implements EngineStore. The in-memory store is append-only;
// this always fails with ErrUnsupportedOperation.
func (s *InMemoryEngineStore) DeleteAtom(atom *particle.Atom) error {
	return fmt.Errorf("%w: delete_atom", ErrUnsupportedOperation)
}
