// Copyright 2025 Certen Protocol

package testscrypt

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/certenlabs/cm-core/pkg/euid"
	"github.com/certenlabs/cm-core/pkg/particle"
	"github.com/certenlabs/cm-core/pkg/rri"
	"github.com/certenlabs/cm-core/pkg/spin"
	"github.com/certenlabs/cm-core/pkg/store"
)

func TestBuildValidatesRRINonceAdvance(t *testing.T) {
	m, err := Build()
	if err != nil {
		t.Fatalf("unexpected error building machine: %v", err)
	}

	dest := euid.FromBytes([]byte("shard-0"))
	resource, err := rri.New(common.Address{1}, "Widget")
	if err != nil {
		t.Fatalf("unexpected error building rri: %v", err)
	}

	in := BaseParticle{Resource: resource, Nonce: 0, Dest: dest}
	out := BaseParticle{Resource: resource, Nonce: 1, Dest: dest}

	st := store.NewInMemoryEngineStore(nil)
	if err := st.StoreAtom(&particle.Atom{ID: uuid.New(), Groups: []particle.ParticleGroup{
		{{Particle: in, TargetSpin: spin.UP}},
	}}); err != nil {
		t.Fatalf("unexpected error seeding store: %v", err)
	}

	atom := &particle.Atom{
		ID:        uuid.New(),
		Witnesses: particle.NewWitnessBundle(),
		Groups: []particle.ParticleGroup{
			{
				{Particle: in, TargetSpin: spin.DOWN},
				{Particle: out, TargetSpin: spin.UP},
			},
		},
	}
	if _, cmErr := m.Validate(atom, st); cmErr != nil {
		t.Fatalf("unexpected validation failure: %v", cmErr)
	}
}

func TestBuildRejectsCrossResourceTransition(t *testing.T) {
	m, err := Build()
	if err != nil {
		t.Fatalf("unexpected error building machine: %v", err)
	}

	dest := euid.FromBytes([]byte("shard-0"))
	widget, err := rri.New(common.Address{1}, "Widget")
	if err != nil {
		t.Fatalf("unexpected error building rri: %v", err)
	}
	gadget, err := rri.New(common.Address{2}, "Gadget")
	if err != nil {
		t.Fatalf("unexpected error building rri: %v", err)
	}

	in := BaseParticle{Resource: widget, Nonce: 0, Dest: dest}
	out := BaseParticle{Resource: gadget, Nonce: 0, Dest: dest}

	st := store.NewInMemoryEngineStore(nil)
	if err := st.StoreAtom(&particle.Atom{ID: uuid.New(), Groups: []particle.ParticleGroup{
		{{Particle: in, TargetSpin: spin.UP}},
	}}); err != nil {
		t.Fatalf("unexpected error seeding store: %v", err)
	}

	atom := &particle.Atom{
		ID:        uuid.New(),
		Witnesses: particle.NewWitnessBundle(),
		Groups: []particle.ParticleGroup{
			{
				{Particle: in, TargetSpin: spin.DOWN},
				{Particle: out, TargetSpin: spin.UP},
			},
		},
	}
	_, cmErr := m.Validate(atom, st)
	if cmErr == nil {
		t.Fatalf("expected transitioning between two different RRIs to fail")
	}
}
