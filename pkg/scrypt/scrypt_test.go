// Copyright 2025 Certen Protocol

package scrypt

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/certenlabs/cm-core/pkg/euid"
	"github.com/certenlabs/cm-core/pkg/particle"
	"github.com/certenlabs/cm-core/pkg/rri"
	"github.com/certenlabs/cm-core/pkg/spin"
	"github.com/certenlabs/cm-core/pkg/store"
)

var shard = euid.FromBytes([]byte("shard-0"))

type basicParticle struct {
	key  string
	dest euid.EUID
}

func (p basicParticle) ID() [32]byte {
	var out [32]byte
	copy(out[:], p.key)
	return out
}
func (basicParticle) Class() particle.ClassTag { return "Base" }
func (p basicParticle) Destinations() euid.Set {
	if p.dest == (euid.EUID{}) {
		return euid.NewSet(shard)
	}
	return euid.NewSet(p.dest)
}

func TestRegisterParticleWithRRINilMapper(t *testing.T) {
	env := New()
	err := env.RegisterParticleWithRRI("Base", nil, nil, nil)
	if !errors.Is(err, ErrNilRRIMapper) {
		t.Fatalf("want ErrNilRRIMapper, got %v", err)
	}
}

type emptyDestParticle struct{ key string }

func (p emptyDestParticle) ID() [32]byte {
	var out [32]byte
	copy(out[:], p.key)
	return out
}
func (emptyDestParticle) Class() particle.ClassTag { return "Base" }
func (emptyDestParticle) Destinations() euid.Set   { return euid.Set{} }

func TestRegisterParticleAllowsDeclaredDestinations(t *testing.T) {
	env := New()
	if err := env.RegisterParticle("Base", nil, nil); err != nil {
		t.Fatalf("unexpected error registering: %v", err)
	}
	m, err := env.Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	atom := &particle.Atom{
		ID:        uuid.New(),
		Witnesses: particle.NewWitnessBundle(),
		Groups: []particle.ParticleGroup{
			{{Particle: basicParticle{key: "a"}, TargetSpin: spin.UP}},
		},
	}
	st := store.NewInMemoryEngineStore(nil)
	if _, cmErr := m.Validate(atom, st); cmErr != nil {
		t.Fatalf("unexpected validation failure for a particle with a declared destination: %v", cmErr)
	}
}

func TestRegisterParticleRejectsEmptyDestinations(t *testing.T) {
	env := New()
	if err := env.RegisterParticle("Base", nil, nil); err != nil {
		t.Fatalf("unexpected error registering: %v", err)
	}
	m, err := env.Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	atom := &particle.Atom{
		ID:        uuid.New(),
		Witnesses: particle.NewWitnessBundle(),
		Groups: []particle.ParticleGroup{
			{{Particle: emptyDestParticle{key: "a"}, TargetSpin: spin.UP}},
		},
	}
	st := store.NewInMemoryEngineStore(nil)
	_, cmErr := m.Validate(atom, st)
	if cmErr == nil {
		t.Fatalf("expected a particle with no declared destinations to be rejected")
	}
}

func TestTransitionRoutineEnforcesRRIEquality(t *testing.T) {
	env := New()
	mapper := func(p particle.Particle) (rri.RRI, bool) {
		bp, ok := p.(basicParticle)
		if !ok {
			return rri.RRI{}, false
		}
		r, err := rri.New(common.Address{}, bp.key)
		if err != nil {
			return rri.RRI{}, false
		}
		return r, true
	}
	if err := env.RegisterParticleWithRRI("Base", nil, nil, mapper); err != nil {
		t.Fatalf("unexpected error registering: %v", err)
	}
	if err := CreateTransitionRoutine(env, "Base", "Base", nil, nil, nil); err != nil {
		t.Fatalf("unexpected error registering transition: %v", err)
	}
	m, err := env.Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}

	in := basicParticle{key: "alpha"}
	out := basicParticle{key: "beta"}
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
		t.Fatalf("expected an RRI mismatch between differently-named particles")
	}
}

func identityRRIMapper(p particle.Particle) (rri.RRI, bool) {
	rp, ok := p.(rri.Particle)
	if !ok {
		return rri.RRI{}, false
	}
	return rp.RRI, true
}

// mintedParticle is a domain particle carrying the RRI it was minted
// against, so its mapper can agree with the RRIParticle input's RRI.
type mintedParticle struct {
	resource rri.RRI
	dest     euid.EUID
}

func (p mintedParticle) ID() [32]byte {
	var out [32]byte
	copy(out[:], p.resource.Address[:])
	copy(out[20:], []byte(p.resource.Name))
	return out
}
func (mintedParticle) Class() particle.ClassTag { return "Minted" }
func (p mintedParticle) Destinations() euid.Set { return euid.NewSet(p.dest) }

func mintedRRIMapper(p particle.Particle) (rri.RRI, bool) {
	mp, ok := p.(mintedParticle)
	if !ok {
		return rri.RRI{}, false
	}
	return mp.resource, true
}

func buildMintEnv(t *testing.T) *Environment {
	t.Helper()
	env := New()
	if err := env.RegisterParticleWithRRI(rri.ClassTag, nil, nil, identityRRIMapper); err != nil {
		t.Fatalf("unexpected error registering RRIParticle: %v", err)
	}
	if err := env.RegisterParticleWithRRI("Minted", nil, nil, mintedRRIMapper); err != nil {
		t.Fatalf("unexpected error registering Minted: %v", err)
	}
	if err := CreateTransitionFromRRI(env, "Minted", nil, nil, nil); err != nil {
		t.Fatalf("unexpected error registering mint transition: %v", err)
	}
	return env
}

func TestCreateTransitionFromRRIMintsFromRRIParticle(t *testing.T) {
	env := buildMintEnv(t)
	m, err := env.Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}

	addr := common.Address{9}
	resource, err := rri.New(addr, "alpha")
	if err != nil {
		t.Fatalf("unexpected error building rri: %v", err)
	}
	dest := euid.FromBytes([]byte("shard-0"))
	rriParticle := rri.NewParticle(resource, 0, dest)
	minted := mintedParticle{resource: resource, dest: dest}

	st := store.NewInMemoryEngineStore(nil)
	atom := &particle.Atom{
		ID:        uuid.New(),
		Witnesses: particle.NewWitnessBundle(addr.Hex()),
		Groups: []particle.ParticleGroup{
			{
				{Particle: rriParticle, TargetSpin: spin.DOWN},
				{Particle: minted, TargetSpin: spin.UP},
			},
		},
	}
	if _, cmErr := m.Validate(atom, st); cmErr != nil {
		t.Fatalf("unexpected validation failure: %v", cmErr)
	}
}

func TestCreateTransitionFromRRIRejectsMissingSignature(t *testing.T) {
	env := buildMintEnv(t)
	m, err := env.Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}

	resource, err := rri.New(common.Address{9}, "alpha")
	if err != nil {
		t.Fatalf("unexpected error building rri: %v", err)
	}
	dest := euid.FromBytes([]byte("shard-0"))
	rriParticle := rri.NewParticle(resource, 0, dest)
	minted := mintedParticle{resource: resource, dest: dest}

	st := store.NewInMemoryEngineStore(nil)
	atom := &particle.Atom{
		ID:        uuid.New(),
		Witnesses: particle.NewWitnessBundle(),
		Groups: []particle.ParticleGroup{
			{
				{Particle: rriParticle, TargetSpin: spin.DOWN},
				{Particle: minted, TargetSpin: spin.UP},
			},
		},
	}
	if _, cmErr := m.Validate(atom, st); cmErr == nil {
		t.Fatalf("expected mint without the rri address's signature to fail")
	}
}

func TestCreateTransitionFromRRICombinedMergesTwoInputs(t *testing.T) {
	env := New()
	if err := env.RegisterParticle("Base", nil, nil); err != nil {
		t.Fatalf("unexpected error registering: %v", err)
	}
	if err := CreateTransitionFromRRICombined(env, "Base", "Base", nil, nil, nil); err != nil {
		t.Fatalf("unexpected error registering combined transition: %v", err)
	}
	m, err := env.Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}

	inA := basicParticle{key: "inA"}
	inB := basicParticle{key: "inB"}
	out := basicParticle{key: "out"}
	st := store.NewInMemoryEngineStore(nil)
	for _, p := range []basicParticle{inA, inB} {
		if err := st.StoreAtom(&particle.Atom{ID: uuid.New(), Groups: []particle.ParticleGroup{
			{{Particle: p, TargetSpin: spin.UP}},
		}}); err != nil {
			t.Fatalf("unexpected error seeding store: %v", err)
		}
	}

	atom := &particle.Atom{
		ID:        uuid.New(),
		Witnesses: particle.NewWitnessBundle(),
		Groups: []particle.ParticleGroup{
			{
				{Particle: inA, TargetSpin: spin.DOWN},
				{Particle: out, TargetSpin: spin.UP},
			},
			{
				{Particle: inB, TargetSpin: spin.DOWN},
			},
		},
	}
	if _, cmErr := m.Validate(atom, st); cmErr != nil {
		t.Fatalf("unexpected validation failure: %v", cmErr)
	}
}
