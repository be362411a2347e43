// Copyright 2025 Certen Protocol
//
// cmvalidate CLI
// Loads a JSON-encoded atom, validates it against the testscrypt reference
// machine and an empty (or seeded) in-memory engine store, and prints
// either the resulting ApplicationResult or the rejecting CMError.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/certenlabs/cm-core/internal/testscrypt"
	"github.com/certenlabs/cm-core/pkg/euid"
	"github.com/certenlabs/cm-core/pkg/particle"
	"github.com/certenlabs/cm-core/pkg/rri"
	"github.com/certenlabs/cm-core/pkg/spin"
	"github.com/certenlabs/cm-core/pkg/store"
)

// wireParticle is the JSON shape of one testscrypt.BaseParticle.
type wireParticle struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Nonce   uint64 `json:"nonce"`
	Dest    string `json:"dest"`
}

type wireSpunParticle struct {
	Particle wireParticle `json:"particle"`
	Spin     string       `json:"spin"`
}

type wireAtom struct {
	Groups    [][]wireSpunParticle `json:"groups"`
	Witnesses []string             `json:"witnesses"`
}

func toBaseParticle(w wireParticle) (testscrypt.BaseParticle, error) {
	r, err := rri.New(common.HexToAddress(w.Address), w.Name)
	if err != nil {
		return testscrypt.BaseParticle{}, fmt.Errorf("particle %q: %w", w.Name, err)
	}
	return testscrypt.BaseParticle{Resource: r, Nonce: w.Nonce, Dest: euid.FromBytes([]byte(w.Dest))}, nil
}

func toSpin(s string) (spin.Spin, error) {
	switch s {
	case "UP":
		return spin.UP, nil
	case "DOWN":
		return spin.DOWN, nil
	default:
		return spin.NEUTRAL, fmt.Errorf("invalid spin %q, expected UP or DOWN", s)
	}
}

func toAtom(w wireAtom) (*particle.Atom, error) {
	groups := make([]particle.ParticleGroup, 0, len(w.Groups))
	for _, wg := range w.Groups {
		group := make(particle.ParticleGroup, 0, len(wg))
		for _, wsp := range wg {
			p, err := toBaseParticle(wsp.Particle)
			if err != nil {
				return nil, err
			}
			target, err := toSpin(wsp.Spin)
			if err != nil {
				return nil, err
			}
			group = append(group, particle.SpunParticle{Particle: p, TargetSpin: target})
		}
		groups = append(groups, group)
	}
	return &particle.Atom{
		ID:        uuid.New(),
		Groups:    groups,
		Witnesses: particle.NewWitnessBundle(w.Witnesses...),
	}, nil
}

func main() {
	atomPath := flag.String("atom", "", "path to a JSON-encoded atom (required)")
	seed := flag.Bool("seed-inputs", false, "store every DOWN-targeted particle as UP before validating")
	flag.Parse()

	if *atomPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -atom is required")
		os.Exit(1)
	}
	if err := run(*atomPath, *seed); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(atomPath string, seed bool) error {
	raw, err := os.ReadFile(atomPath)
	if err != nil {
		return fmt.Errorf("read atom file: %w", err)
	}
	var w wireAtom
	if err := json.Unmarshal(raw, &w); err != nil {
		return fmt.Errorf("parse atom json: %w", err)
	}
	atom, err := toAtom(w)
	if err != nil {
		return fmt.Errorf("decode atom: %w", err)
	}

	machine, err := testscrypt.Build()
	if err != nil {
		return fmt.Errorf("build machine: %w", err)
	}

	st := store.NewInMemoryEngineStore(nil)
	if seed {
		for _, group := range atom.Groups {
			for _, sp := range group {
				if sp.TargetSpin != spin.DOWN {
					continue
				}
				if err := st.StoreAtom(&particle.Atom{ID: uuid.New(), Groups: []particle.ParticleGroup{
					{{Particle: sp.Particle, TargetSpin: spin.UP}},
				}}); err != nil {
					return fmt.Errorf("seed input: %w", err)
				}
			}
		}
	}

	result, cmErr := machine.Validate(atom, st)
	if cmErr != nil {
		fmt.Printf("rejected: %s\n", cmErr.Error())
		if cmErr.Pointer != nil {
			fmt.Printf("at group %d, particle %d\n", cmErr.Pointer.GroupIndex, cmErr.Pointer.ParticleIndex)
		}
		os.Exit(1)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
