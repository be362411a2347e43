// Copyright 2025 Certen Protocol

package zkwitness

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// Prover compiles CommitmentCircuit once and reuses the resulting
// proving/verifying key pair across every Prove/Verify call, mirroring
// BLSZKProver's compile-once-reuse-many lifecycle.
type Prover struct {
	mu sync.RWMutex
	cs constraint.ConstraintSystem
	pk groth16.ProvingKey
	vk groth16.VerifyingKey
}

// NewProver compiles the circuit and runs the Groth16 trusted setup.
func NewProver() (*Prover, error) {
	var circuit CommitmentCircuit
	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
	if err != nil {
		return nil, fmt.Errorf("zkwitness: compile circuit: %w", err)
	}
	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return nil, fmt.Errorf("zkwitness: groth16 setup: %w", err)
	}
	return &Prover{cs: cs, pk: pk, vk: vk}, nil
}

// NewProverFromKeys rebuilds a Prover around an already-compiled circuit
// and an already-generated key pair, for the CLI setup tool's consumers
// that load keys from disk instead of re-running Setup.
func NewProverFromKeys(cs constraint.ConstraintSystem, pk groth16.ProvingKey, vk groth16.VerifyingKey) *Prover {
	return &Prover{cs: cs, pk: pk, vk: vk}
}

// VerifyingKey exposes the prover's verifying key for serialization by
// cmd/cmzksetup.
func (p *Prover) VerifyingKey() groth16.VerifyingKey {
	return p.vk
}

// ProvingKey exposes the prover's proving key for serialization by
// cmd/cmzksetup.
func (p *Prover) ProvingKey() groth16.ProvingKey {
	return p.pk
}

// ConstraintSystem exposes the compiled circuit for serialization.
func (p *Prover) ConstraintSystem() constraint.ConstraintSystem {
	return p.cs
}

// Proof is a generated Groth16 proof plus the public inputs it was
// produced against.
type Proof struct {
	proof      groth16.Proof
	commitment *big.Int
	salt       *big.Int
}

// commitmentOf mirrors CommitmentCircuit.Define's
// fixed-coefficient polynomial off-circuit, so Prove can compute the
// public commitment without a second circuit evaluation.
func commitmentOf(secret, salt *big.Int) *big.Int {
	r := big.NewInt(11)
	r2 := new(big.Int).Mul(r, r)
	term1 := new(big.Int).Mul(secret, r2)
	term2 := new(big.Int).Mul(salt, r)
	return new(big.Int).Add(term1, term2)
}

// Prove produces a proof that the caller knows secret, bound to salt.
func (p *Prover) Prove(secret, salt *big.Int) (*Proof, error) {
	commitment := commitmentOf(secret, salt)
	assignment := &CommitmentCircuit{Commitment: commitment, Salt: salt, Secret: secret}
	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("zkwitness: build witness: %w", err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	proof, err := groth16.Prove(p.cs, p.pk, w)
	if err != nil {
		return nil, fmt.Errorf("zkwitness: prove: %w", err)
	}
	return &Proof{proof: proof, commitment: commitment, salt: salt}, nil
}

// Verify checks pr against the prover's verifying key.
func (p *Prover) Verify(pr *Proof) error {
	assignment := &CommitmentCircuit{Commitment: pr.commitment, Salt: pr.salt}
	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("zkwitness: build public witness: %w", err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if err := groth16.Verify(pr.proof, p.vk, w); err != nil {
		return fmt.Errorf("zkwitness: verify: %w", err)
	}
	return nil
}

// Fingerprint returns the hex encoding of pr's public commitment, the
// string a Bundle indexes verified proofs by.
func Fingerprint(pr *Proof) string {
	return hex.EncodeToString(pr.commitment.Bytes())
}
