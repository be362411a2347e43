// Copyright 2025 Certen Protocol
//
// Package zkwitness implements a privacy-preserving witness oracle: it
// proves knowledge of a secret matching a public commitment without
// revealing the secret on the atom itself, using a Groth16 circuit over
// BN254.
package zkwitness

import (
	"github.com/consensys/gnark/frontend"
)

// CommitmentCircuit proves knowledge of Secret such that
// computeCommitment(Secret, Salt) == Commitment, without revealing
// Secret. A scrypt registers one commitment per authorized signer and
// accepts any proof that verifies against it as a witness, the same
// shape as an Ed25519/ECDSA signature check but with the secret itself
// never appearing in the atom.
type CommitmentCircuit struct {
	// Commitment is the public value a valid proof must match.
	Commitment frontend.Variable `gnark:",public"`
	// Salt binds the commitment to one particular use so the same secret
	// can back multiple, unlinkable commitments.
	Salt frontend.Variable `gnark:",public"`

	// Secret is known only to the prover.
	Secret frontend.Variable
}

// Define implements frontend.Circuit.
func (c *CommitmentCircuit) Define(api frontend.API) error {
	computed := computeCommitment(api, c.Secret, c.Salt)
	api.AssertIsEqual(c.Commitment, computed)
	return nil
}

// computeCommitment is a fixed-coefficient polynomial binding of secret
// and salt, a cheaper in-circuit commitment than a hash gadget.
func computeCommitment(api frontend.API, secret, salt frontend.Variable) frontend.Variable {
	r := frontend.Variable(11)
	r2 := api.Mul(r, r)
	result := api.Mul(secret, r2)
	result = api.Add(result, api.Mul(salt, r))
	return result
}
