// Copyright 2025 Certen Protocol
//
// cmzksetup CLI
// Generates the Groth16 proving/verifying key pair for the zero-knowledge
// witness circuit and writes both to disk.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/certenlabs/cm-core/internal/witness/zkwitness"
)

func main() {
	provingKeyPath := flag.String("pk", "cmzk.pk", "output path for the Groth16 proving key")
	verifyingKeyPath := flag.String("vk", "cmzk.vk", "output path for the Groth16 verifying key")
	flag.Parse()

	if err := run(*provingKeyPath, *verifyingKeyPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(provingKeyPath, verifyingKeyPath string) error {
	prover, err := zkwitness.NewProver()
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	pkFile, err := os.Create(provingKeyPath)
	if err != nil {
		return fmt.Errorf("create proving key file: %w", err)
	}
	defer pkFile.Close()
	if _, err := prover.ProvingKey().WriteTo(pkFile); err != nil {
		return fmt.Errorf("write proving key: %w", err)
	}

	vkFile, err := os.Create(verifyingKeyPath)
	if err != nil {
		return fmt.Errorf("create verifying key file: %w", err)
	}
	defer vkFile.Close()
	if _, err := prover.VerifyingKey().WriteTo(vkFile); err != nil {
		return fmt.Errorf("write verifying key: %w", err)
	}

	fmt.Printf("wrote proving key to %s and verifying key to %s\n", provingKeyPath, verifyingKeyPath)
	return nil
}
