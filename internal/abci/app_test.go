// Copyright 2025 Certen Protocol

package abci

import (
	"context"
	"encoding/json"
	"testing"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	dbm "github.com/cometbft/cometbft-db"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/certenlabs/cm-core/internal/testscrypt"
	"github.com/certenlabs/cm-core/pkg/euid"
	"github.com/certenlabs/cm-core/pkg/particle"
	"github.com/certenlabs/cm-core/pkg/rri"
	"github.com/certenlabs/cm-core/pkg/spin"
	"github.com/certenlabs/cm-core/pkg/store"
)

// wireTx is the test codec's JSON transaction shape: a single transition
// from an existing testscrypt.BaseParticle nonce to the next one.
type wireTx struct {
	Name     string `json:"name"`
	FromNonce uint64 `json:"from_nonce"`
	ToNonce   uint64 `json:"to_nonce"`
}

type jsonCodec struct {
	dest euid.EUID
}

func (c jsonCodec) Decode(tx []byte) (*particle.Atom, error) {
	var w wireTx
	if err := json.Unmarshal(tx, &w); err != nil {
		return nil, err
	}
	resource, err := rri.New(common.Address{1}, w.Name)
	if err != nil {
		return nil, err
	}
	in := testscrypt.BaseParticle{Resource: resource, Nonce: w.FromNonce, Dest: c.dest}
	out := testscrypt.BaseParticle{Resource: resource, Nonce: w.ToNonce, Dest: c.dest}
	return &particle.Atom{
		ID:        uuid.New(),
		Witnesses: particle.NewWitnessBundle(),
		Groups: []particle.ParticleGroup{
			{
				{Particle: in, TargetSpin: spin.DOWN},
				{Particle: out, TargetSpin: spin.UP},
			},
		},
	}, nil
}

func newTestApp(t *testing.T) (*ConstraintApp, euid.EUID) {
	t.Helper()
	machine, err := testscrypt.Build()
	if err != nil {
		t.Fatalf("build machine: %v", err)
	}
	dest := euid.FromBytes([]byte("shard-0"))
	st := store.NewInMemoryEngineStore(nil)
	codec := jsonCodec{dest: dest}
	app := NewConstraintApp(machine, st, codec, NewRecoveryDB(dbm.NewMemDB()), "test-chain", nil)

	resource, err := rri.New(common.Address{1}, "Widget")
	if err != nil {
		t.Fatalf("build rri: %v", err)
	}
	seed := testscrypt.BaseParticle{Resource: resource, Nonce: 0, Dest: dest}
	if err := st.StoreAtom(&particle.Atom{ID: uuid.New(), Groups: []particle.ParticleGroup{
		{{Particle: seed, TargetSpin: spin.UP}},
	}}); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return app, dest
}

func TestCheckTxAcceptsValidTransition(t *testing.T) {
	app, _ := newTestApp(t)
	tx, _ := json.Marshal(wireTx{Name: "Widget", FromNonce: 0, ToNonce: 1})

	resp, err := app.CheckTx(context.Background(), &abcitypes.RequestCheckTx{Tx: tx})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Code != 0 {
		t.Fatalf("expected acceptance, got code %d: %s", resp.Code, resp.Log)
	}
}

func TestCheckTxRejectsUnknownInput(t *testing.T) {
	app, _ := newTestApp(t)
	tx, _ := json.Marshal(wireTx{Name: "Widget", FromNonce: 99, ToNonce: 100})

	resp, err := app.CheckTx(context.Background(), &abcitypes.RequestCheckTx{Tx: tx})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Code == 0 {
		t.Fatalf("expected rejection of a transition over a never-stored particle")
	}
}

func TestFinalizeBlockAndCommitPersistsAtom(t *testing.T) {
	app, _ := newTestApp(t)
	tx, _ := json.Marshal(wireTx{Name: "Widget", FromNonce: 0, ToNonce: 1})

	finalizeResp, err := app.FinalizeBlock(context.Background(), &abcitypes.RequestFinalizeBlock{Height: 1, Txs: [][]byte{tx}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(finalizeResp.TxResults) != 1 || finalizeResp.TxResults[0].Code != 0 {
		t.Fatalf("expected the single tx to be accepted, got %+v", finalizeResp.TxResults)
	}

	if _, err := app.Commit(context.Background(), &abcitypes.RequestCommit{}); err != nil {
		t.Fatalf("unexpected commit error: %v", err)
	}
	if app.latestHeight != 1 {
		t.Fatalf("expected height 1 after commit, got %d", app.latestHeight)
	}

	tx2, _ := json.Marshal(wireTx{Name: "Widget", FromNonce: 1, ToNonce: 2})
	resp, err := app.CheckTx(context.Background(), &abcitypes.RequestCheckTx{Tx: tx2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Code != 0 {
		t.Fatalf("expected a follow-on transition from the committed nonce to pass, got %s", resp.Log)
	}
}

func TestRestoreRecoversHeightAndHash(t *testing.T) {
	machine, err := testscrypt.Build()
	if err != nil {
		t.Fatalf("build machine: %v", err)
	}
	dest := euid.FromBytes([]byte("shard-0"))
	db := NewRecoveryDB(dbm.NewMemDB())
	st := store.NewInMemoryEngineStore(nil)
	codec := jsonCodec{dest: dest}

	app1 := NewConstraintApp(machine, st, codec, db, "test-chain", nil)
	if _, err := app1.Commit(context.Background(), &abcitypes.RequestCommit{}); err != nil {
		t.Fatalf("unexpected commit error: %v", err)
	}

	app2 := NewConstraintApp(machine, st, codec, db, "test-chain", nil)
	if app2.latestHeight != app1.latestHeight {
		t.Fatalf("expected restored height %d, got %d", app1.latestHeight, app2.latestHeight)
	}
}
