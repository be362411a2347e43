// Copyright 2025 Certen Protocol
//
// ABCI Application for the Constraint Engine Validator Node
// Wraps the constraint machine as the transaction-validation core of a
// CometBFT-driven ledger: CheckTx and FinalizeBlock both call
// cm.Machine.Validate, and Commit is the only place an atom is actually
// written to the engine store.

package abci

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"log"
	"sync"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/certenlabs/cm-core/pkg/cm"
	"github.com/certenlabs/cm-core/pkg/particle"
	"github.com/certenlabs/cm-core/pkg/store"
)

// RecoveryStore is the minimal durable KV surface the harness needs to
// survive a restart: last committed height and app hash. RecoveryDB
// satisfies this over any cometbft-db backend (memdb, goleveldb, badger).
type RecoveryStore interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
}

// AtomCodec decodes a raw transaction into an atom. The harness is otherwise agnostic to which scrypt's particle
// classes a deployment registers; the codec is the one place that
// knowledge lives.
type AtomCodec interface {
	Decode(tx []byte) (*particle.Atom, error)
}

var (
	lastHeightKey = []byte("constraint_app/last_height")
	lastHashKey   = []byte("constraint_app/last_hash")
)

// ConstraintApp implements abcitypes.Application. It holds no business
// logic of its own beyond ABCI plumbing: every admission decision is
// m.machine.Validate, and every write is m.store.StoreAtom.
type ConstraintApp struct {
	logger *log.Logger

	mu       sync.RWMutex
	machine  *cm.Machine
	store    store.EngineStore
	codec    AtomCodec
	recovery RecoveryStore
	chainID  string

	latestHeight int64
	lastAppHash  []byte
	pendingAtoms []*particle.Atom

	metricValidated prometheus.Counter
	metricRejected  *prometheus.CounterVec
}

// NewConstraintApp builds a ConstraintApp and restores its last committed
// height/app-hash from recovery on construction.
func NewConstraintApp(machine *cm.Machine, engineStore store.EngineStore, codec AtomCodec, recovery RecoveryStore, chainID string, reg prometheus.Registerer) *ConstraintApp {
	app := &ConstraintApp{
		logger:   log.New(log.Writer(), "[ConstraintApp] ", log.LstdFlags),
		machine:  machine,
		store:    engineStore,
		codec:    codec,
		recovery: recovery,
		chainID:  chainID,
		metricValidated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cm_atoms_validated_total",
			Help: "Atoms that passed constraint machine validation.",
		}),
		metricRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cm_atoms_rejected_total",
			Help: "Atoms rejected by constraint machine validation, by CMError kind.",
		}, []string{"kind"}),
	}
	if reg != nil {
		reg.MustRegister(app.metricValidated, app.metricRejected)
	}
	app.restore()
	return app
}

func (app *ConstraintApp) restore() {
	if app.recovery == nil {
		return
	}
	heightBytes, err := app.recovery.Get(lastHeightKey)
	if err != nil || len(heightBytes) != 8 {
		return
	}
	hash, err := app.recovery.Get(lastHashKey)
	if err != nil {
		return
	}
	app.latestHeight = int64(binary.BigEndian.Uint64(heightBytes))
	app.lastAppHash = hash
	app.logger.Printf("restored height=%d appHash=%x", app.latestHeight, app.lastAppHash)
}

func (app *ConstraintApp) persist() error {
	if app.recovery == nil {
		return nil
	}
	var heightBytes [8]byte
	binary.BigEndian.PutUint64(heightBytes[:], uint64(app.latestHeight))
	if err := app.recovery.Set(lastHeightKey, heightBytes[:]); err != nil {
		return fmt.Errorf("persist height: %w", err)
	}
	if err := app.recovery.Set(lastHashKey, app.lastAppHash); err != nil {
		return fmt.Errorf("persist hash: %w", err)
	}
	return nil
}

// validate decodes tx and runs it through the constraint machine against
// the current store (not the virtualized-at-commit-time pending set);
// callers (CheckTx, FinalizeBlock) decide whether a rejected atom is a
// hard error or simply excluded from the block.
func (app *ConstraintApp) validate(tx []byte) (*particle.Atom, *cm.ApplicationResult, *cm.CMError) {
	atom, err := app.codec.Decode(tx)
	if err != nil {
		return nil, nil, &cm.CMError{Kind: cm.UnsupportedOperation, Message: err.Error()}
	}
	result, cmErr := app.machine.Validate(atom, app.store)
	if cmErr != nil {
		app.metricRejected.WithLabelValues(string(cmErr.Kind)).Inc()
		return atom, nil, cmErr
	}
	app.metricValidated.Inc()
	return atom, result, nil
}

// Info implements abcitypes.Application.
func (app *ConstraintApp) Info(ctx context.Context, req *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return &abcitypes.ResponseInfo{
		Data:             "Constraint Engine Validator",
		Version:          "1.0.0",
		AppVersion:       1,
		LastBlockHeight:  app.latestHeight,
		LastBlockAppHash: app.lastAppHash,
	}, nil
}

// InitChain implements abcitypes.Application.
func (app *ConstraintApp) InitChain(ctx context.Context, req *abcitypes.RequestInitChain) (*abcitypes.ResponseInitChain, error) {
	app.logger.Printf("initializing chain %s", req.ChainId)
	return &abcitypes.ResponseInitChain{}, nil
}

// CheckTx implements abcitypes.Application: a pure, bounded admission
// check with no store mutation.
func (app *ConstraintApp) CheckTx(ctx context.Context, req *abcitypes.RequestCheckTx) (*abcitypes.ResponseCheckTx, error) {
	app.mu.RLock()
	defer app.mu.RUnlock()

	_, _, cmErr := app.validate(req.Tx)
	if cmErr != nil {
		return &abcitypes.ResponseCheckTx{Code: 1, Log: cmErr.Error()}, nil
	}
	return &abcitypes.ResponseCheckTx{Code: 0, GasWanted: 1, GasUsed: 1, Log: "atom validation passed"}, nil
}

// FinalizeBlock implements abcitypes.Application. Every valid atom is
// queued in pendingAtoms; Commit is what actually calls StoreAtom, so a
// block that never commits never mutates the store.
func (app *ConstraintApp) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	app.pendingAtoms = app.pendingAtoms[:0]
	results := make([]*abcitypes.ExecTxResult, len(req.Txs))
	for i, tx := range req.Txs {
		atom, _, cmErr := app.validate(tx)
		if cmErr != nil {
			results[i] = &abcitypes.ExecTxResult{Code: 1, Log: cmErr.Error()}
			continue
		}
		app.pendingAtoms = append(app.pendingAtoms, atom)
		results[i] = &abcitypes.ExecTxResult{Code: 0, Log: "atom accepted"}
	}
	app.logger.Printf("finalized height=%d accepted=%d/%d", req.Height, len(app.pendingAtoms), len(req.Txs))
	return &abcitypes.ResponseFinalizeBlock{TxResults: results}, nil
}

// Commit implements abcitypes.Application: the one place pendingAtoms is
// written through to the engine store.
func (app *ConstraintApp) Commit(ctx context.Context, req *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	for _, atom := range app.pendingAtoms {
		if err := app.store.StoreAtom(atom); err != nil {
			app.logger.Printf("store atom %s failed: %v", atom.ID, err)
		}
	}
	app.pendingAtoms = nil
	app.latestHeight++
	app.lastAppHash = app.computeAppHash()

	if err := app.persist(); err != nil {
		app.logger.Printf("persist recovery state: %v", err)
	}
	app.logger.Printf("committed height=%d appHash=%x", app.latestHeight, app.lastAppHash)
	return &abcitypes.ResponseCommit{}, nil
}

// computeAppHash folds the running app hash with the height, a minimal
// deterministic chaining scheme adequate for recovery identity; the
// engine store itself carries no merkle commitment.
func (app *ConstraintApp) computeAppHash() []byte {
	var buf [16]byte
	copy(buf[:8], app.lastAppHash)
	binary.BigEndian.PutUint64(buf[8:], uint64(app.latestHeight))
	sum := sha256.Sum256(buf[:])
	return sum[:]
}

// Query implements abcitypes.Application.
func (app *ConstraintApp) Query(ctx context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error) {
	app.mu.RLock()
	defer app.mu.RUnlock()
	switch req.Path {
	case "/latest_height":
		return &abcitypes.ResponseQuery{Code: 0, Value: []byte(fmt.Sprintf("%d", app.latestHeight))}, nil
	default:
		return &abcitypes.ResponseQuery{Code: 1, Log: "unknown query path: " + req.Path}, nil
	}
}

// PrepareProposal implements abcitypes.Application: accept every
// transaction as-is, trusting the proposer and leaving rejection to
// ProcessProposal/CheckTx.
func (app *ConstraintApp) PrepareProposal(ctx context.Context, req *abcitypes.RequestPrepareProposal) (*abcitypes.ResponsePrepareProposal, error) {
	return &abcitypes.ResponsePrepareProposal{Txs: req.Txs}, nil
}

// ProcessProposal implements abcitypes.Application: reject a proposal
// outright if any transaction fails to decode or validate.
func (app *ConstraintApp) ProcessProposal(ctx context.Context, req *abcitypes.RequestProcessProposal) (*abcitypes.ResponseProcessProposal, error) {
	app.mu.RLock()
	defer app.mu.RUnlock()
	for _, tx := range req.Txs {
		if _, _, cmErr := app.validate(tx); cmErr != nil {
			return &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}, nil
		}
	}
	return &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_ACCEPT}, nil
}

// ExtendVote implements abcitypes.Application.
func (app *ConstraintApp) ExtendVote(ctx context.Context, req *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

// VerifyVoteExtension implements abcitypes.Application.
func (app *ConstraintApp) VerifyVoteExtension(ctx context.Context, req *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{Status: abcitypes.ResponseVerifyVoteExtension_ACCEPT}, nil
}

// ListSnapshots implements abcitypes.Application: the engine store has
// no snapshot support, so the harness advertises none.
func (app *ConstraintApp) ListSnapshots(ctx context.Context, req *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return &abcitypes.ResponseListSnapshots{}, nil
}

// OfferSnapshot implements abcitypes.Application.
func (app *ConstraintApp) OfferSnapshot(ctx context.Context, req *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return &abcitypes.ResponseOfferSnapshot{Result: abcitypes.ResponseOfferSnapshot_ABORT}, nil
}

// LoadSnapshotChunk implements abcitypes.Application.
func (app *ConstraintApp) LoadSnapshotChunk(ctx context.Context, req *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return &abcitypes.ResponseLoadSnapshotChunk{}, nil
}

// ApplySnapshotChunk implements abcitypes.Application.
func (app *ConstraintApp) ApplySnapshotChunk(ctx context.Context, req *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return &abcitypes.ResponseApplySnapshotChunk{Result: abcitypes.ResponseApplySnapshotChunk_ABORT}, nil
}
