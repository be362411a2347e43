// Copyright 2025 Certen Protocol
//
// Package postgres implements a durable store.EngineStore backed by
// PostgreSQL: parameterized queries via QueryRowContext/ExecContext,
// context.Context on every call, sentinel errors plus fmt.Errorf
// wrapping. It exists to demonstrate the store contract against a real
// SQL backend; the in-memory store remains the one the core's own tests
// exercise.
//
// A particle's own content is opaque to the engine (pkg/particle.Particle
// only exposes ID/Class/Destinations), so this store persists identity and
// spin, not particle content: GetAtomContaining returns an Atom carrying
// only its ID, not its original groups. A deployment that needs full atom
// replay from Postgres supplies its own content table keyed by atom id,
// the same way internal/abci's AtomCodec keeps particle-class knowledge
// out of the harness.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/certenlabs/cm-core/pkg/euid"
	"github.com/certenlabs/cm-core/pkg/particle"
	"github.com/certenlabs/cm-core/pkg/spin"
	"github.com/certenlabs/cm-core/pkg/store"
)

const defaultPingTimeout = 10 * time.Second

// ErrClosed is returned once the store has been closed.
var ErrClosed = errors.New("postgres: store closed")

// Schema is the DDL a deployment runs once before using Store. It is not
// applied automatically: migrations are an operational concern outside
// the core.
const Schema = `
CREATE TABLE IF NOT EXISTS cm_particles (
	particle_id BYTEA PRIMARY KEY,
	spin        SMALLINT NOT NULL,
	atom_id     UUID NOT NULL
);
`

// Store is a store.EngineStore backed by a *sql.DB using the lib/pq
// driver. It is safe for concurrent reads; StoreAtom callers must
// serialize commits, same as InMemoryEngineStore.
type Store struct {
	db         *sql.DB
	logger     *log.Logger
	shardsFunc func(euid.Set) bool
	closed     bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger overrides the default bracketed logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithShardsFunc overrides Supports' membership test; a nil func (the
// default) makes Supports always return true.
func WithShardsFunc(fn func(euid.Set) bool) Option {
	return func(s *Store) { s.shardsFunc = fn }
}

// Open connects to dsn and returns a ready Store. Callers must run Schema
// against the target database (or an equivalent migration) beforehand.
func Open(dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	s := &Store{
		db:     db,
		logger: log.New(log.Writer(), "[PostgresStore] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(s)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultPingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	s.closed = true
	return s.db.Close()
}

// GetSpin implements store.EngineStore.
func (s *Store) GetSpin(p particle.Particle) spin.Spin {
	id := p.ID()
	var raw int16
	err := s.db.QueryRow(`SELECT spin FROM cm_particles WHERE particle_id = $1`, id[:]).Scan(&raw)
	if err != nil {
		return spin.NEUTRAL
	}
	return spin.Spin(raw)
}

// GetAtomContaining implements store.EngineStore.
func (s *Store) GetAtomContaining(p particle.Particle, isInput bool) (*particle.Atom, error) {
	id := p.ID()
	var atomID uuid.UUID
	err := s.db.QueryRow(`SELECT atom_id FROM cm_particles WHERE particle_id = $1`, id[:]).Scan(&atomID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: particle %x", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get atom containing: %w", err)
	}
	return &particle.Atom{ID: atomID}, nil
}

// StoreAtom implements store.EngineStore: every push in atom is upserted
// inside a single transaction so a partial failure leaves no particle
// advanced without its siblings.
func (s *Store) StoreAtom(atom *particle.Atom) error {
	if s.closed {
		return ErrClosed
	}
	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, group := range atom.Groups {
		for _, sp := range group {
			id := sp.Particle.ID()
			cur := s.currentSpin(ctx, tx, id)
			next, err := spin.Next(cur)
			if err != nil {
				return fmt.Errorf("postgres: cannot advance particle %x past %v: %w", id, cur, err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO cm_particles (particle_id, spin, atom_id)
				VALUES ($1, $2, $3)
				ON CONFLICT (particle_id) DO UPDATE SET spin = EXCLUDED.spin, atom_id = EXCLUDED.atom_id
			`, id[:], int16(next), atom.ID)
			if err != nil {
				return fmt.Errorf("postgres: upsert particle %x: %w", id, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	s.logger.Printf("stored atom %s", atom.ID)
	return nil
}

func (s *Store) currentSpin(ctx context.Context, tx *sql.Tx, id [32]byte) spin.Spin {
	var raw int16
	err := tx.QueryRowContext(ctx, `SELECT spin FROM cm_particles WHERE particle_id = $1 FOR UPDATE`, id[:]).Scan(&raw)
	if err != nil {
		return spin.NEUTRAL
	}
	return spin.Spin(raw)
}

// Supports implements store.EngineStore.
func (s *Store) Supports(destinations euid.Set) bool {
	if s.shardsFunc == nil {
		return true
	}
	return s.shardsFunc(destinations)
}

// DeleteAtom implements store.EngineStore. Like the in-memory store, the
// core is append-only with respect to accepted atoms.
func (s *Store) DeleteAtom(atom *particle.Atom) error {
	return fmt.Errorf("%w: delete_atom", store.ErrUnsupportedOperation)
}
