package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SnapshotStore persists room snapshots keyed by room code. Load
// returns (nil, nil) for a room that was never saved; a room restored
// from the store comes back cold, with every player marked offline
// until they reconnect.
type SnapshotStore interface {
	Load(ctx context.Context, code string) (*LobbyState, error)
	Save(ctx context.Context, code string, state *LobbyState) error
	Delete(ctx context.Context, code string) error
}

// memoryStore is the default store. Snapshots survive reconnects but
// not a server restart.
type memoryStore struct {
	mu    sync.RWMutex
	rooms map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{rooms: make(map[string][]byte)}
}

func (s *memoryStore) Load(_ context.Context, code string) (*LobbyState, error) {
	s.mu.RLock()
	raw, ok := s.rooms[code]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	state := &LobbyState{}
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, fmt.Errorf("decoding snapshot for room %s: %w", code, err)
	}
	return state, nil
}

func (s *memoryStore) Save(_ context.Context, code string, state *LobbyState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding snapshot for room %s: %w", code, err)
	}

	s.mu.Lock()
	s.rooms[code] = raw
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	delete(s.rooms, code)
	s.mu.Unlock()
	return nil
}

// postgresStore keeps one jsonb snapshot per room code, so rooms
// survive restarts when a database is configured.
type postgresStore struct {
	pool *pgxpool.Pool
}

func newPostgresStore(ctx context.Context, databaseURL string) (*postgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	_, err = pool.Exec(ctx, `
		create table if not exists kraken_rooms (
			code text primary key,
			snapshot jsonb not null,
			updated_at timestamptz not null default now()
		)`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating kraken_rooms table: %w", err)
	}

	return &postgresStore{pool: pool}, nil
}

func (s *postgresStore) Load(ctx context.Context, code string) (*LobbyState, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		"select snapshot from kraken_rooms where code = $1", code).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot for room %s: %w", code, err)
	}

	state := &LobbyState{}
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, fmt.Errorf("decoding snapshot for room %s: %w", code, err)
	}
	return state, nil
}

func (s *postgresStore) Save(ctx context.Context, code string, state *LobbyState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding snapshot for room %s: %w", code, err)
	}

	_, err = s.pool.Exec(ctx, `
		insert into kraken_rooms (code, snapshot, updated_at)
		values ($1, $2, now())
		on conflict (code) do update set snapshot = $2, updated_at = now()`,
		code, raw)
	if err != nil {
		return fmt.Errorf("saving snapshot for room %s: %w", code, err)
	}
	return nil
}

func (s *postgresStore) Delete(ctx context.Context, code string) error {
	if _, err := s.pool.Exec(ctx,
		"delete from kraken_rooms where code = $1", code); err != nil {
		return fmt.Errorf("deleting snapshot for room %s: %w", code, err)
	}
	return nil
}

func (s *postgresStore) Close() {
	s.pool.Close()
}
