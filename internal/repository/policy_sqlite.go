package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"TradeSim/internal/domain/models"
	domrepo "TradeSim/internal/domain/repository"
	"TradeSim/pkg/sqlite"
)

// PolicySchema creates the policies table.
var PolicySchema = []string{
	`CREATE TABLE IF NOT EXISTS policies (
    symbol      TEXT PRIMARY KEY,
    states      TEXT NOT NULL,
    state_count INTEGER NOT NULL,
    updated_at  TIMESTAMP NOT NULL
)`,
}

// SQLitePolicyStore keeps one row per symbol.
type SQLitePolicyStore struct {
	db *sql.DB
}

// NewSQLitePolicyStore migrates the schema and returns the store.
func NewSQLitePolicyStore(ctx context.Context, database *sqlite.Database) (*SQLitePolicyStore, error) {
	if err := database.Migrate(ctx, PolicySchema); err != nil {
		return nil, err
	}
	return &SQLitePolicyStore{db: database.DB()}, nil
}

func (s *SQLitePolicyStore) Load(ctx context.Context, symbol string) (models.PolicySnapshot, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT states FROM policies WHERE symbol = ?`, symbol).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domrepo.ErrPolicyNotFound
		}
		return nil, fmt.Errorf("query policy: %w", err)
	}
	snapshot := models.PolicySnapshot{}
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, fmt.Errorf("decode policy: %w", err)
	}
	return snapshot, nil
}

func (s *SQLitePolicyStore) Save(ctx context.Context, symbol string, snapshot models.PolicySnapshot) error {
	b, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode policy: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO policies (symbol, states, state_count, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(symbol) DO UPDATE SET
    states = excluded.states,
    state_count = excluded.state_count,
    updated_at = excluded.updated_at`,
		symbol, string(b), len(snapshot), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert policy: %w", err)
	}
	return nil
}
