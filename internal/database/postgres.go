package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/cx-tal-miterani/flight-seats-distributor/internal/ledger"
)

const snapshotID = 1

var ErrStaleSnapshot = errors.New("stored snapshot is newer")

// PoolConfig tunes the database/sql pool behind sqlx
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Connect opens Postgres through the pgx stdlib driver.
func Connect(ctx context.Context, databaseURL string, pool PoolConfig) (*sqlx.DB, error) {
	cfg, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	db, err := sqlx.ConnectContext(ctx, "pgx", stdlib.RegisterConnConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	return db, nil
}

// PostgresStore keeps the ledger snapshot in a single JSONB row
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the snapshot table if needed
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate ledger schema: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, or nil when none exists
func (s *PostgresStore) Load(ctx context.Context) (*ledger.State, error) {
	var row snapshotRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, version, state, updated_at
		FROM ledger_snapshots
		WHERE id = $1
	`, snapshotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load ledger snapshot: %w", err)
	}

	var state ledger.State
	if err := json.Unmarshal(row.State, &state); err != nil {
		return nil, fmt.Errorf("failed to decode ledger snapshot: %w", err)
	}
	return &state, nil
}

// Save upserts the snapshot. A row already holding a newer version is left
// alone and ErrStaleSnapshot is returned.
func (s *PostgresStore) Save(ctx context.Context, state *ledger.State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode ledger snapshot: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO ledger_snapshots (id, version, state, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE
		SET version = EXCLUDED.version, state = EXCLUDED.state, updated_at = NOW()
		WHERE ledger_snapshots.version < EXCLUDED.version
	`, snapshotID, int64(state.Version), payload)
	if err != nil {
		return fmt.Errorf("failed to save ledger snapshot: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save ledger snapshot: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: version %d", ErrStaleSnapshot, state.Version)
	}
	return nil
}
