package database

import "time"

// snapshotRow is the single row of ledger_snapshots
type snapshotRow struct {
	ID        int       `db:"id"`
	Version   int64     `db:"version"`
	State     []byte    `db:"state"`
	UpdatedAt time.Time `db:"updated_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS ledger_snapshots (
	id         INTEGER PRIMARY KEY,
	version    BIGINT NOT NULL,
	state      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
