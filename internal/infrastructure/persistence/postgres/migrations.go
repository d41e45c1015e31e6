package postgres

// GetMigrations returns all embedded migrations in version order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_normalization_batches", UpSQL: migration001Up},
		{Version: 2, Name: "create_normalized_timestamps", UpSQL: migration002Up},
		{Version: 3, Name: "store_raw_input_bytes", UpSQL: migration003Up},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE NORMALIZATION BATCHES
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS normalization_batches (
    id UUID PRIMARY KEY,
    source TEXT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL,
    total INTEGER NOT NULL CHECK (total >= 0),
    matched INTEGER NOT NULL CHECK (matched >= 0 AND matched <= total)
);

CREATE INDEX IF NOT EXISTS idx_normalization_batches_created_at
    ON normalization_batches (created_at DESC);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE NORMALIZED TIMESTAMPS
// ══════════════════════════════════════════════════════════════════════════════

// Calendar columns are NULL for unmatched lines. nanosecond is NULL when the
// input had no fraction, utc_offset (seconds east of UTC) when it was naive.
// instant is only set for offset-bearing timestamps.
const migration002Up = `
CREATE TABLE IF NOT EXISTS normalized_timestamps (
    batch_id UUID NOT NULL REFERENCES normalization_batches (id) ON DELETE CASCADE,
    position INTEGER NOT NULL CHECK (position >= 0),
    input TEXT NOT NULL,
    matched BOOLEAN NOT NULL,

    year INTEGER,
    month INTEGER,
    day INTEGER,
    hour INTEGER,
    minute INTEGER,
    second INTEGER,
    nanosecond INTEGER,
    utc_offset INTEGER,

    canonical TEXT,
    instant TIMESTAMP WITH TIME ZONE,

    PRIMARY KEY (batch_id, position),
    CHECK (matched = (year IS NOT NULL))
);

CREATE INDEX IF NOT EXISTS idx_normalized_timestamps_instant
    ON normalized_timestamps (instant)
    WHERE instant IS NOT NULL;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: STORE RAW INPUT BYTES
// ══════════════════════════════════════════════════════════════════════════════

// Input lines are arbitrary bytes. TEXT rejects NUL and invalid UTF-8, which
// failed the whole COPY for a batch holding one such line.
const migration003Up = `
ALTER TABLE normalized_timestamps
    ALTER COLUMN input TYPE BYTEA USING convert_to(input, 'UTF8');
`
