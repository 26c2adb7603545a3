package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Every trip_legs column is TEXT: the table holds the snapshot rows verbatim
// and typing is the codec's job.
const schema = `
CREATE TABLE IF NOT EXISTS trip_legs (
    position INTEGER PRIMARY KEY,
    id TEXT NOT NULL,
    date TEXT NOT NULL,
    direction TEXT NOT NULL,
    driver TEXT NOT NULL,
    passengers TEXT NOT NULL,
    fare_per_leg TEXT NOT NULL,
    vehicle TEXT NOT NULL,
    notes TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_saves (
    id TEXT PRIMARY KEY,
    saved_at INTEGER NOT NULL,
    row_count INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshot_saves_saved_at ON snapshot_saves(saved_at);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
