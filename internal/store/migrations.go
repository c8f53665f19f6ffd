package store

import (
	"context"
	"fmt"
	"time"
)

type migration struct {
	Version     int
	Description string
	SQLite      string
	Postgres    string
}

func (m migration) sql(d Dialect) string {
	if d == DialectPostgres {
		return m.Postgres
	}
	return m.SQLite
}

// The CHECK constraints mirror artifact.ValidateScores so a buggy writer
// cannot persist an out-of-range score.
var migrations = []migration{
	{
		Version:     1,
		Description: "artifacts: archive records with decay and support state",
		SQLite: `
CREATE TABLE artifacts (
    id                INTEGER PRIMARY KEY,
    title             TEXT NOT NULL,
    type              TEXT NOT NULL,
    description       TEXT NOT NULL,
    image_url         TEXT NOT NULL,
    tags              TEXT NOT NULL DEFAULT '[]',

    extinction_risk   INTEGER NOT NULL CHECK (extinction_risk BETWEEN 0 AND 100),
    fade_level        INTEGER NOT NULL DEFAULT 0 CHECK (fade_level BETWEEN 0 AND 100),
    support_count     INTEGER NOT NULL DEFAULT 0 CHECK (support_count >= 0),
    ai_narrative      TEXT,

    created_at        INTEGER NOT NULL,
    last_supported_at INTEGER NOT NULL,
    token_id          TEXT,
    rarity            TEXT,

    CHECK (support_count = 0 OR extinction_risk >= 5),
    CHECK (last_supported_at >= created_at)
);

CREATE INDEX idx_artifacts_created ON artifacts(created_at DESC);
CREATE INDEX idx_artifacts_fade    ON artifacts(fade_level DESC);
`,
		Postgres: `
CREATE TABLE artifacts (
    id                BIGSERIAL PRIMARY KEY,
    title             TEXT NOT NULL,
    type              TEXT NOT NULL,
    description       TEXT NOT NULL,
    image_url         TEXT NOT NULL,
    tags              TEXT NOT NULL DEFAULT '[]',

    extinction_risk   INTEGER NOT NULL CHECK (extinction_risk BETWEEN 0 AND 100),
    fade_level        INTEGER NOT NULL DEFAULT 0 CHECK (fade_level BETWEEN 0 AND 100),
    support_count     INTEGER NOT NULL DEFAULT 0 CHECK (support_count >= 0),
    ai_narrative      TEXT,

    created_at        BIGINT NOT NULL,
    last_supported_at BIGINT NOT NULL,
    token_id          TEXT,
    rarity            TEXT,

    CHECK (support_count = 0 OR extinction_risk >= 5),
    CHECK (last_supported_at >= created_at)
);

CREATE INDEX idx_artifacts_created ON artifacts(created_at DESC);
CREATE INDEX idx_artifacts_fade    ON artifacts(fade_level DESC);
`,
	},
	{
		Version:     2,
		Description: "comments: visitor notes with support and reactions",
		SQLite: `
CREATE TABLE comments (
    id             INTEGER PRIMARY KEY,
    artifact_id    INTEGER NOT NULL,
    content        TEXT NOT NULL,
    support_count  INTEGER NOT NULL DEFAULT 0 CHECK (support_count >= 0),
    reactions      TEXT NOT NULL DEFAULT '{}',
    created_at     INTEGER NOT NULL,

    FOREIGN KEY (artifact_id) REFERENCES artifacts(id)
);

CREATE INDEX idx_comments_artifact ON comments(artifact_id, created_at DESC);
`,
		Postgres: `
CREATE TABLE comments (
    id             BIGSERIAL PRIMARY KEY,
    artifact_id    BIGINT NOT NULL REFERENCES artifacts(id),
    content        TEXT NOT NULL,
    support_count  INTEGER NOT NULL DEFAULT 0 CHECK (support_count >= 0),
    reactions      TEXT NOT NULL DEFAULT '{}',
    created_at     BIGINT NOT NULL
);

CREATE INDEX idx_comments_artifact ON comments(artifact_id, created_at DESC);
`,
	},
}

func (db *DB) migrate(ctx context.Context) error {
	_, err := db.exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  BIGINT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.queryRow(ctx, "SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.ExecContext(ctx, m.sql(db.Dialect)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.ExecContext(ctx,
			db.rebind("INSERT INTO schema_versions (version, description, applied_at) VALUES (?, ?, ?)"),
			m.Version, m.Description, time.Now().UnixMilli(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := db.queryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
