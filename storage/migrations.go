package storage

import (
	"context"
	"fmt"
)

var pgMigration = []string{
	`CREATE TYPE submission_outcome AS ENUM ('added', 'duplicate', 'too_long', 'failed')`,
	`CREATE TABLE submission (
id uuid PRIMARY KEY,
batch_id uuid NOT NULL,
source VARCHAR(255) NOT NULL,
user_id VARCHAR(255) NOT NULL,
video_id VARCHAR(11) NOT NULL,
outcome submission_outcome NOT NULL,
title TEXT NOT NULL DEFAULT '',
detail TEXT NOT NULL DEFAULT '',
created_at TIMESTAMP WITH TIME ZONE NOT NULL
)`,
	`CREATE INDEX submission_video_id ON submission (video_id)`,
	`CREATE INDEX submission_user_id_created_at ON submission (user_id, created_at)`,
}

func (p *Postgres) migrate(ctx context.Context, wanted []string) error {
	query := `CREATE TABLE IF NOT EXISTS migration
("id" SERIAL PRIMARY KEY, "query" TEXT)`
	if _, err := p.db.ExecContext(ctx, query); err != nil {
		return err
	}

	// find existing
	rows, err := p.db.QueryContext(ctx, `SELECT query FROM migration ORDER BY id`)
	if err != nil {
		return err
	}

	existing := []string{}
	for rows.Next() {
		var query string
		if err := rows.Scan(&query); err != nil {
			rows.Close()
			return err
		}
		existing = append(existing, query)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	missing, err := compareMigrations(wanted, existing)
	if err != nil {
		return err
	}

	for _, query := range missing {
		if _, err := p.db.ExecContext(ctx, query); err != nil {
			return err
		}

		// register
		if _, err := p.db.ExecContext(ctx, `
INSERT INTO migration
(query) VALUES ($1)
`, query); err != nil {
			return err
		}
	}

	return nil
}

func compareMigrations(wanted, existing []string) ([]string, error) {
	needed := []string{}
	if len(wanted) < len(existing) {
		return []string{}, fmt.Errorf("not enough migrations")
	}

	for i, want := range wanted {
		switch {
		case i >= len(existing):
			needed = append(needed, want)
		case want == existing[i]:
			// do nothing
		case want != existing[i]:
			return []string{}, fmt.Errorf("incompatible migration: %v", want)
		}
	}

	return needed, nil
}
