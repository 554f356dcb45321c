package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects to the database at url and brings the schema up to
// date.
func OpenPostgres(ctx context.Context, url string) (*Postgres, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to reach postgres: %w", err)
	}

	return NewPostgres(ctx, db)
}

func NewPostgres(ctx context.Context, db *sql.DB) (*Postgres, error) {
	p := &Postgres{db: db}
	if err := p.migrate(ctx, pgMigration); err != nil {
		return &Postgres{}, err
	}

	return p, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

type PostgresSubmissionRepository struct {
	*Postgres
}

func NewPostgresSubmissionRepository(postgres *Postgres) *PostgresSubmissionRepository {
	return &PostgresSubmissionRepository{postgres}
}

func (p *PostgresSubmissionRepository) Save(ctx context.Context, record Record) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	query := `INSERT INTO submission
(id, batch_id, source, user_id, video_id, outcome, title, detail, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := p.db.ExecContext(ctx, query,
		record.ID,
		record.BatchID,
		record.Source,
		record.UserID,
		string(record.VideoID),
		string(record.Outcome),
		record.Title,
		record.Detail,
		record.CreatedAt,
	); err != nil {
		return fmt.Errorf("could not save submission of %s: %w", record.VideoID, err)
	}

	return nil
}
