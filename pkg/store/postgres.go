package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/matzehuels/floorsmith/pkg/config"
	"github.com/matzehuels/floorsmith/pkg/store/migrations"
)

// PostgresStore persists sessions in a sessions table, with the plan payload
// as JSONB columns. Migrations run automatically on open.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to Postgres, runs the embedded migrations, and
// returns the store.
func NewPostgresStore(ctx context.Context, cfg config.PostgresStoreConfig) (*PostgresStore, error) {
	if err := runMigrations(ctx, cfg.DSN); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// runMigrations applies the embedded goose migrations over a database/sql
// connection; the pgx stdlib driver bridges the two.
func runMigrations(ctx context.Context, dsn string) error {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("opening sql connection for migrations: %w", err)
	}
	defer sqlDB.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Session, error) {
	var (
		sess   Session
		spaces []byte
		walls  []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, spaces, walls, created_at, updated_at
		 FROM sessions WHERE id = $1`, id,
	).Scan(&sess.ID, &sess.Name, &spaces, &walls, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying session %q: %w", id, err)
	}

	if err := json.Unmarshal(spaces, &sess.Spaces); err != nil {
		return nil, fmt.Errorf("parse session %q spaces: %w", id, err)
	}
	if err := json.Unmarshal(walls, &sess.Walls); err != nil {
		return nil, fmt.Errorf("parse session %q walls: %w", id, err)
	}
	return &sess, nil
}

func (s *PostgresStore) Put(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = time.Now().UTC()
	// A nil slice would marshal to "null" and break jsonb_array_length.
	spaces := []byte("[]")
	if sess.Spaces != nil {
		var err error
		if spaces, err = json.Marshal(sess.Spaces); err != nil {
			return fmt.Errorf("marshal spaces: %w", err)
		}
	}
	walls, err := json.Marshal(sess.Walls)
	if err != nil {
		return fmt.Errorf("marshal walls: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO sessions (id, name, spaces, walls, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name, spaces = EXCLUDED.spaces,
		     walls = EXCLUDED.walls, updated_at = EXCLUDED.updated_at`,
		sess.ID, sess.Name, spaces, walls, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting session %q: %w", sess.ID, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting session %q: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, jsonb_array_length(spaces), created_at, updated_at
		 FROM sessions ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Spaces, &sum.CreatedAt, &sum.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading session rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}
