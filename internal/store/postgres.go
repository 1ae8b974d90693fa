package store

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"PricePulse/internal/model"
	"PricePulse/internal/store/migrations"
)

// PostgresStore persists predictions to the bitcoin_data table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ PredictionStore = (*PostgresStore)(nil)

// NewPostgresStore connects to dsn, verifies the connection and applies migrations.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// migrate applies embedded SQL files in lexical order. Files must be idempotent.
func (s *PostgresStore) migrate(ctx context.Context) error {
	entries, err := fs.ReadDir(migrations.PostgresFS, "postgres")
	if err != nil {
		return fmt.Errorf("read embedded postgres migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		data, err := fs.ReadFile(migrations.PostgresFS, "postgres/"+file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if _, err := s.pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, value float64) (model.Prediction, error) {
	if err := CheckValue(value); err != nil {
		return model.Prediction{}, err
	}
	var p model.Prediction
	err := s.pool.QueryRow(ctx,
		`INSERT INTO bitcoin_data (value) VALUES ($1) RETURNING id, value, date`,
		value,
	).Scan(&p.ID, &p.Value, &p.CreatedAt)
	if err != nil {
		return model.Prediction{}, unavailable("insert prediction", err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]model.Prediction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, value, date FROM bitcoin_data ORDER BY date ASC, id ASC`)
	if err != nil {
		return nil, unavailable("list predictions", err)
	}
	defer rows.Close()

	var out []model.Prediction
	for rows.Next() {
		var p model.Prediction
		if err := rows.Scan(&p.ID, &p.Value, &p.CreatedAt); err != nil {
			return nil, unavailable("scan prediction", err)
		}
		p.CreatedAt = p.CreatedAt.UTC()
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate predictions", err)
	}
	return out, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
