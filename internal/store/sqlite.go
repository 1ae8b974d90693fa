package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"PricePulse/internal/model"
)

// SQLiteStore persists predictions to a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

var _ PredictionStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at dbPath and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboard reads proceed while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS predictions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			value      REAL NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_created ON predictions(created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, value float64) (model.Prediction, error) {
	if err := CheckValue(value); err != nil {
		return model.Prediction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := s.now().UTC().Truncate(time.Millisecond)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO predictions (value, created_at) VALUES (?, ?)`,
		value, createdAt.UnixMilli(),
	)
	if err != nil {
		return model.Prediction{}, unavailable("insert prediction", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Prediction{}, unavailable("insert prediction id", err)
	}
	return model.Prediction{ID: id, Value: value, CreatedAt: createdAt}, nil
}

func (s *SQLiteStore) ListAll(ctx context.Context) ([]model.Prediction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, value, created_at FROM predictions ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, unavailable("list predictions", err)
	}
	defer rows.Close()

	var out []model.Prediction
	for rows.Next() {
		var (
			p  model.Prediction
			ms int64
		)
		if err := rows.Scan(&p.ID, &p.Value, &ms); err != nil {
			return nil, unavailable("scan prediction", err)
		}
		p.CreatedAt = time.UnixMilli(ms).UTC()
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate predictions", err)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
