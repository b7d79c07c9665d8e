package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/eduverse/site-backend/pkg/database"
)

// PostgresEngine keeps every collection in one JSONB documents table.
type PostgresEngine struct {
	dsn    string
	logger *zap.Logger

	mu   sync.RWMutex
	pool *pgxpool.Pool
}

// NewPostgresEngine creates an engine for dsn.
func NewPostgresEngine(dsn string, logger *zap.Logger) *PostgresEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresEngine{dsn: dsn, logger: logger}
}

func (e *PostgresEngine) Driver() string { return "postgres" }

// Connect opens the pool and applies migrations. An existing pool that still answers is reused.
func (e *PostgresEngine) Connect(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pool != nil {
		if err := e.pool.Ping(ctx); err == nil {
			return nil
		}
		e.pool.Close()
		e.pool = nil
	}
	pool, err := database.NewPostgresPool(ctx, e.dsn, e.logger)
	if err != nil {
		return err
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return fmt.Errorf("migrate: %w", err)
	}
	e.pool = pool
	return nil
}

// Ping checks a pooled connection.
func (e *PostgresEngine) Ping(ctx context.Context) error {
	pool, err := e.getPool()
	if err != nil {
		return err
	}
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	return nil
}

func (e *PostgresEngine) Disconnect(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pool != nil {
		e.pool.Close()
		e.pool = nil
	}
	return nil
}

func (e *PostgresEngine) Collection(name string) Collection {
	return &pgCollection{engine: e, name: name}
}

func (e *PostgresEngine) getPool() (*pgxpool.Pool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.pool == nil {
		return nil, ErrUnavailable
	}
	return e.pool, nil
}

type pgCollection struct {
	engine *PostgresEngine
	name   string
}

func filterJSON(f Filter) (string, error) {
	if len(f) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("marshal filter: %w", err)
	}
	return string(b), nil
}

func (c *pgCollection) Insert(ctx context.Context, doc Document) error {
	pool, err := c.engine.getPool()
	if err != nil {
		return err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s document: %w", c.name, err)
	}
	const q = `INSERT INTO documents (id, collection, body, created_at) VALUES ($1, $2, $3::jsonb, $4)`
	if _, err := pool.Exec(ctx, q, doc.DocumentID(), c.name, string(body), doc.CreatedTime()); err != nil {
		return fmt.Errorf("insert into %s: %w", c.name, err)
	}
	return nil
}

func (c *pgCollection) FindByID(ctx context.Context, id string, out any) error {
	pool, err := c.engine.getPool()
	if err != nil {
		return err
	}
	const q = `SELECT body FROM documents WHERE collection = $1 AND id = $2`
	var body []byte
	err = pool.QueryRow(ctx, q, c.name, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find %s %s: %w", c.name, id, err)
	}
	return json.Unmarshal(body, out)
}

func (c *pgCollection) Find(ctx context.Context, q Query, out any) error {
	pool, err := c.engine.getPool()
	if err != nil {
		return err
	}
	filter, err := filterJSON(q.Filter)
	if err != nil {
		return err
	}
	sql := `SELECT body FROM documents WHERE collection = $1 AND body @> $2::jsonb ORDER BY created_at DESC`
	args := []interface{}{c.name, filter}
	if q.Limit > 0 {
		sql += " LIMIT $3"
		args = append(args, q.Limit)
	}
	rows, err := pool.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("find in %s: %w", c.name, err)
	}
	defer rows.Close()

	// rows are concatenated into one JSON array so out can be any slice type
	var buf bytes.Buffer
	buf.WriteByte('[')
	first := true
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return fmt.Errorf("scan %s: %w", c.name, err)
		}
		if !first {
			buf.WriteByte(',')
		}
		buf.Write(body)
		first = false
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %s: %w", c.name, err)
	}
	buf.WriteByte(']')
	return json.Unmarshal(buf.Bytes(), out)
}

func (c *pgCollection) Count(ctx context.Context, f Filter) (int64, error) {
	pool, err := c.engine.getPool()
	if err != nil {
		return 0, err
	}
	filter, err := filterJSON(f)
	if err != nil {
		return 0, err
	}
	var n int64
	const q = `SELECT COUNT(*) FROM documents WHERE collection = $1 AND body @> $2::jsonb`
	if err := pool.QueryRow(ctx, q, c.name, filter).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", c.name, err)
	}
	return n, nil
}

func (c *pgCollection) Update(ctx context.Context, id string, set Filter) error {
	pool, err := c.engine.getPool()
	if err != nil {
		return err
	}
	patch, err := filterJSON(set)
	if err != nil {
		return err
	}
	const q = `UPDATE documents SET body = body || $3::jsonb WHERE collection = $1 AND id = $2`
	tag, err := pool.Exec(ctx, q, c.name, id, patch)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", c.name, id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
