// Package postgres provides a PostgreSQL implementation of transport.RunStore.
// It uses pgx/v5 for connection pooling and embedded SQL migrations for the
// schema.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/postsmith/pkg/api"
	"github.com/rhuss/postsmith/pkg/storage"
	"github.com/rhuss/postsmith/pkg/transport"
)

// Store is a PostgreSQL-backed RunStore.
type Store struct {
	pool *pgxpool.Pool
}

var _ transport.RunStore = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

const runColumns = `id, tenant_id, topic, state, error_type, error_message, result_count, created_at, duration_ms`

// SaveRun persists a finished run.
func (s *Store) SaveRun(ctx context.Context, run *api.Run) error {
	tenantID := run.TenantID
	if tenantID == "" {
		tenantID = storage.TenantFromContext(ctx)
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		run.ID, tenantID, run.Topic, string(run.State),
		nullString(string(run.ErrorType)), nullString(run.ErrorMessage),
		run.ResultCount, run.CreatedAt, run.DurationMS,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID, scoped by the context tenant.
func (s *Store) GetRun(ctx context.Context, id string) (*api.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = $1`
	args := []any{id}

	if tenantID := storage.TenantFromContext(ctx); tenantID != "" {
		query += " AND tenant_id = $2"
		args = append(args, tenantID)
	}

	run, err := scanRun(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	return run, nil
}

// DeleteRun removes a run by ID, scoped by the context tenant.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	query := "DELETE FROM runs WHERE id = $1"
	args := []any{id}

	if tenantID := storage.TenantFromContext(ctx); tenantID != "" {
		query += " AND tenant_id = $2"
		args = append(args, tenantID)
	}

	result, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListRuns returns a page of runs. The After cursor is resolved to the
// (created_at, id) position of that run so pages stay stable under inserts.
func (s *Store) ListRuns(ctx context.Context, opts transport.ListOptions) (*transport.RunList, error) {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if tenantID := storage.TenantFromContext(ctx); tenantID != "" {
		where = append(where, "tenant_id = "+arg(tenantID))
	}
	if opts.State != "" {
		where = append(where, "state = "+arg(string(opts.State)))
	}

	asc := opts.Order == "asc"
	cmp, dir := "<", "DESC"
	if asc {
		cmp, dir = ">", "ASC"
	}

	if opts.After != "" {
		cursor, err := s.GetRun(ctx, opts.After)
		if errors.Is(err, storage.ErrNotFound) {
			return storage.NewRunList(nil, false), nil
		}
		if err != nil {
			return nil, err
		}
		where = append(where, fmt.Sprintf("(created_at, id) %s (%s, %s)",
			cmp, arg(cursor.CreatedAt), arg(cursor.ID)))
	}

	limit := storage.EffectiveLimit(opts.Limit)

	query := `SELECT ` + runColumns + ` FROM runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at %s, id %s LIMIT %s", dir, dir, arg(limit+1))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*api.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	hasMore := len(runs) > limit
	if hasMore {
		runs = runs[:limit]
	}
	return storage.NewRunList(runs, hasMore), nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func scanRun(row pgx.Row) (*api.Run, error) {
	var run api.Run
	var state string
	var errType, errMsg *string

	if err := row.Scan(
		&run.ID, &run.TenantID, &run.Topic, &state, &errType, &errMsg,
		&run.ResultCount, &run.CreatedAt, &run.DurationMS,
	); err != nil {
		return nil, err
	}

	run.Object = "run"
	run.State = api.State(state)
	if errType != nil {
		run.ErrorType = api.ErrorType(*errType)
	}
	if errMsg != nil {
		run.ErrorMessage = *errMsg
	}
	return &run, nil
}

// nullString converts an empty string to nil for nullable TEXT columns.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
