package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardsnap/cardsnap/internal/common"
	"github.com/cardsnap/cardsnap/internal/entity"
)

// PostgresStore keeps scan history in Postgres for shared deployments.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS scans (
	id          UUID PRIMARY KEY,
	created_at  TIMESTAMPTZ NOT NULL,
	source      TEXT NOT NULL,
	recognition JSONB NOT NULL,
	contact     JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at);
CREATE INDEX IF NOT EXISTS idx_scans_source ON scans(source);
`

// OpenPostgres connects a pool, tags the application name, and ensures the
// schema exists before returning.
func OpenPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "cardsnap"

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	logger.Info("history.postgres.open")
	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (s *PostgresStore) Save(ctx context.Context, entry Entry) error {
	recJSON, conJSON, err := marshalEntry(entry)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO scans (id, created_at, source, recognition, contact) VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.CreatedAt.UTC(), string(entry.Contact.Source), recJSON, conJSON)
	if err != nil {
		return fmt.Errorf("save scan %s: %w", entry.ID, err)
	}
	s.logger.Debug("history.save", "id", entry.ID.String(), "source", entry.Contact.Source)
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, created_at, recognition, contact FROM scans WHERE id = $1`, id)
	entry, err := scanPgEntry(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, common.WithSentinel(common.ErrNotFound, fmt.Errorf("scan %s", id))
	}
	return entry, err
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]Entry, error) {
	query := `SELECT id, created_at, recognition, contact FROM scans WHERE TRUE`
	var args []any
	if !filter.Since.IsZero() {
		args = append(args, filter.Since.UTC())
		query += fmt.Sprintf(` AND created_at >= $%d`, len(args))
	}
	if !filter.Until.IsZero() {
		args = append(args, filter.Until.UTC())
		query += fmt.Sprintf(` AND created_at <= $%d`, len(args))
	}
	if filter.Source != "" {
		args = append(args, filter.Source)
		query += fmt.Sprintf(` AND source = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanPgEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete scan %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return common.WithSentinel(common.ErrNotFound, fmt.Errorf("scan %s", id))
	}
	return nil
}

func (s *PostgresStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scans WHERE created_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge scans: %w", err)
	}
	n := tag.RowsAffected()
	if n > 0 {
		s.logger.Info("history.purge", "removed", n, "cutoff", cutoff.UTC())
	}
	return n, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Ping verifies connectivity, for startup health checks.
func (s *PostgresStore) Ping(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.pool.Ping(ctx)
}

func scanPgEntry(scan func(dest ...any) error) (Entry, error) {
	var (
		id      uuid.UUID
		created time.Time
		recJSON []byte
		conJSON []byte
	)
	if err := scan(&id, &created, &recJSON, &conJSON); err != nil {
		return Entry{}, err
	}
	var rec entity.RecognitionResult
	if err := json.Unmarshal(recJSON, &rec); err != nil {
		return Entry{}, fmt.Errorf("decode recognition for %s: %w", id, err)
	}
	var contact entity.ExtractedContact
	if err := json.Unmarshal(conJSON, &contact); err != nil {
		return Entry{}, fmt.Errorf("decode contact for %s: %w", id, err)
	}
	return Entry{ID: id, Recognition: rec, Contact: contact, CreatedAt: created}, nil
}

// OpenStore picks the configured driver.
func OpenStore(ctx context.Context, cfg common.HistoryConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return OpenSQLite(ctx, cfg.DSN, logger)
	case "postgres":
		return OpenPostgres(ctx, cfg.DSN, logger)
	default:
		return nil, common.NewAppError("CONFIG_ERROR",
			fmt.Sprintf("unknown history driver %q", cfg.Driver), common.ErrInvalidInput)
	}
}
