package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cardsnap/cardsnap/internal/common"
	"github.com/cardsnap/cardsnap/internal/entity"
)

// SQLiteStore keeps scan history in a local file, suitable for the CLI and
// single-user deployments. Recognition and contact are stored as JSON
// columns; source and created_at are materialized for filtering.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS scans (
	id          TEXT PRIMARY KEY,
	created_at  TIMESTAMP NOT NULL,
	source      TEXT NOT NULL,
	recognition TEXT NOT NULL,
	contact     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at);
CREATE INDEX IF NOT EXISTS idx_scans_source ON scans(source);
`

func OpenSQLite(ctx context.Context, dsn string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	logger.Info("history.sqlite.open", "dsn", dsn)
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, entry Entry) error {
	recJSON, conJSON, err := marshalEntry(entry)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scans (id, created_at, source, recognition, contact) VALUES (?, ?, ?, ?, ?)`,
		entry.ID.String(), entry.CreatedAt.UTC(), string(entry.Contact.Source), recJSON, conJSON)
	if err != nil {
		return fmt.Errorf("save scan %s: %w", entry.ID, err)
	}
	s.logger.Debug("history.save", "id", entry.ID.String(), "source", entry.Contact.Source)
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, recognition, contact FROM scans WHERE id = ?`, id.String())
	entry, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, common.WithSentinel(common.ErrNotFound, fmt.Errorf("scan %s", id))
	}
	return entry, err
}

func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]Entry, error) {
	query := `SELECT id, created_at, recognition, contact FROM scans WHERE 1=1`
	var args []any
	if !filter.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.Since.UTC())
	}
	if !filter.Until.IsZero() {
		query += ` AND created_at <= ?`
		args = append(args, filter.Until.UTC())
	}
	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, filter.Source)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scans WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete scan %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.WithSentinel(common.ErrNotFound, fmt.Errorf("scan %s", id))
	}
	return nil
}

func (s *SQLiteStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scans WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge scans: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.logger.Info("history.purge", "removed", n, "cutoff", cutoff.UTC())
	}
	return n, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func marshalEntry(entry Entry) (string, string, error) {
	recJSON, err := json.Marshal(entry.Recognition)
	if err != nil {
		return "", "", common.WrapError(err, "marshal recognition")
	}
	conJSON, err := json.Marshal(entry.Contact)
	if err != nil {
		return "", "", common.WrapError(err, "marshal contact")
	}
	return string(recJSON), string(conJSON), nil
}

// scanEntry decodes one row given either sql.Row.Scan or sql.Rows.Scan.
func scanEntry(scan func(dest ...any) error) (Entry, error) {
	var (
		idStr   string
		created time.Time
		recJSON string
		conJSON string
	)
	if err := scan(&idStr, &created, &recJSON, &conJSON); err != nil {
		return Entry{}, err
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return Entry{}, fmt.Errorf("parse scan id %q: %w", idStr, err)
	}
	var rec entity.RecognitionResult
	if err := json.Unmarshal([]byte(recJSON), &rec); err != nil {
		return Entry{}, fmt.Errorf("decode recognition for %s: %w", idStr, err)
	}
	var contact entity.ExtractedContact
	if err := json.Unmarshal([]byte(conJSON), &contact); err != nil {
		return Entry{}, fmt.Errorf("decode contact for %s: %w", idStr, err)
	}
	return Entry{ID: id, Recognition: rec, Contact: contact, CreatedAt: created}, nil
}
