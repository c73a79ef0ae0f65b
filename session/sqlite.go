package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS signers (
	fid         TEXT PRIMARY KEY,
	signer_uuid TEXT NOT NULL,
	updated_at  INTEGER NOT NULL
)`

// SQLiteStore persists signers in a local SQLite file.
type SQLiteStore struct {
	sqlDB *sql.DB
}

// OpenSQLite opens the store at path and creates its table.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create signers table: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Save links fid to signerUUID, replacing any previous signer.
func (s *SQLiteStore) Save(ctx context.Context, fid, signerUUID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	fid, signerUUID, err := validate(fid, signerUUID)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO signers (fid, signer_uuid, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(fid) DO UPDATE SET signer_uuid = excluded.signer_uuid, updated_at = excluded.updated_at`,
		fid, signerUUID, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save signer: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Lookup(ctx context.Context, fid string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s == nil || s.sqlDB == nil {
		return "", fmt.Errorf("storage is not configured")
	}
	var signerUUID string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT signer_uuid FROM signers WHERE fid = ?`, strings.TrimSpace(fid)).Scan(&signerUUID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup signer: %w", err)
	}
	return signerUUID, nil
}
