package state

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

type sqliteBackend struct {
	db *sql.DB
}

func openSQLiteBackend(path string) (*sqliteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) load(ctx context.Context) (Document, error) {
	doc := Document{FailedFiles: map[string]string{}}

	rows, err := b.db.QueryContext(ctx, "SELECT name FROM processed_files ORDER BY name")
	if err != nil {
		return Document{}, fmt.Errorf("query processed files: %w", err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return Document{}, fmt.Errorf("scan processed file: %w", err)
		}
		doc.ProcessedFiles = append(doc.ProcessedFiles, name)
	}
	if err := rows.Close(); err != nil {
		return Document{}, err
	}
	if err := rows.Err(); err != nil {
		return Document{}, err
	}

	rows, err = b.db.QueryContext(ctx, "SELECT name, reason FROM failed_files")
	if err != nil {
		return Document{}, fmt.Errorf("query failed files: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name, reason string
		if err := rows.Scan(&name, &reason); err != nil {
			return Document{}, fmt.Errorf("scan failed file: %w", err)
		}
		doc.FailedFiles[name] = reason
	}
	return doc, rows.Err()
}

func (b *sqliteBackend) save(ctx context.Context, doc Document) error {
	return retryOnBusy(ctx, func() error {
		tx, err := b.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := replaceAll(ctx, tx, doc); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
}

func replaceAll(ctx context.Context, tx *sql.Tx, doc Document) error {
	for _, stmt := range []string{"DELETE FROM processed_files", "DELETE FROM failed_files"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	for _, name := range doc.ProcessedFiles {
		if _, err := tx.ExecContext(ctx, "INSERT INTO processed_files (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("insert processed %q: %w", name, err)
		}
	}
	for name, reason := range doc.FailedFiles {
		if _, err := tx.ExecContext(ctx, "INSERT INTO failed_files (name, reason) VALUES (?, ?)", name, reason); err != nil {
			return fmt.Errorf("insert failed %q: %w", name, err)
		}
	}
	return nil
}

func (b *sqliteBackend) close() error {
	return b.db.Close()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
