package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const (
	workspaceDir  = ".redops"
	defaultDBName = "redops.db"
)

type Config struct {
	Workspace string
}

func dbPath(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, workspaceDir, defaultDBName)
}

// EnsureWorkspace creates the workspace state directory if missing.
func EnsureWorkspace(workspace string) (string, error) {
	path := filepath.Join(workspace, workspaceDir)
	if err := os.MkdirAll(path, 0o700); err != nil {
		return "", err
	}
	return path, nil
}

// Open opens the SQLite database backing durable client state.
func Open(cfg Config) (*sql.DB, error) {
	if _, err := EnsureWorkspace(cfg.Workspace); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", dbPath(cfg.Workspace))
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(1)
	return conn, nil
}

// Path returns the db path for the workspace.
func Path(workspace string) string {
	return dbPath(workspace)
}

// KV is a string key/value table surviving process restarts.
type KV struct {
	db *sql.DB
}

func NewKV(conn *sql.DB) *KV {
	return &KV{db: conn}
}

// Get returns the stored value and whether the key exists.
func (kv *KV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := kv.db.QueryRowContext(ctx, `SELECT value FROM client_state WHERE key=?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Put writes all pairs in one transaction.
func (kv *KV) Put(ctx context.Context, pairs map[string]string) error {
	tx, err := kv.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for k, v := range pairs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO client_state(key, value, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`, k, v); err != nil {
			return fmt.Errorf("put %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// Delete removes keys together; missing keys are ignored.
func (kv *KV) Delete(ctx context.Context, keys ...string) error {
	tx, err := kv.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, `DELETE FROM client_state WHERE key=?`, k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return tx.Commit()
}
