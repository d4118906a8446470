package flagstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

var ErrDBNotAvailable = fmt.Errorf("SQLite DB is not available")

const flagsSchema = `
CREATE TABLE IF NOT EXISTS flags (
	uid   INTEGER PRIMARY KEY,
	qflag TEXT NOT NULL
)`

// SQLRepository keeps the flag store in a SQLite table.
type SQLRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSqliteDB opens (and creates when needed) the SQLite database at path.
func NewSqliteDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
	}

	// a single connection keeps ":memory:" databases alive across calls
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite DB: %w", err)
	}

	return db, nil
}

func NewSqlRepository(db *sql.DB, logger *slog.Logger) (*SQLRepository, error) {
	if db == nil {
		logger.Error("SQL DB is not initialized")
		return nil, ErrDBNotAvailable
	}

	if _, err := db.Exec(flagsSchema); err != nil {
		logger.Error("Failed to create flags table", "error", err)
		return nil, fmt.Errorf("failed to create flags table: %w", err)
	}

	return &SQLRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *SQLRepository) IsReady() bool {
	if r.logger == nil {
		fmt.Println("Logger of SQLRepository is not initialized")
		return false
	}

	if r.db == nil {
		r.logger.Error("SQLite DB is not initialized")
		return false
	}

	return true
}

func (r *SQLRepository) Close() error {
	if r.db == nil {
		return fmt.Errorf("SQLite DB is not initialized")
	}

	if err := r.db.Close(); err != nil {
		r.logger.Error("Failed to close SQLite DB", "error", err)
		return err
	}

	r.logger.Info("SQLite DB closed successfully")
	return nil
}

func (r *SQLRepository) Load(ctx context.Context) (*Store, error) {
	if !r.IsReady() {
		return nil, ErrRepositoryNotReady
	}

	rows, err := r.db.QueryContext(ctx, `SELECT uid, qflag FROM flags ORDER BY uid`)
	if err != nil {
		r.logger.Error("Failed to query flags", "error", err)
		return nil, err
	}
	defer rows.Close()

	var decisions []Decision
	for rows.Next() {
		var d Decision
		var flag string
		if err := rows.Scan(&d.UID, &flag); err != nil {
			r.logger.Error("Failed to scan flag row", "error", err)
			return nil, err
		}
		d.Flag = Flag(flag)
		decisions = append(decisions, d)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error occurred during row iteration", "error", err)
		return nil, err
	}

	r.logger.Info("Flag store loaded from SQLite", "flags", len(decisions))
	return NewStoreFromDecisions(decisions), nil
}

// Save replaces the table content with the store in one transaction.
func (r *SQLRepository) Save(ctx context.Context, store *Store) error {
	if !r.IsReady() {
		return ErrRepositoryNotReady
	}

	if store == nil {
		return ErrNilStore
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", "error", err)
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM flags`); err != nil {
		r.logger.Error("Failed to clear flags table", "error", err)
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO flags (uid, qflag) VALUES (?, ?)`)
	if err != nil {
		r.logger.Error("Failed to prepare insert", "error", err)
		return err
	}
	defer stmt.Close()

	decisions := store.Decisions()
	for _, d := range decisions {
		if _, err := stmt.ExecContext(ctx, int64(d.UID), string(d.Flag)); err != nil {
			r.logger.Error("Failed to insert flag", "uid", d.UID, "error", err)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit flags", "error", err)
		return err
	}

	r.logger.Info("Flag store saved to SQLite", "flags", len(decisions))
	return nil
}
