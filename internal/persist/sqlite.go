package persist

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the database at path and runs the sqlite migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := RunMigrations(ctx, db, "sqlite3"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) LoadBuffs(ctx context.Context, name string) ([]BuffRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT slot, spell_id, caster_level, ticks, modifier, counters, caster_id
		 FROM character_buffs
		 WHERE char_name = ?
		 ORDER BY slot`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("load buffs %s: %w", name, err)
	}
	defer rows.Close()

	var result []BuffRow
	for rows.Next() {
		var b BuffRow
		if err := rows.Scan(&b.Slot, &b.SpellID, &b.CasterLevel, &b.Ticks, &b.Modifier, &b.Counters, &b.CasterID); err != nil {
			return nil, fmt.Errorf("scan buff: %w", err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func (s *SQLiteStore) SaveBuffs(ctx context.Context, name string, buffs []BuffRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save buffs begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM character_buffs WHERE char_name = ?`, name); err != nil {
		return fmt.Errorf("clear buffs: %w", err)
	}
	for _, b := range buffs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO character_buffs (char_name, slot, spell_id, caster_level, ticks, modifier, counters, caster_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			name, b.Slot, b.SpellID, b.CasterLevel, b.Ticks, b.Modifier, b.Counters, b.CasterID,
		); err != nil {
			return fmt.Errorf("insert buff slot %d: %w", b.Slot, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
