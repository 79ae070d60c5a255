package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/eqmac/buffstack/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// DB wraps a pgx connection pool and implements Store on PostgreSQL.
type DB struct {
	Pool *pgxpool.Pool
	log  *zap.Logger
}

func NewDB(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if log == nil {
		log = zap.NewNop()
	}
	return &DB{Pool: pool, log: log}, nil
}

// Migrate applies the postgres migrations through a database/sql handle
// borrowed from the pool.
func (db *DB) Migrate(ctx context.Context) error {
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()
	return RunMigrations(ctx, sqlDB, "postgres")
}

func (db *DB) LoadBuffs(ctx context.Context, name string) ([]BuffRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT slot, spell_id, caster_level, ticks, modifier, counters, caster_id
		 FROM character_buffs
		 WHERE char_name = $1
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

// SaveBuffs replaces the character's snapshot in one transaction.
func (db *DB) SaveBuffs(ctx context.Context, name string, buffs []BuffRow) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("save buffs begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM character_buffs WHERE char_name = $1`, name); err != nil {
		return fmt.Errorf("clear buffs: %w", err)
	}
	for _, b := range buffs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO character_buffs (char_name, slot, spell_id, caster_level, ticks, modifier, counters, caster_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			name, b.Slot, b.SpellID, b.CasterLevel, b.Ticks, b.Modifier, b.Counters, b.CasterID,
		); err != nil {
			return fmt.Errorf("insert buff slot %d: %w", b.Slot, err)
		}
	}
	return tx.Commit(ctx)
}

func (db *DB) Close() error {
	db.Pool.Close()
	return nil
}
