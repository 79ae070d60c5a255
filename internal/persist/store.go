package persist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eqmac/buffstack/internal/buff"
	"github.com/eqmac/buffstack/internal/config"
	"go.uber.org/zap"
)

// ErrUnknownDriver is returned by Open for a storage driver it does not know.
var ErrUnknownDriver = errors.New("unknown storage driver")

// BuffRow is one saved buff slot.
type BuffRow struct {
	Slot        int16
	SpellID     int32
	CasterLevel int16
	Ticks       int32
	Modifier    int32
	Counters    int32
	CasterID    int32
}

// Store saves and restores character buff snapshots keyed by character name.
type Store interface {
	LoadBuffs(ctx context.Context, name string) ([]BuffRow, error)
	SaveBuffs(ctx context.Context, name string, rows []BuffRow) error
	Close() error
}

// Open connects the backend named by cfg.Driver and runs its migrations.
func Open(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "postgres":
		db, err := NewDB(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	case "sqlite":
		return OpenSQLite(ctx, cfg.DSN)
	case "none", "":
		return NopStore{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// NopStore keeps nothing.
type NopStore struct{}

func (NopStore) LoadBuffs(context.Context, string) ([]BuffRow, error) { return nil, nil }
func (NopStore) SaveBuffs(context.Context, string, []BuffRow) error   { return nil }
func (NopStore) Close() error                                         { return nil }

// RowsFromCharacter snapshots every occupied physical slot.
func RowsFromCharacter(c *buff.Character) []BuffRow {
	var rows []BuffRow
	for _, i := range c.Occupied() {
		s := c.Slot(i)
		rows = append(rows, BuffRow{
			Slot:        int16(i),
			SpellID:     int32(s.SpellID),
			CasterLevel: int16(s.CasterLevel),
			Ticks:       s.Ticks,
			Modifier:    s.Modifier,
			Counters:    s.Counters,
			CasterID:    int32(s.CasterID),
		})
	}
	return rows
}

// ApplyRows writes rows back into c and returns how many were restored.
// Rows outside physical storage, or naming an id that is not a spell
// (valid reports false), are skipped.
func ApplyRows(c *buff.Character, rows []BuffRow, valid func(uint16) bool) int {
	n := 0
	for _, r := range rows {
		if r.Slot < 0 || int(r.Slot) >= buff.PhysicalSlots {
			continue
		}
		if r.SpellID <= 0 || r.SpellID > 0xFFFF || (valid != nil && !valid(uint16(r.SpellID))) {
			continue
		}
		s := c.Slot(int(r.Slot))
		*s = buff.Slot{
			Type:        buff.TypeActive,
			SpellID:     uint16(r.SpellID),
			CasterLevel: uint8(r.CasterLevel),
			Ticks:       r.Ticks,
			Modifier:    r.Modifier,
			Counters:    r.Counters,
			CasterID:    uint16(r.CasterID),
		}
		n++
	}
	return n
}
