package persist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/eqmac/buffstack/internal/buff"
	"github.com/eqmac/buffstack/internal/config"
	"github.com/eqmac/buffstack/internal/spell"
)

func sampleCharacter() *buff.Character {
	c := buff.NewCharacter("Soandso", &buff.Spawn{ID: 1, Kind: buff.KindPlayer, Level: 50})
	caster := &buff.Spawn{ID: 7, Level: 60}
	c.Land(0, &spell.Spell{ID: 278, Duration: 540}, caster)
	c.Land(16, &spell.Spell{ID: 717, Duration: 3}, caster)
	c.Slot(0).Counters = 4
	return c
}

func exerciseStore(t *testing.T, st Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rows := RowsFromCharacter(sampleCharacter())
	if err := st.SaveBuffs(ctx, "Soandso", rows); err != nil {
		t.Fatalf("SaveBuffs: %v", err)
	}
	// Saving again replaces the snapshot.
	if err := st.SaveBuffs(ctx, "Soandso", rows[:1]); err != nil {
		t.Fatalf("SaveBuffs replace: %v", err)
	}
	got, err := st.LoadBuffs(ctx, "Soandso")
	if err != nil {
		t.Fatalf("LoadBuffs: %v", err)
	}
	if len(got) != 1 || got[0] != rows[0] {
		t.Fatalf("LoadBuffs = %+v, want %+v", got, rows[:1])
	}
	if none, err := st.LoadBuffs(ctx, "Nobody"); err != nil || len(none) != 0 {
		t.Errorf("LoadBuffs(Nobody) = %v, %v", none, err)
	}
}

func TestSQLiteStore(t *testing.T) {
	st, err := Open(context.Background(), config.StorageConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "buffs.db"),
	}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()
	exerciseStore(t, st)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("BUFFSTACK_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("BUFFSTACK_TEST_PG_DSN not set")
	}
	st, err := Open(context.Background(), config.StorageConfig{
		Driver:          "postgres",
		DSN:             dsn,
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()
	exerciseStore(t, st)
}

func TestOpenDrivers(t *testing.T) {
	st, err := Open(context.Background(), config.StorageConfig{Driver: "none"}, nil)
	if err != nil {
		t.Fatalf("Open(none): %v", err)
	}
	if _, ok := st.(NopStore); !ok {
		t.Errorf("Open(none) = %T", st)
	}
	if _, err := Open(context.Background(), config.StorageConfig{Driver: "mysql"}, nil); !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("Open(mysql) err = %v", err)
	}
}

func TestApplyRows(t *testing.T) {
	rows := RowsFromCharacter(sampleCharacter())
	rows = append(rows,
		BuffRow{Slot: 30, SpellID: 100},
		BuffRow{Slot: -1, SpellID: 100},
		BuffRow{Slot: 5, SpellID: 0},
		BuffRow{Slot: 6, SpellID: 9999},
	)

	c := buff.NewCharacter("Soandso", nil)
	valid := func(id uint16) bool { return id == 278 || id == 717 }
	if n := ApplyRows(c, rows, valid); n != 2 {
		t.Fatalf("ApplyRows restored %d, want 2", n)
	}
	s := c.Slot(0)
	if s.SpellID != 278 || s.Ticks != 540 || s.CasterLevel != 60 || s.CasterID != 7 || s.Counters != 4 {
		t.Errorf("slot 0 = %+v", *s)
	}
	if c.Slot(16).SpellID != 717 {
		t.Errorf("slot 16 = %+v", *c.Slot(16))
	}
	if !c.Slot(5).Empty() || !c.Slot(6).Empty() {
		t.Error("invalid rows restored")
	}
}
