package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eqmac/buffstack/internal/buff"
	"github.com/eqmac/buffstack/internal/rules"
	"github.com/eqmac/buffstack/internal/scripting"
	"github.com/eqmac/buffstack/internal/spell"
	"github.com/eqmac/buffstack/internal/stacking"
)

// fixture is a character snapshot in YAML.
type fixture struct {
	Name   string         `yaml:"name"`
	Spawn  fixtureSpawn   `yaml:"spawn"`
	Songs  int            `yaml:"songs"` // negotiated extended slots, 0 = none
	Spawns []fixtureSpawn `yaml:"spawns"`
	Buffs  []fixtureBuff  `yaml:"buffs"`
}

type fixtureSpawn struct {
	ID    uint16 `yaml:"id"`
	Kind  string `yaml:"kind"` // "player" or "npc"
	Class uint8  `yaml:"class"`
	GM    bool   `yaml:"gm"`
	Level uint8  `yaml:"level"`
}

type fixtureBuff struct {
	Slot        int    `yaml:"slot"`
	Spell       uint16 `yaml:"spell"`
	CasterID    uint16 `yaml:"caster_id"`
	CasterLevel uint8  `yaml:"caster_level"`
	Ticks       *int32 `yaml:"ticks"`
}

func parseKind(s string) (buff.Kind, error) {
	switch s {
	case "", "player":
		return buff.KindPlayer, nil
	case "npc":
		return buff.KindNPC, nil
	default:
		return 0, fmt.Errorf("unknown spawn kind %q", s)
	}
}

func (f fixtureSpawn) toSpawn() (*buff.Spawn, error) {
	kind, err := parseKind(f.Kind)
	if err != nil {
		return nil, err
	}
	return &buff.Spawn{ID: f.ID, Kind: kind, Class: buff.Class(f.Class), GM: f.GM, Level: f.Level}, nil
}

type spawnMap map[uint16]*buff.Spawn

func (m spawnMap) Spawn(id uint16) *buff.Spawn { return m[id] }

// loadFixture builds the character and its spawn table from a fixture file.
func loadFixture(path string, cat *spell.Catalog) (*fixture, *buff.Character, spawnMap, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read fixture: %w", err)
	}
	var f fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, nil, nil, fmt.Errorf("parse fixture: %w", err)
	}

	self, err := f.Spawn.toSpawn()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("spawn: %w", err)
	}
	spawns := spawnMap{self.ID: self}
	for _, fs := range f.Spawns {
		sp, err := fs.toSpawn()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("spawn %d: %w", fs.ID, err)
		}
		spawns[sp.ID] = sp
	}

	ch := buff.NewCharacter(f.Name, self)
	for _, b := range f.Buffs {
		sp := cat.Spell(b.Spell)
		if sp == nil {
			return nil, nil, nil, fmt.Errorf("slot %d: unknown spell %d", b.Slot, b.Spell)
		}
		s := ch.Land(b.Slot, sp, &buff.Spawn{ID: b.CasterID, Level: b.CasterLevel})
		if s == nil {
			return nil, nil, nil, fmt.Errorf("slot %d out of range", b.Slot)
		}
		if b.Ticks != nil {
			s.Ticks = *b.Ticks
		}
	}
	return &f, ch, spawns, nil
}

type resolveFlags struct {
	spells      string
	fixture     string
	scripts     string
	spellID     uint16
	casterID    uint16
	casterKind  string
	casterClass uint8
	casterLevel uint8
	songs       int
	classic     bool
}

func newResolveCmd() *cobra.Command {
	var fl resolveFlags
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Prints the slot a spell would take on a fixture character",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd, fl)
		},
	}
	f := cmd.Flags()
	f.StringVar(&fl.spells, "spells", "data/yaml/spells.yaml", "spell catalog YAML")
	f.StringVar(&fl.fixture, "fixture", "", "character fixture YAML")
	f.StringVar(&fl.scripts, "scripts", "", "Lua scripts directory (built-in formulas when empty)")
	f.Uint16Var(&fl.spellID, "spell", 0, "spell id to cast")
	f.Uint16Var(&fl.casterID, "caster-id", 0, "caster spawn id")
	f.StringVar(&fl.casterKind, "caster-kind", "player", "caster kind: player or npc")
	f.Uint8Var(&fl.casterClass, "caster-class", 0, "caster class id")
	f.Uint8Var(&fl.casterLevel, "caster-level", 60, "caster level")
	f.IntVar(&fl.songs, "songs", -1, "negotiated extended slots (-1 uses the fixture)")
	f.BoolVar(&fl.classic, "classic", false, "run the unpatched routine")
	_ = cmd.MarkFlagRequired("fixture")
	_ = cmd.MarkFlagRequired("spell")
	return cmd
}

func runResolve(cmd *cobra.Command, fl resolveFlags) error {
	cat, err := spell.LoadCatalog(fl.spells)
	if err != nil {
		return err
	}
	f, ch, spawns, err := loadFixture(fl.fixture, cat)
	if err != nil {
		return err
	}

	var effects stacking.Effects = stacking.DefaultEffects{Catalog: cat}
	if fl.scripts != "" {
		eng, err := scripting.NewEngine(fl.scripts, cat, zap.NewNop())
		if err != nil {
			return err
		}
		defer eng.Close()
		effects = eng
	}

	songs := f.Songs
	if fl.songs >= 0 {
		songs = fl.songs
	}
	rs := rules.NewState()
	if songs > 0 {
		rs.Apply(true, songs)
	}

	kind, err := parseKind(fl.casterKind)
	if err != nil {
		return fmt.Errorf("caster: %w", err)
	}
	caster := &buff.Spawn{ID: fl.casterID, Kind: kind, Class: buff.Class(fl.casterClass), Level: fl.casterLevel}
	if known := spawns.Spawn(fl.casterID); known != nil {
		caster = known
	}

	eng := stacking.New(stacking.Deps{
		Catalog: cat,
		Effects: effects,
		Spawns:  spawns,
		Rules:   rs,
	}, stacking.Options{Classic: fl.classic})

	res := eng.Resolve(ch, fl.spellID, caster, true)
	out := cmd.OutOrStdout()
	name := "?"
	if sp := cat.Spell(fl.spellID); sp != nil {
		name = sp.Name
	}
	if !res.Landed() {
		fmt.Fprintf(out, "spell %d (%s): blocked\n", fl.spellID, name)
		return nil
	}
	state := "empty"
	if s := ch.Slot(res.Slot); s != nil && !s.Empty() {
		state = fmt.Sprintf("replaces spell %d", s.SpellID)
	}
	fmt.Fprintf(out, "spell %d (%s): slot %d (%s)\n", fl.spellID, name, res.Slot, state)
	return nil
}
