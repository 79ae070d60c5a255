package spell

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Catalog holds all spells indexed by ID.
type Catalog struct {
	spells  map[uint16]*Spell
	ignored [256]bool
}

// NewCatalog builds a catalog from already-constructed spells. ignored may be
// nil to use DefaultIgnoredEffects.
func NewCatalog(spells []*Spell, ignored []Effect) (*Catalog, error) {
	c := &Catalog{spells: make(map[uint16]*Spell, len(spells))}
	if ignored == nil {
		ignored = DefaultIgnoredEffects
	}
	for _, e := range ignored {
		c.ignored[e] = true
	}
	for _, s := range spells {
		if s.ID == 0 || int(s.ID) >= MaxSpellID {
			return nil, fmt.Errorf("spell %d: id out of range", s.ID)
		}
		if _, dup := c.spells[s.ID]; dup {
			return nil, fmt.Errorf("spell %d: duplicate id", s.ID)
		}
		c.spells[s.ID] = s
	}
	return c, nil
}

// Valid reports whether id is inside the spell id space. It does not check
// that a record exists; Spell does that.
func (c *Catalog) Valid(id uint16) bool {
	return id != 0 && int(id) < MaxSpellID
}

// Spell returns the spell for id, or nil if not found.
func (c *Catalog) Spell(id uint16) *Spell {
	return c.spells[id]
}

// IgnoredByStacking reports whether e is skipped by the stacking comparison.
func (c *Catalog) IgnoredByStacking(e Effect) bool {
	return c.ignored[e]
}

// Count returns total loaded spells.
func (c *Catalog) Count() int {
	return len(c.spells)
}

// All returns all spells ordered by ID.
func (c *Catalog) All() []*Spell {
	result := make([]*Spell, 0, len(c.spells))
	for _, s := range c.spells {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// --- YAML loading ---

type effectEntry struct {
	Effect  int    `yaml:"effect"`
	Base    int16  `yaml:"base"`
	Max     int16  `yaml:"max"`
	Formula uint16 `yaml:"formula"`
}

type spellEntry struct {
	ID            uint16        `yaml:"id"`
	Name          string        `yaml:"name"`
	Beneficial    bool          `yaml:"beneficial"`
	Bardsong      bool          `yaml:"bardsong"`
	ShortBuffBox  *bool         `yaml:"short_buff_box"`
	StackMultiple bool          `yaml:"stack_multiple"`
	Duration      int32         `yaml:"duration"`
	Effects       []effectEntry `yaml:"effects"`
}

type catalogFile struct {
	IgnoredEffects []int        `yaml:"ignored_effects"`
	Spells         []spellEntry `yaml:"spells"`
}

// LoadCatalog loads spell definitions from YAML.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spells: %w", err)
	}
	c, err := ParseCatalog(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ParseCatalog parses a YAML spell catalog document.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse spells: %w", err)
	}

	var ignored []Effect
	if f.IgnoredEffects != nil {
		ignored = make([]Effect, 0, len(f.IgnoredEffects))
		for _, e := range f.IgnoredEffects {
			if e < 0 || e > 255 {
				return nil, fmt.Errorf("ignored effect %d out of range", e)
			}
			ignored = append(ignored, Effect(e))
		}
	}

	spells := make([]*Spell, 0, len(f.Spells))
	for i := range f.Spells {
		s, err := f.Spells[i].toSpell()
		if err != nil {
			return nil, err
		}
		spells = append(spells, s)
	}
	return NewCatalog(spells, ignored)
}

func (e *spellEntry) toSpell() (*Spell, error) {
	if len(e.Effects) > NumEffects {
		return nil, fmt.Errorf("spell %d: %d effects, max %d", e.ID, len(e.Effects), NumEffects)
	}
	s := &Spell{
		ID:            e.ID,
		Name:          e.Name,
		Beneficial:    e.Beneficial,
		Bardsong:      e.Bardsong,
		ShortBuffBox:  e.Bardsong,
		StackMultiple: e.StackMultiple,
		Duration:      e.Duration,
	}
	if e.ShortBuffBox != nil {
		s.ShortBuffBox = *e.ShortBuffBox
	}
	for i := range s.Effects {
		s.Effects[i] = EffectBlank
	}
	for i, fx := range e.Effects {
		if fx.Effect < 0 || fx.Effect > 255 {
			return nil, fmt.Errorf("spell %d: effect %d out of range", e.ID, fx.Effect)
		}
		s.Effects[i] = Effect(fx.Effect)
		s.Base[i] = fx.Base
		s.Max[i] = fx.Max
		s.Formula[i] = fx.Formula
	}
	return s, nil
}
