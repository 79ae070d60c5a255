package patch

import (
	"fmt"

	"github.com/eqmac/buffstack/internal/buff"
	"github.com/eqmac/buffstack/internal/stacking"
	"go.uber.org/zap"
)

// Entry records one installed replacement.
type Entry struct {
	Name       string
	Trampoline any
	Active     bool
}

// Manager installs the buff stacking replacements.
type Manager struct {
	patched   *stacking.Engine
	rules     stacking.Rules
	log       *zap.Logger
	installer Installer
	entries   []Entry
}

// NewManager creates a Manager. patched is the engine the replacement
// FindAffectSlot uses while r reports the rules enabled.
func NewManager(patched *stacking.Engine, r stacking.Rules, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{patched: patched, rules: r, log: log}
}

// Apply installs every replacement into inst. On failure the ones already
// installed are restored.
func (m *Manager) Apply(inst Installer) error {
	m.installer = inst

	var classicFind FindAffectSlotFunc
	find := FindAffectSlotFunc(func(ch *buff.Character, spellID uint16, caster *buff.Spawn, dryRun bool) stacking.Result {
		if m.rules.Capacity().Enabled || classicFind == nil {
			return m.patched.Resolve(ch, spellID, caster, dryRun)
		}
		return classicFind(ch, spellID, caster, dryRun)
	})
	maxBuffs := GetMaxBuffsFunc(func(ch *buff.Character, v buff.View) int {
		return buff.EffectiveMaxSlots(ch, v, m.rules.Capacity().MaxSlots)
	})

	tramp, err := m.apply(TargetFindAffectSlot, find)
	if err != nil {
		return err
	}
	classicFind, _ = tramp.(FindAffectSlotFunc)

	if _, err := m.apply(TargetGetMaxBuffs, maxBuffs); err != nil {
		m.Restore()
		return err
	}
	if _, err := m.apply(TargetGetBuff, GetBuffFunc(buff.ReadSlot)); err != nil {
		m.Restore()
		return err
	}
	m.log.Debug("增益修補已套用", zap.Int("count", len(m.entries)))
	return nil
}

func (m *Manager) apply(name string, replacement any) (any, error) {
	tramp, err := m.installer.Install(name, replacement)
	if err != nil {
		m.log.Error("修補安裝失敗", zap.String("target", name), zap.Error(err))
		return nil, err
	}
	m.entries = append(m.entries, Entry{Name: name, Trampoline: tramp, Active: true})
	return tramp, nil
}

// Restore reinstalls the trampolines in reverse order.
func (m *Manager) Restore() error {
	var firstErr error
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := &m.entries[i]
		if !e.Active {
			continue
		}
		if _, err := m.installer.Install(e.Name, e.Trampoline); err != nil {
			m.log.Error("修補還原失敗", zap.String("target", e.Name), zap.Error(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("restore %s: %w", e.Name, err)
			}
			continue
		}
		e.Active = false
	}
	return firstErr
}

// Entries returns a copy of the installed entries.
func (m *Manager) Entries() []Entry {
	return append([]Entry(nil), m.entries...)
}

// Status summarises the active entries.
func (m *Manager) Status() string {
	active := 0
	for _, e := range m.entries {
		if e.Active {
			active++
		}
	}
	return fmt.Sprintf("patches: %d/%d", active, len(m.entries))
}
