package handler

import (
	"github.com/eqmac/buffstack/internal/buff"
	"github.com/eqmac/buffstack/internal/net"
	"github.com/eqmac/buffstack/internal/net/packet"
	"github.com/eqmac/buffstack/internal/world"
	"go.uber.org/zap"
)

// HandleRemoveBuff processes C_REMOVE_BUFF.
// Format: [H physical slot]
func HandleRemoveBuff(sess *net.Session, r *packet.Reader, deps *Deps) {
	slot := int(r.ReadH())
	if r.Short() {
		return
	}
	p := player(sess, deps)
	if p == nil {
		return
	}
	if s := p.Char.Slot(slot); s == nil || s.Empty() {
		deps.Log.Debug("移除空的增益欄位", zap.String("name", p.Name()), zap.Int("slot", slot))
		return
	}
	fadeRemover{p: p, deps: deps}.RemoveBuff(p.Char, slot)
}

// HandleBuffList processes C_BUFF_LIST.
// Format: [C view] (0 = main window, 1 = song window)
//
// Reply: [C view][C max][C count], where max is the song slot count for
// the song window, then per occupied slot
// [C logical][H spell][C caster_level][D ticks][S name].
func HandleBuffList(sess *net.Session, r *packet.Reader, deps *Deps) {
	v := buff.View(r.ReadC())
	if r.Short() || v > buff.ExtendedView {
		return
	}
	p := player(sess, deps)
	if p == nil {
		return
	}

	// Logical 0..14 of the extended view already cover the song range.
	limit := p.Table.GetMaxBuffs(p.Char, v)
	if v == buff.ExtendedView {
		limit = p.Rules.Capacity().SongSlots
	}
	type entry struct {
		logical int
		slot    *buff.Slot
	}
	var entries []entry
	for i := 0; i < limit; i++ {
		if s := p.Table.GetBuff(p.Char, i, v); s != nil && !s.Empty() {
			entries = append(entries, entry{i, s})
		}
	}

	w := packet.NewWriterWithOpcode(packet.S_OPCODE_BUFF_LIST)
	w.WriteC(byte(v))
	w.WriteC(byte(limit))
	w.WriteC(byte(len(entries)))
	for _, e := range entries {
		w.WriteC(byte(e.logical))
		w.WriteH(e.slot.SpellID)
		w.WriteC(e.slot.CasterLevel)
		w.WriteD(e.slot.Ticks)
		name := ""
		if sp := deps.Catalog.Spell(e.slot.SpellID); sp != nil {
			name = sp.Name
		}
		w.WriteS(name)
	}
	sess.Send(w.Bytes())
}

// HandleDespawn processes C_DESPAWN.
// Format: [H spawn_id]
// Buffs cast by a despawned caster stay; their caster id simply stops
// resolving.
func HandleDespawn(sess *net.Session, r *packet.Reader, deps *Deps) {
	id := r.ReadH()
	if r.Short() {
		return
	}
	p := player(sess, deps)
	if p == nil || p.Char.Spawn.ID == id {
		return
	}
	// Players leave through their own session.
	if deps.World.IsPlayerSpawn(id) {
		return
	}
	deps.World.RemoveSpawn(id)
}

// TickBuffs counts down every timed slot of p and fades the ones that run
// out. Slots with negative ticks are permanent.
func TickBuffs(p *world.PlayerInfo, deps *Deps) {
	f := fadeRemover{p: p, deps: deps}
	for _, i := range p.Char.Occupied() {
		s := p.Char.Slot(i)
		if s.Ticks < 0 {
			continue
		}
		if s.Ticks > 0 {
			s.Ticks--
		}
		if s.Ticks == 0 {
			f.fade(p.Char, i, true)
		}
	}
}
