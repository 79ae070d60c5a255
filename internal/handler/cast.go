package handler

import (
	"github.com/eqmac/buffstack/internal/buff"
	"github.com/eqmac/buffstack/internal/core/event"
	"github.com/eqmac/buffstack/internal/net"
	"github.com/eqmac/buffstack/internal/net/packet"
	"github.com/eqmac/buffstack/internal/stacking"
	"go.uber.org/zap"
)

// HandleCast processes C_CAST.
// Format: [H spell][H caster_id][C caster_kind][C caster_class][C caster_level][C dry_run]
//
// The slot is chosen through the session's detour table so the negotiated
// rules decide between the classic and patched routine. A dry run only
// reports the slot.
func HandleCast(sess *net.Session, r *packet.Reader, deps *Deps) {
	spellID := r.ReadH()
	casterSpawn := buff.Spawn{
		ID:    r.ReadH(),
		Kind:  buff.Kind(r.ReadC()),
		Class: buff.Class(r.ReadC()),
		Level: r.ReadC(),
	}
	dryRun := r.ReadC() != 0
	if r.Short() {
		deps.Log.Debug("施法封包長度不足", zap.Uint64("session", sess.ID))
		return
	}
	p := player(sess, deps)
	if p == nil {
		return
	}

	caster := resolveCaster(casterSpawn, p.Char.Spawn, deps)
	res := p.Table.FindAffectSlot(p.Char, spellID, caster, dryRun)
	if res.Landed() && !dryRun {
		if sp := deps.Catalog.Spell(spellID); sp != nil {
			p.Char.Land(res.Slot, sp, caster)
			p.Dirty = true
			event.Emit(deps.Bus, event.BuffLanded{
				SessionID: p.SessionID,
				Name:      p.Name(),
				Slot:      res.Slot,
				SpellID:   spellID,
			})
		}
	}
	deps.Log.Debug("施法結果",
		zap.String("name", p.Name()),
		zap.Uint16("spell", spellID),
		zap.Int("slot", res.Slot),
		zap.Bool("dry_run", dryRun),
	)
	sendCastResult(sess, spellID, res, dryRun)
}

// resolveCaster returns the spawn record the cast is attributed to. A
// caster with the target's own id is the target, and a caster with another
// player's id is that player's record as it stands; packet fields never
// rewrite a player spawn. Casters with an id that cannot be recorded are
// used as given without being remembered.
func resolveCaster(s buff.Spawn, self *buff.Spawn, deps *Deps) *buff.Spawn {
	if self != nil && s.ID == self.ID {
		return self
	}
	if s.ID == 0 || s.ID >= buff.MaxSpawnID {
		return &s
	}
	if owner := deps.World.PlayerBySpawn(s.ID); owner != nil {
		return owner.Char.Spawn
	}
	return deps.World.UpsertSpawn(s)
}

func sendCastResult(sess *net.Session, spellID uint16, res stacking.Result, dryRun bool) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_CAST_RESULT)
	w.WriteH(spellID)
	w.WriteD(int32(res.Slot))
	if dryRun {
		w.WriteC(1)
	} else {
		w.WriteC(0)
	}
	sess.Send(w.Bytes())
}
