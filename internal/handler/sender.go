package handler

import (
	"github.com/eqmac/buffstack/internal/buff"
	"github.com/eqmac/buffstack/internal/core/event"
	"github.com/eqmac/buffstack/internal/negotiate"
	"github.com/eqmac/buffstack/internal/net"
	"github.com/eqmac/buffstack/internal/net/packet"
	"github.com/eqmac/buffstack/internal/world"
	"go.uber.org/zap"
)

// capabilitySender writes capability messages as appearance packets.
type capabilitySender struct {
	sess *net.Session
}

func (c capabilitySender) SendCapability(feature negotiate.Feature, value uint16, isRequest bool) {
	sendAppearance(c.sess, negotiate.Encode(feature, value, isRequest))
}

func sendAppearance(sess *net.Session, m negotiate.Message) {
	w := packet.NewWriterWithOpcode(packet.OPCODE_APPEARANCE)
	w.WriteH(m.SpawnID)
	w.WriteH(m.Type)
	w.WriteDU(m.Parameter)
	sess.Send(w.Bytes())
}

// fadeRemover empties a slot, tells the peer and records the fade.
type fadeRemover struct {
	p    *world.PlayerInfo
	deps *Deps
}

func (f fadeRemover) RemoveBuff(ch *buff.Character, physical int) {
	f.fade(ch, physical, false)
}

func (f fadeRemover) fade(ch *buff.Character, physical int, expired bool) {
	old, ok := ch.Remove(physical)
	if !ok {
		return
	}
	sendBuffFade(f.p.Session, physical, old.SpellID)
	f.p.Dirty = true
	event.Emit(f.deps.Bus, event.BuffFaded{
		SessionID: f.p.SessionID,
		Name:      ch.Name,
		Slot:      physical,
		SpellID:   old.SpellID,
		Expired:   expired,
	})
	f.deps.Log.Debug("增益消失",
		zap.String("name", ch.Name),
		zap.Int("slot", physical),
		zap.Uint16("spell", old.SpellID),
		zap.Bool("expired", expired),
	)
}

func sendBuffFade(sess *net.Session, physical int, spellID uint16) {
	if sess == nil {
		return
	}
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_BUFF_FADE)
	w.WriteH(uint16(physical))
	w.WriteH(spellID)
	sess.Send(w.Bytes())
}
