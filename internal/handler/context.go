package handler

import (
	"github.com/eqmac/buffstack/internal/config"
	"github.com/eqmac/buffstack/internal/core/event"
	"github.com/eqmac/buffstack/internal/net"
	"github.com/eqmac/buffstack/internal/net/packet"
	"github.com/eqmac/buffstack/internal/persist"
	"github.com/eqmac/buffstack/internal/spell"
	"github.com/eqmac/buffstack/internal/stacking"
	"github.com/eqmac/buffstack/internal/world"
	"go.uber.org/zap"
)

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	Config  *config.Config
	Log     *zap.Logger
	World   *world.State
	Catalog *spell.Catalog
	Effects stacking.Effects // Lua formulas, or stacking.DefaultEffects
	Store   persist.Store
	Bus     *event.Bus
}

// RegisterAll registers all packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	// Zone entry is repeated on every zone change.
	reg.Register(packet.C_OPCODE_ZONE_ENTRY,
		[]packet.SessionState{packet.StateConnected, packet.StateInZone},
		func(sess any, r *packet.Reader) {
			HandleZoneEntry(sess.(*net.Session), r, deps)
		},
	)

	inZone := []packet.SessionState{packet.StateInZone}

	reg.Register(packet.OPCODE_APPEARANCE, inZone,
		func(sess any, r *packet.Reader) {
			HandleAppearance(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_CAST, inZone,
		func(sess any, r *packet.Reader) {
			HandleCast(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_REMOVE_BUFF, inZone,
		func(sess any, r *packet.Reader) {
			HandleRemoveBuff(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_BUFF_LIST, inZone,
		func(sess any, r *packet.Reader) {
			HandleBuffList(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_DESPAWN, inZone,
		func(sess any, r *packet.Reader) {
			HandleDespawn(sess.(*net.Session), r, deps)
		},
	)
}

// player returns the session's player, logging when there is none.
func player(sess *net.Session, deps *Deps) *world.PlayerInfo {
	p := deps.World.GetBySession(sess.ID)
	if p == nil {
		deps.Log.Warn("找不到連線的角色", zap.Uint64("session", sess.ID))
	}
	return p
}
