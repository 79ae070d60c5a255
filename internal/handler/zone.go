package handler

import (
	"context"
	"time"

	"github.com/eqmac/buffstack/internal/buff"
	"github.com/eqmac/buffstack/internal/negotiate"
	"github.com/eqmac/buffstack/internal/net"
	"github.com/eqmac/buffstack/internal/net/packet"
	"github.com/eqmac/buffstack/internal/patch"
	"github.com/eqmac/buffstack/internal/persist"
	"github.com/eqmac/buffstack/internal/rules"
	"github.com/eqmac/buffstack/internal/stacking"
	"github.com/eqmac/buffstack/internal/world"
	"go.uber.org/zap"
)

// HandleZoneEntry processes C_ZONE_ENTRY.
// Format: [S name][H spawn_id][C kind][C class][C gm][C level]
//
// The first entry builds the character, restores its saved buffs and
// installs the patched routines. Every entry, first or not, restarts
// negotiation; the rule state is left as it is until the peer answers.
// An entry claiming another player's spawn id is ignored.
func HandleZoneEntry(sess *net.Session, r *packet.Reader, deps *Deps) {
	name := r.ReadS()
	spawn := buff.Spawn{
		ID:    r.ReadH(),
		Kind:  buff.Kind(r.ReadC()),
		Class: buff.Class(r.ReadC()),
		GM:    r.ReadC() != 0,
		Level: r.ReadC(),
	}
	if r.Short() || name == "" || spawn.ID == 0 || spawn.ID >= buff.MaxSpawnID {
		deps.Log.Warn("無效的進入區域封包", zap.Uint64("session", sess.ID), zap.String("name", name))
		return
	}

	if owner := deps.World.PlayerBySpawn(spawn.ID); owner != nil && owner.SessionID != sess.ID {
		deps.Log.Warn("出生編號已被其他角色使用",
			zap.Uint64("session", sess.ID),
			zap.String("name", name),
			zap.Uint16("spawn", spawn.ID),
			zap.String("owner", owner.Name()),
		)
		return
	}

	p := deps.World.GetBySession(sess.ID)
	if p != nil {
		if p.Char.Spawn.ID != spawn.ID {
			deps.World.RemoveSpawn(p.Char.Spawn.ID)
		}
		p.Char.Spawn = deps.World.UpsertSpawn(spawn)
		deps.Log.Info("角色換區", zap.String("name", p.Name()), zap.Uint16("spawn", spawn.ID))
		p.Negotiation.OnZone()
		return
	}
	if other := deps.World.GetByName(name); other != nil {
		deps.Log.Warn("角色已在線上", zap.String("name", name), zap.Uint64("session", other.SessionID))
		sess.Close()
		return
	}

	p, err := newPlayer(sess, name, deps.World.UpsertSpawn(spawn), deps)
	if err != nil {
		deps.Log.Error("建立角色失敗", zap.String("name", name), zap.Error(err))
		sess.Close()
		return
	}
	restoreBuffs(p, deps)

	deps.World.AddPlayer(p)
	sess.CharName = name
	sess.SetState(packet.StateInZone)
	deps.Log.Info("角色進入區域",
		zap.Uint64("session", sess.ID),
		zap.String("name", name),
		zap.Stringer("kind", spawn.Kind),
		zap.Uint8("level", spawn.Level),
		zap.String("patches", p.Patches.Status()),
	)
	p.Negotiation.OnZone()
}

// newPlayer wires one session's rule state, engines, detour table and
// negotiation participants.
func newPlayer(sess *net.Session, name string, spawn *buff.Spawn, deps *Deps) (*world.PlayerInfo, error) {
	log := deps.Log.With(zap.Uint64("session", sess.ID), zap.String("name", name))
	p := &world.PlayerInfo{
		SessionID: sess.ID,
		Session:   sess,
		Char:      buff.NewCharacter(name, spawn),
		Rules:     rules.NewState(),
	}

	sd := stacking.Deps{
		Catalog: deps.Catalog,
		Effects: deps.Effects,
		Spawns:  deps.World,
		Remover: fadeRemover{p: p, deps: deps},
		Rules:   p.Rules,
		Log:     log,
	}
	classic := stacking.New(sd, stacking.Options{Classic: true})
	patched := stacking.New(sd, stacking.Options{})

	p.Table = patch.NewTable(classic)
	p.Patches = patch.NewManager(patched, p.Rules, log)
	if err := p.Patches.Apply(p.Table); err != nil {
		return nil, err
	}

	sender := capabilitySender{sess: sess}
	p.Negotiation = negotiate.NewDispatcher(log)
	p.Version = negotiate.NewVersionExchange(sender, deps.Config.Negotiation.CodeVersion, log)
	p.Negotiation.Register(p.Version)
	p.Negotiation.Register(negotiate.NewHandshake(sender, p.Rules, deps.Config.Negotiation.SongWindow, log))
	return p, nil
}

func restoreBuffs(p *world.PlayerInfo, deps *Deps) {
	if deps.Store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := deps.Store.LoadBuffs(ctx, p.Name())
	if err != nil {
		deps.Log.Error("讀取增益存檔失敗", zap.String("name", p.Name()), zap.Error(err))
		return
	}
	if n := persist.ApplyRows(p.Char, rows, deps.Catalog.Valid); n > 0 {
		deps.Log.Info("增益已還原", zap.String("name", p.Name()), zap.Int("count", n))
	}
}

// SaveBuffs writes the player's buff snapshot and clears Dirty on success.
func SaveBuffs(p *world.PlayerInfo, deps *Deps) error {
	if deps.Store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := deps.Store.SaveBuffs(ctx, p.Name(), persist.RowsFromCharacter(p.Char)); err != nil {
		return err
	}
	p.Dirty = false
	return nil
}

// LeaveZone removes the session's player, restores the classic routines
// and saves its buffs. Called by InputSystem on disconnect.
func LeaveZone(sess *net.Session, deps *Deps) {
	p := deps.World.RemovePlayer(sess.ID)
	if p == nil {
		return
	}
	if err := p.Patches.Restore(); err != nil {
		deps.Log.Warn("還原修補失敗", zap.String("name", p.Name()), zap.Error(err))
	}
	if err := SaveBuffs(p, deps); err != nil {
		deps.Log.Error("離線存檔增益失敗", zap.String("name", p.Name()), zap.Error(err))
	}
	deps.Log.Info("角色離開區域", zap.Uint64("session", sess.ID), zap.String("name", p.Name()))
}
