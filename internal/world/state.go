package world

import (
	"sort"

	"github.com/eqmac/buffstack/internal/buff"
	"github.com/eqmac/buffstack/internal/negotiate"
	"github.com/eqmac/buffstack/internal/net"
	"github.com/eqmac/buffstack/internal/patch"
	"github.com/eqmac/buffstack/internal/rules"
)

// PlayerInfo holds in-memory data for a session that has entered a zone.
// Accessed only from the game loop goroutine.
type PlayerInfo struct {
	SessionID uint64
	Session   *net.Session
	Char      *buff.Character

	Rules       *rules.State
	Negotiation *negotiate.Dispatcher
	Version     *negotiate.VersionExchange
	Patches     *patch.Manager
	Table       *patch.Table

	Dirty bool // buffs changed since the last save
}

// Name returns the character name.
func (p *PlayerInfo) Name() string {
	return p.Char.Name
}

// State is the zone: players by session and every spawn the server has
// seen, which is what recorded caster ids resolve against.
type State struct {
	players map[uint64]*PlayerInfo
	byName  map[string]*PlayerInfo
	spawns  map[uint16]*buff.Spawn
}

func NewState() *State {
	return &State{
		players: make(map[uint64]*PlayerInfo),
		byName:  make(map[string]*PlayerInfo),
		spawns:  make(map[uint16]*buff.Spawn),
	}
}

// AddPlayer registers p and its spawn.
func (s *State) AddPlayer(p *PlayerInfo) {
	s.players[p.SessionID] = p
	s.byName[p.Char.Name] = p
	if p.Char.Spawn != nil {
		s.spawns[p.Char.Spawn.ID] = p.Char.Spawn
	}
}

// RemovePlayer drops the session's player and its spawn.
func (s *State) RemovePlayer(sessionID uint64) *PlayerInfo {
	p, ok := s.players[sessionID]
	if !ok {
		return nil
	}
	delete(s.players, sessionID)
	delete(s.byName, p.Char.Name)
	if sp := p.Char.Spawn; sp != nil && s.spawns[sp.ID] == sp {
		delete(s.spawns, sp.ID)
	}
	return p
}

func (s *State) GetBySession(sessionID uint64) *PlayerInfo {
	return s.players[sessionID]
}

func (s *State) GetByName(name string) *PlayerInfo {
	return s.byName[name]
}

func (s *State) PlayerCount() int {
	return len(s.players)
}

// AllPlayers visits players in session order.
func (s *State) AllPlayers(fn func(*PlayerInfo)) {
	ids := make([]uint64, 0, len(s.players))
	for id := range s.players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fn(s.players[id])
	}
}

// UpsertSpawn records sp, replacing an earlier spawn with the same id
// in place so pointers already handed out stay current.
func (s *State) UpsertSpawn(sp buff.Spawn) *buff.Spawn {
	if cur, ok := s.spawns[sp.ID]; ok {
		*cur = sp
		return cur
	}
	n := sp
	s.spawns[sp.ID] = &n
	return &n
}

// RemoveSpawn forgets the spawn with id.
func (s *State) RemoveSpawn(id uint16) {
	delete(s.spawns, id)
}

// Spawn resolves a caster id. Ids 0 and at or above buff.MaxSpawnID never
// resolve.
func (s *State) Spawn(id uint16) *buff.Spawn {
	if id == 0 || id >= buff.MaxSpawnID {
		return nil
	}
	return s.spawns[id]
}

func (s *State) SpawnCount() int {
	return len(s.spawns)
}

// PlayerBySpawn returns the player whose character uses spawn id, or nil.
func (s *State) PlayerBySpawn(id uint16) *PlayerInfo {
	for _, p := range s.players {
		if p.Char.Spawn != nil && p.Char.Spawn.ID == id {
			return p
		}
	}
	return nil
}

// IsPlayerSpawn reports whether id belongs to a player in the zone.
func (s *State) IsPlayerSpawn(id uint16) bool {
	return s.PlayerBySpawn(id) != nil
}
