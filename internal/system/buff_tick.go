package system

import (
	"time"

	coresys "github.com/eqmac/buffstack/internal/core/system"
	"github.com/eqmac/buffstack/internal/handler"
	"github.com/eqmac/buffstack/internal/world"
)

// BuffTickSystem counts down buff durations once per buff tick, which is
// usually many game loop ticks long. Phase 2 (Update).
type BuffTickSystem struct {
	world    *world.State
	deps     *handler.Deps
	interval time.Duration
	elapsed  time.Duration
}

func NewBuffTickSystem(ws *world.State, deps *handler.Deps, interval time.Duration) *BuffTickSystem {
	return &BuffTickSystem{world: ws, deps: deps, interval: interval}
}

func (s *BuffTickSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *BuffTickSystem) Update(dt time.Duration) {
	s.elapsed += dt
	for s.elapsed >= s.interval {
		s.elapsed -= s.interval
		s.world.AllPlayers(func(p *world.PlayerInfo) {
			handler.TickBuffs(p, s.deps)
		})
	}
}
