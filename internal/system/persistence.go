package system

import (
	"time"

	coresys "github.com/eqmac/buffstack/internal/core/system"
	"github.com/eqmac/buffstack/internal/handler"
	"github.com/eqmac/buffstack/internal/world"
	"go.uber.org/zap"
)

// PersistenceSystem periodically saves the buff snapshots of players whose
// buffs changed. Phase 5 (Persist).
type PersistenceSystem struct {
	world    *world.State
	deps     *handler.Deps
	log      *zap.Logger
	interval time.Duration
	elapsed  time.Duration
}

func NewPersistenceSystem(ws *world.State, deps *handler.Deps, interval time.Duration) *PersistenceSystem {
	return &PersistenceSystem{world: ws, deps: deps, log: deps.Log, interval: interval}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(dt time.Duration) {
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed = 0
	s.savePlayers(true)
}

// SaveAllPlayers persists every player immediately, ignoring dirty flags.
// Called for graceful shutdown.
func (s *PersistenceSystem) SaveAllPlayers() {
	s.savePlayers(false)
}

func (s *PersistenceSystem) savePlayers(dirtyOnly bool) {
	count := 0
	s.world.AllPlayers(func(p *world.PlayerInfo) {
		if dirtyOnly && !p.Dirty {
			return
		}
		if err := handler.SaveBuffs(p, s.deps); err != nil {
			s.log.Error("自動存檔增益失敗", zap.String("name", p.Name()), zap.Error(err))
			return
		}
		count++
	})
	if count > 0 {
		s.log.Info("自動存檔完成", zap.Int("玩家數", count))
	}
}
