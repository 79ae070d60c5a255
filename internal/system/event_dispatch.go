package system

import (
	"time"

	"github.com/eqmac/buffstack/internal/core/event"
	coresys "github.com/eqmac/buffstack/internal/core/system"
	"github.com/eqmac/buffstack/internal/world"
	"go.uber.org/zap"
)

// EventDispatchSystem delivers last tick's events. Phase 1 (PreUpdate).
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}

// SubscribeBuffEvents marks characters dirty when their buffs change and
// logs the change.
func SubscribeBuffEvents(bus *event.Bus, ws *world.State, log *zap.Logger) {
	event.Subscribe(bus, func(e event.BuffLanded) {
		if p := ws.GetBySession(e.SessionID); p != nil {
			p.Dirty = true
		}
		log.Debug("增益生效", zap.String("name", e.Name), zap.Int("slot", e.Slot), zap.Uint16("spell", e.SpellID))
	})
	event.Subscribe(bus, func(e event.BuffFaded) {
		if p := ws.GetBySession(e.SessionID); p != nil {
			p.Dirty = true
		}
		if e.Expired {
			log.Debug("增益到期", zap.String("name", e.Name), zap.Int("slot", e.Slot), zap.Uint16("spell", e.SpellID))
		}
	})
}
