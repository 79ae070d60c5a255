package system

import (
	"time"

	coresys "github.com/eqmac/buffstack/internal/core/system"
	"github.com/eqmac/buffstack/internal/handler"
	"github.com/eqmac/buffstack/internal/net"
	"github.com/eqmac/buffstack/internal/net/packet"
	"go.uber.org/zap"
)

// InputSystem drains packet queues from all sessions and dispatches them
// through the packet registry. Phase 0 (Input).
type InputSystem struct {
	netServer  *net.Server
	registry   *packet.Registry
	store      *net.SessionStore
	maxPerTick int
	deps       *handler.Deps
	log        *zap.Logger
}

func NewInputSystem(netServer *net.Server, registry *packet.Registry, store *net.SessionStore, maxPerTick int, deps *handler.Deps) *InputSystem {
	return &InputSystem{
		netServer:  netServer,
		registry:   registry,
		store:      store,
		maxPerTick: maxPerTick,
		deps:       deps,
		log:        deps.Log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	if s.netServer != nil {
		s.acceptSessions()
		s.reapDead()
	}

	s.store.ForEach(func(sess *net.Session) {
		if sess.IsClosed() {
			// Drain what arrived before the close so a last handshake
			// answer or removal is not lost.
			s.drain(sess)
			sess.FlushOutput()
			handler.LeaveZone(sess, s.deps)
			if s.netServer != nil {
				s.netServer.NotifyDead(sess.ID)
			}
			s.store.Remove(sess.ID)
			return
		}
		s.drain(sess)
		// Flush early so negotiation replies leave before the rest of the tick.
		sess.FlushOutput()
	})
}

func (s *InputSystem) acceptSessions() {
	for {
		select {
		case sess := <-s.netServer.NewSessions():
			s.store.Add(sess)
		default:
			return
		}
	}
}

func (s *InputSystem) reapDead() {
	for {
		select {
		case id := <-s.netServer.DeadSessions():
			s.store.Remove(id)
		default:
			return
		}
	}
}

// drain dispatches up to maxPerTick packets from sess.
func (s *InputSystem) drain(sess *net.Session) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case data := <-sess.InQueue:
			if err := s.registry.Dispatch(sess, sess.State(), data); err != nil {
				s.log.Debug("封包分派錯誤",
					zap.Uint64("session", sess.ID),
					zap.Error(err),
				)
			}
		default:
			return
		}
	}
}
