package handler

import (
	"github.com/eqmac/buffstack/internal/negotiate"
	"github.com/eqmac/buffstack/internal/net"
	"github.com/eqmac/buffstack/internal/net/packet"
	"go.uber.org/zap"
)

// HandleAppearance processes APPEARANCE.
// Format: [H spawn_id][H type][DU parameter]
//
// Custom types are swallowed and, when addressed to us, handed to the
// negotiation dispatcher. Anything else is an ordinary appearance change,
// which this server has no use for.
func HandleAppearance(sess *net.Session, r *packet.Reader, deps *Deps) {
	m := negotiate.Message{
		SpawnID:   r.ReadH(),
		Type:      r.ReadH(),
		Parameter: r.ReadDU(),
	}
	if r.Short() {
		deps.Log.Debug("外觀封包長度不足", zap.Uint64("session", sess.ID))
		return
	}
	p := player(sess, deps)
	if p == nil {
		return
	}
	if !p.Negotiation.Intercepts(m) {
		deps.Log.Debug("忽略外觀更新",
			zap.Uint64("session", sess.ID),
			zap.Uint16("type", m.Type),
		)
		return
	}
	p.Negotiation.Deliver(m)
}
