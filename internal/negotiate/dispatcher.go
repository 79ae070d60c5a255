package negotiate

import "go.uber.org/zap"

// Sender transmits a capability message to the peer.
type Sender interface {
	SendCapability(feature Feature, value uint16, isRequest bool)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(feature Feature, value uint16, isRequest bool)

func (f SenderFunc) SendCapability(feature Feature, value uint16, isRequest bool) {
	f(feature, value, isRequest)
}

// Handler consumes a decoded capability message. It returns true when the
// feature belongs to it, which stops the chain.
type Handler interface {
	Handle(feature Feature, value uint16, isRequest bool) bool
}

// Participant takes part in negotiation on every zone entry.
type Participant interface {
	Handler
	OnZone()
}

// Dispatcher routes capability messages through an ordered handler chain
// and runs zone callbacks. One Dispatcher serves one session.
type Dispatcher struct {
	handlers []Handler
	onZone   []func()
	log      *zap.Logger
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher(log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{log: log}
}

// Register adds p to both the handler chain and the zone callbacks.
func (d *Dispatcher) Register(p Participant) {
	d.handlers = append(d.handlers, p)
	d.onZone = append(d.onZone, p.OnZone)
}

// Handle appends h to the handler chain.
func (d *Dispatcher) Handle(h Handler) {
	d.handlers = append(d.handlers, h)
}

// OnZoneFunc appends a zone callback.
func (d *Dispatcher) OnZoneFunc(fn func()) {
	d.onZone = append(d.onZone, fn)
}

// OnZone runs every zone callback in registration order.
func (d *Dispatcher) OnZone() {
	for _, fn := range d.onZone {
		fn()
	}
}

// Intercepts reports whether m must be swallowed instead of being handled
// as a regular appearance update. Callers should Deliver it afterwards.
func (d *Dispatcher) Intercepts(m Message) bool {
	return m.Custom()
}

// Deliver hands an addressed message to the first handler claiming it.
// It returns false when the message is not addressed or nobody claims it.
func (d *Dispatcher) Deliver(m Message) bool {
	if !m.Addressed() {
		return false
	}
	feature, value, isRequest := m.Decode()
	for _, h := range d.handlers {
		if h.Handle(feature, value, isRequest) {
			return true
		}
	}
	d.log.Debug("未處理的能力訊息",
		zap.Stringer("feature", feature),
		zap.Uint16("value", value),
		zap.Bool("request", isRequest),
	)
	return false
}
