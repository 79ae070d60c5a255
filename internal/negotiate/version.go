package negotiate

import "go.uber.org/zap"

// VersionExchange reports the local code version on zone entry and answers
// the peer's version requests.
type VersionExchange struct {
	sender Sender
	local  uint16
	peer   uint16
	known  bool
	log    *zap.Logger
}

// NewVersionExchange creates a VersionExchange advertising local.
func NewVersionExchange(sender Sender, local uint16, log *zap.Logger) *VersionExchange {
	if log == nil {
		log = zap.NewNop()
	}
	return &VersionExchange{sender: sender, local: local, log: log}
}

// OnZone sends the local version as a request.
func (v *VersionExchange) OnZone() {
	v.sender.SendCapability(FeatureCodeVersion, v.local, true)
}

// Handle records the peer's version and re-sends ours when asked.
func (v *VersionExchange) Handle(feature Feature, value uint16, isRequest bool) bool {
	if feature != FeatureCodeVersion {
		return false
	}
	if value != 0 {
		v.peer = value
		v.known = true
		v.log.Debug("對端版本", zap.Uint16("version", value))
	}
	if isRequest {
		v.sender.SendCapability(FeatureCodeVersion, v.local, false)
	}
	return true
}

// PeerVersion returns the last version the peer reported.
func (v *VersionExchange) PeerVersion() (uint16, bool) {
	return v.peer, v.known
}
