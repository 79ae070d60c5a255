// Package negotiate implements the capability handshake carried inside
// appearance update messages.
package negotiate

import "fmt"

// TypeClientDllMessage marks an appearance update as a capability message.
// Every type at or above it is reserved for custom messages.
const TypeClientDllMessage uint16 = 256

// Feature identifies a negotiable capability. Only 15 bits travel on the wire.
type Feature uint16

const (
	FeatureBuffStackWithSongs    Feature = 2
	FeatureBuffStackWithoutSongs Feature = 3
	FeatureCodeVersion           Feature = 4
)

func (f Feature) String() string {
	switch f {
	case FeatureBuffStackWithSongs:
		return "buffstack+songs"
	case FeatureBuffStackWithoutSongs:
		return "buffstack"
	case FeatureCodeVersion:
		return "code_version"
	default:
		return fmt.Sprintf("feature(%d)", uint16(f))
	}
}

// Version1 is the only buff stacking protocol version recognised.
const Version1 uint16 = 1

const (
	responseBit = 0x80000000
	featureMask = 0x7FFF
	valueMask   = 0xFFFF
)

// Message is the appearance update envelope.
type Message struct {
	SpawnID   uint16
	Type      uint16
	Parameter uint32
}

// Encode builds a capability message. Responses carry bit 31; requests
// have it clear.
func Encode(feature Feature, value uint16, isRequest bool) Message {
	p := uint32(feature&featureMask)<<16 | uint32(value)
	if !isRequest {
		p |= responseBit
	}
	return Message{SpawnID: 0, Type: TypeClientDllMessage, Parameter: p}
}

// Decode splits Parameter into its fields.
func (m Message) Decode() (feature Feature, value uint16, isRequest bool) {
	isRequest = m.Parameter>>31 == 0
	feature = Feature(m.Parameter >> 16 & featureMask)
	value = uint16(m.Parameter & valueMask)
	return feature, value, isRequest
}

// Addressed reports whether m is a capability message for this session.
func (m Message) Addressed() bool {
	return m.Type == TypeClientDllMessage && m.SpawnID == 0
}

// Custom reports whether m uses a reserved type and must never reach the
// regular appearance path.
func (m Message) Custom() bool {
	return m.Type >= TypeClientDllMessage
}
