package packet

// Client to server.
const (
	C_OPCODE_ZONE_ENTRY  byte = 0x01
	C_OPCODE_CAST        byte = 0x02
	C_OPCODE_REMOVE_BUFF byte = 0x03
	C_OPCODE_BUFF_LIST   byte = 0x04
	C_OPCODE_DESPAWN     byte = 0x05
)

// OPCODE_APPEARANCE travels in both directions and carries the feature
// negotiation messages.
const OPCODE_APPEARANCE byte = 0x40

// Server to client.
const (
	S_OPCODE_CAST_RESULT byte = 0x81
	S_OPCODE_BUFF_FADE   byte = 0x82
	S_OPCODE_BUFF_LIST   byte = 0x83
)
