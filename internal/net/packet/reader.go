package packet

import (
	"encoding/binary"

	"golang.org/x/text/encoding/charmap"
)

// Reader reads fields from a frame payload.
// Byte 0 is always the opcode. Reads past the end return zero values;
// Short reports whether that happened.
type Reader struct {
	data  []byte
	off   int
	short bool
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data, off: 1} // skip opcode byte
}

func (r *Reader) Opcode() byte {
	if len(r.data) == 0 {
		return 0
	}
	return r.data[0]
}

// ReadC reads 1 unsigned byte.
func (r *Reader) ReadC() byte {
	if r.off >= len(r.data) {
		r.short = true
		return 0
	}
	v := r.data[r.off]
	r.off++
	return v
}

// ReadH reads 2 bytes as little-endian uint16.
func (r *Reader) ReadH() uint16 {
	if r.off+2 > len(r.data) {
		r.short = true
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

// ReadD reads 4 bytes as little-endian int32.
func (r *Reader) ReadD() int32 {
	return int32(r.ReadDU())
}

// ReadDU reads 4 bytes as little-endian uint32.
func (r *Reader) ReadDU() uint32 {
	if r.off+4 > len(r.data) {
		r.short = true
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

// ReadS reads a null-terminated Windows-1252 string and returns UTF-8.
func (r *Reader) ReadS() string {
	start := r.off
	for r.off < len(r.data) {
		if r.data[r.off] == 0 {
			raw := r.data[start:r.off]
			r.off++ // skip null terminator
			return decodeString(raw)
		}
		r.off++
	}
	r.short = true
	return decodeString(r.data[start:r.off])
}

// decodeString converts Windows-1252 bytes to a UTF-8 string.
// Pure ASCII passes through unchanged.
func decodeString(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	allASCII := true
	for _, b := range raw {
		if b >= 0x80 {
			allASCII = false
			break
		}
	}
	if allASCII {
		return string(raw)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

// Short reports whether any read ran past the end of the payload.
func (r *Reader) Short() bool {
	return r.short
}
