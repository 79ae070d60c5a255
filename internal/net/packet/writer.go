package packet

import (
	"encoding/binary"

	"golang.org/x/text/encoding/charmap"
)

// Writer builds a server packet. All multi-byte writes are little-endian.
type Writer struct {
	buf []byte
}

func NewWriterWithOpcode(opcode byte) *Writer {
	w := &Writer{buf: make([]byte, 0, 64)}
	w.WriteC(opcode)
	return w
}

// WriteC writes 1 byte.
func (w *Writer) WriteC(v byte) {
	w.buf = append(w.buf, v)
}

// WriteH writes 2 bytes little-endian.
func (w *Writer) WriteH(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteD writes 4 bytes little-endian (signed).
func (w *Writer) WriteD(v int32) {
	w.WriteDU(uint32(v))
}

// WriteDU writes 4 bytes little-endian unsigned.
func (w *Writer) WriteDU(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteS writes a null-terminated string, converting UTF-8 to Windows-1252.
// Characters outside the code page are replaced with '?'.
func (w *Writer) WriteS(s string) {
	if len(s) == 0 {
		w.buf = append(w.buf, 0)
		return
	}
	for _, r := range s {
		if b, ok := charmap.Windows1252.EncodeRune(r); ok {
			w.buf = append(w.buf, b)
			continue
		}
		w.buf = append(w.buf, '?')
	}
	w.buf = append(w.buf, 0)
}

// Bytes returns the packet content.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the current length.
func (w *Writer) Len() int {
	return len(w.buf)
}
