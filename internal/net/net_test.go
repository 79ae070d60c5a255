package net

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"github.com/eqmac/buffstack/internal/net/packet"
	"go.uber.org/zap"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte{packet.OPCODE_APPEARANCE, 1, 2, 3}
	if err := WriteFrame(&buf, payload); err != nil {
		t.Fatal(err)
	}
	if got := buf.Bytes()[:2]; !bytes.Equal(got, []byte{6, 0}) {
		t.Errorf("header % x, want 06 00", got)
	}
	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload % x", got)
	}
}

func TestFrameErrors(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"header only length", []byte{2, 0}},
		{"length below header", []byte{1, 0}},
		{"truncated payload", []byte{8, 0, 1, 2}},
		{"truncated header", []byte{5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadFrame(bytes.NewReader(tt.in)); err == nil {
				t.Error("expected error")
			}
		})
	}
	if err := WriteFrame(io.Discard, nil); err == nil {
		t.Error("empty payload accepted")
	}
}

func pipeSession(t *testing.T, opts SessionOptions) (*Session, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	s := NewSession(server, 1, opts, zap.NewNop())
	s.Start()
	t.Cleanup(func() {
		s.Close()
		client.Close()
	})
	return s, client
}

func TestSessionQueues(t *testing.T) {
	s, client := pipeSession(t, SessionOptions{InQueueSize: 4, OutQueueSize: 4})
	if s.State() != packet.StateConnected {
		t.Errorf("initial state %s", s.State())
	}

	go WriteFrame(client, []byte{packet.C_OPCODE_BUFF_LIST, 1})
	select {
	case got := <-s.InQueue:
		if !bytes.Equal(got, []byte{packet.C_OPCODE_BUFF_LIST, 1}) {
			t.Errorf("InQueue got % x", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no packet queued")
	}

	s.Send([]byte{packet.S_OPCODE_BUFF_FADE, 3, 0})
	s.FlushOutput()
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	got, err := ReadFrame(client)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if got[0] != packet.S_OPCODE_BUFF_FADE {
		t.Errorf("opcode %#x", got[0])
	}
}

func TestSessionRateLimit(t *testing.T) {
	s, client := pipeSession(t, SessionOptions{InQueueSize: 16, OutQueueSize: 4, PacketsPerSecond: 2})
	go func() {
		for i := 0; i < 5; i++ {
			if err := WriteFrame(client, []byte{packet.C_OPCODE_BUFF_LIST, 0}); err != nil {
				return
			}
		}
	}()
	deadline := time.After(2 * time.Second)
	for !s.IsClosed() {
		select {
		case <-deadline:
			t.Fatal("session not closed after exceeding the rate")
		case <-s.InQueue:
		case <-time.After(10 * time.Millisecond):
		}
	}
	if s.State() != packet.StateDisconnecting {
		t.Errorf("state %s after close", s.State())
	}
}

func TestSessionStoreOrder(t *testing.T) {
	st := NewSessionStore()
	for _, id := range []uint64{3, 1, 2} {
		c, _ := net.Pipe()
		st.Add(NewSession(c, id, SessionOptions{}, zap.NewNop()))
	}
	var seen []uint64
	st.ForEach(func(s *Session) { seen = append(seen, s.ID) })
	if len(seen) != 3 || seen[0] != 1 || seen[2] != 3 {
		t.Errorf("order %v", seen)
	}
	st.Remove(2)
	if st.Get(2) != nil || st.Count() != 2 {
		t.Error("Remove did not drop the session")
	}
}

func TestServerAccepts(t *testing.T) {
	srv, err := NewServer("127.0.0.1:0", SessionOptions{InQueueSize: 1, OutQueueSize: 1}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Shutdown()
	go srv.AcceptLoop()

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	select {
	case s := <-srv.NewSessions():
		if s.ID != 1 {
			t.Errorf("session id %d", s.ID)
		}
		s.Close()
	case <-time.After(2 * time.Second):
		t.Fatal("no session accepted")
	}

	srv.NotifyDead(1)
	if id := <-srv.DeadSessions(); id != 1 {
		t.Errorf("dead id %d", id)
	}
}
