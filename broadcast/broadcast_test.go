package broadcast

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/wfunc/werewords/network"
	"github.com/wfunc/werewords/session"
)

// MockConnection records every frame it is asked to send.
type MockConnection struct {
	sent []uint16
	fail bool
}

func (m *MockConnection) Send(msgID uint16, data []byte) error {
	if m.fail {
		return errors.New("broken pipe")
	}
	m.sent = append(m.sent, msgID)
	return nil
}
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func TestSessionBroadcaster_SendToSessions(t *testing.T) {
	manager := session.NewManager()
	okConn := &MockConnection{}
	badConn := &MockConnection{fail: true}
	manager.Add(session.NewSession("ok", okConn))
	manager.Add(session.NewSession("bad", badConn))

	b := NewSessionBroadcaster(manager)

	err := b.SendToSessions([]string{"bad", "ok", "missing"}, network.MsgTypeTimerUpdate, []byte("1"))
	if err == nil {
		t.Fatal("Expected the first failure to be reported")
	}
	if len(okConn.sent) != 1 || okConn.sent[0] != network.MsgTypeTimerUpdate {
		t.Errorf("Healthy session should still receive the frame, got %v", okConn.sent)
	}

	if err := b.SendToSession("missing", 1, nil); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionBroadcaster_BroadcastToAll(t *testing.T) {
	manager := session.NewManager()
	a, c := &MockConnection{}, &MockConnection{}
	manager.Add(session.NewSession("a", a))
	manager.Add(session.NewSession("c", c))

	if err := NewSessionBroadcaster(manager).BroadcastToAll(network.MsgTypeErrorMessage, []byte("{}")); err != nil {
		t.Fatalf("BroadcastToAll failed: %v", err)
	}
	if len(a.sent) != 1 || len(c.sent) != 1 {
		t.Errorf("Expected every session to receive one frame, got %d and %d", len(a.sent), len(c.sent))
	}
}
