// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/werewords/logger"
	"github.com/wfunc/werewords/session"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

// 广播接口
type Broadcaster interface {
	SendToSession(sessionID string, msgID uint16, data []byte) error
	SendToSessions(sessionIDs []string, msgID uint16, data []byte) error
	BroadcastToAll(msgID uint16, data []byte) error
}

// SessionBroadcaster delivers frames to live sessions by id. Rooms address
// their members by session id, so a room-scoped multicast is a SendToSessions.
type SessionBroadcaster struct {
	sessionManager *session.Manager
}

func NewSessionBroadcaster(sessionManager *session.Manager) *SessionBroadcaster {
	return &SessionBroadcaster{
		sessionManager: sessionManager,
	}
}

func (b *SessionBroadcaster) SendToSession(sessionID string, msgID uint16, data []byte) error {
	s, exists := b.sessionManager.Get(sessionID)
	if !exists {
		return ErrSessionNotFound
	}
	return s.Send(msgID, data)
}

// SendToSessions keeps going past individual failures and returns the first one.
func (b *SessionBroadcaster) SendToSessions(sessionIDs []string, msgID uint16, data []byte) error {
	var first error
	for _, id := range sessionIDs {
		if err := b.SendToSession(id, msgID, data); err != nil {
			// 连接可能已断开，断线事件会单独处理
			logger.Log.Debugf("send %d to session %s failed: %v", msgID, id, err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func (b *SessionBroadcaster) BroadcastToAll(msgID uint16, data []byte) error {
	for _, s := range b.sessionManager.All() {
		if err := s.Send(msgID, data); err != nil {
			continue
		}
	}
	return nil
}
