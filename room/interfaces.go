package room

import "github.com/wfunc/werewords/models"

// Broadcaster delivers frames to connections by session id.
// This is defined here to break the import cycle between room and broadcast.
type Broadcaster interface {
	SendToSession(sessionID string, msgID uint16, data []byte) error
	SendToSessions(sessionIDs []string, msgID uint16, data []byte) error
}

// Observer is told about every finished round. It runs on the room's
// goroutine and must not block.
type Observer interface {
	RoundFinished(record models.RoundRecord)
}

// registry is the part of Manager a room needs to delete itself.
type registry interface {
	RemoveRoom(id string)
}

// Observers fans one event out to several observers.
type Observers []Observer

func (o Observers) RoundFinished(record models.RoundRecord) {
	for _, obs := range o {
		if obs != nil {
			obs.RoundFinished(record)
		}
	}
}
