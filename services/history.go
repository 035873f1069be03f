// services/history.go
package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/wfunc/werewords/logger"
	"github.com/wfunc/werewords/models"
	"github.com/wfunc/werewords/persistence"
)

const writeTimeout = 5 * time.Second

// History 异步写入回合记录。RoundFinished 在房间 goroutine 中调用，只入队不阻塞
type History struct {
	db      persistence.Database
	queue   chan models.RoundRecord
	dropped atomic.Int64
}

func NewHistory(db persistence.Database, buffer int) *History {
	if buffer <= 0 {
		buffer = 256
	}
	return &History{
		db:    db,
		queue: make(chan models.RoundRecord, buffer),
	}
}

// RoundFinished queues record for writing; when the queue is full the record is dropped.
func (h *History) RoundFinished(record models.RoundRecord) {
	select {
	case h.queue <- record:
	default:
		h.dropped.Add(1)
		logger.Log.Warnw("history queue full, round record dropped", "room", record.RoomID, "round", record.Round)
	}
}

// Dropped returns how many records were lost to a full queue.
func (h *History) Dropped() int64 {
	return h.dropped.Load()
}

// Run writes queued records until ctx is done, then flushes what is left.
func (h *History) Run(ctx context.Context) error {
	for {
		select {
		case record := <-h.queue:
			h.write(context.Background(), record)
		case <-ctx.Done():
			h.flush()
			return nil
		}
	}
}

func (h *History) flush() {
	for {
		select {
		case record := <-h.queue:
			h.write(context.Background(), record)
		default:
			return
		}
	}
}

func (h *History) write(parent context.Context, record models.RoundRecord) {
	ctx, cancel := context.WithTimeout(parent, writeTimeout)
	defer cancel()

	if err := h.db.SaveRoundRecord(ctx, record); err != nil {
		logger.Log.Errorw("save round record failed", "room", record.RoomID, "round", record.Round, "error", err)
	}
}

// Recent 获取房间最近的回合记录
func (h *History) Recent(ctx context.Context, roomID string, limit int) ([]models.RoundRecord, error) {
	return h.db.ListRoundRecords(ctx, roomID, limit)
}

// Stats 获取房间累计胜负
func (h *History) Stats(ctx context.Context, roomID string) (models.RoomStats, error) {
	return h.db.RoomStats(ctx, roomID)
}
