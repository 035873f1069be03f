package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/wfunc/werewords/models"
)

// Memory keeps history in process. It is the default store and the one
// tests use.
type Memory struct {
	records map[string][]models.RoundRecord
	stats   map[string]models.RoomStats
	mutex   sync.RWMutex
}

func NewMemory() *Memory {
	return &Memory{
		records: make(map[string][]models.RoundRecord),
		stats:   make(map[string]models.RoomStats),
	}
}

func (m *Memory) SaveRoundRecord(ctx context.Context, record models.RoundRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.records[record.RoomID] = append(m.records[record.RoomID], record)

	good, wolf := statsDelta(record.Result.Winner)
	s := m.stats[record.RoomID]
	s.RoomID = record.RoomID
	s.Rounds++
	s.GoodWins += good
	s.WolfWins += wolf
	m.stats[record.RoomID] = s
	return nil
}

func (m *Memory) ListRoundRecords(ctx context.Context, roomID string, limit int) ([]models.RoundRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mutex.RLock()
	records := append([]models.RoundRecord(nil), m.records[roomID]...)
	m.mutex.RUnlock()

	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].FinishedAt.Equal(records[j].FinishedAt) {
			return records[i].FinishedAt.After(records[j].FinishedAt)
		}
		return records[i].Round > records[j].Round
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (m *Memory) RoomStats(ctx context.Context, roomID string) (models.RoomStats, error) {
	if err := ctx.Err(); err != nil {
		return models.RoomStats{}, err
	}
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	s, ok := m.stats[roomID]
	if !ok {
		return models.RoomStats{}, ErrRecordNotFound
	}
	return s, nil
}

func (m *Memory) Close() error {
	return nil
}
