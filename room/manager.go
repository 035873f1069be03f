package room

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/wfunc/werewords/game"
	"github.com/wfunc/werewords/logger"
	"github.com/wfunc/werewords/models"
)

var ErrRoomNotFound = errors.New("room not found")

const (
	codeAlphabet      = "abcdefghijklmnopqrstuvwxyz0123456789"
	defaultCodeLength = 6
)

// Manager 管理所有房间，房间码 -> 房间
type Manager struct {
	rooms      map[string]*Room
	mutex      sync.RWMutex
	deps       Deps
	codeLength int
	codeRand   *rand.Rand // guarded by mutex
}

// NewRoomManager 创建一个新的房间管理器。codeLength<=0 时使用 6 位房间码
func NewRoomManager(deps Deps, codeLength int) *Manager {
	deps.fill()
	if codeLength <= 0 {
		codeLength = defaultCodeLength
	}
	return &Manager{
		rooms:      make(map[string]*Room),
		deps:       deps,
		codeLength: codeLength,
		codeRand:   game.NewRand(),
	}
}

// CreateRoom 生成唯一房间码并创建房间。创建者需要随后调用 Join
func (m *Manager) CreateRoom(cfg Config) *Room {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	code := m.newCode()
	for {
		if _, taken := m.rooms[code]; !taken {
			break
		}
		code = m.newCode()
	}

	room := NewRoom(code, cfg, m.deps, m)
	m.rooms[code] = room
	logger.Log.Infow("room created", "room", code, "maxPlayers", room.MaxPlayers, "duration", room.Duration)
	return room
}

func (m *Manager) newCode() string {
	b := make([]byte, m.codeLength)
	for i := range b {
		b[i] = codeAlphabet[m.codeRand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// RemoveRoom 从管理器中移除并关闭一个房间
func (m *Manager) RemoveRoom(id string) {
	m.mutex.Lock()
	room, exists := m.rooms[id]
	delete(m.rooms, id)
	m.mutex.Unlock()

	if exists {
		room.Close()
		logger.Log.Infow("room removed", "room", id)
	}
}

// GetRoom 从管理器中获取一个房间
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[id]
	return room, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// Rooms returns every live room ordered by code.
func (m *Manager) Rooms() []*Room {
	m.mutex.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mutex.RUnlock()

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms
}

// List returns a summary of every live room. Rooms closing concurrently are skipped.
func (m *Manager) List() []models.RoomInfo {
	rooms := m.Rooms()
	infos := make([]models.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		info, err := r.Info()
		if err != nil {
			continue
		}
		infos = append(infos, info)
	}
	return infos
}

// Reap removes rooms that have had no connected player for at least ttl.
func (m *Manager) Reap(now time.Time, ttl time.Duration) []string {
	var reaped []string
	for _, info := range m.List() {
		if info.IdleSince.IsZero() || now.Sub(info.IdleSince) < ttl {
			continue
		}
		m.RemoveRoom(info.RoomID)
		reaped = append(reaped, info.RoomID)
	}
	return reaped
}

// RunReaper calls Reap every interval until ctx is done. ttl<=0 disables it.
func (m *Manager) RunReaper(ctx context.Context, ttl, interval time.Duration) {
	if ttl <= 0 {
		return
	}
	if interval <= 0 {
		interval = ttl / 2
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if reaped := m.Reap(now, ttl); len(reaped) > 0 {
				logger.Log.Infow("idle rooms reaped", "rooms", reaped)
			}
		}
	}
}

// CloseAll shuts every room down.
func (m *Manager) CloseAll() {
	m.mutex.Lock()
	rooms := m.rooms
	m.rooms = make(map[string]*Room)
	m.mutex.Unlock()

	for _, r := range rooms {
		r.Close()
	}
}
