package timer

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Scheduler driven by hand, for tests and simulations.
type Manual struct {
	mutex  sync.Mutex
	nextId int64
	tasks  map[int64]func()
}

func NewManual() *Manual {
	return &Manual{tasks: make(map[int64]func())}
}

type manualHandle struct {
	id     int64
	parent *Manual
}

func (h manualHandle) Cancel() {
	h.parent.mutex.Lock()
	delete(h.parent.tasks, h.id)
	h.parent.mutex.Unlock()
}

func (m *Manual) Every(_ time.Duration, fn func()) Handle {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.nextId++
	m.tasks[m.nextId] = fn
	return manualHandle{id: m.nextId, parent: m}
}

// Fire runs every active task once, in scheduling order.
func (m *Manual) Fire() {
	m.mutex.Lock()
	ids := make([]int64, 0, len(m.tasks))
	for id := range m.tasks {
		ids = append(ids, id)
	}
	m.mutex.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		m.mutex.Lock()
		fn, ok := m.tasks[id]
		m.mutex.Unlock()
		if ok {
			fn()
		}
	}
}

// Active returns the number of uncancelled tasks.
func (m *Manual) Active() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.tasks)
}
