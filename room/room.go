// room/room.go
package room

import (
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wfunc/werewords/game"
	"github.com/wfunc/werewords/logger"
	"github.com/wfunc/werewords/models"
	"github.com/wfunc/werewords/network"
	"github.com/wfunc/werewords/state"
	"github.com/wfunc/werewords/timer"
	"github.com/wfunc/werewords/wordbank"
)

// ErrRoomClosed is returned by every Room method once the room has shut down.
var ErrRoomClosed = errors.New("room closed")

const (
	// WordOptions is how many candidate words the host is offered.
	WordOptions    = 5
	inboxSize      = 64
	defaultTick    = time.Second
	defaultSeconds = 60
)

// Deps 房间运行所需的外部依赖，由 Manager 注入
type Deps struct {
	Broadcaster     Broadcaster
	Scheduler       timer.Scheduler
	Words           wordbank.Provider
	Observer        Observer // optional
	NewRand         func() *rand.Rand
	Now             func() time.Time
	TickInterval    time.Duration
	DefaultDuration int
}

func (d *Deps) fill() {
	if d.Words == nil {
		d.Words = wordbank.New(wordbank.Fallback, game.NewRand())
	}
	if d.NewRand == nil {
		d.NewRand = game.NewRand
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.TickInterval <= 0 {
		d.TickInterval = defaultTick
	}
	if d.DefaultDuration <= 0 {
		d.DefaultDuration = defaultSeconds
	}
}

// Config is what createRoom asks for.
type Config struct {
	MaxPlayers int
	Duration   int
}

// Room 是游戏房间的核心结构。
//
// 房间状态只在 loop goroutine 中读写：公开方法把闭包投递到 inbox 并等待执行完成，
// 计时器的每一跳也投递到同一个 inbox，所以取消计时和切换阶段总在同一轮内完成。
type Room struct {
	ID         string
	MaxPlayers int
	Duration   int
	CreatedAt  time.Time

	creatorID      string
	hostID         string
	fsm            state.StateMachine
	players        []*Player
	wordOptions    []string
	word           string
	killTarget     string
	votes          map[string]string // voter id -> target id
	voteNarrative  map[string]string // voter name -> target name
	result         *models.RoundResult
	round          int
	scores         models.Scores
	timerRemaining int
	timerHandle    timer.Handle
	timerGen       uint64
	idleSince      time.Time

	deps      Deps
	rng       *rand.Rand
	registry  registry
	log       *zap.SugaredLogger
	inbox     chan func()
	closeChan chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewRoom 创建一个新房间并启动其主循环。reg 可以为 nil
func NewRoom(id string, cfg Config, deps Deps, reg registry) *Room {
	deps.fill()
	if cfg.Duration <= 0 {
		cfg.Duration = deps.DefaultDuration
	}

	r := &Room{
		ID:         id,
		MaxPlayers: clampPlayers(cfg.MaxPlayers),
		Duration:   cfg.Duration,
		CreatedAt:  deps.Now(),
		votes:      make(map[string]string),
		deps:       deps,
		rng:        deps.NewRand(),
		registry:   reg,
		log:        logger.Log.With("room", id),
		inbox:      make(chan func(), inboxSize),
		closeChan:  make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	r.idleSince = r.CreatedAt
	r.fsm = newPhaseMachine(r)

	go r.loop()
	return r
}

// clampPlayers keeps capacity in [MinPlayers, MaxPlayers]; zero means "not given".
func clampPlayers(n int) int {
	switch {
	case n <= 0:
		return game.MaxPlayers
	case n < game.MinPlayers:
		return game.MinPlayers
	case n > game.MaxPlayers:
		return game.MaxPlayers
	}
	return n
}

// newPhaseMachine builds the round transition table.
func newPhaseMachine(r *Room) *state.BaseStateMachine {
	sm := state.NewBaseStateMachine(state.Waiting)
	enough := func() bool { return len(r.players) >= game.MinPlayers }

	// startGame supersedes whatever round is in progress.
	for _, p := range state.Phases {
		sm.AddTransition(p, state.Role, enough)
		if p != state.Waiting {
			sm.AddTransition(p, state.Waiting, nil)
		}
	}
	sm.AddTransition(state.Role, state.WordSelect, nil)
	sm.AddTransition(state.WordSelect, state.WordSelect, nil)
	sm.AddTransition(state.WordSelect, state.Discussion, nil)
	sm.AddTransition(state.Discussion, state.EndDiscussion, nil)
	sm.AddTransition(state.Discussion, state.WolfKill, nil)
	sm.AddTransition(state.EndDiscussion, state.WolfKill, nil)
	sm.AddTransition(state.EndDiscussion, state.Vote, nil)
	sm.AddTransition(state.WolfKill, state.Result, nil)
	sm.AddTransition(state.Vote, state.Result, nil)

	sm.OnChange(func(from, to state.Phase) {
		r.log.Debugw("phase changed", "from", from, "to", to)
	})
	return sm
}

// loop 是房间的主循环，按顺序执行投递进来的操作
func (r *Room) loop() {
	defer close(r.stopped)
	for {
		select {
		case fn := <-r.inbox:
			select {
			case <-r.closeChan:
				return
			default:
			}
			fn()
		case <-r.closeChan:
			return
		}
	}
}

// call runs fn on the room goroutine and waits for it.
func (r *Room) call(fn func()) error {
	done := make(chan struct{})
	task := func() {
		defer close(done)
		fn()
	}

	select {
	case r.inbox <- task:
	case <-r.closeChan:
		return ErrRoomClosed
	}

	select {
	case <-done:
		return nil
	case <-r.stopped:
		select {
		case <-done:
			return nil
		default:
			return ErrRoomClosed
		}
	}
}

// submit posts fn without waiting. Used by timer callbacks.
func (r *Room) submit(fn func()) {
	select {
	case r.inbox <- fn:
	case <-r.closeChan:
	}
}

// Close 关闭房间，停止主循环和倒计时。可重复调用
func (r *Room) Close() {
	r.closeOnce.Do(func() {
		close(r.closeChan)
		// the loop may be mid-task; stopping the countdown is safe from any goroutine
		go func() {
			<-r.stopped
			if r.timerHandle != nil {
				r.timerHandle.Cancel()
			}
		}()
	})
}

// Done is closed once the room goroutine has exited.
func (r *Room) Done() <-chan struct{} {
	return r.stopped
}

// --- 对外操作，全部在房间 goroutine 中执行 ---

// Join adds a new player bound to sessionID.
func (r *Room) Join(sessionID, name string) (reply models.JoinReply, err error) {
	if cerr := r.call(func() { reply, err = r.join(sessionID, name) }); cerr != nil {
		return reply, cerr
	}
	return reply, err
}

// Leave hard-removes playerID. Only the player's own connection may do this.
func (r *Room) Leave(sessionID, playerID string) (err error) {
	if cerr := r.call(func() { err = r.leave(sessionID, playerID) }); cerr != nil {
		return cerr
	}
	return err
}

// Reconnect rebinds playerID to sessionID and returns that player's snapshot.
func (r *Room) Reconnect(sessionID, playerID string) (snap models.Snapshot, err error) {
	if cerr := r.call(func() { snap, err = r.reconnect(sessionID, playerID) }); cerr != nil {
		return snap, cerr
	}
	return snap, err
}

// Disconnect marks whichever player sessionID speaks for as offline.
func (r *Room) Disconnect(sessionID string) error {
	return r.call(func() { r.disconnect(sessionID) })
}

func (r *Room) StartGame(sessionID string) error {
	return r.run(sessionID, func() error { return r.startGame(sessionID) })
}

func (r *Room) RequestWordList(sessionID string) error {
	return r.run(sessionID, func() error { return r.requestWordList(sessionID) })
}

func (r *Room) SelectWord(sessionID, word string) error {
	return r.run(sessionID, func() error { return r.selectWord(sessionID, word) })
}

func (r *Room) ForceEndDiscussion(sessionID string) error {
	return r.run(sessionID, func() error { return r.forceEndDiscussion(sessionID) })
}

func (r *Room) SelectWinner(sessionID, winner string) error {
	return r.run(sessionID, func() error { return r.selectWinner(sessionID, winner) })
}

func (r *Room) WolfKill(sessionID, targetID string) error {
	return r.run(sessionID, func() error { return r.wolfKill(sessionID, targetID) })
}

func (r *Room) Vote(sessionID, targetID string) error {
	return r.run(sessionID, func() error { return r.vote(sessionID, targetID) })
}

// run executes a reply-less operation and reports its rejection to the room.
func (r *Room) run(sessionID string, op func() error) error {
	var err error
	if cerr := r.call(func() {
		err = op()
		r.report(sessionID, err)
	}); cerr != nil {
		return cerr
	}
	return err
}

// Info returns a summary for admin listings.
func (r *Room) Info() (info models.RoomInfo, err error) {
	err = r.call(func() {
		connected := 0
		for _, p := range r.players {
			if p.Connected() {
				connected++
			}
		}
		info = models.RoomInfo{
			RoomID:     r.ID,
			Phase:      string(r.fsm.Current()),
			Players:    len(r.players),
			Connected:  connected,
			MaxPlayers: r.MaxPlayers,
			Round:      r.round,
			CreatedAt:  r.CreatedAt,
			IdleSince:  r.idleSince,
		}
	})
	return info, err
}

// Snapshot returns playerID's view without touching the connection binding.
func (r *Room) Snapshot(playerID string) (snap models.Snapshot, err error) {
	if cerr := r.call(func() {
		p := r.playerByID(playerID)
		if p == nil {
			err = game.Validation("player not found")
			return
		}
		snap = r.snapshotFor(p)
	}); cerr != nil {
		return snap, cerr
	}
	return snap, err
}

// --- 查找与发送，仅在房间 goroutine 中调用 ---

func (r *Room) playerByID(id string) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) playerBySession(sessionID string) *Player {
	if sessionID == "" {
		return nil
	}
	for _, p := range r.players {
		if p.ConnID == sessionID {
			return p
		}
	}
	return nil
}

func (r *Room) host() *Player {
	if r.hostID == "" {
		return nil
	}
	return r.playerByID(r.hostID)
}

func (r *Room) views() []models.PlayerView {
	views := make([]models.PlayerView, 0, len(r.players))
	for _, p := range r.players {
		views = append(views, p.View())
	}
	return views
}

func (r *Room) connectedSessions() []string {
	ids := make([]string, 0, len(r.players))
	for _, p := range r.players {
		if p.Connected() {
			ids = append(ids, p.ConnID)
		}
	}
	return ids
}

func (r *Room) encode(msgID uint16, v any) []byte {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		r.log.Errorw("encode failed", "msg", network.MsgName(msgID), "error", err)
		return nil
	}
	return data
}

func (r *Room) broadcast(msgID uint16, v any) {
	if r.deps.Broadcaster == nil {
		return
	}
	sessions := r.connectedSessions()
	if len(sessions) == 0 {
		return
	}
	_ = r.deps.Broadcaster.SendToSessions(sessions, msgID, r.encode(msgID, v))
}

func (r *Room) unicast(sessionID string, msgID uint16, v any) {
	if r.deps.Broadcaster == nil || sessionID == "" {
		return
	}
	if err := r.deps.Broadcaster.SendToSession(sessionID, msgID, r.encode(msgID, v)); err != nil {
		r.log.Debugw("unicast failed", "session", sessionID, "msg", network.MsgName(msgID), "error", err)
	}
}

func (r *Room) broadcastPlayers() {
	r.broadcast(network.MsgTypePlayerList, r.views())
}

// report surfaces a rejected reply-less operation: validation errors go to
// the whole room, authorization errors only to the caller, duplicates nowhere.
func (r *Room) report(sessionID string, err error) {
	if err == nil {
		return
	}
	var gerr *game.Error
	if !errors.As(err, &gerr) {
		r.log.Errorw("operation failed", "error", err)
		return
	}
	r.log.Debugw("operation rejected", "kind", gerr.Kind, "reason", gerr.Message)
	switch gerr.Kind {
	case game.KindValidation:
		r.broadcast(network.MsgTypeErrorMessage, models.ErrorMessage{Message: gerr.Message})
	case game.KindAuthorization:
		r.unicast(sessionID, network.MsgTypeErrorMessage, models.ErrorMessage{Message: gerr.Message})
	}
}
