package room

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/werewords/game"
	"github.com/wfunc/werewords/models"
	"github.com/wfunc/werewords/network"
	"github.com/wfunc/werewords/state"
	"github.com/wfunc/werewords/timer"
	"github.com/wfunc/werewords/wordbank"
)

type frame struct {
	session string
	msgID   uint16
	data    []byte
}

// recorder is a Broadcaster that keeps every frame.
type recorder struct {
	mutex  sync.Mutex
	frames []frame
}

func (r *recorder) SendToSession(sessionID string, msgID uint16, data []byte) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.frames = append(r.frames, frame{session: sessionID, msgID: msgID, data: data})
	return nil
}

func (r *recorder) SendToSessions(sessionIDs []string, msgID uint16, data []byte) error {
	for _, id := range sessionIDs {
		_ = r.SendToSession(id, msgID, data)
	}
	return nil
}

// to returns the frames of msgID delivered to session, in order.
func (r *recorder) to(session string, msgID uint16) []frame {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	var out []frame
	for _, f := range r.frames {
		if f.session == session && f.msgID == msgID {
			out = append(out, f)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mutex.Lock()
	r.frames = nil
	r.mutex.Unlock()
}

type observer struct {
	mutex   sync.Mutex
	records []models.RoundRecord
}

func (o *observer) RoundFinished(record models.RoundRecord) {
	o.mutex.Lock()
	o.records = append(o.records, record)
	o.mutex.Unlock()
}

func (o *observer) count() int {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return len(o.records)
}

type fakeRegistry struct {
	removed []string
}

func (f *fakeRegistry) RemoveRoom(id string) {
	f.removed = append(f.removed, id)
}

type fixture struct {
	t        *testing.T
	room     *Room
	rec      *recorder
	clock    *timer.Manual
	obs      *observer
	reg      *fakeRegistry
	sessions []string          // join order
	players  map[string]string // session -> player id
}

func newFixture(t *testing.T, n, duration int) *fixture {
	t.Helper()
	f := &fixture{
		t:       t,
		rec:     &recorder{},
		clock:   timer.NewManual(),
		obs:     &observer{},
		reg:     &fakeRegistry{},
		players: make(map[string]string),
	}
	seed := int64(0)
	f.room = NewRoom("abc123", Config{MaxPlayers: 12, Duration: duration}, Deps{
		Broadcaster:  f.rec,
		Scheduler:    f.clock,
		Words:        wordbank.New(wordbank.Fallback, rand.New(rand.NewSource(7))),
		Observer:     f.obs,
		TickInterval: time.Second,
		NewRand: func() *rand.Rand {
			seed++
			return rand.New(rand.NewSource(seed))
		},
	}, f.reg)
	t.Cleanup(f.room.Close)

	for i := 1; i <= n; i++ {
		f.join(fmt.Sprintf("s%d", i), fmt.Sprintf("p%d", i))
	}
	return f
}

func (f *fixture) join(session, name string) models.JoinReply {
	f.t.Helper()
	reply, err := f.room.Join(session, name)
	require.NoError(f.t, err)
	f.sessions = append(f.sessions, session)
	f.players[session] = reply.PlayerID
	return reply
}

// flush waits until every queued timer tick has been handled.
func (f *fixture) flush() {
	_, err := f.room.Info()
	require.NoError(f.t, err)
}

func (f *fixture) snapshot(session string) models.Snapshot {
	f.t.Helper()
	snap, err := f.room.Snapshot(f.players[session])
	require.NoError(f.t, err)
	return snap
}

func (f *fixture) phase() string {
	f.t.Helper()
	info, err := f.room.Info()
	require.NoError(f.t, err)
	return info.Phase
}

func (f *fixture) hostSession() string {
	f.t.Helper()
	hostID := f.snapshot(f.sessions[0]).HostID
	for s, id := range f.players {
		if id == hostID {
			return s
		}
	}
	f.t.Fatal("no host")
	return ""
}

func (f *fixture) withRole(role game.Role) []string {
	var out []string
	for _, s := range f.sessions {
		if f.snapshot(s).MyRole == string(role) {
			out = append(out, s)
		}
	}
	return out
}

func (f *fixture) start() {
	f.t.Helper()
	require.NoError(f.t, f.room.StartGame(f.sessions[0]))
}

func (f *fixture) toDiscussion() (host string) {
	f.t.Helper()
	f.start()
	host = f.hostSession()
	require.NoError(f.t, f.room.RequestWordList(host))
	require.NoError(f.t, f.room.SelectWord(host, "  苹果 "))
	return host
}

func (f *fixture) toEndDiscussion() (host string) {
	f.t.Helper()
	host = f.toDiscussion()
	for i := 0; i < f.room.Duration; i++ {
		f.clock.Fire()
	}
	f.flush()
	require.Equal(f.t, string(state.EndDiscussion), f.phase())
	return host
}

// name is the display name newFixture gave session sN.
func name(session string) string {
	return "p" + session[1:]
}

// other returns a session that is none of the given ones.
func (f *fixture) other(not ...string) string {
	for _, s := range f.sessions {
		if !slices.Contains(not, s) {
			return s
		}
	}
	f.t.Fatal("no other session")
	return ""
}

func decode[T any](t *testing.T, fr frame) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(fr.data, &v))
	return v
}

func TestRoom_JoinFirstPlayerIsCreator(t *testing.T) {
	f := newFixture(t, 0, 3)

	first := f.join("s1", "alice")
	second := f.join("s2", "bob")

	assert.Equal(t, "abc123", first.RoomID)
	assert.Equal(t, first.PlayerID, first.CreatorID)
	assert.Equal(t, first.PlayerID, second.CreatorID)
	assert.NotEqual(t, first.PlayerID, second.PlayerID)

	lists := f.rec.to("s1", network.MsgTypePlayerList)
	require.Len(t, lists, 2)
	roster := decode[[]models.PlayerView](t, lists[1])
	assert.Equal(t, []models.PlayerView{
		{ID: first.PlayerID, Name: "alice", Connected: true},
		{ID: second.PlayerID, Name: "bob", Connected: true},
	}, roster)
}

func TestRoom_JoinRejected(t *testing.T) {
	f := newFixture(t, 4, 3)

	f.room.MaxPlayers = 4
	_, err := f.room.Join("s5", "late")
	assert.True(t, errors.Is(err, game.ErrValidation), "full room should reject, got %v", err)

	f.room.MaxPlayers = 12
	f.start()
	_, err = f.room.Join("s5", "late")
	assert.True(t, errors.Is(err, game.ErrValidation), "running game should reject, got %v", err)
}

func TestRoom_StartGameNeedsFourPlayers(t *testing.T) {
	f := newFixture(t, 3, 3)

	err := f.room.StartGame("s1")
	require.True(t, errors.Is(err, game.ErrValidation))
	assert.Equal(t, string(state.Waiting), f.phase())

	for _, s := range f.sessions {
		msgs := f.rec.to(s, network.MsgTypeErrorMessage)
		require.Len(t, msgs, 1, "session %s", s)
		assert.Contains(t, decode[models.ErrorMessage](t, msgs[0]).Message, "4 players")
	}
	assert.Empty(t, f.rec.to("s1", network.MsgTypeYourRole))
}

func TestRoom_StartGameFromOutsider(t *testing.T) {
	f := newFixture(t, 4, 3)

	err := f.room.StartGame("stranger")
	assert.True(t, errors.Is(err, game.ErrAuthorization))
	assert.Len(t, f.rec.to("stranger", network.MsgTypeErrorMessage), 1)
	assert.Empty(t, f.rec.to("s1", network.MsgTypeErrorMessage))
}

func TestRoom_StartGameAssignsRolesAndHost(t *testing.T) {
	f := newFixture(t, 4, 3)
	f.start()

	assert.Equal(t, string(state.Role), f.phase())
	assert.Len(t, f.withRole(game.RoleSeer), 1)
	assert.Len(t, f.withRole(game.RoleWolf), 1)
	assert.Len(t, f.withRole(game.RoleVillager), 2)

	host := f.hostSession()
	for _, s := range f.sessions {
		roles := f.rec.to(s, network.MsgTypeYourRole)
		require.Len(t, roles, 1)
		assert.Equal(t, f.snapshot(s).MyRole, decode[models.RoleMessage](t, roles[0]).Role)

		hosts := f.rec.to(s, network.MsgTypeNewHost)
		require.Len(t, hosts, 1)
		assert.Equal(t, f.players[host], decode[models.HostInfo](t, hosts[0]).ID)
		assert.Len(t, f.rec.to(s, network.MsgTypeGameStarted), 1)
	}
}

func TestRoom_WordListOnlyForHost(t *testing.T) {
	f := newFixture(t, 4, 3)
	f.start()
	host := f.hostSession()

	other := f.sessions[0]
	if other == host {
		other = f.sessions[1]
	}
	err := f.room.RequestWordList(other)
	assert.True(t, errors.Is(err, game.ErrAuthorization))

	require.NoError(t, f.room.RequestWordList(host))
	require.NoError(t, f.room.RequestWordList(host))
	lists := f.rec.to(host, network.MsgTypeWordList)
	require.Len(t, lists, 2)
	assert.Len(t, decode[[]string](t, lists[1]), WordOptions)
	assert.Equal(t, string(state.WordSelect), f.phase())

	snap := f.snapshot(host)
	assert.Equal(t, decode[[]string](t, lists[1]), snap.WordOptions)
	assert.Empty(t, f.snapshot(other).WordOptions)
}

func TestRoom_DiscussionCountdown(t *testing.T) {
	f := newFixture(t, 4, 3)
	host := f.toDiscussion()

	for _, s := range f.sessions {
		snap := f.snapshot(s)
		words := f.rec.to(s, network.MsgTypeYourWord)
		if snap.MyRole == string(game.RoleVillager) && s != host {
			assert.Empty(t, words, "villager %s must not see the word", s)
			continue
		}
		require.Len(t, words, 1, "session %s", s)
		assert.Equal(t, "苹果", decode[string](t, words[0]))
	}

	start := f.rec.to("s1", network.MsgTypeDiscussionStart)
	require.Len(t, start, 1)
	assert.Equal(t, 3, decode[models.DiscussionStart](t, start[0]).Duration)
	assert.Equal(t, 1, f.clock.Active())

	for i := 0; i < 3; i++ {
		f.clock.Fire()
	}
	f.flush()

	var ticks []int
	for _, fr := range f.rec.to("s1", network.MsgTypeTimerUpdate) {
		ticks = append(ticks, decode[int](t, fr))
	}
	assert.Equal(t, []int{2, 1, 0}, ticks)
	assert.Len(t, f.rec.to("s1", network.MsgTypeDiscussionEnd), 1)
	assert.Equal(t, string(state.EndDiscussion), f.phase())
	assert.Equal(t, 0, f.clock.Active())
}

func TestRoom_SelectWordRejectsBlank(t *testing.T) {
	f := newFixture(t, 4, 3)
	f.start()
	host := f.hostSession()
	require.NoError(t, f.room.RequestWordList(host))

	err := f.room.SelectWord(host, "   ")
	assert.True(t, errors.Is(err, game.ErrValidation))
	assert.Equal(t, string(state.WordSelect), f.phase())
	assert.Equal(t, 0, f.clock.Active())
}

func TestRoom_ForceEndDiscussionCancelsCountdown(t *testing.T) {
	f := newFixture(t, 4, 5)
	host := f.toDiscussion()

	f.clock.Fire()
	f.flush()
	require.NoError(t, f.room.ForceEndDiscussion(host))

	assert.Equal(t, 0, f.clock.Active())
	assert.Equal(t, string(state.WolfKill), f.phase())
	assert.Empty(t, f.rec.to("s1", network.MsgTypeDiscussionEnd))

	f.clock.Fire()
	f.flush()
	assert.Len(t, f.rec.to("s1", network.MsgTypeTimerUpdate), 1)

	wolf := f.withRole(game.RoleWolf)[0]
	for _, s := range f.sessions {
		lists := f.rec.to(s, network.MsgTypeKillTargetList)
		require.Len(t, lists, 1)
		targets := decode[[]models.PlayerView](t, lists[0])
		if s == wolf {
			assert.Len(t, targets, 3)
		} else {
			assert.Empty(t, targets)
		}
	}
}

func TestRoom_ForceEndDiscussionHostOnly(t *testing.T) {
	f := newFixture(t, 4, 5)
	host := f.toDiscussion()
	other := f.sessions[0]
	if other == host {
		other = f.sessions[1]
	}

	err := f.room.ForceEndDiscussion(other)
	assert.True(t, errors.Is(err, game.ErrAuthorization))
	assert.Equal(t, string(state.Discussion), f.phase())
	assert.Equal(t, 1, f.clock.Active())
}

func TestRoom_WolfKillIsRecordedOnce(t *testing.T) {
	f := newFixture(t, 4, 2)
	host := f.toEndDiscussion()
	require.NoError(t, f.room.SelectWinner(host, game.WinnerGood))

	wolf := f.withRole(game.RoleWolf)[0]
	villagers := f.withRole(game.RoleVillager)
	require.Len(t, villagers, 2)

	err := f.room.WolfKill(villagers[0], f.players[wolf])
	assert.True(t, errors.Is(err, game.ErrAuthorization))

	require.NoError(t, f.room.WolfKill(wolf, f.players[villagers[0]]))
	err = f.room.WolfKill(wolf, f.players[villagers[1]])
	assert.True(t, errors.Is(err, game.ErrDuplicate))

	results := f.rec.to("s1", network.MsgTypeRoundResult)
	require.Len(t, results, 1)
	res := decode[models.RoundResult](t, results[0])
	assert.Equal(t, ModeKill, res.Mode)
	assert.Equal(t, game.WinnerGood, res.Winner)
	assert.Equal(t, "苹果", res.Word)
	assert.Equal(t, name(villagers[0]), res.KillTarget)
	assert.Equal(t, models.Scores{Good: 1}, res.Scores)
	assert.Equal(t, 1, f.obs.count())
	assert.Equal(t, string(state.Result), f.phase())
}

func TestRoom_WolfKillSeerWins(t *testing.T) {
	f := newFixture(t, 4, 5)
	host := f.toDiscussion()
	require.NoError(t, f.room.ForceEndDiscussion(host))

	wolf := f.withRole(game.RoleWolf)[0]
	seer := f.withRole(game.RoleSeer)[0]
	require.NoError(t, f.room.WolfKill(wolf, f.players[seer]))

	results := f.rec.to("s1", network.MsgTypeRoundResult)
	require.Len(t, results, 1)
	res := decode[models.RoundResult](t, results[0])
	assert.Equal(t, game.WinnerWolf, res.Winner)
	assert.Equal(t, 1, res.WolfScore)
}

func TestRoom_VoteResolvesWhenEveryoneVoted(t *testing.T) {
	f := newFixture(t, 4, 2)
	host := f.toEndDiscussion()
	require.NoError(t, f.room.SelectWinner(host, game.WinnerWolf))
	assert.Len(t, f.rec.to("s1", network.MsgTypeStartVote), 1)

	wolf := f.players[f.withRole(game.RoleWolf)[0]]
	for i, s := range f.sessions {
		require.NoError(t, f.room.Vote(s, wolf))
		if i < len(f.sessions)-1 {
			assert.Empty(t, f.rec.to("s1", network.MsgTypeRoundResult))
		}
	}

	progress := f.rec.to("s1", network.MsgTypeVoteProgress)
	require.Len(t, progress, 4)
	assert.Equal(t, models.VoteProgress{Voted: 4, Total: 4}, decode[models.VoteProgress](t, progress[3]))

	results := f.rec.to("s1", network.MsgTypeRoundResult)
	require.Len(t, results, 1)
	res := decode[models.RoundResult](t, results[0])
	assert.Equal(t, ModeVote, res.Mode)
	assert.Equal(t, game.WinnerGood, res.Winner)
	require.Len(t, res.Leaderboard, 1)
	assert.Equal(t, 4, res.Leaderboard[0].Count)
	assert.Len(t, res.VoteNarrative, 4)
}

func TestRoom_VoteOverwrite(t *testing.T) {
	f := newFixture(t, 4, 2)
	host := f.toEndDiscussion()
	require.NoError(t, f.room.SelectWinner(host, game.WinnerWolf))

	seer := f.players[f.withRole(game.RoleSeer)[0]]
	wolf := f.players[f.withRole(game.RoleWolf)[0]]
	require.NoError(t, f.room.Vote("s1", seer))
	require.NoError(t, f.room.Vote("s1", wolf))
	assert.Equal(t, wolf, f.snapshot("s1").MyVote)

	err := f.room.Vote("s2", "nobody")
	assert.True(t, errors.Is(err, game.ErrValidation))
}

func TestRoom_VoteResolvesOnDisconnect(t *testing.T) {
	f := newFixture(t, 4, 2)
	host := f.toEndDiscussion()
	require.NoError(t, f.room.SelectWinner(host, game.WinnerWolf))

	seer := f.players[f.withRole(game.RoleSeer)[0]]
	for _, s := range f.sessions[:3] {
		require.NoError(t, f.room.Vote(s, seer))
	}
	assert.Empty(t, f.rec.to("s1", network.MsgTypeRoundResult))

	require.NoError(t, f.room.Disconnect(f.sessions[3]))
	results := f.rec.to("s1", network.MsgTypeRoundResult)
	require.Len(t, results, 1)
	assert.Equal(t, game.WinnerWolf, decode[models.RoundResult](t, results[0]).Winner)
}

func TestRoom_ReconnectSnapshot(t *testing.T) {
	f := newFixture(t, 4, 5)
	f.toDiscussion()
	f.clock.Fire()
	f.flush()

	seer := f.withRole(game.RoleSeer)[0]
	before := f.snapshot(seer)

	require.NoError(t, f.room.Disconnect(seer))
	offline := f.snapshot(f.sessions[0])
	for _, p := range offline.Players {
		assert.Equal(t, p.ID != f.players[seer], p.Connected)
	}

	snap, err := f.room.Reconnect("s-new", f.players[seer])
	require.NoError(t, err)
	f.players["s-new"] = f.players[seer]

	if diff := cmp.Diff(before, snap); diff != "" {
		t.Errorf("snapshot after reconnect mismatch (-before +after):\n%s", diff)
	}
	assert.Equal(t, string(state.Discussion), snap.Phase)
	assert.Equal(t, 4, snap.Timer)
	assert.Equal(t, "苹果", snap.MyWord)
	assert.Equal(t, string(game.RoleSeer), snap.MyRole)

	f.clock.Fire()
	f.flush()
	assert.Len(t, f.rec.to("s-new", network.MsgTypeTimerUpdate), 1)
	assert.Empty(t, f.rec.to(seer, network.MsgTypeTimerUpdate)[1:])
}

func TestRoom_ReconnectUnknownPlayer(t *testing.T) {
	f := newFixture(t, 1, 5)
	_, err := f.room.Reconnect("s9", "ghost")
	assert.True(t, errors.Is(err, game.ErrValidation))
}

func TestRoom_HostLeavingAbortsRound(t *testing.T) {
	f := newFixture(t, 5, 5)
	host := f.toDiscussion()

	require.NoError(t, f.room.Leave(host, f.players[host]))
	assert.Equal(t, string(state.Waiting), f.phase())
	assert.Equal(t, 0, f.clock.Active())

	other := f.sessions[0]
	if other == host {
		other = f.sessions[1]
	}
	snap := f.snapshot(other)
	assert.Empty(t, snap.HostID)
	assert.Empty(t, snap.MyRole)
	assert.Len(t, snap.Players, 4)
}

func TestRoom_LeaveOnlySelf(t *testing.T) {
	f := newFixture(t, 2, 5)
	err := f.room.Leave("s1", f.players["s2"])
	assert.True(t, errors.Is(err, game.ErrAuthorization))
}

func TestRoom_LastLeaveRemovesRoom(t *testing.T) {
	f := newFixture(t, 2, 5)
	first := f.players["s1"]

	require.NoError(t, f.room.Leave("s1", first))
	assert.Equal(t, f.players["s2"], f.snapshot("s2").CreatorID)
	require.NoError(t, f.room.Leave("s2", f.players["s2"]))
	assert.Equal(t, []string{"abc123"}, f.reg.removed)
}

func TestRoom_ClosedRoomRejectsCalls(t *testing.T) {
	f := newFixture(t, 1, 5)
	f.room.Close()
	<-f.room.Done()

	_, err := f.room.Join("s2", "late")
	assert.ErrorIs(t, err, ErrRoomClosed)
	assert.ErrorIs(t, f.room.StartGame("s1"), ErrRoomClosed)
}

func TestRoom_NextRoundResetsState(t *testing.T) {
	f := newFixture(t, 4, 5)
	host := f.toDiscussion()
	require.NoError(t, f.room.ForceEndDiscussion(host))
	wolf := f.withRole(game.RoleWolf)[0]
	seer := f.withRole(game.RoleSeer)[0]
	require.NoError(t, f.room.WolfKill(wolf, f.players[seer]))

	f.rec.reset()
	require.NoError(t, f.room.StartGame(f.sessions[0]))

	info, err := f.room.Info()
	require.NoError(t, err)
	assert.Equal(t, 2, info.Round)
	snap := f.snapshot(f.sessions[0])
	assert.Equal(t, string(state.Role), snap.Phase)
	assert.Empty(t, snap.MyWord)
	assert.Nil(t, snap.Result)
}

func TestRoom_WolvesSeeEachOther(t *testing.T) {
	f := newFixture(t, 9, 3)
	f.start()

	wolves := f.withRole(game.RoleWolf)
	require.Len(t, wolves, 2)
	for i, w := range wolves {
		roles := f.rec.to(w, network.MsgTypeYourRole)
		require.Len(t, roles, 1)
		msg := decode[models.RoleMessage](t, roles[0])
		assert.Equal(t, []string{name(wolves[1-i])}, msg.Wolves)
	}
	for _, s := range f.withRole(game.RoleVillager) {
		msg := decode[models.RoleMessage](t, f.rec.to(s, network.MsgTypeYourRole)[0])
		assert.Empty(t, msg.Wolves)
	}
}

func TestRoom_StartGameDuringDiscussionStopsCountdown(t *testing.T) {
	f := newFixture(t, 4, 5)
	f.toDiscussion()
	f.clock.Fire()
	f.flush()
	require.Equal(t, 1, f.clock.Active())

	f.rec.reset()
	require.NoError(t, f.room.StartGame(f.sessions[0]))
	assert.Equal(t, 0, f.clock.Active())
	assert.Equal(t, string(state.Role), f.phase())

	f.clock.Fire()
	f.flush()
	for _, s := range f.sessions {
		assert.Empty(t, f.rec.to(s, network.MsgTypeTimerUpdate), "session %s", s)
	}
	assert.Zero(t, f.snapshot(f.sessions[0]).Timer)
}

func TestRoom_ReconnectAfterResult(t *testing.T) {
	f := newFixture(t, 4, 5)
	host := f.toDiscussion()
	require.NoError(t, f.room.ForceEndDiscussion(host))
	wolf := f.withRole(game.RoleWolf)[0]
	seer := f.withRole(game.RoleSeer)[0]
	require.NoError(t, f.room.WolfKill(wolf, f.players[seer]))

	villager := f.withRole(game.RoleVillager)[0]
	before := f.snapshot(villager)
	require.NotNil(t, before.Result)

	require.NoError(t, f.room.Disconnect(villager))
	snap, err := f.room.Reconnect("s-back", f.players[villager])
	require.NoError(t, err)

	assert.Equal(t, string(state.Result), snap.Phase)
	if diff := cmp.Diff(before.Result, snap.Result); diff != "" {
		t.Errorf("result after reconnect mismatch (-before +after):\n%s", diff)
	}
	assert.Equal(t, game.WinnerWolf, snap.Result.Winner)
}

func TestRoom_InformedPlayerLeavingAbortsRound(t *testing.T) {
	for _, role := range []game.Role{game.RoleWolf, game.RoleSeer} {
		t.Run(string(role), func(t *testing.T) {
			f := newFixture(t, 5, 5)
			host := f.toDiscussion()
			require.NoError(t, f.room.ForceEndDiscussion(host))

			leaver := f.withRole(role)[0]
			f.rec.reset()
			require.NoError(t, f.room.Leave(leaver, f.players[leaver]))

			assert.Equal(t, string(state.Waiting), f.phase())
			stayer := f.other(leaver)
			msgs := f.rec.to(stayer, network.MsgTypeErrorMessage)
			require.Len(t, msgs, 1)
			assert.Contains(t, decode[models.ErrorMessage](t, msgs[0]).Message, "round aborted")

			snap := f.snapshot(stayer)
			assert.Empty(t, snap.MyRole)
			assert.Len(t, snap.Players, 4)
		})
	}
}

func TestRoom_LeavingVoteTargetAsksForRecast(t *testing.T) {
	f := newFixture(t, 5, 2)
	host := f.toEndDiscussion()
	require.NoError(t, f.room.SelectWinner(host, game.WinnerWolf))

	var target string
	for _, s := range f.withRole(game.RoleVillager) {
		if s != host {
			target = s
			break
		}
	}
	require.NotEmpty(t, target)
	voter := f.other(target)
	require.NoError(t, f.room.Vote(voter, f.players[target]))

	f.rec.reset()
	require.NoError(t, f.room.Leave(target, f.players[target]))

	assert.Equal(t, string(state.Vote), f.phase())
	assert.Empty(t, f.snapshot(voter).MyVote)

	msgs := f.rec.to(voter, network.MsgTypeErrorMessage)
	require.Len(t, msgs, 1)
	assert.Contains(t, decode[models.ErrorMessage](t, msgs[0]).Message, "vote again")

	bystander := f.other(target, voter)
	assert.Empty(t, f.rec.to(bystander, network.MsgTypeErrorMessage))
	progress := f.rec.to(bystander, network.MsgTypeVoteProgress)
	require.Len(t, progress, 1)
	assert.Equal(t, models.VoteProgress{Voted: 0, Total: 4}, decode[models.VoteProgress](t, progress[0]))
}

func TestRoom_VoteProgressCountsConnectedVoters(t *testing.T) {
	f := newFixture(t, 4, 2)
	host := f.toEndDiscussion()
	require.NoError(t, f.room.SelectWinner(host, game.WinnerWolf))

	seer := f.players[f.withRole(game.RoleSeer)[0]]
	require.NoError(t, f.room.Vote("s1", seer))
	require.NoError(t, f.room.Vote("s2", seer))

	f.rec.reset()
	require.NoError(t, f.room.Disconnect("s1"))

	progress := f.rec.to("s3", network.MsgTypeVoteProgress)
	require.Len(t, progress, 1)
	assert.Equal(t, models.VoteProgress{Voted: 1, Total: 3}, decode[models.VoteProgress](t, progress[0]))
	assert.Empty(t, f.rec.to("s3", network.MsgTypeRoundResult))
}
