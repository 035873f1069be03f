package room

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wfunc/werewords/game"
	"github.com/wfunc/werewords/models"
	"github.com/wfunc/werewords/network"
	"github.com/wfunc/werewords/state"
)

func (r *Room) join(sessionID, name string) (models.JoinReply, error) {
	if !r.fsm.Is(state.Waiting) {
		return models.JoinReply{}, game.Validation("game already in progress")
	}
	if len(r.players) >= r.MaxPlayers {
		return models.JoinReply{}, game.Validation("room is full")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Player %d", len(r.players)+1)
	}

	// 一个连接同一时间只代表一个玩家
	r.detach(sessionID)

	p := &Player{
		ID:         uuid.NewString(),
		ConnID:     sessionID,
		Name:       name,
		HostWeight: game.BaseWeight,
	}
	r.players = append(r.players, p)
	if r.creatorID == "" {
		r.creatorID = p.ID
	}
	r.idleSince = r.idleAt()

	r.log.Infow("player joined", "player", p.ID, "name", p.Name, "count", len(r.players))
	r.broadcastPlayers()

	return models.JoinReply{RoomID: r.ID, CreatorID: r.creatorID, PlayerID: p.ID}, nil
}

func (r *Room) leave(sessionID, playerID string) error {
	idx := -1
	for i, p := range r.players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return game.Validation("player not found")
	}
	p := r.players[idx]
	if p.ConnID != sessionID {
		return game.Unauthorized("you can only remove yourself")
	}

	r.players = append(r.players[:idx], r.players[idx+1:]...)
	r.log.Infow("player left", "player", p.ID, "count", len(r.players))

	if len(r.players) == 0 {
		r.cancelTimer()
		if r.registry != nil {
			r.registry.RemoveRoom(r.ID)
		} else {
			r.Close()
		}
		return nil
	}

	if r.creatorID == p.ID {
		r.creatorID = r.players[0].ID
	}
	r.idleSince = r.idleAt()

	midRound := !r.fsm.Is(state.Waiting, state.Result)
	wasHost := r.hostID == p.ID
	if wasHost {
		r.hostID = ""
	}
	switch {
	case midRound && wasHost:
		r.abortRound("the host left, round aborted")
	case midRound && p.informed():
		// 先知或狼人离开后本回合的身份分布不再成立
		r.abortRound(fmt.Sprintf("%s left, round aborted", p.Name))
	default:
		r.dropVotes(p)
	}

	r.broadcastPlayers()
	r.maybeResolveVote()
	return nil
}

func (r *Room) reconnect(sessionID, playerID string) (models.Snapshot, error) {
	p := r.playerByID(playerID)
	if p == nil {
		return models.Snapshot{}, game.Validation("player not found")
	}

	r.detach(sessionID)
	p.ConnID = sessionID
	r.idleSince = r.idleAt()

	r.log.Infow("player reconnected", "player", p.ID, "phase", r.fsm.Current())
	r.broadcastPlayers()
	return r.snapshotFor(p), nil
}

func (r *Room) disconnect(sessionID string) {
	p := r.playerBySession(sessionID)
	if p == nil {
		return
	}
	p.ConnID = ""
	r.idleSince = r.idleAt()

	r.log.Infow("player disconnected", "player", p.ID)
	r.broadcastPlayers()
	if r.fsm.Is(state.Vote) {
		r.broadcastVoteProgress()
	}
	r.maybeResolveVote()
}

// detach unbinds sessionID from whichever player currently holds it.
func (r *Room) detach(sessionID string) {
	if p := r.playerBySession(sessionID); p != nil {
		p.ConnID = ""
	}
}

// idleAt is now if nobody is connected, otherwise the zero time.
func (r *Room) idleAt() (t time.Time) {
	for _, p := range r.players {
		if p.Connected() {
			return t
		}
	}
	if !r.idleSince.IsZero() {
		return r.idleSince
	}
	return r.deps.Now()
}

// dropVotes removes every vote cast by or for a departed player. Voters who
// picked them are asked to vote again.
func (r *Room) dropVotes(gone *Player) {
	if !r.fsm.Is(state.Vote) {
		return
	}
	var recast []string
	for voter, target := range r.votes {
		switch {
		case voter == gone.ID:
			delete(r.votes, voter)
		case target == gone.ID:
			delete(r.votes, voter)
			recast = append(recast, voter)
		}
	}
	r.rebuildNarrative()

	msg := models.ErrorMessage{Message: fmt.Sprintf("%s left, please vote again", gone.Name)}
	for _, id := range recast {
		if p := r.playerByID(id); p != nil && p.Connected() {
			r.unicast(p.ConnID, network.MsgTypeErrorMessage, msg)
		}
	}
	r.broadcastVoteProgress()
}

func (r *Room) snapshotFor(p *Player) models.Snapshot {
	phase := r.fsm.Current()
	snap := models.Snapshot{
		RoomID:    r.ID,
		CreatorID: r.creatorID,
		HostID:    r.hostID,
		PlayerID:  p.ID,
		Phase:     string(phase),
		Timer:     r.timerRemaining,
		Duration:  r.Duration,
		Players:   r.views(),
		MyRole:    string(p.Role),
		MyWord:    p.Word,
		MyVote:    r.votes[p.ID],
	}

	if phase == state.WordSelect && p.ID == r.hostID && len(r.wordOptions) > 0 {
		snap.WordOptions = append([]string(nil), r.wordOptions...)
	}
	if phase == state.WolfKill && p.Role == game.RoleWolf && r.killTarget == "" {
		snap.KillTargets = r.killTargets()
	}
	if phase == state.Result && r.result != nil {
		res := *r.result
		snap.Result = &res
	}
	return snap
}
