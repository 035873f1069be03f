package room

import (
	"fmt"
	"strings"

	"github.com/wfunc/werewords/game"
	"github.com/wfunc/werewords/models"
	"github.com/wfunc/werewords/network"
	"github.com/wfunc/werewords/state"
)

// Round modes.
const (
	ModeKill = "kill"
	ModeVote = "vote"
)

// caller resolves the player a session speaks for.
func (r *Room) caller(sessionID string) (*Player, error) {
	p := r.playerBySession(sessionID)
	if p == nil {
		return nil, game.Unauthorized("you are not in this room")
	}
	return p, nil
}

// callerIsHost rejects anyone but the current host.
func (r *Room) callerIsHost(sessionID string) (*Player, error) {
	p, err := r.caller(sessionID)
	if err != nil {
		return nil, err
	}
	if r.hostID == "" || p.ID != r.hostID {
		return nil, game.Unauthorized("only the host can do that")
	}
	return p, nil
}

func (r *Room) startGame(sessionID string) error {
	if _, err := r.caller(sessionID); err != nil {
		return err
	}
	if len(r.players) < game.MinPlayers {
		return game.Validation(fmt.Sprintf("at least %d players are required to start", game.MinPlayers))
	}

	roles, err := game.AssignRoles(len(r.players), r.rng)
	if err != nil {
		return err
	}

	r.resetRound()

	weights := make([]game.Weight, len(r.players))
	for i, p := range r.players {
		weights[i] = p.HostWeight
	}
	hostIdx := game.SelectHost(weights, r.rng)
	game.Reweight(weights, hostIdx)
	for i, p := range r.players {
		p.HostWeight = weights[i]
		p.Role = roles[i]
	}
	host := r.players[hostIdx]
	r.hostID = host.ID

	if err := r.fsm.ChangeState(state.Role); err != nil {
		return err
	}
	r.round++
	r.log.Infow("round started", "round", r.round, "host", host.ID, "players", len(r.players))

	var wolves []*Player
	for _, p := range r.players {
		if p.Role == game.RoleWolf {
			wolves = append(wolves, p)
		}
	}
	for _, p := range r.players {
		msg := models.RoleMessage{Role: string(p.Role)}
		if p.Role == game.RoleWolf {
			for _, w := range wolves {
				if w != p {
					msg.Wolves = append(msg.Wolves, w.Name)
				}
			}
		}
		r.unicast(p.ConnID, network.MsgTypeYourRole, msg)
	}
	r.broadcast(network.MsgTypeNewHost, models.HostInfo{ID: host.ID, Name: host.Name})
	r.broadcast(network.MsgTypeGameStarted, nil)
	r.broadcastPlayers()
	return nil
}

// resetRound clears every per-round field.
func (r *Room) resetRound() {
	r.cancelTimer()
	r.timerRemaining = 0
	r.wordOptions = nil
	r.word = ""
	r.killTarget = ""
	r.votes = make(map[string]string)
	r.voteNarrative = nil
	r.result = nil
	for _, p := range r.players {
		p.Role = game.RoleUnset
		p.Word = ""
	}
}

// abortRound drops the round in progress and returns the room to waiting.
func (r *Room) abortRound(reason string) {
	r.resetRound()
	if err := r.fsm.ChangeState(state.Waiting); err != nil {
		r.log.Warnw("abort round", "error", err)
	}
	r.log.Infow("round aborted", "reason", reason)
	r.broadcast(network.MsgTypeErrorMessage, models.ErrorMessage{Message: reason})
}

func (r *Room) requestWordList(sessionID string) error {
	host, err := r.callerIsHost(sessionID)
	if err != nil {
		return err
	}
	if !r.fsm.Is(state.Role, state.WordSelect) {
		return game.Validation("word list is not available now")
	}

	r.wordOptions = r.deps.Words.Sample(WordOptions)
	if err := r.fsm.ChangeState(state.WordSelect); err != nil {
		return err
	}
	r.unicast(host.ConnID, network.MsgTypeWordList, r.wordOptions)
	return nil
}

func (r *Room) selectWord(sessionID, selected string) error {
	if _, err := r.callerIsHost(sessionID); err != nil {
		return err
	}
	if !r.fsm.Is(state.WordSelect) {
		return game.Validation("no word selection in progress")
	}
	word := strings.TrimSpace(selected)
	if word == "" {
		return game.Validation("word must not be empty")
	}

	r.word = word
	r.wordOptions = nil
	for _, p := range r.players {
		if p.informed() || p.ID == r.hostID {
			p.Word = word
			r.unicast(p.ConnID, network.MsgTypeYourWord, word)
		}
	}

	if err := r.fsm.ChangeState(state.Discussion); err != nil {
		return err
	}
	r.broadcast(network.MsgTypeDiscussionStart, models.DiscussionStart{Duration: r.Duration})
	r.startCountdown()
	return nil
}

// startCountdown ticks once per interval from Duration down to zero.
func (r *Room) startCountdown() {
	r.cancelTimer()
	r.timerRemaining = r.Duration
	gen := r.timerGen
	if r.deps.Scheduler == nil {
		r.log.Warn("no scheduler, discussion will only end when forced")
		return
	}
	r.timerHandle = r.deps.Scheduler.Every(r.deps.TickInterval, func() {
		r.submit(func() { r.tick(gen) })
	})
}

// cancelTimer stops the countdown; ticks already queued become stale.
func (r *Room) cancelTimer() {
	if r.timerHandle != nil {
		r.timerHandle.Cancel()
		r.timerHandle = nil
	}
	r.timerGen++
}

func (r *Room) tick(gen uint64) {
	if gen != r.timerGen || r.timerHandle == nil || !r.fsm.Is(state.Discussion) {
		return
	}
	r.timerRemaining--
	if r.timerRemaining < 0 {
		r.timerRemaining = 0
	}
	r.broadcast(network.MsgTypeTimerUpdate, r.timerRemaining)
	if r.timerRemaining > 0 {
		return
	}

	r.cancelTimer()
	if err := r.fsm.ChangeState(state.EndDiscussion); err != nil {
		r.log.Warnw("end discussion", "error", err)
		return
	}
	r.broadcast(network.MsgTypeDiscussionEnd, nil)
}

func (r *Room) forceEndDiscussion(sessionID string) error {
	if _, err := r.callerIsHost(sessionID); err != nil {
		return err
	}
	if !r.fsm.Is(state.Discussion) {
		return game.Validation("discussion is not running")
	}

	r.cancelTimer()
	r.timerRemaining = 0
	if err := r.fsm.ChangeState(state.WolfKill); err != nil {
		return err
	}
	r.sendKillTargets()
	return nil
}

func (r *Room) selectWinner(sessionID, winner string) error {
	if _, err := r.callerIsHost(sessionID); err != nil {
		return err
	}
	if !r.fsm.Is(state.EndDiscussion) {
		return game.Validation("discussion has not ended")
	}

	switch winner {
	case game.WinnerGood:
		if err := r.fsm.ChangeState(state.WolfKill); err != nil {
			return err
		}
		r.sendKillTargets()
	case game.WinnerWolf:
		if err := r.fsm.ChangeState(state.Vote); err != nil {
			return err
		}
		r.broadcast(network.MsgTypeStartVote, r.views())
	default:
		return game.Validation("winner must be good or wolf")
	}
	return nil
}

// killTargets lists everyone a wolf may pick.
func (r *Room) killTargets() []models.PlayerView {
	targets := make([]models.PlayerView, 0, len(r.players))
	for _, p := range r.players {
		if p.Role != game.RoleWolf {
			targets = append(targets, p.View())
		}
	}
	return targets
}

// sendKillTargets gives wolves the target list and everyone else an empty one.
func (r *Room) sendKillTargets() {
	targets := r.killTargets()
	none := []models.PlayerView{}
	for _, p := range r.players {
		if !p.Connected() {
			continue
		}
		if p.Role == game.RoleWolf {
			r.unicast(p.ConnID, network.MsgTypeKillTargetList, targets)
		} else {
			r.unicast(p.ConnID, network.MsgTypeKillTargetList, none)
		}
	}
}

func (r *Room) wolfKill(sessionID, targetID string) error {
	if r.killTarget != "" {
		return game.Duplicate("kill already recorded")
	}
	if !r.fsm.Is(state.WolfKill) {
		return game.Validation("not in the kill phase")
	}
	wolf, err := r.caller(sessionID)
	if err != nil {
		return err
	}
	if wolf.Role != game.RoleWolf {
		return game.Unauthorized("only wolves can kill")
	}
	target := r.playerByID(targetID)
	if target == nil || target.Role == game.RoleWolf {
		return game.Validation("invalid kill target")
	}

	r.killTarget = target.ID
	r.log.Infow("wolf kill", "wolf", wolf.ID, "target", target.ID)
	r.finishRound(models.RoundResult{
		Mode:       ModeKill,
		Winner:     game.KillWinner(target.Role),
		KillTarget: target.Name,
	})
	return nil
}

func (r *Room) vote(sessionID, targetID string) error {
	if !r.fsm.Is(state.Vote) {
		return game.Validation("voting is not open")
	}
	voter, err := r.caller(sessionID)
	if err != nil {
		return err
	}
	if r.playerByID(targetID) == nil {
		return game.Validation("invalid vote target")
	}

	r.votes[voter.ID] = targetID
	r.rebuildNarrative()
	r.broadcastVoteProgress()
	r.maybeResolveVote()
	return nil
}

// broadcastVoteProgress counts only connected players on both sides.
func (r *Room) broadcastVoteProgress() {
	progress := models.VoteProgress{}
	for _, p := range r.players {
		if !p.Connected() {
			continue
		}
		progress.Total++
		if _, ok := r.votes[p.ID]; ok {
			progress.Voted++
		}
	}
	r.broadcast(network.MsgTypeVoteProgress, progress)
}

func (r *Room) rebuildNarrative() {
	r.voteNarrative = make(map[string]string, len(r.votes))
	for voterID, targetID := range r.votes {
		voter, target := r.playerByID(voterID), r.playerByID(targetID)
		if voter == nil || target == nil {
			continue
		}
		r.voteNarrative[voter.Name] = target.Name
	}
}

// maybeResolveVote closes the vote once every connected player has voted.
func (r *Room) maybeResolveVote() {
	if !r.fsm.Is(state.Vote) {
		return
	}
	connected := 0
	for _, p := range r.players {
		if !p.Connected() {
			continue
		}
		connected++
		if _, ok := r.votes[p.ID]; !ok {
			return
		}
	}
	if connected == 0 {
		return
	}
	r.resolveVote()
}

func (r *Room) resolveVote() {
	order := make([]string, len(r.players))
	for i, p := range r.players {
		order[i] = p.ID
	}
	tally := game.Tally(r.votes, order)

	roleOf := func(id string) game.Role {
		if p := r.playerByID(id); p != nil {
			return p.Role
		}
		return game.RoleUnset
	}

	board := make([]models.VoteCount, 0, len(tally.Leaderboard))
	for _, row := range tally.Leaderboard {
		name := ""
		if p := r.playerByID(row.PlayerID); p != nil {
			name = p.Name
		}
		board = append(board, models.VoteCount{ID: row.PlayerID, Name: name, Count: row.Count})
	}

	narrative := make(map[string]string, len(r.voteNarrative))
	for k, v := range r.voteNarrative {
		narrative[k] = v
	}

	r.finishRound(models.RoundResult{
		Mode:          ModeVote,
		Winner:        game.VoteWinner(tally.TopVoted, roleOf),
		Leaderboard:   board,
		VoteNarrative: narrative,
	})
}

// finishRound fills in the reveal, scores the round and moves to result.
func (r *Room) finishRound(res models.RoundResult) {
	if err := r.fsm.ChangeState(state.Result); err != nil {
		r.log.Warnw("finish round", "error", err)
		return
	}

	res.Round = r.round
	res.Word = r.word
	res.Wolves = []string{}
	for _, p := range r.players {
		switch p.Role {
		case game.RoleSeer:
			res.Seer = p.Name
		case game.RoleWolf:
			res.Wolves = append(res.Wolves, p.Name)
		}
	}

	if res.Winner == game.WinnerWolf {
		res.WolfScore = 1
		r.scores.Wolf++
	} else {
		res.GoodScore = 1
		r.scores.Good++
	}
	res.Scores = r.scores

	r.result = &res
	r.log.Infow("round finished", "round", res.Round, "mode", res.Mode, "winner", res.Winner)
	r.broadcast(network.MsgTypeRoundResult, res)

	if r.deps.Observer != nil {
		ids := make([]string, len(r.players))
		for i, p := range r.players {
			ids[i] = p.ID
		}
		r.deps.Observer.RoundFinished(models.RoundRecord{
			RoomID:     r.ID,
			Round:      res.Round,
			HostID:     r.hostID,
			Players:    ids,
			Result:     res,
			FinishedAt: r.deps.Now(),
		})
	}
}
