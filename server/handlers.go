package server

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/wfunc/werewords/game"
	"github.com/wfunc/werewords/logger"
	"github.com/wfunc/werewords/models"
	"github.com/wfunc/werewords/network"
	"github.com/wfunc/werewords/room"
	"github.com/wfunc/werewords/session"
)

const msgRoomNotFound = "room not found"

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	start := time.Now()
	sess.Touch()

	if !sess.Allow() {
		if s.monitor != nil {
			s.monitor.IncRateLimited()
		}
		logger.Log.Debugf("Session %s rate limited, dropping %s", sess.GetID(), network.MsgName(packet.MsgID))
		return
	}
	if s.monitor != nil {
		s.monitor.IncMessagesReceived(network.MsgName(packet.MsgID))
		defer func() { s.monitor.ObserveMessageLatency(time.Since(start)) }()
	}

	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Send(network.MsgTypeHeartbeat, nil)
	case network.MsgTypeCreateRoom:
		s.handleCreateRoom(sess, packet)
	case network.MsgTypeJoinRoom:
		s.handleJoinRoom(sess, packet)
	case network.MsgTypeLeaveRoom:
		s.handleLeaveRoom(sess, packet)
	case network.MsgTypeReconnectPlayer:
		s.handleReconnect(sess, packet)
	case network.MsgTypeStartGame,
		network.MsgTypeGetWordList,
		network.MsgTypeSelectWord,
		network.MsgTypeForceEndDiscussion,
		network.MsgTypeSelectWinner,
		network.MsgTypeWolfKill,
		network.MsgTypeVoteWolves:
		s.handleGameAction(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

// decode treats an empty payload as the zero request.
func decode[T any](packet *network.Packet) (T, error) {
	var v T
	if len(packet.Data) == 0 {
		return v, nil
	}
	err := json.Unmarshal(packet.Data, &v)
	return v, err
}

// reply answers on the request's own message id.
func (s *GameServer) reply(sess *session.Session, msgID uint16, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Log.Errorf("Encode reply %s: %v", network.MsgName(msgID), err)
		return
	}
	if err := sess.Send(msgID, data); err != nil {
		logger.Log.Debugf("Reply to session %s failed: %v", sess.GetID(), err)
	}
}

// errorText is what a client sees for a rejected reply-bearing request.
func errorText(err error) string {
	var gerr *game.Error
	switch {
	case errors.As(err, &gerr):
		return gerr.Message
	case errors.Is(err, room.ErrRoomClosed), errors.Is(err, room.ErrRoomNotFound):
		return msgRoomNotFound
	}
	return "internal error"
}

// bind moves sess into roomID, leaving its previous room first.
func (s *GameServer) bind(sess *session.Session, roomID, playerID string) {
	if prev := sess.RoomID(); prev != "" && prev != roomID {
		s.detach(sess)
	}
	sess.Bind(roomID, playerID)
}

func (s *GameServer) handleCreateRoom(sess *session.Session, packet *network.Packet) {
	req, err := decode[models.CreateRoomRequest](packet)
	if err != nil {
		s.reply(sess, packet.MsgID, models.JoinReply{Error: "invalid request"})
		return
	}

	r := s.roomManager.CreateRoom(room.Config{MaxPlayers: req.MaxPlayers, Duration: req.Duration})
	resp, err := r.Join(sess.GetID(), req.Name)
	if err != nil {
		s.roomManager.RemoveRoom(r.ID)
		s.reply(sess, packet.MsgID, models.JoinReply{Error: errorText(err)})
		return
	}
	s.bind(sess, r.ID, resp.PlayerID)

	logger.Log.Infof("Session %s created room %s", sess.GetID(), r.ID)
	s.reply(sess, packet.MsgID, resp)
}

func (s *GameServer) handleJoinRoom(sess *session.Session, packet *network.Packet) {
	req, err := decode[models.JoinRoomRequest](packet)
	if err != nil {
		s.reply(sess, packet.MsgID, models.JoinReply{Error: "invalid request"})
		return
	}

	r, exists := s.roomManager.GetRoom(req.RoomID)
	if !exists {
		s.reply(sess, packet.MsgID, models.JoinReply{Error: msgRoomNotFound})
		return
	}
	resp, err := r.Join(sess.GetID(), req.Name)
	if err != nil {
		s.reply(sess, packet.MsgID, models.JoinReply{Error: errorText(err)})
		return
	}
	s.bind(sess, r.ID, resp.PlayerID)

	logger.Log.Infof("Session %s joined room %s", sess.GetID(), r.ID)
	s.reply(sess, packet.MsgID, resp)
}

func (s *GameServer) handleLeaveRoom(sess *session.Session, packet *network.Packet) {
	req, err := decode[models.LeaveRoomRequest](packet)
	if err != nil {
		return
	}
	r, exists := s.roomManager.GetRoom(req.RoomID)
	if !exists {
		return
	}
	if err := r.Leave(sess.GetID(), req.PlayerID); err != nil {
		logger.Log.Debugf("Session %s leave room %s: %v", sess.GetID(), req.RoomID, err)
		return
	}
	if sess.RoomID() == req.RoomID {
		sess.Unbind()
	}
	logger.Log.Infof("Player %s left room %s", req.PlayerID, req.RoomID)
}

func (s *GameServer) handleReconnect(sess *session.Session, packet *network.Packet) {
	req, err := decode[models.ReconnectRequest](packet)
	if err != nil {
		s.reply(sess, packet.MsgID, models.Snapshot{Error: "invalid request"})
		return
	}
	r, exists := s.roomManager.GetRoom(req.RoomID)
	if !exists {
		s.reply(sess, packet.MsgID, models.Snapshot{Error: msgRoomNotFound})
		return
	}
	snap, err := r.Reconnect(sess.GetID(), req.PlayerID)
	if err != nil {
		s.reply(sess, packet.MsgID, models.Snapshot{Error: errorText(err)})
		return
	}
	s.bind(sess, r.ID, req.PlayerID)

	logger.Log.Infof("Session %s reconnected as %s in room %s", sess.GetID(), req.PlayerID, r.ID)
	s.reply(sess, packet.MsgID, snap)
}

// handleGameAction dispatches reply-less round events; rejections are
// delivered by the room itself.
func (s *GameServer) handleGameAction(sess *session.Session, packet *network.Packet) {
	target, err := decode[models.RoomRequest](packet)
	if err != nil {
		logger.Log.Debugf("Session %s sent malformed %s: %v", sess.GetID(), network.MsgName(packet.MsgID), err)
		return
	}
	roomID := target.RoomID
	if roomID == "" {
		roomID = sess.RoomID()
	}
	r, exists := s.roomManager.GetRoom(roomID)
	if !exists {
		logger.Log.Debugf("Session %s sent %s for unknown room %q", sess.GetID(), network.MsgName(packet.MsgID), roomID)
		return
	}

	id := sess.GetID()
	switch packet.MsgID {
	case network.MsgTypeStartGame:
		err = r.StartGame(id)
	case network.MsgTypeGetWordList:
		err = r.RequestWordList(id)
	case network.MsgTypeForceEndDiscussion:
		err = r.ForceEndDiscussion(id)
	case network.MsgTypeSelectWord:
		req, _ := decode[models.SelectWordRequest](packet)
		err = r.SelectWord(id, req.Selected)
	case network.MsgTypeSelectWinner:
		req, _ := decode[models.SelectWinnerRequest](packet)
		err = r.SelectWinner(id, req.Winner)
	case network.MsgTypeWolfKill:
		req, _ := decode[models.WolfKillRequest](packet)
		err = r.WolfKill(id, req.TargetID)
	case network.MsgTypeVoteWolves:
		req, _ := decode[models.VoteRequest](packet)
		vote := ""
		if len(req.Votes) > 0 {
			vote = req.Votes[0]
		}
		err = r.Vote(id, vote)
	}
	if err != nil {
		logger.Log.Debugf("Room %s rejected %s from %s: %v", r.ID, network.MsgName(packet.MsgID), id, err)
	}
}
