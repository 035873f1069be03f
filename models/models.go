// models/models.go
package models

import (
	"time"
)

// --- 客户端请求 ---

type CreateRoomRequest struct {
	Name       string `json:"name"`
	MaxPlayers int    `json:"maxPlayers"`
	Duration   int    `json:"duration"`
}

type JoinRoomRequest struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

type LeaveRoomRequest struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

type ReconnectRequest struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

// RoomRequest carries only the room code (startGame, getWordList, forceEndDiscussion).
type RoomRequest struct {
	RoomID string `json:"roomId"`
}

type SelectWordRequest struct {
	RoomID   string `json:"roomId"`
	Selected string `json:"selected"`
}

type SelectWinnerRequest struct {
	RoomID string `json:"roomId"`
	Winner string `json:"winner"`
}

type WolfKillRequest struct {
	RoomID   string `json:"roomId"`
	TargetID string `json:"targetId"`
}

type VoteRequest struct {
	RoomID string   `json:"roomId"`
	Votes  []string `json:"votes"`
}

// --- 服务端响应/推送 ---

// JoinReply answers createRoom and joinRoom.
type JoinReply struct {
	RoomID    string `json:"roomId,omitempty"`
	CreatorID string `json:"creatorId,omitempty"`
	PlayerID  string `json:"playerId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// PlayerView is the public roster entry; roles and words never appear here.
type PlayerView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

type HostInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RoleMessage struct {
	Role   string   `json:"role"`
	Wolves []string `json:"wolves,omitempty"`
}

type DiscussionStart struct {
	Duration int `json:"duration"`
}

type VoteProgress struct {
	Voted int `json:"voted"`
	Total int `json:"total"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

type VoteCount struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type Scores struct {
	Good int `json:"good"`
	Wolf int `json:"wolf"`
}

// RoundResult 回合结算
type RoundResult struct {
	Round         int               `json:"round"`
	Mode          string            `json:"mode"` // kill | vote
	Winner        string            `json:"winner"`
	Word          string            `json:"word"`
	Seer          string            `json:"seer"`
	Wolves        []string          `json:"wolves"`
	KillTarget    string            `json:"killTarget,omitempty"`
	Leaderboard   []VoteCount       `json:"leaderboard,omitempty"`
	VoteNarrative map[string]string `json:"voteNarrative,omitempty"`
	WolfScore     int               `json:"wolfScore"`
	GoodScore     int               `json:"goodScore"`
	Scores        Scores            `json:"scores"`
}

// Snapshot is the full state returned to a reconnecting player.
type Snapshot struct {
	RoomID      string       `json:"roomId"`
	CreatorID   string       `json:"creatorId"`
	HostID      string       `json:"hostId"`
	PlayerID    string       `json:"playerId"`
	Phase       string       `json:"phase"`
	Timer       int          `json:"timer"`
	Duration    int          `json:"duration"`
	Players     []PlayerView `json:"players"`
	MyRole      string       `json:"myRole"`
	MyWord      string       `json:"myWord"`
	MyVote      string       `json:"myVote,omitempty"`
	WordOptions []string     `json:"wordOptions,omitempty"`
	KillTargets []PlayerView `json:"killTargets,omitempty"`
	Result      *RoundResult `json:"result,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// RoomInfo 房间概要，用于管理接口
type RoomInfo struct {
	RoomID     string    `json:"roomId"`
	Phase      string    `json:"phase"`
	Players    int       `json:"players"`
	Connected  int       `json:"connected"`
	MaxPlayers int       `json:"maxPlayers"`
	Round      int       `json:"round"`
	CreatedAt  time.Time `json:"createdAt"`
	IdleSince  time.Time `json:"idleSince,omitempty"`
}

// RoundRecord is one finished round as written to the history store.
type RoundRecord struct {
	RoomID     string      `json:"room_id"`
	Round      int         `json:"round"`
	HostID     string      `json:"host_id"`
	Players    []string    `json:"players"`
	Result     RoundResult `json:"result"`
	FinishedAt time.Time   `json:"finished_at"`
}

// RoomStats 房间累计统计
type RoomStats struct {
	RoomID   string `json:"room_id"`
	Rounds   int    `json:"rounds"`
	GoodWins int    `json:"good_wins"`
	WolfWins int    `json:"wolf_wins"`
}
