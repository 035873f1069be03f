package network

// 客户端 -> 服务端
const (
	MsgTypeHeartbeat          = 1
	MsgTypeCreateRoom         = 101
	MsgTypeJoinRoom           = 102
	MsgTypeLeaveRoom          = 103
	MsgTypeReconnectPlayer    = 104
	MsgTypeStartGame          = 201
	MsgTypeGetWordList        = 202
	MsgTypeSelectWord         = 203
	MsgTypeForceEndDiscussion = 204
	MsgTypeSelectWinner       = 205
	MsgTypeWolfKill           = 206
	MsgTypeVoteWolves         = 207
)

// 服务端 -> 客户端
const (
	MsgTypePlayerList      = 301
	MsgTypeNewHost         = 302
	MsgTypeYourRole        = 303
	MsgTypeWordList        = 304
	MsgTypeYourWord        = 305
	MsgTypeDiscussionStart = 306
	MsgTypeTimerUpdate     = 307
	MsgTypeDiscussionEnd   = 308
	MsgTypeKillTargetList  = 309
	MsgTypeStartVote       = 310
	MsgTypeRoundResult     = 311
	MsgTypeErrorMessage    = 312
	MsgTypeGameStarted     = 313
	MsgTypeVoteProgress    = 314
)

var msgNames = map[uint16]string{
	MsgTypeHeartbeat:          "heartbeat",
	MsgTypeCreateRoom:         "createRoom",
	MsgTypeJoinRoom:           "joinRoom",
	MsgTypeLeaveRoom:          "leaveRoom",
	MsgTypeReconnectPlayer:    "reconnectPlayer",
	MsgTypeStartGame:          "startGame",
	MsgTypeGetWordList:        "getWordList",
	MsgTypeSelectWord:         "selectWord",
	MsgTypeForceEndDiscussion: "forceEndDiscussion",
	MsgTypeSelectWinner:       "selectWinner",
	MsgTypeWolfKill:           "wolfKill",
	MsgTypeVoteWolves:         "voteWolves",
	MsgTypePlayerList:         "playerList",
	MsgTypeNewHost:            "newHost",
	MsgTypeYourRole:           "yourRole",
	MsgTypeWordList:           "wordList",
	MsgTypeYourWord:           "yourWord",
	MsgTypeDiscussionStart:    "discussionStart",
	MsgTypeTimerUpdate:        "timerUpdate",
	MsgTypeDiscussionEnd:      "discussionEnd",
	MsgTypeKillTargetList:     "killTargetList",
	MsgTypeStartVote:          "startVote",
	MsgTypeRoundResult:        "roundResult",
	MsgTypeErrorMessage:       "errorMessage",
	MsgTypeGameStarted:        "gameStarted",
	MsgTypeVoteProgress:       "voteProgress",
}

// MsgName returns the protocol event name for msgID, or "unknown".
func MsgName(msgID uint16) string {
	if name, ok := msgNames[msgID]; ok {
		return name
	}
	return "unknown"
}
