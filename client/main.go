package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wfunc/werewords/models"
	"github.com/wfunc/werewords/network"
)

// state remembers which room and player this terminal speaks for.
type state struct {
	mutex    sync.Mutex
	roomID   string
	playerID string
}

func (s *state) set(roomID, playerID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if roomID != "" {
		s.roomID = roomID
	}
	if playerID != "" {
		s.playerID = playerID
	}
}

func (s *state) get() (string, string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.roomID, s.playerID
}

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	packet, err := network.EncodePacket(msgID, data)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.BinaryMessage, packet)
}

const usage = `commands:
  create <name> [maxPlayers] [seconds]   join <room> <name>
  reconnect <room> <playerId>            leave
  start | words | pick <word> | end | winner good|wolf
  kill <playerId> | vote <playerId>`

func main() {
	addr := flag.String("addr", "localhost:8080", "server address")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	st := &state{}
	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			packet, err := network.DecodePacket(message)
			if err != nil {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			switch packet.MsgID {
			case network.MsgTypeCreateRoom, network.MsgTypeJoinRoom:
				var reply models.JoinReply
				if json.Unmarshal(packet.Data, &reply) == nil && reply.Error == "" {
					st.set(reply.RoomID, reply.PlayerID)
				}
			case network.MsgTypeReconnectPlayer:
				var snap models.Snapshot
				if json.Unmarshal(packet.Data, &snap) == nil && snap.Error == "" {
					st.set(snap.RoomID, snap.PlayerID)
				}
			}
			log.Printf("<- %s: %s", network.MsgName(packet.MsgID), string(packet.Data))
		}
	}()

	// Heartbeat loop
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := send(c, network.MsgTypeHeartbeat, nil); err != nil {
					return
				}
			}
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	log.Println(usage)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			msgID, payload, ok := command(st, strings.Fields(line))
			if !ok {
				log.Println(usage)
				continue
			}
			if err := send(c, msgID, payload); err != nil {
				log.Println("Write error:", err)
				return
			}
			log.Printf("-> %s", network.MsgName(msgID))
		}
	}
}

// command turns one input line into a frame.
func command(st *state, args []string) (uint16, interface{}, bool) {
	if len(args) == 0 {
		return 0, nil, false
	}
	roomID, playerID := st.get()
	room := models.RoomRequest{RoomID: roomID}

	switch args[0] {
	case "create":
		if len(args) < 2 {
			return 0, nil, false
		}
		req := models.CreateRoomRequest{Name: args[1], MaxPlayers: 12, Duration: 60}
		if len(args) > 2 {
			req.MaxPlayers = atoi(args[2], req.MaxPlayers)
		}
		if len(args) > 3 {
			req.Duration = atoi(args[3], req.Duration)
		}
		return network.MsgTypeCreateRoom, req, true
	case "join":
		if len(args) < 3 {
			return 0, nil, false
		}
		return network.MsgTypeJoinRoom, models.JoinRoomRequest{RoomID: args[1], Name: args[2]}, true
	case "reconnect":
		if len(args) < 3 {
			return 0, nil, false
		}
		return network.MsgTypeReconnectPlayer, models.ReconnectRequest{RoomID: args[1], PlayerID: args[2]}, true
	case "leave":
		return network.MsgTypeLeaveRoom, models.LeaveRoomRequest{RoomID: roomID, PlayerID: playerID}, true
	case "start":
		return network.MsgTypeStartGame, room, true
	case "words":
		return network.MsgTypeGetWordList, room, true
	case "pick":
		if len(args) < 2 {
			return 0, nil, false
		}
		return network.MsgTypeSelectWord, models.SelectWordRequest{RoomID: roomID, Selected: strings.Join(args[1:], " ")}, true
	case "end":
		return network.MsgTypeForceEndDiscussion, room, true
	case "winner":
		if len(args) < 2 {
			return 0, nil, false
		}
		return network.MsgTypeSelectWinner, models.SelectWinnerRequest{RoomID: roomID, Winner: args[1]}, true
	case "kill":
		if len(args) < 2 {
			return 0, nil, false
		}
		return network.MsgTypeWolfKill, models.WolfKillRequest{RoomID: roomID, TargetID: args[1]}, true
	case "vote":
		if len(args) < 2 {
			return 0, nil, false
		}
		return network.MsgTypeVoteWolves, models.VoteRequest{RoomID: roomID, Votes: []string{args[1]}}, true
	}
	return 0, nil, false
}

func atoi(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
