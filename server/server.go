package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/werewords/broadcast"
	"github.com/wfunc/werewords/logger"
	"github.com/wfunc/werewords/models"
	"github.com/wfunc/werewords/monitor"
	"github.com/wfunc/werewords/network"
	"github.com/wfunc/werewords/room"
	"github.com/wfunc/werewords/session"
)

// Options 网关配置
type Options struct {
	Addr           string
	AllowedOrigins []string
	RateLimit      float64
	RateBurst      int
	Heartbeat      time.Duration
	SendQueue      int
}

type GameServer struct {
	opts           Options
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	broadcaster    broadcast.Broadcaster
	monitor        *monitor.Monitor
	httpServer     *http.Server
	shutdownChan   chan struct{}
	shutdownOnce   sync.Once
}

func NewGameServer(opts Options, rooms *room.Manager, sessions *session.Manager,
	broadcaster broadcast.Broadcaster, mon *monitor.Monitor) *GameServer {
	s := &GameServer{
		opts:           opts,
		roomManager:    rooms,
		sessionManager: sessions,
		broadcaster:    broadcaster,
		monitor:        mon,
		shutdownChan:   make(chan struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// checkOrigin 未配置白名单时允许所有跨域请求
func (s *GameServer) checkOrigin(r *http.Request) bool {
	if len(s.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range s.opts.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logger.Log.Warnf("Rejected websocket origin %q", origin)
	return false
}

// Routes builds the HTTP surface: /ws, /metrics and /healthz.
func (s *GameServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.handleWebSocket)
	r.Get("/healthz", s.handleHealth)
	if s.monitor != nil {
		metrics := s.monitor.Handler()
		r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
			s.monitor.SetActiveRooms(s.roomManager.Count())
			metrics.ServeHTTP(w, req)
		})
	}
	return r
}

// Start blocks serving HTTP until Shutdown.
func (s *GameServer) Start() error {
	logger.Log.Infof("Game server listening on %s", s.opts.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown tells every client, stops accepting and drops open connections.
func (s *GameServer) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)
		data, _ := json.Marshal(models.ErrorMessage{Message: "server shutting down"})
		_ = s.broadcaster.BroadcastToAll(network.MsgTypeErrorMessage, data)

		err = s.httpServer.Shutdown(ctx)
		// hijacked websocket connections are not closed by http.Server
		for _, sess := range s.sessionManager.All() {
			sess.Close()
		}
	})
	return err
}

func (s *GameServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ok",
		"rooms":  s.roomManager.Count(),
	})
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	if s.opts.Heartbeat > 0 {
		wsConn.SetHeartbeat(s.opts.Heartbeat)
	}
	id := uuid.NewString()
	queued := network.NewQueuedConnection(wsConn, s.opts.SendQueue, func(err error) {
		logger.Log.Debugf("Write to session %s failed: %v", id, err)
		wsConn.Close()
	})
	sess := session.NewSession(id, queued)
	sess.SetRateLimit(s.opts.RateLimit, s.opts.RateBurst)
	s.sessionManager.Add(sess)
	if s.monitor != nil {
		s.monitor.IncOnlineSessions()
	}

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s, last active %s",
			wsConn.RemoteAddr(), sess.GetID(), sess.LastActive().Format(time.RFC3339))
		s.detach(sess)
		s.sessionManager.Remove(sess.GetID())
		if s.monitor != nil {
			s.monitor.DecOnlineSessions()
		}
		sess.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
		}
		packet, err := wsConn.ReadPacket()
		if err != nil {
			return
		}
		s.handlePacket(sess, packet)
	}
}

// detach marks the session's player offline in whatever room it was bound to.
func (s *GameServer) detach(sess *session.Session) {
	roomID := sess.RoomID()
	if roomID == "" {
		return
	}
	sess.Unbind()
	if r, ok := s.roomManager.GetRoom(roomID); ok {
		if err := r.Disconnect(sess.GetID()); err != nil && !errors.Is(err, room.ErrRoomClosed) {
			logger.Log.Warnf("Disconnect session %s from room %s: %v", sess.GetID(), roomID, err)
		}
	}
}
