package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wfunc/werewords/broadcast"
	"github.com/wfunc/werewords/config"
	"github.com/wfunc/werewords/game"
	"github.com/wfunc/werewords/logger"
	"github.com/wfunc/werewords/monitor"
	"github.com/wfunc/werewords/persistence"
	"github.com/wfunc/werewords/room"
	"github.com/wfunc/werewords/rpc"
	"github.com/wfunc/werewords/server"
	"github.com/wfunc/werewords/services"
	"github.com/wfunc/werewords/session"
	"github.com/wfunc/werewords/timer"
	"github.com/wfunc/werewords/wordbank"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "werewords: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Log.Level); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	words, err := wordbank.Load(cfg.Game.WordFile, game.NewRand())
	if err != nil {
		logger.Log.Warnf("Using built-in word list: %v", err)
	}
	logger.Log.Infof("Word bank ready with %d words", words.Len())

	// Initialize Database
	db, err := persistence.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open %s history store: %w", cfg.Database.Driver, err)
	}
	defer db.Close()
	logger.Log.Infof("History store %q ready.", cfg.Database.Driver)

	history := services.NewHistory(db, cfg.Database.HistoryBuffer)
	mon := monitor.NewMonitor("werewords")
	mon.TrackDroppedRounds(history.Dropped)

	clock := timer.NewTimerManager(cfg.Game.TickInterval / 10)
	defer clock.Stop()

	sessions := session.NewManager()
	broadcaster := broadcast.NewSessionBroadcaster(sessions)
	rooms := room.NewRoomManager(room.Deps{
		Broadcaster:     broadcaster,
		Scheduler:       clock,
		Words:           words,
		Observer:        room.Observers{history, mon},
		TickInterval:    cfg.Game.TickInterval,
		DefaultDuration: cfg.Game.DefaultDuration,
	}, cfg.Game.RoomCodeLength)
	defer rooms.CloseAll()

	gameServer := server.NewGameServer(server.Options{
		Addr:           cfg.Server.HTTPAddress,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.RateBurst,
		Heartbeat:      cfg.Server.Heartbeat,
		SendQueue:      cfg.Server.SendQueue,
	}, rooms, sessions, broadcaster, mon)

	rpcServer, err := rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		return fmt.Errorf("listen rpc: %w", err)
	}
	if err := rpcServer.Register(rpc.NewRoomService(rooms, history)); err != nil {
		return fmt.Errorf("register rpc: %w", err)
	}

	healthServer, err := rpc.NewHealthServer(cfg.Server.HealthAddress)
	if err != nil {
		return fmt.Errorf("listen health: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return history.Run(gctx) })
	g.Go(func() error {
		rooms.RunReaper(gctx, cfg.Game.IdleRoomTTL, 0)
		return nil
	})
	g.Go(func() error {
		rpcServer.Start()
		return nil
	})
	g.Go(healthServer.Start)
	g.Go(func() error {
		logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
		return gameServer.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Log.Info("Shutting down...")
		healthServer.SetServing(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := gameServer.Shutdown(shutdownCtx)
		rpcServer.Stop()
		healthServer.Stop()
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
