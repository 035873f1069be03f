// persistence/interface.go
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/wfunc/werewords/config"
	"github.com/wfunc/werewords/game"
	"github.com/wfunc/werewords/models"
)

// Database 回合历史存储接口
type Database interface {
	SaveRoundRecord(ctx context.Context, record models.RoundRecord) error
	// ListRoundRecords returns roomID's most recent rounds, newest first.
	ListRoundRecords(ctx context.Context, roomID string, limit int) ([]models.RoundRecord, error)
	RoomStats(ctx context.Context, roomID string) (models.RoomStats, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrUnknownDriver  = errors.New("unknown database driver")
)

// Open picks the store named by cfg.Driver.
func Open(cfg config.DatabaseConfig) (Database, error) {
	pg := cfg.Postgres
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "postgres":
		return NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case "gorm":
		return NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
}

// statsDelta is what one finished round adds to a room's totals.
func statsDelta(winner string) (goodWins, wolfWins int) {
	if winner == game.WinnerWolf {
		return 0, 1
	}
	return 1, 0
}
