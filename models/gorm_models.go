// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// GormRoundRecord 回合记录表
type GormRoundRecord struct {
	gorm.Model
	RoomID     string      `gorm:"index;not null"`
	Round      int         `gorm:"not null"`
	HostID     string      `gorm:"not null"`
	Winner     string      `gorm:"index;not null"`
	Mode       string      `gorm:"not null"`
	Players    []string    `gorm:"serializer:json"`
	Result     RoundResult `gorm:"serializer:json"`
	FinishedAt time.Time   `gorm:"index"`
}

func (GormRoundRecord) TableName() string { return "round_records" }

// GormRoomStats 每个房间的累计胜负
type GormRoomStats struct {
	RoomID    string `gorm:"primaryKey"`
	Rounds    int    `gorm:"default:0"`
	GoodWins  int    `gorm:"default:0"`
	WolfWins  int    `gorm:"default:0"`
	UpdatedAt time.Time
}

func (GormRoomStats) TableName() string { return "room_stats" }

func NewGormRoundRecord(rec RoundRecord) GormRoundRecord {
	return GormRoundRecord{
		RoomID:     rec.RoomID,
		Round:      rec.Round,
		HostID:     rec.HostID,
		Winner:     rec.Result.Winner,
		Mode:       rec.Result.Mode,
		Players:    rec.Players,
		Result:     rec.Result,
		FinishedAt: rec.FinishedAt,
	}
}

func (g GormRoundRecord) ToRecord() RoundRecord {
	return RoundRecord{
		RoomID:     g.RoomID,
		Round:      g.Round,
		HostID:     g.HostID,
		Players:    g.Players,
		Result:     g.Result,
		FinishedAt: g.FinishedAt,
	}
}
