// persistence/gorm_postgresql.go
package persistence

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/wfunc/werewords/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := autoMigrate(db); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// autoMigrate 自动迁移表结构
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.GormRoundRecord{},
		&models.GormRoomStats{},
	)
}

// SaveRoundRecord 在一个事务里写入回合记录并累加房间统计
func (p *GormPostgreSQL) SaveRoundRecord(ctx context.Context, record models.RoundRecord) error {
	row := models.NewGormRoundRecord(record)
	good, wolf := statsDelta(record.Result.Winner)

	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		stats := models.GormRoomStats{
			RoomID:   record.RoomID,
			Rounds:   1,
			GoodWins: good,
			WolfWins: wolf,
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "room_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"rounds":     gorm.Expr("room_stats.rounds + ?", 1),
				"good_wins":  gorm.Expr("room_stats.good_wins + ?", good),
				"wolf_wins":  gorm.Expr("room_stats.wolf_wins + ?", wolf),
				"updated_at": time.Now(),
			}),
		}).Create(&stats).Error
	})
}

// ListRoundRecords 按时间倒序查询房间回合记录
func (p *GormPostgreSQL) ListRoundRecords(ctx context.Context, roomID string, limit int) ([]models.RoundRecord, error) {
	var rows []models.GormRoundRecord
	query := p.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("finished_at DESC").
		Order("round DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]models.RoundRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.ToRecord())
	}
	return records, nil
}

// RoomStats 查询房间累计胜负
func (p *GormPostgreSQL) RoomStats(ctx context.Context, roomID string) (models.RoomStats, error) {
	var row models.GormRoomStats
	if err := p.db.WithContext(ctx).Where("room_id = ?", roomID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RoomStats{}, ErrRecordNotFound
		}
		return models.RoomStats{}, err
	}
	return models.RoomStats{
		RoomID:   row.RoomID,
		Rounds:   row.Rounds,
		GoodWins: row.GoodWins,
		WolfWins: row.WolfWins,
	}, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
