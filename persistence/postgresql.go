// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"

	"github.com/wfunc/werewords/models"
)

// PostgreSQL 数据库实现
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构，与 gorm 实现使用同一套表
func initTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS round_records (
            id BIGSERIAL PRIMARY KEY,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            deleted_at TIMESTAMPTZ,
            room_id TEXT NOT NULL,
            round BIGINT NOT NULL,
            host_id TEXT NOT NULL,
            winner TEXT NOT NULL,
            mode TEXT NOT NULL,
            players JSONB,
            result JSONB,
            finished_at TIMESTAMPTZ
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS room_stats (
            room_id TEXT PRIMARY KEY,
            rounds BIGINT DEFAULT 0,
            good_wins BIGINT DEFAULT 0,
            wolf_wins BIGINT DEFAULT 0,
            updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.ExecContext(ctx, `
        CREATE INDEX IF NOT EXISTS idx_round_records_room_id ON round_records(room_id);
        CREATE INDEX IF NOT EXISTS idx_round_records_winner ON round_records(winner);
        CREATE INDEX IF NOT EXISTS idx_round_records_finished_at ON round_records(finished_at);
    `)
	return err
}

// SaveRoundRecord 写入回合记录并累加房间统计
func (p *PostgreSQL) SaveRoundRecord(ctx context.Context, record models.RoundRecord) error {
	playersJSON, err := json.Marshal(record.Players)
	if err != nil {
		return err
	}
	resultJSON, err := json.Marshal(record.Result)
	if err != nil {
		return err
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO round_records (room_id, round, host_id, winner, mode, players, result, finished_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, record.RoomID, record.Round, record.HostID, record.Result.Winner, record.Result.Mode,
		playersJSON, resultJSON, record.FinishedAt)
	if err != nil {
		return err
	}

	good, wolf := statsDelta(record.Result.Winner)
	// 使用 UPSERT 操作 (PostgreSQL 9.5+)
	_, err = tx.ExecContext(ctx, `
        INSERT INTO room_stats (room_id, rounds, good_wins, wolf_wins)
        VALUES ($1, 1, $2, $3)
        ON CONFLICT (room_id)
        DO UPDATE SET rounds = room_stats.rounds + 1,
                      good_wins = room_stats.good_wins + $2,
                      wolf_wins = room_stats.wolf_wins + $3,
                      updated_at = CURRENT_TIMESTAMP
    `, record.RoomID, good, wolf)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// ListRoundRecords 按时间倒序查询房间回合记录
func (p *PostgreSQL) ListRoundRecords(ctx context.Context, roomID string, limit int) ([]models.RoundRecord, error) {
	query := `
        SELECT room_id, round, host_id, players, result, finished_at
        FROM round_records
        WHERE room_id = $1 AND deleted_at IS NULL
        ORDER BY finished_at DESC, round DESC
    `
	args := []interface{}{roomID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.RoundRecord
	for rows.Next() {
		var (
			rec                 models.RoundRecord
			players, resultJSON []byte
		)
		if err := rows.Scan(&rec.RoomID, &rec.Round, &rec.HostID, &players, &resultJSON, &rec.FinishedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(players, &rec.Players); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(resultJSON, &rec.Result); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// RoomStats 查询房间累计胜负
func (p *PostgreSQL) RoomStats(ctx context.Context, roomID string) (models.RoomStats, error) {
	stats := models.RoomStats{RoomID: roomID}
	err := p.db.QueryRowContext(ctx,
		`SELECT rounds, good_wins, wolf_wins FROM room_stats WHERE room_id = $1`, roomID,
	).Scan(&stats.Rounds, &stats.GoodWins, &stats.WolfWins)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RoomStats{}, ErrRecordNotFound
		}
		return models.RoomStats{}, err
	}
	return stats, nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
