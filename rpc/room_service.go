package rpc

import (
	"context"
	"errors"
	"time"

	"github.com/wfunc/werewords/models"
	"github.com/wfunc/werewords/persistence"
)

const callTimeout = 5 * time.Second

// RoomLister is satisfied by room.Manager.
type RoomLister interface {
	List() []models.RoomInfo
}

// HistoryReader is satisfied by services.History.
type HistoryReader interface {
	Recent(ctx context.Context, roomID string, limit int) ([]models.RoundRecord, error)
	Stats(ctx context.Context, roomID string) (models.RoomStats, error)
}

// RoomService 管理接口：房间列表、回合历史、房间统计
type RoomService struct {
	rooms   RoomLister
	history HistoryReader
}

func NewRoomService(rooms RoomLister, history HistoryReader) *RoomService {
	return &RoomService{rooms: rooms, history: history}
}

type ListRoomsArgs struct{}

type ListRoomsReply struct {
	Rooms []models.RoomInfo
}

func (rs *RoomService) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	reply.Rooms = rs.rooms.List()
	return nil
}

type HistoryArgs struct {
	RoomID string
	Limit  int
}

type HistoryReply struct {
	Records []models.RoundRecord
}

func (rs *RoomService) History(args *HistoryArgs, reply *HistoryReply) error {
	if args.RoomID == "" {
		return errors.New("room id is required")
	}
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	records, err := rs.history.Recent(ctx, args.RoomID, args.Limit)
	if err != nil {
		return err
	}
	reply.Records = records
	return nil
}

type StatsArgs struct {
	RoomID string
}

type StatsReply struct {
	Stats models.RoomStats
	Found bool
}

// Stats reports Found=false for a room that has never finished a round.
func (rs *RoomService) Stats(args *StatsArgs, reply *StatsReply) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	stats, err := rs.history.Stats(ctx, args.RoomID)
	if errors.Is(err, persistence.ErrRecordNotFound) {
		reply.Stats = models.RoomStats{RoomID: args.RoomID}
		return nil
	}
	if err != nil {
		return err
	}
	reply.Stats = stats
	reply.Found = true
	return nil
}
