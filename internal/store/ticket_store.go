package store

import (
	"context"
	"encoding/json"
	"fmt"

	"go-parking-payment/internal/kvstore"
	"go-parking-payment/internal/model"
	"go-parking-payment/pkg/logger"

	"go.uber.org/zap"
)

type TicketStore interface {
	// 讀取使用者全部票券；無資料或壞檔一律回傳空清單，不回傳錯誤
	LoadTickets(ctx context.Context, userID int) []*model.ParkingTicket
	// 覆寫整份票券清單
	SaveTickets(ctx context.Context, userID int, tickets []*model.ParkingTicket) error
	// 新票插到清單最前面(最新優先)，回傳更新後的清單
	AddTicket(ctx context.Context, userID int, ticket *model.ParkingTicket) ([]*model.ParkingTicket, error)
}

type TicketStoreImpl struct {
	kv kvstore.Store
}

func NewTicketStore(kv kvstore.Store) TicketStore {
	return &TicketStoreImpl{kv: kv}
}

func ticketsKey(userID int) string {
	return fmt.Sprintf("user:%d:tickets", userID)
}

func (s *TicketStoreImpl) LoadTickets(ctx context.Context, userID int) []*model.ParkingTicket {
	log := logger.WithComponent("ticket_store")

	raw, ok, err := s.kv.Get(ctx, ticketsKey(userID))
	if err != nil {
		// 讀取失敗視為無資料，只留警告
		log.Warn("failed to load tickets", zap.Int("user_id", userID), zap.Error(err))
		return []*model.ParkingTicket{}
	}
	if !ok {
		return []*model.ParkingTicket{}
	}

	tickets := make([]*model.ParkingTicket, 0)
	if err := json.Unmarshal([]byte(raw), &tickets); err != nil {
		// 壞檔同樣吞掉，當成空清單
		log.Warn("failed to parse stored tickets", zap.Int("user_id", userID), zap.Error(err))
		return []*model.ParkingTicket{}
	}
	return tickets
}

func (s *TicketStoreImpl) SaveTickets(ctx context.Context, userID int, tickets []*model.ParkingTicket) error {
	data, err := json.Marshal(tickets)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, ticketsKey(userID), string(data)); err != nil {
		logger.WithComponent("ticket_store").Warn("failed to save tickets", zap.Int("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

func (s *TicketStoreImpl) AddTicket(ctx context.Context, userID int, ticket *model.ParkingTicket) ([]*model.ParkingTicket, error) {
	existing := s.LoadTickets(ctx, userID)
	updated := append([]*model.ParkingTicket{ticket}, existing...)
	if err := s.SaveTickets(ctx, userID, updated); err != nil {
		return nil, err
	}
	return updated, nil
}
