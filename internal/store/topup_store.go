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

type TopUpStore interface {
	// 讀取儲值紀錄；無資料或壞檔回傳空清單
	LoadTopUps(ctx context.Context, userID int) []*model.TopUpRecord
	// 新紀錄插到最前面並覆寫整份清單
	AddTopUp(ctx context.Context, userID int, record *model.TopUpRecord) error
}

type TopUpStoreImpl struct {
	kv kvstore.Store
}

func NewTopUpStore(kv kvstore.Store) TopUpStore {
	return &TopUpStoreImpl{kv: kv}
}

func topUpsKey(userID int) string {
	return fmt.Sprintf("user:%d:topups", userID)
}

func (s *TopUpStoreImpl) LoadTopUps(ctx context.Context, userID int) []*model.TopUpRecord {
	log := logger.WithComponent("topup_store")

	raw, ok, err := s.kv.Get(ctx, topUpsKey(userID))
	if err != nil {
		log.Warn("failed to load topup history", zap.Int("user_id", userID), zap.Error(err))
		return []*model.TopUpRecord{}
	}
	if !ok {
		return []*model.TopUpRecord{}
	}

	records := make([]*model.TopUpRecord, 0)
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		log.Warn("failed to parse topup history", zap.Int("user_id", userID), zap.Error(err))
		return []*model.TopUpRecord{}
	}
	return records
}

func (s *TopUpStoreImpl) AddTopUp(ctx context.Context, userID int, record *model.TopUpRecord) error {
	existing := s.LoadTopUps(ctx, userID)
	updated := append([]*model.TopUpRecord{record}, existing...)

	data, err := json.Marshal(updated)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, topUpsKey(userID), string(data))
}
