package service

import (
	"context"
	"time"

	"go-parking-payment/internal/model"
	"go-parking-payment/internal/pricing"
	"go-parking-payment/internal/store"
	apperrors "go-parking-payment/pkg/app_errors"
	"go-parking-payment/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type WalletService interface {
	GetBalance(ctx context.Context, userID int) (float64, error)
	// TopUp 儲值並寫入一筆儲值紀錄，回傳新餘額
	TopUp(ctx context.Context, userID int, amount float64) (float64, error)
	History(ctx context.Context, userID int) []*model.TopUpRecord
}

type WalletServiceImpl struct {
	balance store.BalanceStore
	topUps  store.TopUpStore
	now     func() time.Time
}

func NewWalletService(balance store.BalanceStore, topUps store.TopUpStore) WalletService {
	return &WalletServiceImpl{
		balance: balance,
		topUps:  topUps,
		now:     time.Now,
	}
}

func (s *WalletServiceImpl) GetBalance(ctx context.Context, userID int) (float64, error) {
	return s.balance.GetBalance(ctx, userID)
}

func (s *WalletServiceImpl) TopUp(ctx context.Context, userID int, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, apperrors.ErrInvalidInput
	}

	balance, err := s.balance.GetBalance(ctx, userID)
	if err != nil {
		return 0, err
	}

	newBalance := pricing.Round2(balance + amount)
	if err := s.balance.SetBalance(ctx, userID, newBalance); err != nil {
		return 0, err
	}

	record := &model.TopUpRecord{
		ID:     uuid.New().String(),
		Amount: amount,
		Date:   model.FormatISO(s.now()),
	}
	if err := s.topUps.AddTopUp(ctx, userID, record); err != nil {
		// 歷史紀錄寫入失敗不影響已入帳的餘額
		logger.WithComponent("wallet_service").Warn("failed to record topup",
			zap.Int("user_id", userID), zap.Error(err))
	}

	return newBalance, nil
}

func (s *WalletServiceImpl) History(ctx context.Context, userID int) []*model.TopUpRecord {
	return s.topUps.LoadTopUps(ctx, userID)
}
