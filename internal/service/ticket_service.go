package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"go-parking-payment/internal/model"
	"go-parking-payment/internal/pricing"
	"go-parking-payment/internal/store"
	apperrors "go-parking-payment/pkg/app_errors"
	"go-parking-payment/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExtensionResult 延長一張票的純計算結果
type ExtensionResult struct {
	// 替換目標票後的新清單；其餘元素與輸入共用同一實例
	Updated       []*model.ParkingTicket
	UpdatedTicket *model.ParkingTicket
	// 延長後需補收的差額(新價 - 原價，不會是負數)
	ExtraCost float64
}

// ExtendTicketInList 在清單中延長指定票券。找不到 id 回傳 nil，呼叫端不動作。
// 延長只把 extensionMinutes 直接加到已計費時長上，不重新量化；
// 價格則一律由總時長重算，絕不用差額累加。
func ExtendTicketInList(tickets []*model.ParkingTicket, id string, extensionMinutes int) *ExtensionResult {
	var target *model.ParkingTicket
	targetIdx := -1
	for i, t := range tickets {
		if t.ID == id {
			target = t
			targetIdx = i
			break
		}
	}
	if target == nil {
		return nil
	}

	newEnd := target.EndTime().Add(time.Duration(extensionMinutes) * time.Minute)
	newDuration := target.DurationMin + extensionMinutes
	_, newPrice := pricing.ComputePrice(float64(newDuration), model.ZoneRate(target.Zone))
	extraCost := math.Max(0, pricing.Round2(newPrice-target.Amount))

	updatedTicket := *target
	updatedTicket.EndISO = model.FormatISO(newEnd)
	updatedTicket.DurationMin = newDuration
	updatedTicket.Amount = newPrice

	updated := make([]*model.ParkingTicket, len(tickets))
	copy(updated, tickets)
	updated[targetIdx] = &updatedTicket

	return &ExtensionResult{
		Updated:       updated,
		UpdatedTicket: &updatedTicket,
		ExtraCost:     extraCost,
	}
}

// PurchaseTicketParams 購票參數(已通過 handler 綁定驗證)
type PurchaseTicketParams struct {
	Plate           string
	Zone            string
	StartAt         time.Time // 零值表示立即開始
	DurationMin     int
	NotifyBeforeEnd bool
}

type TicketService interface {
	// List 回傳使用者全部票券，開始時間新的在前
	List(ctx context.Context, userID int) []*model.ParkingTicket
	// CurrentTicket 挑選目前應顯示的票券；沒有票時回傳 nil
	CurrentTicket(ctx context.Context, userID int) *model.ParkingTicket
	// Purchase 購買新票：計價、檢查餘額、扣款、落盤
	Purchase(ctx context.Context, userID int, params PurchaseTicketParams) (*model.ParkingTicket, error)
	// Extend 延長票券並補收差額
	Extend(ctx context.Context, userID int, ticketID string, extensionMinutes int) (*model.ParkingTicket, float64, error)
}

type TicketServiceImpl struct {
	tickets store.TicketStore
	balance store.BalanceStore

	// 每張票一把鎖：同一張票同時只允許一個寫入者(防連點重複延長)
	latchMu sync.Mutex
	latches map[string]*sync.Mutex

	now func() time.Time
}

func NewTicketService(tickets store.TicketStore, balance store.BalanceStore) TicketService {
	return &TicketServiceImpl{
		tickets: tickets,
		balance: balance,
		latches: make(map[string]*sync.Mutex),
		now:     time.Now,
	}
}

func (s *TicketServiceImpl) List(ctx context.Context, userID int) []*model.ParkingTicket {
	tickets := s.tickets.LoadTickets(ctx, userID)
	// 歷史畫面按開始時間降冪
	sortTicketsByStartDesc(tickets)
	return tickets
}

func (s *TicketServiceImpl) CurrentTicket(ctx context.Context, userID int) *model.ParkingTicket {
	return model.PickTicketToDisplay(s.tickets.LoadTickets(ctx, userID), s.now())
}

func (s *TicketServiceImpl) Purchase(ctx context.Context, userID int, params PurchaseTicketParams) (*model.ParkingTicket, error) {
	plate := strings.ToUpper(strings.TrimSpace(params.Plate))
	if plate == "" {
		return nil, apperrors.ErrInvalidInput
	}
	if !model.ZoneExists(params.Zone) {
		return nil, apperrors.ErrZoneNotFound
	}
	if params.DurationMin <= 0 {
		return nil, apperrors.ErrInvalidInput
	}

	now := s.now()
	start := params.StartAt
	if start.IsZero() {
		start = now
	}

	billable, price := pricing.ComputePrice(float64(params.DurationMin), model.ZoneRate(params.Zone))
	end := start.Add(time.Duration(billable) * time.Minute)

	// 先原子扣款，再落盤票券
	_, ok, err := s.balance.Debit(ctx, userID, price)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrInsufficientBalance
	}

	ticket := &model.ParkingTicket{
		ID:              uuid.New().String(),
		Status:          model.TicketStatusActive,
		CreatedAtISO:    model.FormatISO(now),
		Plate:           plate,
		Zone:            params.Zone,
		ZoneName:        model.ZoneDisplayName(params.Zone),
		StartISO:        model.FormatISO(start),
		EndISO:          model.FormatISO(end),
		DurationMin:     billable,
		Amount:          price,
		NotifyBeforeEnd: params.NotifyBeforeEnd,
	}

	if _, err := s.tickets.AddTicket(ctx, userID, ticket); err != nil {
		// 扣款已成功，票券寫入失敗只留警告，記憶體結果照樣回傳
		logger.WithComponent("ticket_service").Warn("ticket persisted failed after debit",
			zap.Int("user_id", userID), zap.String("ticket_id", ticket.ID), zap.Error(err))
	}

	return ticket, nil
}

func (s *TicketServiceImpl) Extend(ctx context.Context, userID int, ticketID string, extensionMinutes int) (*model.ParkingTicket, float64, error) {
	if extensionMinutes <= 0 {
		return nil, 0, apperrors.ErrInvalidInput
	}

	// 單寫入者紀律：同一張票的延長必須排隊
	unlock := s.lockTicket(ticketID)
	defer unlock()

	tickets := s.tickets.LoadTickets(ctx, userID)
	ext := ExtendTicketInList(tickets, ticketID, extensionMinutes)
	if ext == nil {
		return nil, 0, apperrors.ErrTicketNotFound
	}

	balance, err := s.balance.GetBalance(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if ext.ExtraCost > balance {
		// 餘額不足：清單與餘額都不動
		return nil, 0, apperrors.ErrInsufficientBalance
	}

	// 兩個寫入各自獨立嘗試，任一失敗都不回滾另一邊
	log := logger.WithComponent("ticket_service")
	if err := s.tickets.SaveTickets(ctx, userID, ext.Updated); err != nil {
		log.Warn("failed to persist extended ticket list",
			zap.Int("user_id", userID), zap.String("ticket_id", ticketID), zap.Error(err))
	}
	if ext.ExtraCost > 0 {
		if _, ok, err := s.balance.Debit(ctx, userID, ext.ExtraCost); err != nil {
			log.Warn("failed to debit extension cost",
				zap.Int("user_id", userID), zap.String("ticket_id", ticketID), zap.Error(err))
		} else if !ok {
			// 理論上不會發生(上面已檢查過)，留紀錄即可
			log.Warn("extension debit rejected after affordability check",
				zap.Int("user_id", userID), zap.String("ticket_id", ticketID))
		}
	}

	return ext.UpdatedTicket, ext.ExtraCost, nil
}

func (s *TicketServiceImpl) lockTicket(id string) func() {
	s.latchMu.Lock()
	m, ok := s.latches[id]
	if !ok {
		m = &sync.Mutex{}
		s.latches[id] = m
	}
	s.latchMu.Unlock()

	m.Lock()
	return m.Unlock
}

func sortTicketsByStartDesc(tickets []*model.ParkingTicket) {
	sort.SliceStable(tickets, func(i, j int) bool {
		return tickets[i].StartTime().After(tickets[j].StartTime())
	})
}
