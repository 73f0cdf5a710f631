package worker

import (
	"context"
	"sync"
	"time"

	"go-parking-payment/internal/model"
	"go-parking-payment/internal/queue"
	"go-parking-payment/internal/store"
	"go-parking-payment/pkg/logger"

	"go.uber.org/zap"
)

// ExpiryWorker 到期提醒：等價於前端每秒重算倒數的那顆定時器。
// 單一 goroutine 定時掃描，tick 之間不會重疊；context 取消即停止。
type ExpiryWorker interface {
	Start(ctx context.Context) error
	// WatchUser 將使用者納入掃描範圍(購票時註冊)
	WatchUser(userID int)
}

type ExpiryWorkerImpl struct {
	tickets      store.TicketStore
	queue        queue.NoticeQueue
	notifyBefore time.Duration
	interval     time.Duration
	now          func() time.Time

	mu      sync.Mutex
	watched map[int]struct{}
	// 已發過提醒的票，不重複發
	notified map[string]struct{}
}

func NewExpiryWorker(tickets store.TicketStore, q queue.NoticeQueue, notifyBefore, interval time.Duration) *ExpiryWorkerImpl {
	return &ExpiryWorkerImpl{
		tickets:      tickets,
		queue:        q,
		notifyBefore: notifyBefore,
		interval:     interval,
		now:          time.Now,
		watched:      make(map[int]struct{}),
		notified:     make(map[string]struct{}),
	}
}

func (w *ExpiryWorkerImpl) WatchUser(userID int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watched[userID] = struct{}{}
}

func (w *ExpiryWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.SubscribeNotices(ctx)
	if err != nil {
		return err
	}

	// 消費者：把提醒送出去(目前的投遞方式是結構化日誌)
	go func() {
		log := logger.WithComponent("expiry_worker")
		for msg := range msgs {
			log.Info("parking ticket about to expire",
				zap.Int("user_id", msg.Data.UserID),
				zap.String("ticket_id", msg.Data.TicketID),
				zap.String("plate", msg.Data.Plate),
				zap.String("zone", msg.Data.Zone),
				zap.Int("remaining_sec", msg.Data.RemainingSec),
			)
			msg.Ack()
		}
	}()

	// 掃描者：每個 tick 重新推導全部被監看票券的時間狀態
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.scan(ctx)
			}
		}
	}()

	return nil
}

func (w *ExpiryWorkerImpl) scan(ctx context.Context) {
	now := w.now()

	w.mu.Lock()
	userIDs := make([]int, 0, len(w.watched))
	for id := range w.watched {
		userIDs = append(userIDs, id)
	}
	w.mu.Unlock()

	for _, userID := range userIDs {
		for _, t := range w.tickets.LoadTickets(ctx, userID) {
			if !t.NotifyBeforeEnd || !t.IsActiveAt(now) {
				continue
			}
			remaining := t.RemainingAt(now)
			if remaining > w.notifyBefore {
				continue
			}

			w.mu.Lock()
			_, done := w.notified[t.ID]
			if !done {
				w.notified[t.ID] = struct{}{}
			}
			w.mu.Unlock()
			if done {
				continue
			}

			notice := &model.ExpiryNotice{
				UserID:       userID,
				TicketID:     t.ID,
				Plate:        t.Plate,
				Zone:         t.Zone,
				EndISO:       t.EndISO,
				RemainingSec: int(remaining / time.Second),
			}
			if err := w.queue.PublishNotice(ctx, notice); err != nil {
				logger.WithComponent("expiry_worker").Warn("failed to publish expiry notice",
					zap.String("ticket_id", t.ID), zap.Error(err))
			}
		}
	}
}
