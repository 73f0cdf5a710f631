package queue

import (
	"context"
	"go-parking-payment/internal/model"
)

type Delivery struct {
	Data *model.ExpiryNotice
	Ack  func()
	Nack func(requeue bool)
}

type NoticeQueue interface {
	// 發送提醒到隊列
	PublishNotice(ctx context.Context, notice *model.ExpiryNotice) error
	// 訂閱提醒隊列
	SubscribeNotices(ctx context.Context) (<-chan Delivery, error)
}

type NoticeQueueImpl struct {
	// 使用 Go channel 實作的記憶體隊列。提醒是每秒都能重新推導的資料，
	// 掉了下一輪掃描會再補，不需要持久化傳遞
	ch chan *model.ExpiryNotice
}

func NewNoticeQueue(bufferSize int) NoticeQueue {
	return &NoticeQueueImpl{
		ch: make(chan *model.ExpiryNotice, bufferSize),
	}
}

func (q *NoticeQueueImpl) PublishNotice(ctx context.Context, notice *model.ExpiryNotice) error {
	select {
	case q.ch <- notice:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *NoticeQueueImpl) SubscribeNotices(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case notice, ok := <-q.ch:
				if !ok {
					return
				}

				out <- Delivery{
					Data: notice,
					Ack:  func() { /* 記憶體版不用做特別動作 */ },
					Nack: func(requeue bool) {
						if requeue {
							q.ch <- notice // 簡單模擬重回隊列
						}
					},
				}
			}
		}
	}()

	return out, nil
}
