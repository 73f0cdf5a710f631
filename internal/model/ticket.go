package model

import (
	"sort"
	"time"
)

// TicketStatus 票面管理狀態：購買時設為 ACTIVE，只有取消流程會改寫。
// 注意：這不是時間狀態。畫面上顯示的「已排程/進行中/已結束」永遠以
// TemporalStatus 從時間戳重新推導，不落盤。
type TicketStatus string

const (
	TicketStatusActive    TicketStatus = "ACTIVE"
	TicketStatusExpired   TicketStatus = "EXPIRED"
	TicketStatusCancelled TicketStatus = "CANCELLED"
)

// TemporalStatus 由當下時間與起迄時間推導的狀態
type TemporalStatus string

const (
	TemporalPlanned  TemporalStatus = "planned"
	TemporalActive   TemporalStatus = "active"
	TemporalFinished TemporalStatus = "finished"
)

// ParkingTicket 一筆已購買或已排程的停車時段。
// JSON tag 對應持久化格式的欄位名，改名會破壞既有存檔。
type ParkingTicket struct {
	ID              string       `json:"id"`
	Status          TicketStatus `json:"status"`
	CreatedAtISO    string       `json:"createdAtISO"`
	Plate           string       `json:"plate"`
	Zone            string       `json:"zone"`
	ZoneName        string       `json:"zoneName,omitempty"`
	StartISO        string       `json:"startISO"`
	EndISO          string       `json:"endISO"`
	DurationMin     int          `json:"durationMin"`
	Amount          float64      `json:"amount"`
	NotifyBeforeEnd bool         `json:"notifyBeforeEnd"`
}

// StartTime 解析起始時間；解析失敗回傳零值時間
func (t *ParkingTicket) StartTime() time.Time {
	return parseISO(t.StartISO)
}

// EndTime 解析結束時間；解析失敗回傳零值時間
func (t *ParkingTicket) EndTime() time.Time {
	return parseISO(t.EndISO)
}

// TemporalStatus 推導時間狀態：start <= now < end 為 active
func (t *ParkingTicket) TemporalStatus(now time.Time) TemporalStatus {
	switch {
	case now.Before(t.StartTime()):
		return TemporalPlanned
	case now.Before(t.EndTime()):
		return TemporalActive
	default:
		return TemporalFinished
	}
}

func (t *ParkingTicket) IsActiveAt(now time.Time) bool {
	return t.TemporalStatus(now) == TemporalActive
}

func (t *ParkingTicket) IsPlannedAt(now time.Time) bool {
	return t.TemporalStatus(now) == TemporalPlanned
}

// RemainingAt 回傳距結束的剩餘時間；已結束回傳 0
func (t *ParkingTicket) RemainingAt(now time.Time) time.Duration {
	d := t.EndTime().Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// DisplayZoneName 回傳票面上的區域名稱；缺漏時回退到目錄查詢
func (t *ParkingTicket) DisplayZoneName() string {
	if t.ZoneName != "" {
		return t.ZoneName
	}
	return ZoneDisplayName(t.Zone)
}

// PickTicketToDisplay 挑選「目前票券」：
//  1. 有進行中的票 → 取結束時間最晚者（同時間按原始順序）
//  2. 否則有已排程的票 → 取開始時間最早者
//  3. 否則 → 取開始時間最晚者（最近結束的一張）
//
// 這個順序決定使用者看到哪張票，不要改動
func PickTicketToDisplay(tickets []*ParkingTicket, now time.Time) *ParkingTicket {
	if len(tickets) == 0 {
		return nil
	}

	active := make([]*ParkingTicket, 0)
	for _, t := range tickets {
		if t.IsActiveAt(now) {
			active = append(active, t)
		}
	}
	if len(active) > 0 {
		sort.SliceStable(active, func(i, j int) bool {
			return active[i].EndTime().After(active[j].EndTime())
		})
		return active[0]
	}

	planned := make([]*ParkingTicket, 0)
	for _, t := range tickets {
		if t.IsPlannedAt(now) {
			planned = append(planned, t)
		}
	}
	if len(planned) > 0 {
		sort.SliceStable(planned, func(i, j int) bool {
			return planned[i].StartTime().Before(planned[j].StartTime())
		})
		return planned[0]
	}

	rest := make([]*ParkingTicket, len(tickets))
	copy(rest, tickets)
	sort.SliceStable(rest, func(i, j int) bool {
		return rest[i].StartTime().After(rest[j].StartTime())
	})
	return rest[0]
}

func parseISO(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FormatISO 統一的時間戳落盤格式(UTC、毫秒精度)
func FormatISO(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
