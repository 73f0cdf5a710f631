package model

// ExpiryNotice 到期前提醒：票券剩餘時間低於門檻時發出一次
type ExpiryNotice struct {
	UserID       int    `json:"user_id"`
	TicketID     string `json:"ticket_id"`
	Plate        string `json:"plate"`
	Zone         string `json:"zone"`
	EndISO       string `json:"endISO"`
	RemainingSec int    `json:"remaining_sec"`
}
