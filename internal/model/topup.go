package model

// TopUpRecord 一筆儲值紀錄。JSON tag 對應持久化格式的欄位名。
type TopUpRecord struct {
	ID     string  `json:"id"`
	Amount float64 `json:"amount"`
	Date   string  `json:"date"`
}
