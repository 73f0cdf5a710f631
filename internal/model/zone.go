package model

// Zone 停車區域：固定費率的地理計價區
type Zone struct {
	Name        string  `json:"name"`
	RatePerHour float64 `json:"rate_per_hour"`
}

// Zones 區域目錄：進程啟動時定義，執行期不增不減
var Zones = map[string]Zone{
	"A": {Name: "Strefa A (centrum)", RatePerHour: 6.0},
	"B": {Name: "Strefa B", RatePerHour: 4.0},
	"C": {Name: "Strefa C", RatePerHour: 3.0},
}

// ZoneExists 檢查區域代碼是否在目錄中
func ZoneExists(zone string) bool {
	_, ok := Zones[zone]
	return ok
}

// ZoneRate 回傳區域時薪費率；未知區域一律視為費率 0
func ZoneRate(zone string) float64 {
	z, ok := Zones[zone]
	if !ok {
		return 0
	}
	return z.RatePerHour
}

// ZoneDisplayName 回傳區域顯示名稱；未知區域回傳空字串
func ZoneDisplayName(zone string) string {
	z, ok := Zones[zone]
	if !ok {
		return ""
	}
	return z.Name
}
