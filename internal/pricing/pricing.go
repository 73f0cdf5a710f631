package pricing

import "math"

// QuarterMin 計費最小單位(分鐘)
const QuarterMin = 15

// CeilToQuarter 無條件進位到下一個15分鐘計費區塊；剛好在邊界上不變
func CeilToQuarter(mins float64) int {
	return int(math.Ceil(mins/QuarterMin)) * QuarterMin
}

// Round2 四捨五入到小數第二位（金額運算一律經過這裡）
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputePrice 由停車時長與區域時薪計算計費分鐘與價格。
// 負數時長先鉗到 0，計費分鐘永遠是15的倍數；費率 0 時價格為 0。
func ComputePrice(durationMinutes float64, ratePerHour float64) (billableMinutes int, price float64) {
	billableMinutes = CeilToQuarter(math.Max(0, durationMinutes))
	price = Round2(float64(billableMinutes) / 60 * ratePerHour)
	return billableMinutes, price
}
