package services

import (
	"fmt"
	"log"
	"math"
	"time"
)

// ComputeCharge 根據進場與離場時間計算停車費用，依每小時費率向上取整，
// 不足一小時以一小時計，費用四捨五入到小數點後兩位
func ComputeCharge(start, end time.Time, hourlyRate float64) (float64, int, error) {
	if end.Before(start) {
		log.Printf("leaving time %v is before parking time %v", end, start)
		return 0, 0, ErrInvalidInterval
	}

	// 費率為零的停車場合法，結算為 0.00；只擋負數
	if hourlyRate < 0 {
		return 0, 0, fmt.Errorf("%w: hourly rate must not be negative, got %.2f", ErrInvalidInput, hourlyRate)
	}

	elapsedHours := end.Sub(start).Seconds() / 3600.0
	billedHours := int(math.Ceil(elapsedHours))
	if billedHours < 1 {
		billedHours = 1
	}

	cost := math.Round(float64(billedHours)*hourlyRate*100) / 100
	return cost, billedHours, nil
}
