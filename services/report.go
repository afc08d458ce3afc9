package services

import (
	"errors"
	"fmt"
	"log"
	"math"
	"parkbook/database"
	"parkbook/models"
	"sort"
	"time"

	"gorm.io/gorm"
)

// DailyLotOccupancy 單一停車場在某日的占用統計
type DailyLotOccupancy struct {
	Date     string `json:"date"`
	LotID    int    `json:"lot_id"`
	LotName  string `json:"lot_name"`
	Occupied int    `json:"occupied"`
	Total    int    `json:"total"`
}

// DailyLotRevenue 單一停車場在某日的營收統計
type DailyLotRevenue struct {
	Date    string  `json:"date"`
	LotID   int     `json:"lot_id"`
	LotName string  `json:"lot_name"`
	Revenue float64 `json:"revenue"`
}

// MonthlySpending 會員單月消費彙總
type MonthlySpending struct {
	Month    string  `json:"month"`
	Spending float64 `json:"spending"`
}

// SpendingReport 會員消費報表：日期×地點的稀疏矩陣（缺值補零）加上近 12 個月彙總，
// 形狀可直接供堆疊圖表層使用
type SpendingReport struct {
	Dates              []string             `json:"dates"`
	Locations          []string             `json:"locations"`
	SpendingByLocation map[string][]float64 `json:"spending_by_location"`
	Monthly            []MonthlySpending    `json:"monthly"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// dateOf 截斷到 UTC 日期
func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// reportLots 查詢報表涵蓋的停車場，lotIDs 為空表示全部
func reportLots(lotIDs []int) ([]models.ParkingLot, error) {
	var lots []models.ParkingLot
	query := database.DB.Order("lot_id")
	if len(lotIDs) > 0 {
		query = query.Where("lot_id IN ?", lotIDs)
	}
	if err := query.Find(&lots).Error; err != nil {
		log.Printf("Failed to query parking lots for report: %v", err)
		return nil, fmt.Errorf("failed to query parking lots: %w", err)
	}
	return lots, nil
}

type reservationIntervalRow struct {
	LotID            int
	ParkingTimestamp time.Time
	LeavingTimestamp *time.Time
	ParkingCost      *float64
}

// DailyOccupancy 計算每個停車場在日期範圍內每日的占用數：凡進場日至離場日（未離場視為今日）
// 涵蓋該日的預約都計入。沒有資料的日期回報 0，不會缺項
func DailyOccupancy(lotIDs []int, from, to time.Time) ([]DailyLotOccupancy, error) {
	from, to = dateOf(from), dateOf(to)
	if to.Before(from) {
		return nil, ErrInvalidInterval
	}

	lots, err := reportLots(lotIDs)
	if err != nil {
		return nil, err
	}
	if len(lots) == 0 {
		return []DailyLotOccupancy{}, nil
	}

	ids := make([]int, len(lots))
	for i, lot := range lots {
		ids[i] = lot.LotID
	}

	var rows []reservationIntervalRow
	if err := database.DB.Model(&models.Reservation{}).
		Select("parking_spot.lot_id AS lot_id, reservation.parking_timestamp, reservation.leaving_timestamp").
		Joins("JOIN parking_spot ON parking_spot.spot_id = reservation.spot_id").
		Where("parking_spot.lot_id IN ?", ids).
		Scan(&rows).Error; err != nil {
		log.Printf("Failed to query reservation intervals: %v", err)
		return nil, fmt.Errorf("failed to query reservation intervals: %w", err)
	}

	intervalsByLot := make(map[int][]reservationIntervalRow)
	for _, row := range rows {
		intervalsByLot[row.LotID] = append(intervalsByLot[row.LotID], row)
	}

	today := dateOf(time.Now())
	var report []DailyLotOccupancy
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		for _, lot := range lots {
			occupied := 0
			for _, row := range intervalsByLot[lot.LotID] {
				startDate := dateOf(row.ParkingTimestamp)
				endDate := today
				if row.LeavingTimestamp != nil {
					endDate = dateOf(*row.LeavingTimestamp)
				}
				if !date.Before(startDate) && !date.After(endDate) {
					occupied++
				}
			}
			report = append(report, DailyLotOccupancy{
				Date:     date.Format("2006-01-02"),
				LotID:    lot.LotID,
				LotName:  lot.PrimeLocationName,
				Occupied: occupied,
				Total:    lot.MaxSpots,
			})
		}
	}

	return report, nil
}

// DailyRevenue 計算每個停車場在日期範圍內每日的營收：已完成預約的停車費用，
// 依離場日歸帳
func DailyRevenue(lotIDs []int, from, to time.Time) ([]DailyLotRevenue, error) {
	from, to = dateOf(from), dateOf(to)
	if to.Before(from) {
		return nil, ErrInvalidInterval
	}

	lots, err := reportLots(lotIDs)
	if err != nil {
		return nil, err
	}
	if len(lots) == 0 {
		return []DailyLotRevenue{}, nil
	}

	ids := make([]int, len(lots))
	for i, lot := range lots {
		ids[i] = lot.LotID
	}

	var rows []reservationIntervalRow
	if err := database.DB.Model(&models.Reservation{}).
		Select("parking_spot.lot_id AS lot_id, reservation.leaving_timestamp, reservation.parking_cost").
		Joins("JOIN parking_spot ON parking_spot.spot_id = reservation.spot_id").
		Where("parking_spot.lot_id IN ?", ids).
		Where("reservation.is_active = ? AND reservation.parking_cost IS NOT NULL", false).
		Where("reservation.leaving_timestamp >= ? AND reservation.leaving_timestamp < ?", from, to.AddDate(0, 0, 1)).
		Scan(&rows).Error; err != nil {
		log.Printf("Failed to query completed reservations for revenue: %v", err)
		return nil, fmt.Errorf("failed to query completed reservations: %w", err)
	}

	// date -> lot_id -> 營收加總
	revenue := make(map[string]map[int]float64)
	for _, row := range rows {
		if row.LeavingTimestamp == nil || row.ParkingCost == nil {
			continue
		}
		day := dateOf(*row.LeavingTimestamp).Format("2006-01-02")
		if revenue[day] == nil {
			revenue[day] = make(map[int]float64)
		}
		revenue[day][row.LotID] += *row.ParkingCost
	}

	var report []DailyLotRevenue
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		day := date.Format("2006-01-02")
		for _, lot := range lots {
			report = append(report, DailyLotRevenue{
				Date:    day,
				LotID:   lot.LotID,
				LotName: lot.PrimeLocationName,
				Revenue: round2(revenue[day][lot.LotID]),
			})
		}
	}

	return report, nil
}

// UserSpendingByLocationAndDate 依日期與地點彙總會員已完成預約的消費，
// 車位已刪除的預約由快照欄位歸入原停車場
func UserSpendingByLocationAndDate(userID int) (*SpendingReport, error) {
	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		log.Printf("Failed to find user %d: %v", userID, err)
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	var reservations []models.Reservation
	if err := database.DB.Preload("Spot").Preload("Spot.Lot").
		Where("user_id = ? AND is_active = ? AND parking_cost IS NOT NULL", userID, false).
		Find(&reservations).Error; err != nil {
		log.Printf("Failed to query completed reservations for user %d: %v", userID, err)
		return nil, fmt.Errorf("failed to query completed reservations: %w", err)
	}

	// date -> location -> 消費加總
	daily := make(map[string]map[string]float64)
	locationSet := make(map[string]bool)
	for _, r := range reservations {
		location := r.LotName
		if r.Spot != nil {
			location = r.Spot.Lot.PrimeLocationName
		}
		day := dateOf(r.ParkingTimestamp).Format("2006-01-02")
		if daily[day] == nil {
			daily[day] = make(map[string]float64)
		}
		daily[day][location] += *r.ParkingCost
		locationSet[location] = true
	}

	dates := make([]string, 0, len(daily))
	for day := range daily {
		dates = append(dates, day)
	}
	sort.Strings(dates)

	locations := make([]string, 0, len(locationSet))
	for location := range locationSet {
		locations = append(locations, location)
	}
	sort.Strings(locations)

	spendingByLocation := make(map[string][]float64, len(locations))
	for _, location := range locations {
		series := make([]float64, len(dates))
		for i, day := range dates {
			series[i] = round2(daily[day][location])
		}
		spendingByLocation[location] = series
	}

	monthly, err := monthlySpending(userID, 12)
	if err != nil {
		return nil, err
	}

	return &SpendingReport{
		Dates:              dates,
		Locations:          locations,
		SpendingByLocation: spendingByLocation,
		Monthly:            monthly,
	}, nil
}

// monthlySpending 計算會員近 months 個月的每月消費，由舊到新排序
func monthlySpending(userID, months int) ([]MonthlySpending, error) {
	now := time.Now().UTC()
	result := make([]MonthlySpending, 0, months)

	for i := months - 1; i >= 0; i-- {
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		monthEnd := monthStart.AddDate(0, 1, 0)

		var total float64
		if err := database.DB.Model(&models.Reservation{}).
			Where("user_id = ? AND is_active = ? AND parking_cost IS NOT NULL", userID, false).
			Where("parking_timestamp >= ? AND parking_timestamp < ?", monthStart, monthEnd).
			Select("COALESCE(SUM(parking_cost), 0)").
			Scan(&total).Error; err != nil {
			log.Printf("Failed to calculate monthly spending for user %d: %v", userID, err)
			return nil, fmt.Errorf("failed to calculate monthly spending: %w", err)
		}

		result = append(result, MonthlySpending{
			Month:    monthStart.Format("Jan 2006"),
			Spending: round2(total),
		})
	}

	return result, nil
}

// GetTotalSpending 計算會員所有已完成預約的消費總額
func GetTotalSpending(userID int) (float64, error) {
	var total float64
	if err := database.DB.Model(&models.Reservation{}).
		Where("user_id = ? AND is_active = ? AND parking_cost IS NOT NULL", userID, false).
		Select("COALESCE(SUM(parking_cost), 0)").
		Scan(&total).Error; err != nil {
		log.Printf("Failed to calculate total spending for user %d: %v", userID, err)
		return 0, fmt.Errorf("failed to calculate total spending: %w", err)
	}
	return round2(total), nil
}

// GetRecentReservations 查詢最近的預約記錄供管理端總覽，依進場時間由新到舊排序
func GetRecentReservations(limit int) ([]models.Reservation, error) {
	if limit <= 0 {
		limit = 100
	}

	var reservations []models.Reservation
	if err := database.DB.Preload("User").Preload("Spot").Preload("Spot.Lot").
		Order("parking_timestamp DESC").
		Limit(limit).
		Find(&reservations).Error; err != nil {
		log.Printf("Failed to query recent reservations: %v", err)
		return nil, fmt.Errorf("failed to query recent reservations: %w", err)
	}

	log.Printf("Fetched %d recent reservations", len(reservations))
	return reservations, nil
}
