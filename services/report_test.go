package services

import (
	"errors"
	"testing"
	"time"

	"parkbook/database"
	"parkbook/models"
)

// completeReservation 建立並結算一筆停車紀錄，進場時間為 parkedFor 之前
func completeReservation(t *testing.T, userID, lotID int, parkedFor time.Duration) *models.Reservation {
	t.Helper()

	res, err := BookSpot(userID, lotID, "ABC-123", "blue")
	if err != nil {
		t.Fatalf("BookSpot returned error: %v", err)
	}
	backdateReservation(t, res.ReservationID, parkedFor)
	if _, _, err := ReleaseSpot(res.ReservationID, userID, time.Now().UTC()); err != nil {
		t.Fatalf("ReleaseSpot returned error: %v", err)
	}

	var stored models.Reservation
	if err := database.DB.First(&stored, "reservation_id = ?", res.ReservationID).Error; err != nil {
		t.Fatalf("failed to reload reservation: %v", err)
	}
	return &stored
}

func TestDailyOccupancyZeroFilled(t *testing.T) {
	setupTestDB(t)
	lot := createTestLot(t, "Central Plaza", 20.0, 2)

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -2)

	report, err := DailyOccupancy(nil, from, to)
	if err != nil {
		t.Fatalf("DailyOccupancy returned error: %v", err)
	}
	if len(report) != 3 {
		t.Fatalf("expected 3 daily rows for one lot, got %d", len(report))
	}
	for _, row := range report {
		if row.LotID != lot.LotID {
			t.Fatalf("unexpected lot %d in report", row.LotID)
		}
		if row.Occupied != 0 {
			t.Fatalf("expected zero occupancy without reservations, got %d on %s", row.Occupied, row.Date)
		}
		if row.Total != 2 {
			t.Fatalf("expected total 2, got %d", row.Total)
		}
	}
}

func TestDailyOccupancyCountsActiveAndCompleted(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")
	lot := createTestLot(t, "Central Plaza", 20.0, 2)

	// alice 今日完成一筆，bob 仍在停放中
	completeReservation(t, alice.UserID, lot.LotID, 2*time.Hour)
	if _, err := BookSpot(bob.UserID, lot.LotID, "XYZ-789", "red"); err != nil {
		t.Fatalf("BookSpot returned error: %v", err)
	}

	today := time.Now().UTC()
	report, err := DailyOccupancy([]int{lot.LotID}, today, today)
	if err != nil {
		t.Fatalf("DailyOccupancy returned error: %v", err)
	}
	if len(report) != 1 {
		t.Fatalf("expected one row, got %d", len(report))
	}
	if report[0].Occupied != 2 {
		t.Fatalf("expected both reservations to cover today, got %d", report[0].Occupied)
	}
}

func TestDailyOccupancyRejectsInvertedRange(t *testing.T) {
	setupTestDB(t)
	createTestLot(t, "Central Plaza", 20.0, 1)

	to := time.Now().UTC()
	from := to.AddDate(0, 0, 2)
	if _, err := DailyOccupancy(nil, from, to); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
}

func TestDailyRevenueBucketsByLeavingDate(t *testing.T) {
	setupTestDB(t)
	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")
	lot := createTestLot(t, "Central Plaza", 20.0, 2)
	other := createTestLot(t, "Harbor Garage", 10.0, 1)

	completeReservation(t, alice.UserID, lot.LotID, 90*time.Minute) // 40.00
	completeReservation(t, bob.UserID, lot.LotID, 30*time.Minute)   // 20.00
	completeReservation(t, alice.UserID, other.LotID, 30*time.Minute)

	today := time.Now().UTC()
	report, err := DailyRevenue([]int{lot.LotID}, today, today)
	if err != nil {
		t.Fatalf("DailyRevenue returned error: %v", err)
	}
	if len(report) != 1 {
		t.Fatalf("expected one row for one lot and one day, got %d", len(report))
	}
	if report[0].Revenue != 60.0 {
		t.Fatalf("expected revenue 60.00 for lot, got %.2f", report[0].Revenue)
	}

	// 未指定停車場時涵蓋全部
	full, err := DailyRevenue(nil, today, today)
	if err != nil {
		t.Fatalf("DailyRevenue returned error: %v", err)
	}
	if len(full) != 2 {
		t.Fatalf("expected rows for both lots, got %d", len(full))
	}
}

func TestDailyRevenueExcludesActiveReservations(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice")
	lot := createTestLot(t, "Central Plaza", 20.0, 1)

	if _, err := BookSpot(user.UserID, lot.LotID, "ABC-123", "blue"); err != nil {
		t.Fatalf("BookSpot returned error: %v", err)
	}

	today := time.Now().UTC()
	report, err := DailyRevenue(nil, today, today)
	if err != nil {
		t.Fatalf("DailyRevenue returned error: %v", err)
	}
	for _, row := range report {
		if row.Revenue != 0 {
			t.Fatalf("expected no revenue from active reservation, got %.2f", row.Revenue)
		}
	}
}

func TestUserSpendingByLocationAndDate(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice")
	lot := createTestLot(t, "Central Plaza", 20.0, 1)
	other := createTestLot(t, "Harbor Garage", 10.0, 1)

	completeReservation(t, user.UserID, lot.LotID, 90*time.Minute)  // 40.00
	completeReservation(t, user.UserID, other.LotID, 30*time.Minute) // 10.00

	report, err := UserSpendingByLocationAndDate(user.UserID)
	if err != nil {
		t.Fatalf("UserSpendingByLocationAndDate returned error: %v", err)
	}
	if len(report.Dates) == 0 {
		t.Fatalf("expected at least one spending date")
	}
	if len(report.Locations) != 2 {
		t.Fatalf("expected two locations, got %v", report.Locations)
	}
	// 地點按字典序排列
	if report.Locations[0] != "Central Plaza" || report.Locations[1] != "Harbor Garage" {
		t.Fatalf("expected sorted locations, got %v", report.Locations)
	}

	sum := func(series []float64) float64 {
		var total float64
		for _, v := range series {
			total += v
		}
		return total
	}
	// 每個地點的序列都補齊到所有日期
	for _, location := range report.Locations {
		if len(report.SpendingByLocation[location]) != len(report.Dates) {
			t.Fatalf("expected zero-filled series for %s", location)
		}
	}
	if got := sum(report.SpendingByLocation["Central Plaza"]); got != 40.0 {
		t.Fatalf("expected 40.00 at Central Plaza, got %.2f", got)
	}
	if got := sum(report.SpendingByLocation["Harbor Garage"]); got != 10.0 {
		t.Fatalf("expected 10.00 at Harbor Garage, got %.2f", got)
	}
	if len(report.Monthly) != 12 {
		t.Fatalf("expected 12 monthly buckets, got %d", len(report.Monthly))
	}

	var monthlyTotal float64
	for _, m := range report.Monthly {
		monthlyTotal += m.Spending
	}
	if monthlyTotal != 50.0 {
		t.Fatalf("expected 50.00 across recent months, got %.2f", monthlyTotal)
	}
}

func TestUserSpendingUsesSnapshotAfterSpotDeletion(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice")
	lot := createTestLot(t, "Central Plaza", 20.0, 1)

	res := completeReservation(t, user.UserID, lot.LotID, 90*time.Minute)
	if err := DeleteLot(lot.LotID); err != nil {
		t.Fatalf("DeleteLot returned error: %v", err)
	}

	report, err := UserSpendingByLocationAndDate(user.UserID)
	if err != nil {
		t.Fatalf("UserSpendingByLocationAndDate returned error: %v", err)
	}
	if len(report.Locations) != 1 || report.Locations[0] != "Central Plaza" {
		t.Fatalf("expected snapshot location after lot deletion, got %v", report.Locations)
	}
	if got := report.SpendingByLocation["Central Plaza"][0]; res.ParkingCost == nil || got != *res.ParkingCost {
		t.Fatalf("expected spending to survive lot deletion, got %.2f", got)
	}
}

func TestUserSpendingUnknownUser(t *testing.T) {
	setupTestDB(t)

	if _, err := UserSpendingByLocationAndDate(9999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGetTotalSpending(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice")
	lot := createTestLot(t, "Central Plaza", 20.0, 1)

	completeReservation(t, user.UserID, lot.LotID, 90*time.Minute) // 40.00
	completeReservation(t, user.UserID, lot.LotID, 30*time.Minute) // 20.00

	total, err := GetTotalSpending(user.UserID)
	if err != nil {
		t.Fatalf("GetTotalSpending returned error: %v", err)
	}
	if total != 60.0 {
		t.Fatalf("expected total 60.00, got %.2f", total)
	}

	empty, err := GetTotalSpending(createTestUser(t, "bob").UserID)
	if err != nil {
		t.Fatalf("GetTotalSpending returned error: %v", err)
	}
	if empty != 0 {
		t.Fatalf("expected zero spending, got %.2f", empty)
	}
}

func TestGetRecentReservationsNewestFirst(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice")
	lot := createTestLot(t, "Central Plaza", 20.0, 1)

	completeReservation(t, user.UserID, lot.LotID, 48*time.Hour)
	completeReservation(t, user.UserID, lot.LotID, 2*time.Hour)

	recent, err := GetRecentReservations(0)
	if err != nil {
		t.Fatalf("GetRecentReservations returned error: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 reservations, got %d", len(recent))
	}
	if recent[0].ParkingTimestamp.Before(recent[1].ParkingTimestamp) {
		t.Fatalf("expected newest first")
	}
}

func TestSearchParkingLots(t *testing.T) {
	setupTestDB(t)
	createTestLot(t, "Central Plaza", 20.0, 1)
	createTestLot(t, "Harbor Garage", 10.0, 1)

	lots, err := SearchParkingLots("harbor")
	if err != nil {
		t.Fatalf("SearchParkingLots returned error: %v", err)
	}
	if len(lots) != 1 || lots[0].PrimeLocationName != "Harbor Garage" {
		t.Fatalf("expected Harbor Garage only, got %d lots", len(lots))
	}

	all, err := SearchParkingLots("")
	if err != nil {
		t.Fatalf("SearchParkingLots returned error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected all lots for empty query, got %d", len(all))
	}
}

func TestSearchUsersExcludesAdmins(t *testing.T) {
	setupTestDB(t)
	createTestUser(t, "alice")
	admin := &models.User{
		Username: "admin",
		Password: "hashed",
		Email:    "admin@parking.com",
		IsAdmin:  true,
	}
	if err := database.DB.Create(admin).Error; err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}

	users, err := SearchUsers("")
	if err != nil {
		t.Fatalf("SearchUsers returned error: %v", err)
	}
	if len(users) != 1 || users[0].Username != "alice" {
		t.Fatalf("expected only non-admin alice, got %d users", len(users))
	}
}
