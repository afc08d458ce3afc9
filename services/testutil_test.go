package services

import (
	"parkbook/database"
	"parkbook/models"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB 以 sqlite in-memory 建立測試資料庫並取代全域連線
func setupTestDB(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.ParkingLot{},
		&models.ParkingSpot{},
		&models.Reservation{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	database.DB = db
}

func createTestUser(t *testing.T, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Password: "hashed-password",
		Email:    username + "@example.com",
		FullName: "Test " + username,
		Address:  "1 Test Street",
		PinCode:  "100001",
	}
	if err := database.DB.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestLot(t *testing.T, name string, price float64, spots int) *models.ParkingLot {
	t.Helper()

	lot := &models.ParkingLot{
		PrimeLocationName: name,
		Address:           "10 Lot Road",
		PinCode:           "200002",
		Price:             price,
		MaxSpots:          spots,
	}
	if err := CreateLot(lot); err != nil {
		t.Fatalf("failed to create test lot: %v", err)
	}
	return lot
}

// backdateReservation 將預約的進場時間往前調整，模擬已停放一段時間
func backdateReservation(t *testing.T, reservationID int, d time.Duration) {
	t.Helper()

	newStart := time.Now().UTC().Add(-d)
	err := database.DB.Model(&models.Reservation{}).
		Where("reservation_id = ?", reservationID).
		Update("parking_timestamp", newStart).Error
	if err != nil {
		t.Fatalf("failed to backdate reservation: %v", err)
	}
}
