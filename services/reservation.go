package services

import (
	"errors"
	"fmt"
	"log"
	"parkbook/database"
	"parkbook/models"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// BookSpot 為會員在指定停車場預訂一個可用車位，車位分配與預約建立在同一交易中完成
func BookSpot(userID, lotID int, licensePlate, vehicleColor string) (*models.Reservation, error) {
	licensePlate = strings.TrimSpace(licensePlate)
	if licensePlate == "" {
		return nil, fmt.Errorf("%w: vehicle license plate is required", ErrInvalidInput)
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		log.Printf("Failed to find user %d: %v", userID, err)
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	var lot models.ParkingLot
	if err := database.DB.First(&lot, lotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLotNotFound
		}
		log.Printf("Failed to find parking lot %d: %v", lotID, err)
		return nil, fmt.Errorf("failed to find parking lot: %w", err)
	}

	// 開始事務
	tx := database.DB.Begin()

	// 同一會員同時只能有一筆進行中的預約
	var activeCount int64
	if err := tx.Model(&models.Reservation{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&activeCount).Error; err != nil {
		tx.Rollback()
		log.Printf("Failed to check active reservations for user %d: %v", userID, err)
		return nil, fmt.Errorf("failed to check active reservations: %w", err)
	}
	if activeCount > 0 {
		tx.Rollback()
		return nil, ErrAlreadyActive
	}

	// 取號碼最小的可用車位，分配順序需為確定性
	var spot models.ParkingSpot
	if err := tx.Where("lot_id = ? AND status = ?", lotID, models.SpotStatusAvailable).
		Order("spot_number").
		First(&spot).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoAvailableSpot
		}
		log.Printf("Failed to find available spot in lot %d: %v", lotID, err)
		return nil, fmt.Errorf("failed to find available spot: %w", err)
	}

	// 條件更新翻轉車位狀態：若另一筆預訂已搶先占用，RowsAffected 為 0
	result := tx.Model(&models.ParkingSpot{}).
		Where("spot_id = ? AND status = ?", spot.SpotID, models.SpotStatusAvailable).
		Update("status", models.SpotStatusOccupied)
	if result.Error != nil {
		tx.Rollback()
		log.Printf("Failed to occupy spot %d: %v", spot.SpotID, result.Error)
		return nil, fmt.Errorf("failed to occupy spot: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		log.Printf("Spot %d was taken by a concurrent booking", spot.SpotID)
		return nil, ErrSpotUnavailable
	}

	reservation := &models.Reservation{
		SpotID:              &spot.SpotID,
		UserID:              userID,
		VehicleLicensePlate: licensePlate,
		VehicleColor:        vehicleColor,
		ParkingTimestamp:    time.Now().UTC(),
		IsActive:            true,
		ActiveUserID:        &userID,
	}
	if err := tx.Create(reservation).Error; err != nil {
		tx.Rollback()
		// active_user_id 的唯一索引擋下同一會員的並發預訂
		if mysqlErr, ok := err.(*mysql.MySQLError); ok && mysqlErr.Number == 1062 {
			return nil, ErrAlreadyActive
		}
		log.Printf("Failed to create reservation for user %d on spot %d: %v", userID, spot.SpotID, err)
		return nil, fmt.Errorf("failed to create reservation: %w", err)
	}

	// 提交事務
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("User %d booked spot %s (id=%d) in lot %d, reservation %d",
		userID, spot.SpotNumber, spot.SpotID, lotID, reservation.ReservationID)
	return reservation, nil
}

// ReleaseSpot 結束進行中的預約：計算費用、寫入離場時間並釋放車位，整個更新在同一交易中完成
func ReleaseSpot(reservationID, userID int, now time.Time) (float64, int, error) {
	var reservation models.Reservation
	if err := database.DB.First(&reservation, reservationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, 0, ErrReservationNotFound
		}
		log.Printf("Failed to find reservation %d: %v", reservationID, err)
		return 0, 0, fmt.Errorf("failed to find reservation: %w", err)
	}

	if reservation.UserID != userID {
		log.Printf("User %d attempted to release reservation %d owned by user %d", userID, reservationID, reservation.UserID)
		return 0, 0, ErrUnauthorized
	}

	if !reservation.IsActive {
		return 0, 0, ErrAlreadyReleased
	}

	// 費率必須在提交前解析完成；進行中的預約照理不會失去車位參照
	if reservation.SpotID == nil {
		log.Printf("Active reservation %d has no spot reference, invariant broken", reservationID)
		return 0, 0, ErrInconsistentState
	}

	var spot models.ParkingSpot
	if err := database.DB.Preload("Lot").First(&spot, *reservation.SpotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Spot %d referenced by active reservation %d does not exist", *reservation.SpotID, reservationID)
			return 0, 0, ErrInconsistentState
		}
		log.Printf("Failed to find spot %d: %v", *reservation.SpotID, err)
		return 0, 0, fmt.Errorf("failed to find spot: %w", err)
	}

	cost, hours, err := ComputeCharge(reservation.ParkingTimestamp, now, spot.Lot.Price)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute charge for reservation %d: %w", reservationID, err)
	}

	// 開始事務
	tx := database.DB.Begin()

	if err := tx.Model(&reservation).Updates(map[string]interface{}{
		"leaving_timestamp": now,
		"parking_cost":      cost,
		"hours_charged":     hours,
		"is_active":         false,
		"active_user_id":    nil,
	}).Error; err != nil {
		tx.Rollback()
		log.Printf("Failed to complete reservation %d: %v", reservationID, err)
		return 0, 0, fmt.Errorf("failed to complete reservation: %w", err)
	}

	if err := tx.Model(&models.ParkingSpot{}).
		Where("spot_id = ?", spot.SpotID).
		Update("status", models.SpotStatusAvailable).Error; err != nil {
		tx.Rollback()
		log.Printf("Failed to release spot %d: %v", spot.SpotID, err)
		return 0, 0, fmt.Errorf("failed to release spot: %w", err)
	}

	// 提交事務
	if err := tx.Commit().Error; err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Reservation %d released: %d hour(s) charged, cost %.2f", reservationID, hours, cost)
	return cost, hours, nil
}

// EstimateCurrentCost 以 now 作為暫定離場時間估算進行中預約的費用，不寫入任何資料
func EstimateCurrentCost(reservationID int, now time.Time) (float64, int, error) {
	var reservation models.Reservation
	if err := database.DB.First(&reservation, reservationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, 0, ErrReservationNotFound
		}
		log.Printf("Failed to find reservation %d: %v", reservationID, err)
		return 0, 0, fmt.Errorf("failed to find reservation: %w", err)
	}

	if !reservation.IsActive {
		return 0, 0, ErrAlreadyReleased
	}

	if reservation.SpotID == nil {
		log.Printf("Active reservation %d has no spot reference, invariant broken", reservationID)
		return 0, 0, ErrInconsistentState
	}

	var spot models.ParkingSpot
	if err := database.DB.Preload("Lot").First(&spot, *reservation.SpotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, 0, ErrInconsistentState
		}
		log.Printf("Failed to find spot %d: %v", *reservation.SpotID, err)
		return 0, 0, fmt.Errorf("failed to find spot: %w", err)
	}

	return ComputeCharge(reservation.ParkingTimestamp, now, spot.Lot.Price)
}

// GetReservationByID 查詢特定預約
func GetReservationByID(reservationID int) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := database.DB.Preload("Spot").Preload("Spot.Lot").First(&reservation, reservationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		log.Printf("Failed to get reservation %d: %v", reservationID, err)
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return &reservation, nil
}

// GetActiveReservation 查詢會員目前進行中的預約，沒有則回傳 nil
func GetActiveReservation(userID int) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := database.DB.Preload("Spot").Preload("Spot.Lot").
		Where("user_id = ? AND is_active = ?", userID, true).
		First(&reservation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("Failed to get active reservation for user %d: %v", userID, err)
		return nil, fmt.Errorf("failed to get active reservation: %w", err)
	}
	return &reservation, nil
}

// GetActiveReservationForSpot 查詢車位目前進行中的預約，沒有則回傳 nil
func GetActiveReservationForSpot(spotID int) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := database.DB.Preload("User").
		Where("spot_id = ? AND is_active = ?", spotID, true).
		First(&reservation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("Failed to get active reservation for spot %d: %v", spotID, err)
		return nil, fmt.Errorf("failed to get active reservation for spot: %w", err)
	}
	return &reservation, nil
}

// GetUserReservations 查詢會員的停車歷史，依進場時間由新到舊排序
func GetUserReservations(userID, limit int) ([]models.Reservation, error) {
	if limit <= 0 {
		limit = 10
	}

	var reservations []models.Reservation
	if err := database.DB.Preload("Spot").Preload("Spot.Lot").
		Where("user_id = ?", userID).
		Order("parking_timestamp DESC").
		Limit(limit).
		Find(&reservations).Error; err != nil {
		log.Printf("Failed to query reservations for user %d: %v", userID, err)
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}

	log.Printf("Fetched %d reservations for user %d", len(reservations), userID)
	return reservations, nil
}
