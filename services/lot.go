package services

import (
	"errors"
	"fmt"
	"log"
	"parkbook/database"
	"parkbook/models"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// 編號格式為 A + 三位數，序號超過 999 會破壞字典序與數字序的一致性
const maxSpotSequence = 999

// spotNumberFor 產生車位編號，補零對齊使字典序等同數字序（A001、A002…）
func spotNumberFor(sequence int) string {
	return fmt.Sprintf("A%03d", sequence)
}

// nextSpotSequence 取得停車場下一個車位序號，刪除過的編號不再重用
func nextSpotSequence(tx *gorm.DB, lotID int) (int, error) {
	var last models.ParkingSpot
	if err := tx.Where("lot_id = ?", lotID).Order("spot_number DESC").First(&last).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 1, nil
		}
		return 0, fmt.Errorf("failed to find highest spot number: %w", err)
	}

	seq, err := strconv.Atoi(last.SpotNumber[1:])
	if err != nil {
		return 0, fmt.Errorf("malformed spot number %q in lot %d: %w", last.SpotNumber, lotID, err)
	}
	return seq + 1, nil
}

// CreateLot 建立停車場並依容量產生車位，全部在同一交易中完成
func CreateLot(lot *models.ParkingLot) error {
	if lot.PrimeLocationName == "" {
		return fmt.Errorf("%w: prime_location_name is required", ErrInvalidInput)
	}
	if lot.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	if lot.MaxSpots <= 0 {
		return fmt.Errorf("%w: maximum_number_of_spots must be positive", ErrInvalidInput)
	}
	if lot.MaxSpots > maxSpotSequence {
		return fmt.Errorf("%w: maximum_number_of_spots cannot exceed %d", ErrInvalidInput, maxSpotSequence)
	}

	// 開始事務
	tx := database.DB.Begin()

	if err := tx.Create(lot).Error; err != nil {
		tx.Rollback()
		log.Printf("Failed to create parking lot: %v", err)
		return fmt.Errorf("failed to create parking lot: %w", err)
	}

	for i := 1; i <= lot.MaxSpots; i++ {
		spot := models.ParkingSpot{
			LotID:      lot.LotID,
			SpotNumber: spotNumberFor(i),
			Status:     models.SpotStatusAvailable,
		}
		if err := tx.Create(&spot).Error; err != nil {
			tx.Rollback()
			if mysqlErr, ok := err.(*mysql.MySQLError); ok && mysqlErr.Number == 1062 {
				return fmt.Errorf("duplicate spot number %s in lot %d", spot.SpotNumber, lot.LotID)
			}
			log.Printf("Failed to create spot %s for lot %d: %v", spot.SpotNumber, lot.LotID, err)
			return fmt.Errorf("failed to create spot %s: %w", spot.SpotNumber, err)
		}
	}

	// 提交事務
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Created parking lot %d with %d spots", lot.LotID, lot.MaxSpots)
	return nil
}

// GetLotByID 查詢特定停車場並附帶使用中車位數
func GetLotByID(lotID int) (*models.ParkingLot, error) {
	var lot models.ParkingLot
	if err := database.DB.First(&lot, lotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLotNotFound
		}
		log.Printf("Failed to get parking lot %d: %v", lotID, err)
		return nil, fmt.Errorf("failed to get parking lot: %w", err)
	}

	var occupied int64
	if err := database.DB.Model(&models.ParkingSpot{}).
		Where("lot_id = ? AND status = ?", lotID, models.SpotStatusOccupied).
		Count(&occupied).Error; err != nil {
		log.Printf("Failed to count occupied spots for lot %d: %v", lotID, err)
		return nil, fmt.Errorf("failed to count occupied spots: %w", err)
	}
	lot.OccupiedSpots = int(occupied)

	return &lot, nil
}

// SpotsForLot 查詢停車場的所有車位，依編號排序
func SpotsForLot(lotID int) ([]models.ParkingSpot, error) {
	var lot models.ParkingLot
	if err := database.DB.First(&lot, lotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLotNotFound
		}
		return nil, fmt.Errorf("failed to find parking lot: %w", err)
	}

	var spots []models.ParkingSpot
	if err := database.DB.Where("lot_id = ?", lotID).Order("spot_number").Find(&spots).Error; err != nil {
		log.Printf("Failed to query spots for lot %d: %v", lotID, err)
		return nil, fmt.Errorf("failed to query spots: %w", err)
	}
	return spots, nil
}

// GetSpotByID 查詢特定車位
func GetSpotByID(spotID int) (*models.ParkingSpot, error) {
	var spot models.ParkingSpot
	if err := database.DB.Preload("Lot").First(&spot, spotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSpotNotFound
		}
		log.Printf("Failed to get spot %d: %v", spotID, err)
		return nil, fmt.Errorf("failed to get spot: %w", err)
	}
	return &spot, nil
}

// resizeLotSpots 在既有交易內調整停車場車位數，不負責提交
func resizeLotSpots(tx *gorm.DB, lot *models.ParkingLot, newCapacity int) error {
	var current int64
	if err := tx.Model(&models.ParkingSpot{}).Where("lot_id = ?", lot.LotID).Count(&current).Error; err != nil {
		return fmt.Errorf("failed to count spots: %w", err)
	}

	switch {
	case newCapacity > int(current):
		// 擴增：接續既有編號往後補車位
		seq, err := nextSpotSequence(tx, lot.LotID)
		if err != nil {
			return err
		}
		if seq+(newCapacity-int(current))-1 > maxSpotSequence {
			return fmt.Errorf("%w: spot numbering for lot %d would exceed %d", ErrInvalidInput, lot.LotID, maxSpotSequence)
		}
		for i := 0; i < newCapacity-int(current); i++ {
			spot := models.ParkingSpot{
				LotID:      lot.LotID,
				SpotNumber: spotNumberFor(seq + i),
				Status:     models.SpotStatusAvailable,
			}
			if err := tx.Create(&spot).Error; err != nil {
				if mysqlErr, ok := err.(*mysql.MySQLError); ok && mysqlErr.Number == 1062 {
					return fmt.Errorf("duplicate spot number %s in lot %d", spot.SpotNumber, lot.LotID)
				}
				return fmt.Errorf("failed to create spot %s: %w", spot.SpotNumber, err)
			}
		}

	case newCapacity < int(current):
		// 縮減：由編號最大的可用車位開始移除，不足則整筆失敗
		need := int(current) - newCapacity
		var removable []models.ParkingSpot
		if err := tx.Where("lot_id = ? AND status = ?", lot.LotID, models.SpotStatusAvailable).
			Order("spot_number DESC").
			Limit(need).
			Find(&removable).Error; err != nil {
			return fmt.Errorf("failed to find removable spots: %w", err)
		}
		if len(removable) < need {
			return ErrCannotShrink
		}

		for _, spot := range removable {
			if err := detachSpotHistory(tx, &spot, lot.PrimeLocationName); err != nil {
				return err
			}
			// 狀態條件保護：若車位在本交易外被占用，RowsAffected 為 0
			result := tx.Where("spot_id = ? AND status = ?", spot.SpotID, models.SpotStatusAvailable).
				Delete(&models.ParkingSpot{})
			if result.Error != nil {
				return fmt.Errorf("failed to delete spot %d: %w", spot.SpotID, result.Error)
			}
			if result.RowsAffected == 0 {
				return ErrCannotShrink
			}
		}
	}

	if err := tx.Model(&models.ParkingLot{}).
		Where("lot_id = ?", lot.LotID).
		Update("maximum_number_of_spots", newCapacity).Error; err != nil {
		return fmt.Errorf("failed to update lot capacity: %w", err)
	}

	return nil
}

// ResizeLot 調整停車場容量，擴增補新車位、縮減僅能移除可用車位，整筆操作不可部分生效
func ResizeLot(lotID, newCapacity int) error {
	if newCapacity < 0 {
		return fmt.Errorf("%w: capacity must not be negative", ErrInvalidInput)
	}
	if newCapacity > maxSpotSequence {
		return fmt.Errorf("%w: capacity cannot exceed %d", ErrInvalidInput, maxSpotSequence)
	}

	var lot models.ParkingLot
	if err := database.DB.First(&lot, lotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLotNotFound
		}
		return fmt.Errorf("failed to find parking lot: %w", err)
	}

	// 開始事務
	tx := database.DB.Begin()

	if err := resizeLotSpots(tx, &lot, newCapacity); err != nil {
		tx.Rollback()
		return err
	}

	// 提交事務
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Resized lot %d to %d spots", lotID, newCapacity)
	return nil
}

// UpdateLot 更新停車場資料，若包含容量變更則與基本欄位在同一交易中調整
func UpdateLot(lotID int, req *models.UpdateParkingLotRequest) error {
	var lot models.ParkingLot
	if err := database.DB.First(&lot, lotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLotNotFound
		}
		return fmt.Errorf("failed to find parking lot: %w", err)
	}

	fields := make(map[string]interface{})
	if req.PrimeLocationName != nil {
		if *req.PrimeLocationName == "" {
			return fmt.Errorf("%w: prime_location_name must not be empty", ErrInvalidInput)
		}
		fields["prime_location_name"] = *req.PrimeLocationName
	}
	if req.Address != nil {
		fields["address"] = *req.Address
	}
	if req.PinCode != nil {
		fields["pin_code"] = *req.PinCode
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
		}
		fields["price"] = *req.Price
	}
	if req.MaxSpots != nil {
		if *req.MaxSpots < 0 {
			return fmt.Errorf("%w: capacity must not be negative", ErrInvalidInput)
		}
		if *req.MaxSpots > maxSpotSequence {
			return fmt.Errorf("%w: capacity cannot exceed %d", ErrInvalidInput, maxSpotSequence)
		}
	}

	// 開始事務
	tx := database.DB.Begin()

	if len(fields) > 0 {
		if err := tx.Model(&lot).Updates(fields).Error; err != nil {
			tx.Rollback()
			log.Printf("Failed to update parking lot %d: %v", lotID, err)
			return fmt.Errorf("failed to update parking lot: %w", err)
		}
	}

	if req.MaxSpots != nil {
		if name, ok := fields["prime_location_name"].(string); ok {
			lot.PrimeLocationName = name
		}
		if err := resizeLotSpots(tx, &lot, *req.MaxSpots); err != nil {
			tx.Rollback()
			return err
		}
	}

	// 提交事務
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Updated parking lot %d", lotID)
	return nil
}

// detachSpotHistory 將車位的歷史預約改寫為快照並清除車位參照，預約本身永不刪除
func detachSpotHistory(tx *gorm.DB, spot *models.ParkingSpot, lotName string) error {
	if err := tx.Model(&models.Reservation{}).
		Where("spot_id = ?", spot.SpotID).
		Updates(map[string]interface{}{
			"spot_number": spot.SpotNumber,
			"lot_name":    lotName,
			"spot_id":     nil,
		}).Error; err != nil {
		return fmt.Errorf("failed to detach reservations of spot %d: %w", spot.SpotID, err)
	}
	return nil
}

// DeleteSpot 刪除可用車位：改寫歷史預約為快照、移除車位並將停車場容量減一
func DeleteSpot(spotID int) error {
	var spot models.ParkingSpot
	if err := database.DB.Preload("Lot").First(&spot, spotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSpotNotFound
		}
		log.Printf("Failed to find spot %d: %v", spotID, err)
		return fmt.Errorf("failed to find spot: %w", err)
	}

	if spot.Status != models.SpotStatusAvailable {
		return ErrSpotOccupied
	}

	var activeCount int64
	if err := database.DB.Model(&models.Reservation{}).
		Where("spot_id = ? AND is_active = ?", spotID, true).
		Count(&activeCount).Error; err != nil {
		log.Printf("Failed to check active reservations for spot %d: %v", spotID, err)
		return fmt.Errorf("failed to check active reservations: %w", err)
	}
	if activeCount > 0 {
		return ErrSpotOccupied
	}

	// 開始事務
	tx := database.DB.Begin()

	if err := detachSpotHistory(tx, &spot, spot.Lot.PrimeLocationName); err != nil {
		tx.Rollback()
		log.Printf("Failed to preserve reservation history for spot %d: %v", spotID, err)
		return err
	}

	if err := tx.Delete(&models.ParkingSpot{}, spotID).Error; err != nil {
		tx.Rollback()
		log.Printf("Failed to delete spot %d: %v", spotID, err)
		return fmt.Errorf("failed to delete spot: %w", err)
	}

	if err := tx.Model(&models.ParkingLot{}).
		Where("lot_id = ?", spot.LotID).
		Update("maximum_number_of_spots", gorm.Expr("maximum_number_of_spots - 1")).Error; err != nil {
		tx.Rollback()
		log.Printf("Failed to decrement capacity of lot %d: %v", spot.LotID, err)
		return fmt.Errorf("failed to decrement lot capacity: %w", err)
	}

	// 提交事務
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Deleted spot %s (id=%d) from lot %d, reservation history preserved", spot.SpotNumber, spotID, spot.LotID)
	return nil
}

// DeleteLot 刪除停車場與其所有車位，所有車位必須為可用狀態，歷史預約一律保留為快照
func DeleteLot(lotID int) error {
	var lot models.ParkingLot
	if err := database.DB.Preload("Spots").First(&lot, lotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLotNotFound
		}
		log.Printf("Failed to find parking lot %d: %v", lotID, err)
		return fmt.Errorf("failed to find parking lot: %w", err)
	}

	for _, spot := range lot.Spots {
		if spot.Status == models.SpotStatusOccupied {
			return ErrLotHasOccupiedSpots
		}
	}

	// 開始事務
	tx := database.DB.Begin()

	for _, spot := range lot.Spots {
		if err := detachSpotHistory(tx, &spot, lot.PrimeLocationName); err != nil {
			tx.Rollback()
			log.Printf("Failed to preserve reservation history for spot %d: %v", spot.SpotID, err)
			return err
		}
	}

	if err := tx.Where("lot_id = ?", lotID).Delete(&models.ParkingSpot{}).Error; err != nil {
		tx.Rollback()
		log.Printf("Failed to delete spots of lot %d: %v", lotID, err)
		return fmt.Errorf("failed to delete spots: %w", err)
	}

	if err := tx.Delete(&models.ParkingLot{}, lotID).Error; err != nil {
		tx.Rollback()
		log.Printf("Failed to delete parking lot %d: %v", lotID, err)
		return fmt.Errorf("failed to delete parking lot: %w", err)
	}

	// 提交事務
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Deleted parking lot %d with %d spots, reservation history preserved", lotID, len(lot.Spots))
	return nil
}
