package services

import (
	"fmt"
	"log"
	"parkbook/database"
	"parkbook/models"
)

// SearchParkingLots 以子字串搜尋停車場的名稱、地址或郵遞區號，空字串回傳全部
func SearchParkingLots(query string) ([]models.ParkingLot, error) {
	db := database.DB.Order("lot_id")
	if query != "" {
		pattern := "%" + query + "%"
		db = db.Where("prime_location_name LIKE ? OR address LIKE ? OR pin_code LIKE ?", pattern, pattern, pattern)
	}

	var lots []models.ParkingLot
	if err := db.Find(&lots).Error; err != nil {
		log.Printf("Failed to search parking lots with query %q: %v", query, err)
		return nil, fmt.Errorf("failed to search parking lots: %w", err)
	}

	// 附帶使用中車位數供儀表板顯示
	for i := range lots {
		var occupied int64
		if err := database.DB.Model(&models.ParkingSpot{}).
			Where("lot_id = ? AND status = ?", lots[i].LotID, models.SpotStatusOccupied).
			Count(&occupied).Error; err != nil {
			log.Printf("Failed to count occupied spots for lot %d: %v", lots[i].LotID, err)
			return nil, fmt.Errorf("failed to count occupied spots: %w", err)
		}
		lots[i].OccupiedSpots = int(occupied)
	}

	log.Printf("Found %d parking lots for query %q", len(lots), query)
	return lots, nil
}

// SearchUsers 以子字串搜尋一般會員（不含管理員），空字串回傳全部
func SearchUsers(query string) ([]models.User, error) {
	db := database.DB.Where("is_admin = ?", false).Order("user_id")
	if query != "" {
		pattern := "%" + query + "%"
		db = db.Where(
			"username LIKE ? OR full_name LIKE ? OR email LIKE ? OR address LIKE ? OR pin_code LIKE ? OR phone LIKE ?",
			pattern, pattern, pattern, pattern, pattern, pattern,
		)
	}

	var users []models.User
	if err := db.Find(&users).Error; err != nil {
		log.Printf("Failed to search users with query %q: %v", query, err)
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	log.Printf("Found %d users for query %q", len(users), query)
	return users, nil
}
