package models

// 車位狀態：A = 可用、O = 使用中
const (
	SpotStatusAvailable = "A"
	SpotStatusOccupied  = "O"
)

type ParkingSpot struct {
	SpotID       int           `json:"spot_id" gorm:"primaryKey;autoIncrement;type:INT"`
	LotID        int           `json:"lot_id" gorm:"index;not null;type:INT;uniqueIndex:idx_lot_spot_number"`
	SpotNumber   string        `json:"spot_number" gorm:"type:varchar(10);not null;uniqueIndex:idx_lot_spot_number"`
	Status       string        `json:"status" gorm:"type:varchar(1);not null;default:'A'"`
	Lot          ParkingLot    `json:"-" gorm:"foreignKey:LotID;references:LotID"`
	Reservations []Reservation `json:"-" gorm:"foreignKey:SpotID;references:SpotID"`
}

func (ParkingSpot) TableName() string {
	return "parking_spot"
}

type ParkingSpotResponse struct {
	SpotID     int    `json:"spot_id"`
	LotID      int    `json:"lot_id"`
	SpotNumber string `json:"spot_number"`
	Status     string `json:"status"`
}

func (p *ParkingSpot) ToResponse() ParkingSpotResponse {
	return ParkingSpotResponse{
		SpotID:     p.SpotID,
		LotID:      p.LotID,
		SpotNumber: p.SpotNumber,
		Status:     p.Status,
	}
}
