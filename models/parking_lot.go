package models

// ParkingLot 定義停車場模型
type ParkingLot struct {
	LotID             int           `json:"lot_id" gorm:"primaryKey;autoIncrement;type:INT"`
	PrimeLocationName string        `json:"prime_location_name" gorm:"type:varchar(100);not null" binding:"required,max=100"`
	Address           string        `json:"address" gorm:"type:varchar(200)" binding:"omitempty,max=200"`
	PinCode           string        `json:"pin_code" gorm:"type:varchar(10)" binding:"omitempty,max=10"`
	Price             float64       `json:"price" gorm:"type:decimal(10,2);not null" binding:"gte=0"` // 每小時費率
	MaxSpots          int           `json:"maximum_number_of_spots" gorm:"column:maximum_number_of_spots;type:INT;not null" binding:"required,gt=0,lte=999"`
	Spots             []ParkingSpot `json:"-" gorm:"foreignKey:LotID;references:LotID"`
	OccupiedSpots     int           `json:"-" gorm:"-"` // transient，不存DB，用於儀表板統計
}

func (ParkingLot) TableName() string {
	return "parking_lot"
}

// ParkingLotResponse 定義停車場回應結構
type ParkingLotResponse struct {
	LotID             int     `json:"lot_id"`
	PrimeLocationName string  `json:"prime_location_name"`
	Address           string  `json:"address"`
	PinCode           string  `json:"pin_code"`
	Price             float64 `json:"price"`
	MaxSpots          int     `json:"maximum_number_of_spots"`
	OccupiedSpots     int     `json:"occupied_spots"`
	AvailableSpots    int     `json:"available_spots"`
}

func (p *ParkingLot) ToResponse() ParkingLotResponse {
	return ParkingLotResponse{
		LotID:             p.LotID,
		PrimeLocationName: p.PrimeLocationName,
		Address:           p.Address,
		PinCode:           p.PinCode,
		Price:             p.Price,
		MaxSpots:          p.MaxSpots,
		OccupiedSpots:     p.OccupiedSpots,
		AvailableSpots:    p.MaxSpots - p.OccupiedSpots,
	}
}

// UpdateParkingLotRequest 用於 PUT 更新，所有欄位皆為可選
type UpdateParkingLotRequest struct {
	PrimeLocationName *string  `json:"prime_location_name" binding:"omitempty,max=100"`
	Address           *string  `json:"address" binding:"omitempty,max=200"`
	PinCode           *string  `json:"pin_code" binding:"omitempty,max=10"`
	Price             *float64 `json:"price" binding:"omitempty,gte=0"`
	MaxSpots          *int     `json:"maximum_number_of_spots" binding:"omitempty,gte=0,lte=999"`
}
