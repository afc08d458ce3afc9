package models

import "time"

type Reservation struct {
	ReservationID       int          `json:"reservation_id" gorm:"primaryKey;autoIncrement;type:INT"`
	SpotID              *int         `json:"spot_id" gorm:"index;type:INT"` // 車位刪除後為 NULL，由快照欄位保留歷史
	UserID              int          `json:"user_id" gorm:"index;not null;type:INT"`
	VehicleLicensePlate string       `json:"vehicle_license_plate" gorm:"type:varchar(20);not null"`
	VehicleColor        string       `json:"vehicle_color" gorm:"type:varchar(20)"`
	ParkingTimestamp    time.Time    `json:"parking_timestamp" gorm:"type:datetime;not null"`
	LeavingTimestamp    *time.Time   `json:"leaving_timestamp" gorm:"type:datetime;default:null"`
	ParkingCost         *float64     `json:"parking_cost" gorm:"type:decimal(10,2);default:null"`
	HoursCharged        *int         `json:"hours_charged" gorm:"type:INT;default:null"`
	IsActive            bool         `json:"is_active" gorm:"type:tinyint(1);default:1"`
	ActiveUserID        *int         `json:"-" gorm:"column:active_user_id;uniqueIndex;type:INT"` // 進行中時等於 UserID、結束後為 NULL，唯一索引保證同一會員僅一筆進行中
	SpotNumber          string       `json:"spot_number" gorm:"type:varchar(10)"`   // 快照欄位，僅在車位刪除後使用
	LotName             string       `json:"lot_name" gorm:"type:varchar(100)"`     // 快照欄位，僅在車位刪除後使用
	User                User         `json:"-" gorm:"foreignKey:UserID;references:UserID"`
	Spot                *ParkingSpot `json:"-" gorm:"foreignKey:SpotID;references:SpotID"`
}

func (Reservation) TableName() string {
	return "reservation"
}

type ReservationResponse struct {
	ReservationID       int        `json:"reservation_id"`
	SpotID              *int       `json:"spot_id"`
	UserID              int        `json:"user_id"`
	VehicleLicensePlate string     `json:"vehicle_license_plate"`
	VehicleColor        string     `json:"vehicle_color"`
	ParkingTimestamp    time.Time  `json:"parking_timestamp"`
	LeavingTimestamp    *time.Time `json:"leaving_timestamp"`
	ParkingCost         *float64   `json:"parking_cost"`
	HoursCharged        *int       `json:"hours_charged"`
	IsActive            bool       `json:"is_active"`
	SpotNumber          string     `json:"spot_number"`
	LotName             string     `json:"lot_name"`
}

// ToResponse 將 Reservation 轉換為回應結構，快照欄位優先使用已載入的車位資料
func (r *Reservation) ToResponse() ReservationResponse {
	spotNumber := r.SpotNumber
	lotName := r.LotName
	if r.Spot != nil {
		spotNumber = r.Spot.SpotNumber
		if r.Spot.Lot.LotID != 0 {
			lotName = r.Spot.Lot.PrimeLocationName
		}
	}

	return ReservationResponse{
		ReservationID:       r.ReservationID,
		SpotID:              r.SpotID,
		UserID:              r.UserID,
		VehicleLicensePlate: r.VehicleLicensePlate,
		VehicleColor:        r.VehicleColor,
		ParkingTimestamp:    r.ParkingTimestamp,
		LeavingTimestamp:    r.LeavingTimestamp,
		ParkingCost:         r.ParkingCost,
		HoursCharged:        r.HoursCharged,
		IsActive:            r.IsActive,
		SpotNumber:          spotNumber,
		LotName:             lotName,
	}
}
