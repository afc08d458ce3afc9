package models

type User struct {
	UserID       int           `json:"user_id" gorm:"primaryKey;autoIncrement;type:INT"`
	Username     string        `json:"username" gorm:"type:varchar(50);uniqueIndex;not null" binding:"required,max=50"`
	Password     string        `json:"password,omitempty" gorm:"type:varchar(100);not null"`
	Email        string        `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	Phone        string        `json:"phone" gorm:"type:varchar(20)"`
	FullName     string        `json:"full_name" gorm:"type:varchar(100)"`
	Address      string        `json:"address" gorm:"type:varchar(200)"`
	PinCode      string        `json:"pin_code" gorm:"type:varchar(10)"`
	IsAdmin      bool          `json:"is_admin" gorm:"type:tinyint(1);default:0"`
	Reservations []Reservation `json:"-" gorm:"foreignKey:UserID;references:UserID"`
}

func (User) TableName() string {
	return "user"
}

// UserResponse 回應結構，不包含密碼
type UserResponse struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	FullName string `json:"full_name"`
	Address  string `json:"address"`
	PinCode  string `json:"pin_code"`
	IsAdmin  bool   `json:"is_admin"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		UserID:   u.UserID,
		Username: u.Username,
		Email:    u.Email,
		Phone:    u.Phone,
		FullName: u.FullName,
		Address:  u.Address,
		PinCode:  u.PinCode,
		IsAdmin:  u.IsAdmin,
	}
}
