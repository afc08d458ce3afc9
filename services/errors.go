package services

import "errors"

// 找不到資源
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrLotNotFound         = errors.New("parking lot not found")
	ErrSpotNotFound        = errors.New("parking spot not found")
	ErrReservationNotFound = errors.New("reservation not found")
)

// 狀態衝突
var (
	ErrAlreadyActive       = errors.New("user already has an active reservation")
	ErrNoAvailableSpot     = errors.New("no available spot in parking lot")
	ErrSpotUnavailable     = errors.New("parking spot is no longer available")
	ErrAlreadyReleased     = errors.New("reservation has already been released")
	ErrSpotOccupied        = errors.New("parking spot is occupied or has active reservations")
	ErrLotHasOccupiedSpots = errors.New("parking lot has occupied spots")
	ErrCannotShrink        = errors.New("not enough available spots to remove")
	ErrUsernameTaken       = errors.New("username is already in use")
	ErrEmailTaken          = errors.New("email is already in use")
)

// 授權失敗
var (
	ErrUnauthorized       = errors.New("not authorized to act on this reservation")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// 輸入錯誤
var (
	ErrInvalidInterval = errors.New("leaving time cannot be earlier than parking time")
	ErrInvalidInput    = errors.New("invalid input")
)

// ErrInconsistentState 表示資料不變量被破壞，屬於程式錯誤而非預期狀況
var ErrInconsistentState = errors.New("inconsistent reservation state")
