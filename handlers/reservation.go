package handlers

import (
	"errors"
	"log"
	"net/http"
	"parkbook/models"
	"parkbook/services"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// BookSpotInput 定義用於綁定預訂請求的輸入結構體
type BookSpotInput struct {
	LotID               int    `json:"lot_id" binding:"required,gt=0"`
	VehicleLicensePlate string `json:"vehicle_license_plate" binding:"required,max=20"`
	VehicleColor        string `json:"vehicle_color" binding:"omitempty,max=20"`
}

// BookSpot 預訂車位
func BookSpot(c *gin.Context) {
	var input BookSpotInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Printf("Invalid input data: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", "請提供停車場 ID 與車牌號碼", "ERR_INVALID_INPUT")
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	reservation, err := services.BookSpot(userID, input.LotID, input.VehicleLicensePlate, input.VehicleColor)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLotNotFound):
			ErrorResponse(c, http.StatusNotFound, "停車場不存在", err.Error(), "ERR_NOT_FOUND")
		case errors.Is(err, services.ErrAlreadyActive):
			ErrorResponse(c, http.StatusConflict, "您已有進行中的停車預約", err.Error(), "ERR_ALREADY_ACTIVE")
		case errors.Is(err, services.ErrNoAvailableSpot), errors.Is(err, services.ErrSpotUnavailable):
			ErrorResponse(c, http.StatusConflict, "該停車場目前沒有可用車位", err.Error(), "ERR_NO_AVAILABLE_SPOT")
		case errors.Is(err, services.ErrInvalidInput):
			ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error(), "ERR_INVALID_INPUT")
		default:
			log.Printf("Failed to book spot in lot %d for user %d: %v", input.LotID, userID, err)
			ErrorResponse(c, http.StatusInternalServerError, "預訂車位失敗", err.Error(), "ERR_INTERNAL")
		}
		return
	}

	SuccessResponse(c, http.StatusOK, "車位預訂成功", reservation.ToResponse())
}

// ReleaseSpot 結束停車並結算費用
func ReleaseSpot(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		log.Printf("Invalid reservation ID: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的預約ID", err.Error(), "ERR_INVALID_ID")
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	cost, hours, err := services.ReleaseSpot(id, userID, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReservationNotFound):
			ErrorResponse(c, http.StatusNotFound, "預約不存在", err.Error(), "ERR_NOT_FOUND")
		case errors.Is(err, services.ErrUnauthorized):
			ErrorResponse(c, http.StatusForbidden, "無權限操作他人的預約", err.Error(), "ERR_UNAUTHORIZED")
		case errors.Is(err, services.ErrAlreadyReleased):
			ErrorResponse(c, http.StatusConflict, "該預約已經結束", err.Error(), "ERR_ALREADY_RELEASED")
		default:
			// ErrInconsistentState 與其他未預期錯誤一律視為內部錯誤
			log.Printf("Failed to release reservation %d for user %d: %v", id, userID, err)
			ErrorResponse(c, http.StatusInternalServerError, "結束停車失敗", err.Error(), "ERR_INTERNAL")
		}
		return
	}

	SuccessResponse(c, http.StatusOK, "停車已結束", gin.H{
		"parking_cost":  cost,
		"hours_charged": hours,
	})
}

// EstimateCost 估算進行中預約目前的費用，不寫入任何資料
func EstimateCost(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		log.Printf("Invalid reservation ID: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的預約ID", err.Error(), "ERR_INVALID_ID")
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	// 僅預約本人或管理員可以查看估算
	reservation, err := services.GetReservationByID(id)
	if err != nil {
		if errors.Is(err, services.ErrReservationNotFound) {
			ErrorResponse(c, http.StatusNotFound, "預約不存在", err.Error(), "ERR_NOT_FOUND")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "查詢預約失敗", err.Error(), "ERR_INTERNAL")
		return
	}

	isAdmin, _ := c.Get("is_admin")
	if reservation.UserID != userID && isAdmin != true {
		ErrorResponse(c, http.StatusForbidden, "無權限查看他人的預約", "not the reservation owner", "ERR_UNAUTHORIZED")
		return
	}

	now := time.Now().UTC()
	cost, hours, err := services.EstimateCurrentCost(id, now)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAlreadyReleased):
			ErrorResponse(c, http.StatusConflict, "該預約已經結束", err.Error(), "ERR_ALREADY_RELEASED")
		default:
			log.Printf("Failed to estimate cost for reservation %d: %v", id, err)
			ErrorResponse(c, http.StatusInternalServerError, "估算費用失敗", err.Error(), "ERR_INTERNAL")
		}
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", gin.H{
		"estimated_cost":  cost,
		"estimated_hours": hours,
		"estimated_at":    now,
	})
}

// GetMyReservations 查詢自己的停車記錄（含進行中的預約）
func GetMyReservations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	limit := 10
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			ErrorResponse(c, http.StatusBadRequest, "無效的 limit 參數", "limit must be a positive integer", "ERR_INVALID_INPUT")
			return
		}
		limit = parsed
	}

	active, err := services.GetActiveReservation(userID)
	if err != nil {
		log.Printf("Failed to get active reservation for user %d: %v", userID, err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢停車記錄失敗", err.Error(), "ERR_INTERNAL")
		return
	}

	history, err := services.GetUserReservations(userID, limit)
	if err != nil {
		log.Printf("Failed to get reservations for user %d: %v", userID, err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢停車記錄失敗", err.Error(), "ERR_INTERNAL")
		return
	}

	historyResponses := make([]models.ReservationResponse, len(history))
	for i, r := range history {
		historyResponses[i] = r.ToResponse()
	}

	data := gin.H{"history": historyResponses}
	if active != nil {
		data["active_reservation"] = active.ToResponse()
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", data)
}
