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

// CreateLot 建立停車場
func CreateLot(c *gin.Context) {
	var lot models.ParkingLot
	if err := c.ShouldBindJSON(&lot); err != nil {
		log.Printf("Invalid input data: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error(), "ERR_INVALID_INPUT")
		return
	}

	if err := services.CreateLot(&lot); err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error(), "ERR_INVALID_INPUT")
			return
		}
		log.Printf("Failed to create parking lot: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "建立停車場失敗", err.Error(), "ERR_INTERNAL")
		return
	}

	SuccessResponse(c, http.StatusOK, "停車場建立成功", lot.ToResponse())
}

// GetLots 查詢停車場，支援 ?q= 子字串搜尋
func GetLots(c *gin.Context) {
	query := c.Query("q")

	lots, err := services.SearchParkingLots(query)
	if err != nil {
		log.Printf("Failed to search parking lots: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢停車場失敗", err.Error(), "ERR_INTERNAL")
		return
	}

	responses := make([]models.ParkingLotResponse, len(lots))
	for i := range lots {
		responses[i] = lots[i].ToResponse()
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", responses)
}

// GetLot 查詢特定停車場
func GetLot(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		log.Printf("Invalid lot ID: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的停車場ID", err.Error(), "ERR_INVALID_ID")
		return
	}

	lot, err := services.GetLotByID(id)
	if err != nil {
		if errors.Is(err, services.ErrLotNotFound) {
			ErrorResponse(c, http.StatusNotFound, "停車場不存在", err.Error(), "ERR_NOT_FOUND")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "查詢停車場失敗", err.Error(), "ERR_INTERNAL")
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", lot.ToResponse())
}

// UpdateLot 更新停車場資料，含容量調整
func UpdateLot(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		log.Printf("Invalid lot ID: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的停車場ID", err.Error(), "ERR_INVALID_ID")
		return
	}

	var req models.UpdateParkingLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("Invalid input data: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error(), "ERR_INVALID_INPUT")
		return
	}

	if err := services.UpdateLot(id, &req); err != nil {
		switch {
		case errors.Is(err, services.ErrLotNotFound):
			ErrorResponse(c, http.StatusNotFound, "停車場不存在", err.Error(), "ERR_NOT_FOUND")
		case errors.Is(err, services.ErrCannotShrink):
			ErrorResponse(c, http.StatusConflict, "無法縮減容量：可用車位不足", err.Error(), "ERR_CANNOT_SHRINK")
		case errors.Is(err, services.ErrInvalidInput):
			ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error(), "ERR_INVALID_INPUT")
		default:
			log.Printf("Failed to update parking lot %d: %v", id, err)
			ErrorResponse(c, http.StatusInternalServerError, "更新停車場失敗", err.Error(), "ERR_INTERNAL")
		}
		return
	}

	SuccessResponse(c, http.StatusOK, "停車場更新成功", nil)
}

// DeleteLot 刪除停車場
func DeleteLot(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		log.Printf("Invalid lot ID: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的停車場ID", err.Error(), "ERR_INVALID_ID")
		return
	}

	if err := services.DeleteLot(id); err != nil {
		switch {
		case errors.Is(err, services.ErrLotNotFound):
			ErrorResponse(c, http.StatusNotFound, "停車場不存在", err.Error(), "ERR_NOT_FOUND")
		case errors.Is(err, services.ErrLotHasOccupiedSpots):
			ErrorResponse(c, http.StatusConflict, "無法刪除：停車場尚有使用中的車位", err.Error(), "ERR_LOT_OCCUPIED")
		default:
			log.Printf("Failed to delete parking lot %d: %v", id, err)
			ErrorResponse(c, http.StatusInternalServerError, "刪除停車場失敗", err.Error(), "ERR_INTERNAL")
		}
		return
	}

	SuccessResponse(c, http.StatusOK, "停車場刪除成功", nil)
}

// GetLotSpots 查詢停車場的所有車位
func GetLotSpots(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		log.Printf("Invalid lot ID: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的停車場ID", err.Error(), "ERR_INVALID_ID")
		return
	}

	spots, err := services.SpotsForLot(id)
	if err != nil {
		if errors.Is(err, services.ErrLotNotFound) {
			ErrorResponse(c, http.StatusNotFound, "停車場不存在", err.Error(), "ERR_NOT_FOUND")
			return
		}
		log.Printf("Failed to query spots for lot %d: %v", id, err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢車位失敗", err.Error(), "ERR_INTERNAL")
		return
	}

	responses := make([]models.ParkingSpotResponse, len(spots))
	for i := range spots {
		responses[i] = spots[i].ToResponse()
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", responses)
}

// GetSpot 查詢特定車位，若使用中則附帶進行中的預約與估算費用
func GetSpot(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		log.Printf("Invalid spot ID: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的車位ID", err.Error(), "ERR_INVALID_ID")
		return
	}

	spot, err := services.GetSpotByID(id)
	if err != nil {
		if errors.Is(err, services.ErrSpotNotFound) {
			ErrorResponse(c, http.StatusNotFound, "車位不存在", err.Error(), "ERR_NOT_FOUND")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "查詢車位失敗", err.Error(), "ERR_INTERNAL")
		return
	}

	data := gin.H{"spot": spot.ToResponse()}

	if spot.Status == models.SpotStatusOccupied {
		reservation, err := services.GetActiveReservationForSpot(id)
		if err != nil {
			log.Printf("Failed to get active reservation for spot %d: %v", id, err)
			ErrorResponse(c, http.StatusInternalServerError, "查詢車位失敗", err.Error(), "ERR_INTERNAL")
			return
		}
		if reservation != nil {
			cost, hours, err := services.EstimateCurrentCost(reservation.ReservationID, time.Now().UTC())
			if err != nil {
				log.Printf("Failed to estimate cost for reservation %d: %v", reservation.ReservationID, err)
				ErrorResponse(c, http.StatusInternalServerError, "估算費用失敗", err.Error(), "ERR_INTERNAL")
				return
			}
			data["reservation"] = reservation.ToResponse()
			data["estimated_cost"] = cost
			data["estimated_hours"] = hours
		}
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", data)
}

// DeleteSpot 刪除車位並保留歷史預約
func DeleteSpot(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		log.Printf("Invalid spot ID: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的車位ID", err.Error(), "ERR_INVALID_ID")
		return
	}

	if err := services.DeleteSpot(id); err != nil {
		switch {
		case errors.Is(err, services.ErrSpotNotFound):
			ErrorResponse(c, http.StatusNotFound, "車位不存在", err.Error(), "ERR_NOT_FOUND")
		case errors.Is(err, services.ErrSpotOccupied):
			ErrorResponse(c, http.StatusConflict, "無法刪除：車位使用中或仍有進行中的預約", err.Error(), "ERR_SPOT_OCCUPIED")
		default:
			log.Printf("Failed to delete spot %d: %v", id, err)
			ErrorResponse(c, http.StatusInternalServerError, "刪除車位失敗", err.Error(), "ERR_INTERNAL")
		}
		return
	}

	SuccessResponse(c, http.StatusOK, "車位刪除成功", nil)
}
