package handlers

import (
	"log"
	"net/http"
	"parkbook/models"
	"parkbook/services"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// parseReportWindow 解析報表查詢參數：?days= 往回天數（預設 30）、?lot_ids= 逗號分隔
func parseReportWindow(c *gin.Context) ([]int, time.Time, time.Time, bool) {
	days := 30
	if daysStr := c.Query("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil || parsed <= 0 || parsed > 365 {
			ErrorResponse(c, http.StatusBadRequest, "無效的 days 參數", "days must be between 1 and 365", "ERR_INVALID_INPUT")
			return nil, time.Time{}, time.Time{}, false
		}
		days = parsed
	}

	var lotIDs []int
	if idsStr := c.Query("lot_ids"); idsStr != "" {
		for _, part := range strings.Split(idsStr, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				ErrorResponse(c, http.StatusBadRequest, "無效的 lot_ids 參數", "lot_ids must be comma-separated integers", "ERR_INVALID_INPUT")
				return nil, time.Time{}, time.Time{}, false
			}
			lotIDs = append(lotIDs, id)
		}
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -(days - 1))
	return lotIDs, from, to, true
}

// GetOccupancyReport 查詢每日占用統計
func GetOccupancyReport(c *gin.Context) {
	lotIDs, from, to, ok := parseReportWindow(c)
	if !ok {
		return
	}

	report, err := services.DailyOccupancy(lotIDs, from, to)
	if err != nil {
		log.Printf("Failed to build occupancy report: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢占用統計失敗", err.Error(), "ERR_INTERNAL")
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", report)
}

// GetRevenueReport 查詢每日營收統計
func GetRevenueReport(c *gin.Context) {
	lotIDs, from, to, ok := parseReportWindow(c)
	if !ok {
		return
	}

	report, err := services.DailyRevenue(lotIDs, from, to)
	if err != nil {
		log.Printf("Failed to build revenue report: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢營收統計失敗", err.Error(), "ERR_INTERNAL")
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", report)
}

// GetRecentReservations 查詢最近的預約記錄供管理端總覽
func GetRecentReservations(c *gin.Context) {
	limit := 100
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			ErrorResponse(c, http.StatusBadRequest, "無效的 limit 參數", "limit must be a positive integer", "ERR_INVALID_INPUT")
			return
		}
		limit = parsed
	}

	reservations, err := services.GetRecentReservations(limit)
	if err != nil {
		log.Printf("Failed to query recent reservations: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢預約記錄失敗", err.Error(), "ERR_INTERNAL")
		return
	}

	responses := make([]models.ReservationResponse, len(reservations))
	for i := range reservations {
		responses[i] = reservations[i].ToResponse()
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", responses)
}
