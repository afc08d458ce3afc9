package routes

import (
	"errors"
	"log"
	"net/http"
	"parkbook/handlers"
	"parkbook/utils"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RequestIDMiddleware 為每個請求產生追蹤用的 X-Request-ID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// AuthMiddleware 驗證 JWT token，並提取 user_id 和 is_admin
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "缺少 Authorization 標頭",
				"error":   "Authorization header is required",
				"code":    "ERR_NO_AUTH_HEADER",
			})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的 Authorization 格式",
				"error":   "Authorization header must be in the format 'Bearer <token>'",
				"code":    "ERR_INVALID_AUTH_FORMAT",
			})
			c.Abort()
			return
		}

		tokenString := parts[1]

		// 明確要求檢查 exp 字段
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return utils.JWTSecret, nil
		}, jwt.WithExpirationRequired())

		if err != nil {
			log.Printf("Token parsing error: %v", err)
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.JSON(http.StatusUnauthorized, gin.H{
					"status":  false,
					"message": "token 已過期",
					"error":   "Token has expired",
					"code":    "ERR_TOKEN_EXPIRED",
				})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{
					"status":  false,
					"message": "無效的 token",
					"error":   err.Error(),
					"code":    "ERR_INVALID_TOKEN",
				})
			}
			c.Abort()
			return
		}

		// 檢查 Claims 是否有效
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			log.Printf("Invalid token claims or token is not valid")
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的 token 內容",
				"error":   "Invalid token claims or token is not valid",
				"code":    "ERR_INVALID_CLAIMS",
			})
			c.Abort()
			return
		}

		// 確認 exp 字段存在
		if exp, ok := claims["exp"].(float64); !ok {
			log.Printf("Missing or invalid exp in token")
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的 token 內容",
				"error":   "Missing or invalid exp claim",
				"code":    "ERR_INVALID_CLAIMS",
			})
			c.Abort()
			return
		} else if int64(exp) < time.Now().Unix() {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "token 已過期",
				"error":   "Token has expired",
				"code":    "ERR_TOKEN_EXPIRED",
			})
			c.Abort()
			return
		}

		// 確認 user_id 字段
		userID, ok := claims["user_id"].(float64)
		if !ok {
			log.Printf("Missing or invalid user_id in token")
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的會員 ID",
				"error":   "Invalid user_id in token",
				"code":    "ERR_INVALID_USER_ID",
			})
			c.Abort()
			return
		}

		// 確認 is_admin 字段
		isAdmin, ok := claims["is_admin"].(bool)
		if !ok {
			log.Printf("Missing or invalid is_admin in token")
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的角色",
				"error":   "Invalid is_admin in token",
				"code":    "ERR_INVALID_ROLE",
			})
			c.Abort()
			return
		}

		c.Set("user_id", int(userID))
		c.Set("is_admin", isAdmin)

		c.Next()
	}
}

// AdminMiddleware 檢查會員是否為管理員
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		isAdmin, exists := c.Get("is_admin")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無法獲取角色資訊",
				"error":   "Role not found in context",
				"code":    "ERR_ROLE_NOT_FOUND",
			})
			c.Abort()
			return
		}

		if isAdmin != true {
			c.JSON(http.StatusForbidden, gin.H{
				"status":  false,
				"message": "權限不足",
				"error":   "Admin privileges required",
				"code":    "ERR_INSUFFICIENT_PERMISSIONS",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func Path(router *gin.RouterGroup) {
	// 版本控制
	v1 := router.Group("/v1")
	{
		// 測試路由
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(200, gin.H{"message": "pong"})
		})

		// 會員路由
		users := v1.Group("/users")
		{
			// 公開路由：不需要 token 驗證
			users.POST("/register", handlers.RegisterUser) // 註冊會員
			users.POST("/login", handlers.LoginUser)       // 登入會員並獲取 token

			// 受保護路由：需要 token 驗證
			usersWithAuth := users.Group("")
			usersWithAuth.Use(AuthMiddleware())
			{
				usersWithAuth.GET("/profile", handlers.GetProfile)             // 查看個人資料
				usersWithAuth.PUT("/profile", handlers.UpdateProfile)          // 更新個人資料
				usersWithAuth.GET("/reservations", handlers.GetMyReservations) // 查詢自己的停車記錄
				usersWithAuth.GET("/spending", handlers.GetMySpending)         // 查詢自己的消費分析
				// 管理員專屬路由
				usersWithAuth.GET("", AdminMiddleware(), handlers.ListUsers)                      // 查詢會員
				usersWithAuth.GET("/:id/spending", AdminMiddleware(), handlers.GetUserSpending) // 查詢特定會員的消費分析
			}
		}

		// 預約路由
		reservations := v1.Group("/reservations")
		reservations.Use(AuthMiddleware())
		{
			reservations.POST("", handlers.BookSpot)                    // 預訂車位
			reservations.POST("/:id/release", handlers.ReleaseSpot)     // 結束停車並結算
			reservations.GET("/:id/estimate", handlers.EstimateCost)    // 估算目前費用
		}

		// 停車場路由
		lots := v1.Group("/lots")
		lots.Use(AuthMiddleware())
		{
			lots.GET("", handlers.GetLots)     // 查詢停車場（支援搜尋）
			lots.GET("/:id", handlers.GetLot)  // 查詢特定停車場
			// 管理員專屬路由
			lots.POST("", AdminMiddleware(), handlers.CreateLot)             // 建立停車場
			lots.PUT("/:id", AdminMiddleware(), handlers.UpdateLot)          // 更新停車場（含容量調整）
			lots.DELETE("/:id", AdminMiddleware(), handlers.DeleteLot)       // 刪除停車場
			lots.GET("/:id/spots", AdminMiddleware(), handlers.GetLotSpots)  // 查詢停車場車位
		}

		// 車位路由
		spots := v1.Group("/spots")
		spots.Use(AuthMiddleware(), AdminMiddleware())
		{
			spots.GET("/:id", handlers.GetSpot)       // 查詢特定車位（含估算）
			spots.DELETE("/:id", handlers.DeleteSpot) // 刪除車位並保留歷史
		}

		// 報表路由
		reports := v1.Group("/reports")
		reports.Use(AuthMiddleware(), AdminMiddleware())
		{
			reports.GET("/occupancy", handlers.GetOccupancyReport)        // 每日占用統計
			reports.GET("/revenue", handlers.GetRevenueReport)            // 每日營收統計
			reports.GET("/reservations", handlers.GetRecentReservations)  // 最近預約總覽
		}
	}
}
