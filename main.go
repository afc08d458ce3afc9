package main

import (
	"errors"
	"log"
	"os"
	"parkbook/database"
	"parkbook/models"
	"parkbook/routes"
	"parkbook/utils"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

// ensureAdminExists 確保系統管理員帳號存在，不存在時建立預設管理員
func ensureAdminExists() error {
	var admin models.User
	err := database.DB.Where("is_admin = ?", true).First(&admin).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := utils.HashPassword("admin123")
	if err != nil {
		return err
	}

	admin = models.User{
		Username: "admin",
		Password: hashed,
		Email:    "admin@parking.com",
		FullName: "System Administrator",
		Address:  "Admin Office",
		PinCode:  "000000",
		IsAdmin:  true,
	}
	if err := database.DB.Create(&admin).Error; err != nil {
		return err
	}
	log.Println("Default admin account created (username: admin)")
	return nil
}

func main() {
	// 載入 .env 檔案
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	utils.InitJWTSecret()

	// 初始化資料庫
	database.InitDB()

	// 自動遷移資料表
	if err := database.DB.AutoMigrate(
		&models.User{},
		&models.ParkingLot{},
		&models.ParkingSpot{},
		&models.Reservation{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	if err := ensureAdminExists(); err != nil {
		log.Fatalf("Failed to ensure admin account: %v", err)
	}

	// 設定 Gin 模式
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "" {
		ginMode = gin.DebugMode
	}
	gin.SetMode(ginMode)

	r := gin.Default()

	// 設定 CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(routes.RequestIDMiddleware())

	// 註冊路由
	api := r.Group("/api")
	routes.Path(api)

	// 啟動伺服器
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
