package services

import (
	"errors"
	"fmt"
	"log"
	"parkbook/database"
	"parkbook/models"
	"parkbook/utils"

	"gorm.io/gorm"
)

// RegisterUser 註冊會員
func RegisterUser(user *models.User) error {
	// 檢查是否有重複的 username 或 email
	var existing models.User
	if err := database.DB.Where("username = ?", user.Username).First(&existing).Error; err == nil {
		return ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Failed to check for duplicate username: %v", err)
		return fmt.Errorf("failed to check for duplicate username: %w", err)
	}

	if err := database.DB.Where("email = ?", user.Email).First(&existing).Error; err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Failed to check for duplicate email: %v", err)
		return fmt.Errorf("failed to check for duplicate email: %w", err)
	}

	// 哈希密碼
	hashedPassword, err := utils.HashPassword(user.Password)
	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = hashedPassword

	if err := database.DB.Create(user).Error; err != nil {
		log.Printf("Failed to register user: %v", err)
		return fmt.Errorf("failed to register user: %w", err)
	}

	log.Printf("Successfully registered user with ID %d", user.UserID)
	return nil
}

// LoginUser 登入會員，驗證失敗一律回傳相同錯誤避免洩漏帳號是否存在
func LoginUser(username, password string) (*models.User, error) {
	var user models.User
	if err := database.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("User %q not found", username)
			return nil, ErrInvalidCredentials
		}
		log.Printf("Failed to login user %q: %v", username, err)
		return nil, fmt.Errorf("failed to login user: %w", err)
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		log.Printf("Invalid password for user %q", username)
		return nil, ErrInvalidCredentials
	}

	log.Printf("User %d logged in successfully", user.UserID)
	return &user, nil
}

// GetUserByID 根據ID查詢會員
func GetUserByID(id int) (*models.User, error) {
	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		log.Printf("Failed to get user by ID %d: %v", id, err)
		return nil, fmt.Errorf("failed to get user by ID %d: %w", id, err)
	}
	return &user, nil
}

// UpdateProfile 更新會員資料，只接受白名單內的欄位
func UpdateProfile(id int, updatedFields map[string]interface{}) error {
	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user with ID %d: %w", id, err)
	}

	mappedFields := make(map[string]interface{})
	for key, value := range updatedFields {
		switch key {
		case "full_name", "email", "phone", "address", "pin_code":
			str, ok := value.(string)
			if !ok {
				return fmt.Errorf("%w: %s must be a string", ErrInvalidInput, key)
			}
			mappedFields[key] = str
		case "password":
			str, ok := value.(string)
			if !ok {
				return fmt.Errorf("%w: password must be a string", ErrInvalidInput)
			}
			hashed, err := utils.HashPassword(str)
			if err != nil {
				log.Printf("Failed to hash password for user %d: %v", id, err)
				return fmt.Errorf("failed to hash password: %w", err)
			}
			mappedFields["password"] = hashed
		default:
			log.Printf("Ignoring invalid field: %s", key)
			continue
		}
	}

	if len(mappedFields) == 0 {
		return fmt.Errorf("%w: no valid fields to update", ErrInvalidInput)
	}

	if err := database.DB.Model(&user).Updates(mappedFields).Error; err != nil {
		log.Printf("Failed to update user with ID %d: %v", id, err)
		return fmt.Errorf("failed to update user with ID %d: %w", id, err)
	}

	log.Printf("Successfully updated user with ID %d", id)
	return nil
}
