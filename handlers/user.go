package handlers

import (
	"errors"
	"log"
	"net/http"
	"parkbook/models"
	"parkbook/services"
	"parkbook/utils"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"
)

// 電子郵件驗證 regex
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// 電話驗證字串 (例如：10 位數)
var phoneRegex = regexp.MustCompile(`^[0-9]{10}$`)

// currentUserID 從上下文取出已驗證的會員 ID
func currentUserID(c *gin.Context) (int, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		ErrorResponse(c, http.StatusUnauthorized, "未授權", "user_id not found in token", "ERR_NO_USER_ID")
		return 0, false
	}
	userID, ok := value.(int)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "未授權", "invalid user_id type", "ERR_INVALID_USER_ID")
		return 0, false
	}
	return userID, true
}

// RegisterUser 註冊會員資料檢查
func RegisterUser(c *gin.Context) {
	var user models.User
	if err := c.ShouldBindJSON(&user); err != nil {
		log.Printf("Invalid input data: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error(), "ERR_INVALID_INPUT")
		return
	}

	// 驗證電子郵件
	if user.Email == "" || !emailRegex.MatchString(user.Email) {
		ErrorResponse(c, http.StatusBadRequest, "請提供有效的電子郵件地址", "invalid email", "ERR_INVALID_INPUT")
		return
	}

	// 驗證電話（如有提供
	if user.Phone != "" && !phoneRegex.MatchString(user.Phone) {
		ErrorResponse(c, http.StatusBadRequest, "請提供有效的電話號碼（10位數字）", "invalid phone", "ERR_INVALID_INPUT")
		return
	}

	// 驗證密碼（最少 8 個字元，至少一個字母和一個數字）
	if len(user.Password) < 8 || !regexp.MustCompile(`[a-zA-Z]`).MatchString(user.Password) || !regexp.MustCompile(`[0-9]`).MatchString(user.Password) {
		ErrorResponse(c, http.StatusBadRequest, "密碼必須至少8個字符，包含字母和數字", "weak password", "ERR_INVALID_INPUT")
		return
	}

	// 註冊介面不允許自行指定管理員
	user.IsAdmin = false

	if err := services.RegisterUser(&user); err != nil {
		switch {
		case errors.Is(err, services.ErrUsernameTaken):
			ErrorResponse(c, http.StatusConflict, "該使用者名稱已被註冊", err.Error(), "ERR_USERNAME_TAKEN")
		case errors.Is(err, services.ErrEmailTaken):
			ErrorResponse(c, http.StatusConflict, "該電子郵件已被註冊", err.Error(), "ERR_EMAIL_TAKEN")
		default:
			log.Printf("Failed to register user %s: %v", user.Username, err)
			ErrorResponse(c, http.StatusInternalServerError, "註冊失敗", err.Error(), "ERR_INTERNAL")
		}
		return
	}

	SuccessResponse(c, http.StatusOK, "會員註冊成功", user.ToResponse())
}

// LoginUser 登入會員並簽發 token
func LoginUser(c *gin.Context) {
	var loginData struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&loginData); err != nil {
		log.Printf("Invalid input data: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error(), "ERR_INVALID_INPUT")
		return
	}

	user, err := services.LoginUser(loginData.Username, loginData.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			ErrorResponse(c, http.StatusUnauthorized, "登入失敗，檢查使用者名稱或密碼", err.Error(), "ERR_INVALID_CREDENTIALS")
			return
		}
		log.Printf("Login failed for username %s: %v", loginData.Username, err)
		ErrorResponse(c, http.StatusInternalServerError, "登入失敗", err.Error(), "ERR_INTERNAL")
		return
	}

	token, err := utils.GenerateToken(user.UserID, user.IsAdmin)
	if err != nil {
		log.Printf("Failed to generate token for user %d: %v", user.UserID, err)
		ErrorResponse(c, http.StatusInternalServerError, "登入失敗", err.Error(), "ERR_INTERNAL")
		return
	}

	SuccessResponse(c, http.StatusOK, "登入成功", gin.H{
		"token": token,
		"user":  user.ToResponse(),
	})
}

// GetProfile 查看個人資料
func GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := services.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			ErrorResponse(c, http.StatusNotFound, "會員不存在", err.Error(), "ERR_NOT_FOUND")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "查詢會員失敗", err.Error(), "ERR_INTERNAL")
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", user.ToResponse())
}

// UpdateProfile 更新個人資料
func UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input struct {
		FullName *string `json:"full_name"`
		Email    *string `json:"email"`
		Phone    *string `json:"phone"`
		Address  *string `json:"address"`
		PinCode  *string `json:"pin_code"`
		Password *string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Printf("Invalid input data: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error(), "ERR_INVALID_INPUT")
		return
	}

	fields := make(map[string]interface{})
	if input.FullName != nil {
		fields["full_name"] = *input.FullName
	}
	if input.Email != nil {
		if !emailRegex.MatchString(*input.Email) {
			ErrorResponse(c, http.StatusBadRequest, "請提供有效的電子郵件地址", "invalid email", "ERR_INVALID_INPUT")
			return
		}
		fields["email"] = *input.Email
	}
	if input.Phone != nil {
		if *input.Phone != "" && !phoneRegex.MatchString(*input.Phone) {
			ErrorResponse(c, http.StatusBadRequest, "請提供有效的電話號碼（10位數字）", "invalid phone", "ERR_INVALID_INPUT")
			return
		}
		fields["phone"] = *input.Phone
	}
	if input.Address != nil {
		fields["address"] = *input.Address
	}
	if input.PinCode != nil {
		fields["pin_code"] = *input.PinCode
	}
	if input.Password != nil {
		if len(*input.Password) < 8 {
			ErrorResponse(c, http.StatusBadRequest, "密碼必須至少8個字符", "weak password", "ERR_INVALID_INPUT")
			return
		}
		fields["password"] = *input.Password
	}

	if err := services.UpdateProfile(userID, fields); err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			ErrorResponse(c, http.StatusNotFound, "會員不存在", err.Error(), "ERR_NOT_FOUND")
		case errors.Is(err, services.ErrInvalidInput):
			ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error(), "ERR_INVALID_INPUT")
		default:
			log.Printf("Failed to update profile for user %d: %v", userID, err)
			ErrorResponse(c, http.StatusInternalServerError, "更新會員資料失敗", err.Error(), "ERR_INTERNAL")
		}
		return
	}

	SuccessResponse(c, http.StatusOK, "會員資料更新成功", nil)
}

// ListUsers 管理員查詢會員，支援 ?q= 子字串搜尋
func ListUsers(c *gin.Context) {
	query := c.Query("q")

	users, err := services.SearchUsers(query)
	if err != nil {
		log.Printf("Failed to search users: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢會員失敗", err.Error(), "ERR_INTERNAL")
		return
	}

	responses := make([]models.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", responses)
}

// GetUserSpending 管理員查詢特定會員的消費分析
func GetUserSpending(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		log.Printf("Invalid user ID: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的會員ID", err.Error(), "ERR_INVALID_ID")
		return
	}

	report, err := services.UserSpendingByLocationAndDate(id)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			ErrorResponse(c, http.StatusNotFound, "會員不存在", err.Error(), "ERR_NOT_FOUND")
			return
		}
		log.Printf("Failed to build spending report for user %d: %v", id, err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢消費分析失敗", err.Error(), "ERR_INTERNAL")
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", report)
}

// GetMySpending 查詢自己的消費分析
func GetMySpending(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	report, err := services.UserSpendingByLocationAndDate(userID)
	if err != nil {
		log.Printf("Failed to build spending report for user %d: %v", userID, err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢消費分析失敗", err.Error(), "ERR_INTERNAL")
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", report)
}
