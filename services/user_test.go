package services

import (
	"errors"
	"testing"

	"parkbook/models"
	"parkbook/utils"
)

func TestRegisterUserHashesPassword(t *testing.T) {
	setupTestDB(t)

	user := &models.User{
		Username: "alice",
		Password: "secret123",
		Email:    "alice@example.com",
		FullName: "Alice Example",
	}
	if err := RegisterUser(user); err != nil {
		t.Fatalf("RegisterUser returned error: %v", err)
	}

	stored, err := GetUserByID(user.UserID)
	if err != nil {
		t.Fatalf("GetUserByID returned error: %v", err)
	}
	if stored.Password == "secret123" {
		t.Fatalf("expected password to be hashed")
	}
	if !utils.CheckPasswordHash("secret123", stored.Password) {
		t.Fatalf("expected stored hash to verify original password")
	}
}

func TestRegisterUserDuplicateChecks(t *testing.T) {
	setupTestDB(t)
	createTestUser(t, "alice")

	err := RegisterUser(&models.User{
		Username: "alice",
		Password: "secret123",
		Email:    "other@example.com",
	})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	err = RegisterUser(&models.User{
		Username: "alice2",
		Password: "secret123",
		Email:    "alice@example.com",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginUser(t *testing.T) {
	setupTestDB(t)

	user := &models.User{
		Username: "alice",
		Password: "secret123",
		Email:    "alice@example.com",
	}
	if err := RegisterUser(user); err != nil {
		t.Fatalf("RegisterUser returned error: %v", err)
	}

	logged, err := LoginUser("alice", "secret123")
	if err != nil {
		t.Fatalf("LoginUser returned error: %v", err)
	}
	if logged.UserID != user.UserID {
		t.Fatalf("expected user %d, got %d", user.UserID, logged.UserID)
	}

	// 帳號不存在與密碼錯誤回傳相同錯誤
	if _, err := LoginUser("alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, err := LoginUser("nobody", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestUpdateProfileWhitelist(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice")

	err := UpdateProfile(user.UserID, map[string]interface{}{
		"full_name": "Alice Updated",
		"phone":     "0912345678",
		"is_admin":  true, // 非白名單欄位，應忽略
	})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}

	stored, err := GetUserByID(user.UserID)
	if err != nil {
		t.Fatalf("GetUserByID returned error: %v", err)
	}
	if stored.FullName != "Alice Updated" {
		t.Fatalf("expected updated full name, got %q", stored.FullName)
	}
	if stored.Phone != "0912345678" {
		t.Fatalf("expected updated phone, got %q", stored.Phone)
	}
	if stored.IsAdmin {
		t.Fatalf("expected is_admin to be ignored by profile update")
	}
}

func TestUpdateProfilePasswordIsRehashed(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice")

	err := UpdateProfile(user.UserID, map[string]interface{}{"password": "newsecret"})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}

	stored, err := GetUserByID(user.UserID)
	if err != nil {
		t.Fatalf("GetUserByID returned error: %v", err)
	}
	if stored.Password == "newsecret" {
		t.Fatalf("expected password to be hashed")
	}
	if !utils.CheckPasswordHash("newsecret", stored.Password) {
		t.Fatalf("expected new password to verify")
	}
}

func TestUpdateProfileNoValidFields(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "alice")

	err := UpdateProfile(user.UserID, map[string]interface{}{"is_admin": true})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	if err := UpdateProfile(9999, map[string]interface{}{"phone": "123"}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
