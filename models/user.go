package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/fundtracker_backend/config"
	"bitbucket.org/mmdatafocus/fundtracker_backend/utils"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

type User struct {
	ID          int        `gorm:"primary_key" json:"id"`
	Username    string     `gorm:"size:100;not null;uniqueIndex" json:"username" binding:"required"`
	Email       string     `gorm:"size:255;not null;uniqueIndex" json:"email" binding:"required"`
	Phone       *string    `gorm:"size:30" json:"phone"`
	Password    string     `gorm:"size:255;not null" json:"-"`
	Role        UserRole   `gorm:"type:enum('admin','viewer');not null;default:'viewer'" json:"role"`
	IsActive    *bool      `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Username string  `json:"username" binding:"required"`
	Email    string  `json:"email" binding:"required"`
	Phone    *string `json:"phone"`
	Password string  `json:"password" binding:"required,min=8"`
	Role     *string `json:"role"`
}

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthPayload struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func userCacheKey(id int) string {
	return fmt.Sprintf("user:%d", id)
}

func (input *NewUser) validate() error {
	if !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email address")
	}
	if input.Phone != nil && *input.Phone != "" {
		if err := utils.ValidatePhoneNumber(*input.Phone, utils.CountryCode); err != nil {
			return fmt.Errorf("invalid phone number: %w", err)
		}
	}
	if input.Role != nil {
		switch UserRole(*input.Role) {
		case UserRoleAdmin, UserRoleViewer:
		default:
			return errors.New("invalid role")
		}
	}
	return nil
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	db := config.GetDB()

	var count int64
	if err := db.WithContext(ctx).Model(&User{}).
		Where("username = ? OR email = ?", input.Username, input.Email).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("username or email already taken")
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	role := UserRoleViewer
	if input.Role != nil {
		role = UserRole(*input.Role)
	}

	user := User{
		Username: strings.TrimSpace(input.Username),
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:    input.Phone,
		Password: string(hashed),
		Role:     role,
		IsActive: utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		// The unique indexes are the source of truth; the count above only
		// gives a friendlier error for the common case.
		if isDuplicateKeyErr(err) {
			return nil, errors.New("username or email already taken")
		}
		return nil, err
	}

	return &user, nil
}

func Login(ctx context.Context, input *LoginInput) (*AuthPayload, error) {
	db := config.GetDB()

	var user User
	err := db.WithContext(ctx).
		Where("username = ? OR email = ?", input.Username, strings.ToLower(input.Username)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid credentials")
		}
		return nil, err
	}
	if user.IsActive != nil && !*user.IsActive {
		return nil, errors.New("account is disabled")
	}
	if err := utils.ComparePassword(user.Password, input.Password); err != nil {
		return nil, errors.New("invalid credentials")
	}

	token, err := utils.JwtGenerate(user.ID, string(user.Role), user.Username)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	_ = db.WithContext(ctx).Model(&User{}).Where("id = ?", user.ID).
		Update("last_login_at", &now).Error
	user.LastLoginAt = &now

	_ = config.SetRedisObject(userCacheKey(user.ID), user, time.Hour)

	return &AuthPayload{Token: token, User: user}, nil
}

// GetUserById serves from the Redis cache when warm and falls back to MySQL.
func GetUserById(ctx context.Context, id int) (*User, error) {
	var user User
	if found, err := config.GetRedisObject(userCacheKey(id), &user); err == nil && found {
		return &user, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}

	_ = config.SetRedisObject(userCacheKey(id), user, time.Hour)
	return &user, nil
}
