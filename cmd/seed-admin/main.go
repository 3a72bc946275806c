// seed-admin creates or updates the dashboard admin user.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
//
// Override the defaults with ADMIN_USERNAME / ADMIN_PASSWORD / ADMIN_EMAIL.
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/fundtracker_backend/config"
	"bitbucket.org/mmdatafocus/fundtracker_backend/models"
	"bitbucket.org/mmdatafocus/fundtracker_backend/utils"
	"gorm.io/gorm"
)

const (
	defaultAdminUsername = "fundAdmin"
	defaultAdminPassword = "Fund@dm1n"
	defaultAdminEmail    = "admin@fundtracker.local"
)

func envOr(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	adminUsername := envOr("ADMIN_USERNAME", defaultAdminUsername)
	adminPassword := envOr("ADMIN_PASSWORD", defaultAdminPassword)
	adminEmail := envOr("ADMIN_EMAIL", defaultAdminEmail)

	models.MigrateTable()

	hashed, err := utils.HashPassword(adminPassword)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}
	hashedStr := string(hashed)

	var existing models.User
	err = db.WithContext(ctx).Model(&models.User{}).Where("username = ?", adminUsername).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
			os.Exit(1)
		}
		// Create new admin user
		u := models.User{
			Username: adminUsername,
			Email:    adminEmail,
			Password: hashedStr,
			Role:     models.UserRoleAdmin,
			IsActive: utils.NewTrue(),
		}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created admin user: username=%q\n", adminUsername)
		return
	}

	// Update existing user: ensure password and admin role
	if err := db.WithContext(ctx).Model(&models.User{}).Where("username = ?", adminUsername).Updates(map[string]any{
		"password":  hashedStr,
		"email":     adminEmail,
		"is_active": utils.NewTrue(),
		"role":      models.UserRoleAdmin,
	}).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", err)
		os.Exit(1)
	}
	_ = config.RemoveRedisKey(fmt.Sprintf("user:%d", existing.ID))
	fmt.Printf("Updated admin user: username=%q\n", adminUsername)
}
