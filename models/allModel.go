package models

import (
	"log"

	"bitbucket.org/mmdatafocus/fundtracker_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{},
		&Project{},
		&Invoice{},
		&FraudAlertRecord{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
