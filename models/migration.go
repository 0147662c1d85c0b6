package models

import (
	"log"

	"gorm.io/gorm"
)

func MigrateTable(db *gorm.DB) {
	err := db.AutoMigrate(
		&Product{}, &ProductDenomination{},
		&Customer{}, &RewardsTransaction{},
		&Order{}, &OrderItem{},
		&User{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
