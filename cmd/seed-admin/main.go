package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gifthouse/pos_backend/config"
	"github.com/gifthouse/pos_backend/models"
)

// Seeds the initial back-office user. Run once per environment:
//
//	ADMIN_USERNAME=admin ADMIN_PASSWORD=... go run ./cmd/seed-admin
func main() {
	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		fmt.Fprintln(os.Stderr, "ADMIN_USERNAME and ADMIN_PASSWORD are required")
		os.Exit(1)
	}

	logger := config.NewLogger()
	db := config.ConnectDatabaseWithRetry()
	models.MigrateTable(db)

	user, err := models.CreateUser(db, context.Background(), username, password)
	if err != nil {
		config.LogError(logger, "seed-admin", "main", "CreateUser", username, err)
		os.Exit(1)
	}

	fmt.Printf("created admin user %q (id %d)\n", user.Username, user.ID)
}
