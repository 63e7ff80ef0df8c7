package main

import (
	"context"
	"log"
	"os"

	"feastly-backend/cmd/config"
	migration "feastly-backend/cmd/database/migrate"
	"feastly-backend/cmd/database/seeder"
	"feastly-backend/internal/utils"
)

func main() {
	utils.LoadConfig()

	db, err := config.ConnectDB()
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := migration.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	if err := seeder.Seed(context.Background(), db); err != nil {
		log.Fatalf("failed to seed catalogs: %v", err)
	}

	app, err := config.NewApp(db)
	if err != nil {
		log.Fatalf("failed to set up app: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
