package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/csma94/guard-sub008/config"
	"github.com/csma94/guard-sub008/db"
	shiftHandlers "github.com/csma94/guard-sub008/internal/handlers/shift"
	"github.com/csma94/guard-sub008/internal/routes"
	"github.com/csma94/guard-sub008/internal/services/notify"
)

func main() {
	cfg := config.NewConfig()
	database := db.InitDB(cfg.DatabaseDSN)
	defer database.Close()

	redisClient := config.NewRedisClient()
	defer redisClient.Close()

	if err := ensureUploadDirs(cfg.UploadDir); err != nil {
		log.Fatalf("Failed to create upload directories: %v", err)
	}

	hub := notify.NewHub()
	router := routes.Setup(cfg, database, redisClient, hub)

	go autoEndShiftsLoop(database, hub)

	serverAddress := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("Server starting on %s", serverAddress)
	log.Fatal(http.ListenAndServe(serverAddress, router))
}

func ensureUploadDirs(uploadDir string) error {
	dirs := []string{
		filepath.Join(uploadDir, "selfies"),
		filepath.Join(uploadDir, "app"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func autoEndShiftsLoop(database *sql.DB, hub *notify.Hub) {
	log.Println("Auto-end shifts job started")
	if count, err := shiftHandlers.AutoEndShifts(database, hub); err != nil {
		log.Printf("Auto-end startup sweep failed: %v", err)
	} else if count > 0 {
		log.Printf("Startup sweep ended %d overrunning shifts", count)
	}

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		if count, err := shiftHandlers.AutoEndShifts(database, hub); err != nil {
			log.Printf("AutoEndShifts failed: %v", err)
		} else if count > 0 {
			log.Printf("AutoEndShifts: ended %d overrunning shifts", count)
		}
	}
}
