package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"chaikada/backend/internal/models"
	"chaikada/backend/internal/storage"
	"chaikada/backend/internal/sweep"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI
	sweeper := sweep.NewService(storageSvc)

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command>")
		fmt.Println("Commands: sweep, cleanup-messages, cleanup-rooms, cleanup-queue, cleanup-presence, stats")
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "sweep":
		sweeper.RunOnce()
		fmt.Println("Full sweep complete.")
	case "cleanup-messages":
		deleted, err := sweeper.SweepMessages()
		if err != nil {
			log.Fatalf("Error sweeping messages: %v", err)
		}
		fmt.Printf("Hard-deleted %d expired messages.\n", deleted)
	case "cleanup-rooms":
		reclaimed, err := sweeper.SweepRooms()
		if err != nil {
			log.Fatalf("Error sweeping rooms: %v", err)
		}
		fmt.Printf("Hard-deleted %d expired or abandoned rooms.\n", reclaimed)
	case "cleanup-queue":
		purged, err := sweeper.SweepQueue()
		if err != nil {
			log.Fatalf("Error sweeping queue: %v", err)
		}
		fmt.Printf("Purged %d stale queue entries.\n", purged)
	case "cleanup-presence":
		flipped, err := sweeper.SweepPresence()
		if err != nil {
			log.Fatalf("Error sweeping presence: %v", err)
		}
		fmt.Printf("Marked %d inactive users offline.\n", flipped)
	case "stats":
		online, err := storageSvc.CountOnlineUsers(time.Now().Add(-models.OnlineWindow), 0)
		if err != nil {
			log.Fatalf("Error counting online users: %v", err)
		}
		fmt.Printf("Online users: %d\n", online)
	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}
