package main

import (
	"chaikada/backend/internal/api/handler"
	"chaikada/backend/internal/chat"
	"chaikada/backend/internal/config"
	"chaikada/backend/internal/match"
	"chaikada/backend/internal/models"
	"chaikada/backend/internal/presence"
	"chaikada/backend/internal/storage"
	"chaikada/backend/internal/sweep"
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.UserPresence{},
		&models.QueueEntry{},
		&models.ChatRoom{},
		&models.RoomParticipant{},
		&models.ChatMessage{},
		&models.BenchInvite{},
		&models.Item{},
		&models.Purchase{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting Chaikada Backend...")

	cfg := config.Load()
	db, rdb := setupDependencies(cfg)
	s := storage.NewStorageService(db, rdb)

	tracker := presence.NewTracker(s)
	matcher := match.NewMatcherService(s)
	rooms := chat.NewRoomService(s)
	messages := chat.NewMessageService(s)
	sweeper := sweep.NewService(s)

	go sweeper.Run(context.Background(), cfg.SweepInterval)

	r := gin.Default()
	h := handler.NewHandler(s, tracker, matcher, rooms, messages, cfg.JWTSecret)
	h.RegisterRoutes(r)

	server := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Printf("Listening on :%s", cfg.ServerPort)
	log.Fatal(server.ListenAndServe())
}
