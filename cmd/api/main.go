package main

import (
	"context"
	"fmt"
	"log"

	"tableaux-api/core"
)

func main() {
	cfg, err := core.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	ctx := context.Background()

	logCloser, err := core.SetupLogging(cfg, "api.log")
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	db, err := core.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	redisClient, err := core.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer redisClient.Close()

	blobs, err := core.NewS3Store(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to init object store: %v", err)
	}

	users := core.NewPgUserRepository(db)
	galleries := core.NewPgGalleryRepository(db)
	photos := core.NewPgPhotoRepository(db)
	queue := core.NewRedisQueue(redisClient)
	limiter := core.NewLoginLimiter(redisClient, cfg.LoginRateLimit, cfg.LoginRateWindow)

	router := core.NewRouter(cfg, users, galleries, photos, blobs, queue, limiter, redisClient)

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("starting api server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
