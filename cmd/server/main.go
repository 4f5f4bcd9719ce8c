package main

import (
	"log"

	"github.com/go-redis/redis/v7"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/paisa/internal/config"
	"github.com/example/paisa/internal/database"
	"github.com/example/paisa/internal/routes"
	"github.com/example/paisa/internal/session"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)

	if err := database.SeedCategories(db); err != nil {
		log.Printf("category seed failed: %v", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping().Err(); err != nil {
		log.Fatalf("redis ping failed: %v", err)
	}

	sessions := session.NewStore(redisClient, cfg.SessionTTL)

	holder := session.NewHolder(sessions)
	holder.Init()
	<-holder.Ready()
	go logSessionEvents(sessions.Subscribe())

	app := fiber.New(fiber.Config{
		AppName: "Paisa Backend",
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, db, sessions, cfg)

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}

func logSessionEvents(events <-chan session.Event) {
	for event := range events {
		log.Printf("session %s: user=%s session=%s", event.Type, event.Session.UserID, event.Session.ID)
	}
}
