package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/bloodbridge/api/internal/config"
	"github.com/bloodbridge/api/internal/database"
	"github.com/bloodbridge/api/internal/handler"
	"github.com/bloodbridge/api/internal/middleware"
	"github.com/bloodbridge/api/internal/payment"
	"github.com/bloodbridge/api/internal/queue"
	"github.com/bloodbridge/api/internal/repository"
	"github.com/bloodbridge/api/internal/router"
	"github.com/bloodbridge/api/internal/service"
)

func main() {
	// .env is optional; in production configuration comes from the
	// process environment.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	requests := repository.NewDonationRequestRepo(db)
	fundings := repository.NewFundingRepo(db)
	blogs := repository.NewBlogRepo(db)
	directory := repository.NewDirectoryRepo(db)

	stripe := payment.NewStripeClient(cfg.StripeSecret)

	authH := handler.NewAuthHandler(cfg, users, tokens, directory)
	requestH := handler.NewRequestHandler(requests, users, directory, service.PublishDonationConfirmed)
	fundingH := handler.NewFundingHandler(fundings, users, stripe)
	blogH := handler.NewBlogHandler(blogs)
	userH := handler.NewUserHandler(users, directory)
	overviewH := handler.NewOverviewHandler(users, requests, fundings)
	directoryH := handler.NewDirectoryHandler(directory)

	if err := queue.StartDonationConsumer(); err != nil {
		// The API stays up without the broker; claims still commit and
		// only event fan-out is lost.
		log.Printf("rabbitmq consumer disabled: %v", err)
	}

	e := echo.New()
	e.HideBanner = true

	rdb := config.NewRedisClient()
	var cache echo.MiddlewareFunc
	if rdb != nil {
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
		cache = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	}

	router.RegisterRoutes(e)
	router.RegisterPublic(e, directoryH, requestH, blogH, userH, cache)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterMember(e, requestH, userH, fundingH, overviewH, users, cfg.JWTSecret)
	router.RegisterStaff(e, requestH, blogH, users, cfg.JWTSecret)
	router.RegisterAdmin(e, userH, blogH, overviewH, users, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
