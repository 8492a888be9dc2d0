package main

import (
	"log"
	"os"
	"time"

	"mindwell/internal/activity"
	"mindwell/internal/api"
	"mindwell/internal/auth"
	"mindwell/internal/config"
	"mindwell/internal/crisis"
	"mindwell/internal/ledger"
	"mindwell/internal/notify"
	"mindwell/internal/redis"
	"mindwell/internal/sentiment"
	"mindwell/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := os.Getenv("MINDWELL_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbType := os.Getenv("MINDWELL_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	log.Printf("dbType: %s\n", dbType)
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := storage.Migrate(db, dbType); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	// The cache is an accelerator, not a dependency; run without it when the
	// server is unreachable.
	var cache *redis.Client
	if rdb, err := redis.NewRedisClient(cfg); err != nil {
		log.Printf("redis unavailable, continuing without cache: %v", err)
	} else {
		cache = rdb
		defer rdb.Close()
	}

	ledgerService := ledger.NewService(db, dbType, ledger.Options{
		Cache:            cache,
		SkipSameDayCount: cfg.Checkin.SkipSameDayCount,
	})

	var sms notify.SMSSender
	if sender := notify.NewTwilioSender(cfg.Notify.Twilio); sender != nil {
		sms = sender
	}
	var email notify.EmailSender
	if sender := notify.NewSMTPSender(cfg.Notify.SMTP); sender != nil {
		email = sender
	}
	dispatcher := notify.NewDispatcher(cfg, notify.Options{
		SMS:   sms,
		Email: email,
		Cache: cache,
	})

	authService := auth.NewService(db, dbType, 24*time.Hour)
	handlers := api.NewHandler(
		sentiment.NewScorer(cfg),
		crisis.NewAnalyzer(),
		crisis.NewResponder(),
		activity.NewEngine(),
		ledgerService,
		dispatcher,
		authService,
		cfg.BasicConfig.DefaultLocation,
	)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
