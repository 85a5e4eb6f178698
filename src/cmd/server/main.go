package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/api-sage/wealthpay/src/internal/adapter/http/controller"
	"github.com/api-sage/wealthpay/src/internal/adapter/http/middleware"
	"github.com/api-sage/wealthpay/src/internal/adapter/http/router"
	"github.com/api-sage/wealthpay/src/internal/adapter/repository/postgres"
	"github.com/api-sage/wealthpay/src/internal/config"
	"github.com/api-sage/wealthpay/src/internal/domain"
	"github.com/api-sage/wealthpay/src/internal/usecase/services"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := postgres.RunMigrations(ctx, cfg.DatabaseDSN, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}
	log.Println("initial migrations completed successfully")

	db, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	eventStore := postgres.NewEventStoreRepository(db)
	readModel := postgres.NewBalanceReadModelRepository(db)
	accountService := services.NewAccountService(eventStore, readModel, domain.RandomEventIDGenerator{})
	accountController := controller.NewAccountController(accountService)

	channelKeyHash, err := bcrypt.GenerateFromPassword([]byte(cfg.ChannelKey), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash channel key: %v", err)
	}
	authMiddleware := middleware.BasicAuth(cfg.ChannelID, channelKeyHash)

	mux := router.New(accountController, authMiddleware)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	log.Printf("http server listening on %s", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("http server: %v", err)
	}
}
