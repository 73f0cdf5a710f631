package main

import (
	"context"
	"log"

	"go-parking-payment/config"
	"go-parking-payment/internal/database"
	"go-parking-payment/internal/handler"
	"go-parking-payment/internal/kvstore"
	"go-parking-payment/internal/queue"
	"go-parking-payment/internal/repository"
	"go-parking-payment/internal/service"
	"go-parking-payment/internal/store"
	"go-parking-payment/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer pool.Close()

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	defer rdb.Close()

	// 儲存層：票券與儲值紀錄走通用 kv 端口，餘額用 Lua 原子扣款
	kv := kvstore.NewRedisStore(rdb)
	ticketStore := store.NewTicketStore(kv)
	topUpStore := store.NewTopUpStore(kv)
	balanceStore := store.NewRedisBalanceStore(rdb)

	userRepo := repository.NewUserRepository(pool)

	authService := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	ticketService := service.NewTicketService(ticketStore, balanceStore)
	walletService := service.NewWalletService(balanceStore, topUpStore)

	// 到期提醒
	noticeQueue := queue.NewNoticeQueue(64)
	expiryWorker := worker.NewExpiryWorker(ticketStore, noticeQueue, cfg.Parking.NotifyBefore, cfg.Parking.WatchInterval)
	if err := expiryWorker.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start expiry worker: %v", err)
	}

	router := gin.Default()
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	auth := handler.AuthRequired(authService)
	handler.NewAuthHandler(authService).RegisterRoutes(router)
	handler.NewZoneHandler().RegisterRoutes(router)
	handler.NewTicketHandler(ticketService, expiryWorker, cfg.Parking.DefaultExtensionMin).RegisterRoutes(router, auth)
	handler.NewWalletHandler(walletService).RegisterRoutes(router, auth)

	router.Run(":" + cfg.Server.Port)
}
