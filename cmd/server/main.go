package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/services-backend/internal/config"
	"github.com/ignatzorin/services-backend/internal/db"
	httpHandlers "github.com/ignatzorin/services-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/services-backend/internal/http/router"
	"github.com/ignatzorin/services-backend/internal/logger"
	"github.com/ignatzorin/services-backend/internal/repository"
	"github.com/ignatzorin/services-backend/internal/service"
	"github.com/ignatzorin/services-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера.
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	orderRepo := repository.NewOrderRepository(dbConn)
	offerRepo := repository.NewOfferRepository(dbConn)
	reviewRepo := repository.NewReviewRepository(dbConn)
	catalogRepo := repository.NewCatalogRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	userService := service.NewUserService(userRepo, orderRepo, catalogRepo)
	orderService := service.NewOrderService(orderRepo, offerRepo, catalogRepo, userRepo, cfg.CancelGraceWindow)
	offerService := service.NewOfferService(offerRepo, orderRepo)
	reviewService := service.NewReviewService(reviewRepo, orderRepo, userRepo)
	catalogService := service.NewCatalogService(catalogRepo)
	notificationService := service.NewNotificationService(notificationRepo)

	// Стартовые данные и бутстрап администратора.
	if err := catalogService.SeedDefaults(ctx); err != nil {
		log.Fatalf("main: не удалось заполнить справочники: %v", err)
	}
	if err := userService.BootstrapAdmin(ctx, cfg.AdminBootstrapAccount); err != nil {
		log.Fatalf("main: не удалось выдать права администратора: %v", err)
	}

	// Вебсокеты.
	hub := ws.NewHub(ctx)
	hub.SetNotificationSaver(ws.NewNotificationServiceAdapter(notificationService))
	go hub.Run()

	orderService.SetHub(hub)
	offerService.SetHub(hub)
	reviewService.SetHub(hub)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService, cfg.BotGatewaySecret)
	profileHandler := httpHandlers.NewProfileHandler(userService, reviewService)
	orderHandler := httpHandlers.NewOrderHandler(orderService)
	offerHandler := httpHandlers.NewOfferHandler(offerService)
	reviewHandler := httpHandlers.NewReviewHandler(reviewService)
	catalogHandler := httpHandlers.NewCatalogHandler(catalogService)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	engine := httpRouter.SetupRouter(
		cfg,
		authHandler,
		profileHandler,
		orderHandler,
		offerHandler,
		reviewHandler,
		catalogHandler,
		notificationHandler,
		wsHandler,
		healthHandler,
		tokenManager,
	)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
