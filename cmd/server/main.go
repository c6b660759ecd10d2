package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"road-damage-detector/internal/client"
	"road-damage-detector/internal/config"
	"road-damage-detector/internal/database"
	"road-damage-detector/internal/handler"
	"road-damage-detector/internal/healthgrpc"
	"road-damage-detector/internal/metrics"
	"road-damage-detector/internal/repository"
	"road-damage-detector/internal/service"
	"road-damage-detector/internal/session"
	"road-damage-detector/internal/stream"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.LoadConfig()

	// Инициализируем логгер
	logger := newLogger(cfg)
	logger.Info("Запуск Road Damage Detector API Server")

	// Инициализируем базу данных
	logger.Infof("Подключение к базе данных (%s)...", cfg.Database.Driver)
	db, err := database.Open(cfg)
	if err != nil {
		logger.Fatalf("Ошибка подключения к базе данных: %v", err)
	}
	defer database.Close(db)

	// Выполняем миграции
	logger.Info("Выполнение миграций базы данных...")
	if err := database.Migrate(db); err != nil {
		logger.Fatalf("Ошибка выполнения миграций: %v", err)
	}

	// Проверяем здоровье базы данных
	if err := database.HealthCheck(db); err != nil {
		logger.Fatalf("База данных недоступна: %v", err)
	}

	logger.Info("База данных успешно подключена и готова к работе")

	// Создаем папку для статических файлов
	if err := os.MkdirAll(cfg.Storage.StaticDir, 0755); err != nil {
		logger.Fatalf("Ошибка создания папки для статических файлов: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Инициализируем зависимости
	m := metrics.New()
	analysisRepo := repository.NewAnalysisRepository(db)
	sessions := session.NewRegistry()
	detector := client.NewDetectorClient(cfg.Detector.BaseURL, cfg.Detector.Timeout, logger, m)

	hub := stream.NewHub(logger)
	go hub.Run(ctx)

	analysisService := service.NewAnalysisService(detector, analysisRepo, sessions, m, hub, logger, cfg.Storage.StaticDir)
	analysisHandler := handler.NewAnalysisHandler(analysisService, hub, logger, cfg.Storage.MaxUploadSize)

	// gRPC health для балансировщиков и оркестратора
	healthServer := healthgrpc.NewServer(logger)
	grpcListener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.GRPC.Port))
	if err != nil {
		logger.Fatalf("Ошибка открытия порта gRPC: %v", err)
	}
	go func() {
		if err := healthServer.Serve(grpcListener); err != nil {
			logger.Errorf("gRPC сервер остановлен: %v", err)
		}
	}()
	go healthServer.Watch(ctx, detector, cfg.Detector.HealthInterval)

	// Настраиваем Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Добавляем middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Регистрируем маршруты
	analysisHandler.RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	// Добавляем базовый маршрут для проверки
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message":  "Road Damage Detector API Server",
			"version":  service.Version,
			"status":   "running",
			"detector": detector.BaseURL(),
		})
	})

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		logger.Infof("Сервер запущен на %s", serverAddr)
		logger.Infof("API доступно по адресу: http://localhost:%d/api/v1", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Ошибка запуска сервера: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Остановка сервера...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Ошибка остановки HTTP сервера: %v", err)
	}
	healthServer.Stop()

	logger.Info("Сервер остановлен")
}

// newLogger настраивает logrus по конфигурации
func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}

// corsMiddleware добавляет заголовки CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
