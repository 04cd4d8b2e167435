package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"scenegen-server/internal/config"
	"scenegen-server/internal/database"
	"scenegen-server/internal/handler"
	"scenegen-server/internal/interfaces"
	"scenegen-server/internal/logger"
	"scenegen-server/internal/messaging"
	"scenegen-server/internal/middleware"
	"scenegen-server/internal/service"
	"scenegen-server/internal/speech"
	"scenegen-server/internal/stock"
	pgdb "scenegen-server/pkg/database"
	"scenegen-server/pkg/migration"
)

func main() {
	_ = godotenv.Load()
	log.Println("Запуск Scene Generation Service...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	appLogger, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
		Service:  "scenegen-server",
	})
	if err != nil {
		log.Fatalf("Не удалось инициализировать логгер: %v", err)
	}
	defer appLogger.Sync()
	appLogger.Info("Logger initialized", zap.String("logLevel", cfg.LogLevel))

	// PostgreSQL
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	dbPool, err := pgdb.New(ctx, pgdb.Config{
		DSN:             cfg.GetDSN(),
		MaxConns:        cfg.DBMaxConns,
		MaxConnIdleTime: cfg.DBIdleTimeout,
	}, appLogger)
	cancel()
	if err != nil {
		appLogger.Fatal("Не удалось подключиться к БД", zap.Error(err))
	}
	defer dbPool.Close()
	appLogger.Info("Успешное подключение к PostgreSQL")

	if cfg.DBAutoMigrate {
		migrator := migration.NewMigrator(migration.Config{
			MigrationsFS:   database.MigrationsFS,
			MigrationsPath: database.MigrationsPath,
		}, dbPool, appLogger)
		if err := migrator.Up(); err != nil {
			appLogger.Fatal("Не удалось применить миграции", zap.Error(err))
		}
	}

	// Redis: без него поиск работает, просто без кэша
	var assetCache interfaces.AssetCache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		appLogger.Warn("Redis недоступен, кэш стокового поиска отключен", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	} else {
		assetCache = database.NewRedisAssetCache(redisClient, cfg.AssetCacheTTL, appLogger)
		appLogger.Info("Успешное подключение к Redis")
	}
	pingCancel()

	// RabbitMQ
	rabbitConn, err := connectRabbitMQ(cfg.RabbitMQURL, appLogger)
	if err != nil {
		appLogger.Fatal("Не удалось подключиться к RabbitMQ", zap.Error(err))
	}
	defer rabbitConn.Close()
	appLogger.Info("Успешное подключение к RabbitMQ")

	eventPublisher, err := messaging.NewGenerationEventPublisher(rabbitConn, cfg.GenerationEventsQueue, appLogger)
	if err != nil {
		appLogger.Fatal("Не удалось создать GenerationEventPublisher", zap.Error(err))
	}
	defer eventPublisher.Close()

	// Внешние клиенты
	aiClient, err := service.NewAIClient(service.AIClientConfig{
		Type:    cfg.AIClientType,
		BaseURL: cfg.AIBaseURL,
		APIKey:  cfg.AIAPIKey,
		Model:   cfg.AIModel,
		Timeout: cfg.AITopicsTimeout,
	}, appLogger)
	if err != nil {
		appLogger.Fatal("Не удалось создать AI клиент", zap.Error(err))
	}
	contentClient := service.NewContentSynthesisClient(aiClient, service.RetryConfig{
		MaxAttempts: cfg.AIMaxAttempts,
		BaseDelay:   cfg.AIBaseRetryDelay,
	}, appLogger)

	pexelsClient := stock.NewPexelsClient(stock.Config{
		BaseURL: cfg.PexelsBaseURL,
		APIKey:  cfg.PexelsAPIKey,
		Timeout: cfg.PexelsTimeout,
	}, appLogger)
	speechClient := speech.NewElevenLabsClient(speech.Config{
		BaseURL: cfg.ElevenLabsBaseURL,
		APIKey:  cfg.ElevenLabsAPIKey,
		ModelID: cfg.ElevenLabsModel,
		Timeout: cfg.SpeechTimeout,
	}, appLogger)

	// Репозитории
	projectRepo := database.NewPgProjectRepository(appLogger)
	sceneRepo := database.NewPgSceneRepository(appLogger)
	scenarioRepo := database.NewPgScenarioRepository(appLogger)
	attemptRepo := database.NewPgAttemptRepository(appLogger)
	txHelper := database.NewTransactionHelper(dbPool, appLogger)

	// Сервисы
	scoring := service.ScoringConfig{
		Optimal:    cfg.PointsOptimal,
		Suboptimal: cfg.PointsSuboptimal,
		Poor:       cfg.PointsPoor,
	}
	if err := scoring.Validate(); err != nil {
		appLogger.Fatal("Некорректная конфигурация очков сценария", zap.Error(err))
	}

	assetResolver := service.NewAssetResolver(pexelsClient, assetCache, service.AssetResolverConfig{
		PageSize: cfg.StockPageSize,
		TopN:     cfg.StockTopN,
	}, appLogger)
	store := service.NewPersistenceCoordinator(dbPool, txHelper, projectRepo, sceneRepo, scenarioRepo, assetResolver, appLogger)

	videoService := service.NewVideoGenerationService(
		service.NewTopicGenerator(contentClient, cfg.AITopicsTimeout, appLogger),
		service.NewSceneSynthesizer(contentClient, assetResolver, cfg.AISceneTimeout, appLogger),
		service.NewQuizGenerator(contentClient, cfg.AISceneTimeout, cfg.QuizSceneBase, appLogger),
		store,
		eventPublisher,
		appLogger,
	)
	scenarioService := service.NewScenarioService(contentClient, store, dbPool, scenarioRepo, scoring, cfg.AITopicsTimeout, eventPublisher, appLogger)
	attemptService := service.NewAttemptService(dbPool, txHelper, scenarioRepo, sceneRepo, attemptRepo, appLogger)
	voiceoverService := service.NewVoiceoverService(store, speechClient, cfg.SpeechDelay, appLogger)

	sceneHandler := handler.NewSceneHandler(videoService, scenarioService, attemptService, voiceoverService, appLogger)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.Use(middleware.EchoZapLogger(appLogger))
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, middleware.HeaderUserID, middleware.HeaderTenantID},
	}))

	sceneHandler.RegisterRoutes(e)

	appLogger.Info("HTTP сервер слушает", zap.String("port", cfg.Port))
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Ошибка запуска HTTP сервера", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Получен сигнал завершения, начинаем graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Ошибка при graceful shutdown Echo", zap.Error(err))
	}

	appLogger.Info("Scene Generation Service успешно остановлен")
}

// connectRabbitMQ пытается подключиться к RabbitMQ с несколькими попытками
func connectRabbitMQ(url string, logger *zap.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	maxRetries := 5
	retryDelay := 5 * time.Second
	for i := 0; i < maxRetries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		logger.Warn("Не удалось подключиться к RabbitMQ",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Duration("retry_delay", retryDelay),
			zap.Error(err),
		)
		time.Sleep(retryDelay)
	}
	return nil, err
}
