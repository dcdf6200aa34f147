package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"core/internal/cache"
	"core/internal/config"
	"core/internal/handler"
	"core/internal/repository"
	"core/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg.Logging)
	log.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("Mobile Shopping Assistant")

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize database connection
	catalog, err := repository.NewCatalogStore(
		cfg.GetPostgreSQLDSN(),
		cfg.Search.Table,
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer catalog.Close()
	log.Info().Str("table", cfg.Search.Table).Msg("✅ Connected to PostgreSQL database")

	// Name index shares the catalog's connection pool
	nameIndex := repository.NewNameIndex(catalog.DB(), cfg.Search.NamesTable, cfg.Gemini.EmbeddingDims)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := nameIndex.EnsureSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("⚠️  Name index schema setup failed - corrections disabled until fixed")
		}
		if err := catalog.EnsureLogSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("⚠️  Query log schema setup failed - turns will not be recorded")
		}
		cancel()
	}

	// Initialize Gemini client
	gemini := service.NewGeminiClient(&cfg.Gemini, log)
	if cfg.Gemini.Enabled {
		log.Info().
			Str("api_base", cfg.Gemini.APIBase).
			Str("flash_model", cfg.Gemini.FlashModel).
			Str("pro_model", cfg.Gemini.ProModel).
			Str("embedding_model", cfg.Gemini.EmbeddingModel).
			Msg("✅ Gemini client initialized")
	} else {
		log.Warn().Msg("⚠️  Gemini is disabled - set GEMINI_API_KEY to enable the assistant")
	}

	// Initialize services
	matcher := service.NewMatcher(gemini, nameIndex, cfg.Search.SimilarityThreshold, log)
	intents := service.NewIntentExtractor(gemini, cfg.Gemini.FlashModel, log)
	sqlGen := service.NewSQLGenerator(gemini, cfg.Gemini.ProModel, cfg.Search.Table, cfg.Search.ResultLimit)
	narrator := service.NewSummarizer(gemini, cfg.Gemini.FlashModel, cfg.Search.SummaryLimit)
	processor := service.NewProcessor(intents, matcher, sqlGen, catalog, narrator, log)
	indexer := service.NewIndexBuilder(catalog, gemini, nameIndex,
		time.Duration(cfg.Search.IndexBuildDelayMs)*time.Millisecond, log)
	log.Info().Msg("✅ Services initialized")

	// Optional Redis response cache
	var answerCache cache.Client
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			log.Warn().Err(err).Msg("⚠️  Redis unavailable - running without response cache")
		} else {
			defer redisCache.Close()
			answerCache = redisCache
			log.Info().Str("addr", cfg.Cache.Addr).Msg("✅ Response cache enabled")
		}
	}

	// Initialize handlers
	assistHandler := handler.NewAssistHandler(processor, answerCache, cfg.Cache.TTL, catalog, log)
	metaHandler := handler.NewMetaHandler(catalog, indexer, log)

	// Setup Gin router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":     "healthy",
			"service":    "mobile-shopping-assistant",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		// Conversational endpoints
		apiV1.POST("/ask", assistHandler.Ask)
		apiV1.POST("/ask/stream", assistHandler.AskStream) // Streaming with status events

		// Catalog metadata
		apiV1.GET("/meta/filters", metaHandler.Filters)
		apiV1.GET("/phones", metaHandler.Phones)
		apiV1.POST("/compare", metaHandler.Compare)

		// Administrative
		apiV1.POST("/index/build", metaHandler.BuildIndex)
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("🚀 Starting server")

	go func() {
		if err := router.Run(addr); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("🛑 Shutting down server")
}

// newLogger builds the process logger from config.
func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out = os.Stderr
	logger := zerolog.New(out)
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out})
	}
	return logger.Level(level).With().Timestamp().Logger()
}
