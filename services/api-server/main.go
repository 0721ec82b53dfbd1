package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TomerCohen95/tailorjob-sub001/internal/analysis"
	"github.com/TomerCohen95/tailorjob-sub001/internal/cache"
	"github.com/TomerCohen95/tailorjob-sub001/internal/config"
	"github.com/TomerCohen95/tailorjob-sub001/internal/database"
	"github.com/TomerCohen95/tailorjob-sub001/internal/document"
	"github.com/TomerCohen95/tailorjob-sub001/internal/extractor"
	"github.com/TomerCohen95/tailorjob-sub001/internal/llm"
	"github.com/TomerCohen95/tailorjob-sub001/internal/queue"
	"github.com/TomerCohen95/tailorjob-sub001/internal/scorer"
	"github.com/TomerCohen95/tailorjob-sub001/internal/storage"
	"github.com/TomerCohen95/tailorjob-sub001/internal/tailor"
	"github.com/TomerCohen95/tailorjob-sub001/services/api-server/handlers"
	"github.com/TomerCohen95/tailorjob-sub001/services/api-server/middleware"
)

type Server struct {
	config   *config.Config
	db       database.DatabaseInterface
	queue    queue.Client
	cache    cache.ResultCache
	router   *gin.Engine
	handlers *handlers.Handlers
}

func main() {
	var configPath string
	if len(os.Args) > 2 && os.Args[1] == "-config" {
		configPath = os.Args[2]
	} else {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.LoadConfigForService(config.ServiceTypeAPIServer, configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	server, err := NewServer(cfg)
	if err != nil {
		log.Fatalf("创建服务器失败: %v", err)
	}

	if err := server.Start(); err != nil {
		log.Fatalf("启动服务器失败: %v", err)
	}
}

func NewServer(cfg *config.Config) (*Server, error) {
	gin.SetMode(cfg.APIServer.Mode)
	if cfg.App.Debug {
		gin.SetMode(gin.DebugMode)
	}

	log.Printf("正在初始化数据库连接: db=%s", cfg.Database.Database)
	db, err := database.NewPostgreSQLDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("初始化数据库失败: %w", err)
	}

	ctx := context.Background()
	if err := db.CreateTables(ctx); err != nil {
		return nil, fmt.Errorf("创建数据库表失败: %w", err)
	}

	// broker不可达时降级运行，上传仍可用但不投递任务
	q, err := queue.NewRedisQueue(cfg.Queue, cfg.Worker)
	if err != nil {
		log.Printf("初始化队列失败，降级运行: %v", err)
		q = queue.NewNoopClient(cfg.Worker.DequeueWait)
	}

	// 缓存不可达时降级为永不命中
	resultCache, err := cache.NewRedisCache(cfg.Cache)
	if err != nil {
		log.Printf("初始化缓存失败，降级运行: %v", err)
		resultCache = cache.NewNoopCache()
	}

	minioStorage, err := storage.NewMinIOStorage(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("初始化存储失败: %w", err)
	}
	if err := minioStorage.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("确保存储桶失败: %w", err)
	}

	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("初始化补全客户端失败: %w", err)
	}

	profileExtractor := extractor.New(llmClient)
	holisticScorer := scorer.New(llmClient, cfg.Match)
	analysisSvc := analysis.NewService(db, resultCache, profileExtractor, holisticScorer, cfg.Cache.TTL)
	documentSvc := document.NewService(db, minioStorage, q)
	tailorer := tailor.New(llmClient)

	h := handlers.NewHandlers(documentSvc, analysisSvc, tailorer, db)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())

	server := &Server{
		config:   cfg,
		db:       db,
		queue:    q,
		cache:    resultCache,
		router:   router,
		handlers: h,
	}
	server.setupRoutes()

	return server, nil
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api/v1")

	api.GET("/health", s.handlers.Health)
	api.GET("/ready", s.handlers.Ready)

	documents := api.Group("/documents")
	{
		documents.POST("", s.handlers.UploadDocument)
		documents.GET("", s.handlers.ListDocuments)
		documents.GET("/:id", s.handlers.GetDocument)
		documents.GET("/:id/status", s.handlers.GetDocumentStatus)
		documents.GET("/:id/events", s.handlers.DocumentEvents)
		documents.POST("/:id/reparse", s.handlers.ReparseDocument)
		documents.POST("/:id/primary", s.handlers.SetPrimaryDocument)
		documents.DELETE("/:id", s.handlers.DeleteDocument)
	}

	postings := api.Group("/postings")
	{
		postings.POST("", s.handlers.CreatePosting)
		postings.GET("", s.handlers.ListPostings)
		postings.GET("/:id", s.handlers.GetPosting)
	}

	matches := api.Group("/matches")
	{
		matches.POST("/analyze", s.handlers.AnalyzeMatch)
		matches.GET("/:documentId/:postingId", s.handlers.GetMatch)
		matches.GET("/:documentId/:postingId/report", s.handlers.MatchReport)
		matches.POST("/:documentId/:postingId/tailor", s.handlers.TailorCV)
		matches.DELETE("/:documentId/:postingId", s.handlers.InvalidateMatch)
	}

	monitor := api.Group("/monitor")
	{
		monitor.GET("/stats", s.handlers.Stats)
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.APIServer.Host, s.config.APIServer.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.APIServer.Timeout,
		WriteTimeout: s.config.APIServer.Timeout,
	}

	go func() {
		log.Printf("API服务器启动在 %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("启动服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("服务器关闭失败: %v", err)
		return err
	}

	if err := s.db.Close(); err != nil {
		log.Printf("关闭数据库失败: %v", err)
	}
	if err := s.cache.Close(); err != nil {
		log.Printf("关闭缓存失败: %v", err)
	}
	s.queue.Close()

	log.Println("服务器已关闭")
	return nil
}
