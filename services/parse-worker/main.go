package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/TomerCohen95/tailorjob-sub001/internal/config"
	"github.com/TomerCohen95/tailorjob-sub001/internal/database"
	"github.com/TomerCohen95/tailorjob-sub001/internal/extractor"
	"github.com/TomerCohen95/tailorjob-sub001/internal/llm"
	"github.com/TomerCohen95/tailorjob-sub001/internal/queue"
	"github.com/TomerCohen95/tailorjob-sub001/internal/storage"
	"github.com/TomerCohen95/tailorjob-sub001/internal/worker"
)

func main() {
	var configPath string
	if len(os.Args) > 2 && os.Args[1] == "-config" {
		configPath = os.Args[2]
	} else {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.LoadConfigForService(config.ServiceTypeParseWorker, configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	w, cleanup, err := buildWorker(cfg)
	if err != nil {
		log.Fatalf("创建解析工作进程失败: %v", err)
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("收到退出信号，正在停止工作进程...")
		cancel()
	}()

	if err := w.Run(ctx); err != nil && err != context.Canceled {
		log.Printf("工作进程退出: %v", err)
	}
	log.Println("解析工作进程已停止")
}

func buildWorker(cfg *config.Config) (*worker.Worker, func(), error) {
	db, err := database.NewPostgreSQLDB(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("初始化数据库失败: %w", err)
	}

	// broker不可达时以降级客户端空转，进程不退出
	q, err := queue.NewRedisQueue(cfg.Queue, cfg.Worker)
	if err != nil {
		log.Printf("初始化队列失败，降级运行: %v", err)
		q = queue.NewNoopClient(cfg.Worker.DequeueWait)
	}

	minioStorage, err := storage.NewMinIOStorage(cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("初始化存储失败: %w", err)
	}

	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return nil, nil, fmt.Errorf("初始化补全客户端失败: %w", err)
	}

	sections := extractor.NewSectionExtractor(llmClient)
	w := worker.New(cfg.Worker, db, q, minioStorage, sections)

	cleanup := func() {
		if err := db.Close(); err != nil {
			log.Printf("关闭数据库失败: %v", err)
		}
		q.Close()
	}
	return w, cleanup, nil
}
