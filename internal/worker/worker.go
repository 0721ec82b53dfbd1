// Package worker 解析工作进程核心循环。
// 依赖全部注入，循环逻辑可脱离真实broker与数据库测试
package worker

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/TomerCohen95/tailorjob-sub001/internal/config"
	"github.com/TomerCohen95/tailorjob-sub001/internal/database"
	"github.com/TomerCohen95/tailorjob-sub001/internal/extractor"
	"github.com/TomerCohen95/tailorjob-sub001/internal/model"
	"github.com/TomerCohen95/tailorjob-sub001/internal/queue"
	"github.com/TomerCohen95/tailorjob-sub001/internal/storage"
)

// Worker 解析工作进程
type Worker struct {
	cfg      config.WorkerConfig
	db       database.DatabaseInterface
	queue    queue.Client
	storage  storage.StorageInterface
	sections extractor.SectionExtractor
}

// New 创建解析工作进程
func New(cfg config.WorkerConfig, db database.DatabaseInterface, q queue.Client, st storage.StorageInterface, se extractor.SectionExtractor) *Worker {
	return &Worker{
		cfg:      cfg,
		db:       db,
		queue:    q,
		storage:  st,
		sections: se,
	}
}

// Run 主循环：阻塞出队 -> 处理 -> 继续。单个任务失败不会终止循环。
// ctx取消后，处理中的任务先收敛到终态再返回
func (w *Worker) Run(ctx context.Context) error {
	log.Printf("解析工作进程启动: queue=%s", w.cfg.QueueName)

	for {
		select {
		case <-ctx.Done():
			log.Println("解析工作进程收到退出信号")
			return ctx.Err()
		default:
		}

		job, err := w.queue.DequeueBlocking(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("出队失败，稍后重试: %v", err)
			w.idle(ctx)
			continue
		}
		if job == nil {
			continue // 队列空，下一轮阻塞等待
		}

		w.processJob(ctx, job)
	}
}

// processJob 处理单个解析任务。任何失败都把文档与任务收敛到终态
func (w *Worker) processJob(ctx context.Context, job *queue.ParseJob) {
	log.Printf("开始处理解析任务: job=%s document=%s", job.ID, job.DocumentID)

	if err := w.db.UpdateDocumentStatus(ctx, job.DocumentID, model.StatusParsing, "", true); err != nil {
		log.Printf("置parsing状态失败: document=%s err=%v", job.DocumentID, err)
		w.failJob(job, fmt.Sprintf("置parsing状态失败: %v", err))
		return
	}

	jobCtx := ctx
	var cancel context.CancelFunc
	if w.cfg.JobTimeout > 0 {
		jobCtx, cancel = context.WithTimeout(ctx, w.cfg.JobTimeout)
		defer cancel()
	}

	if err := w.parse(jobCtx, job); err != nil {
		reason := err.Error()
		if jobCtx.Err() != nil {
			reason = model.NewCancellationError(job.DocumentID, "解析被取消或超时").Error()
		}
		w.failDocument(job, reason)
		return
	}

	if err := w.queue.UpdateJobStatus(context.Background(), job.ID, "completed", ""); err != nil {
		log.Printf("更新任务状态失败: %v", err)
	}
	log.Printf("解析任务完成: job=%s document=%s", job.ID, job.DocumentID)
}

// parse 下载文档字节、切分区块并原子落库
func (w *Worker) parse(ctx context.Context, job *queue.ParseJob) error {
	doc, err := w.db.GetDocument(ctx, job.DocumentID)
	if err != nil {
		return err
	}

	reader, err := w.storage.DownloadDocument(ctx, doc.ObjectPath)
	if err != nil {
		return model.NewInfraError("storage", "DownloadDocument", "下载文档字节失败", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return model.NewInfraError("storage", "DownloadDocument", "读取文档字节失败", err)
	}

	sections, err := w.sections.ExtractSections(ctx, job.DocumentID, string(raw))
	if err != nil {
		return err
	}

	record := &database.SectionRecord{
		DocumentID:     sections.DocumentID,
		Summary:        sections.Summary,
		Skills:         sections.Skills,
		Experience:     sections.Experience,
		Education:      sections.Education,
		Certifications: sections.Certifications,
	}
	// 区块落库与状态置parsed在同一事务，失败的解析不会留下半写产物
	if err := w.db.SaveParsedSections(ctx, record); err != nil {
		return err
	}
	return nil
}

// failDocument 把文档与任务都收敛到失败终态。
// 用独立context写终态，父context已取消时仍能完成
func (w *Worker) failDocument(job *queue.ParseJob, reason string) {
	log.Printf("解析任务失败: job=%s document=%s reason=%s", job.ID, job.DocumentID, reason)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := w.db.UpdateDocumentStatus(ctx, job.DocumentID, model.StatusError, reason, false); err != nil {
		log.Printf("置error状态失败: document=%s err=%v", job.DocumentID, err)
	}
	w.failJob(job, reason)
}

// failJob 更新队列侧任务状态
func (w *Worker) failJob(job *queue.ParseJob, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := w.queue.UpdateJobStatus(ctx, job.ID, "failed", reason); err != nil {
		log.Printf("更新任务状态失败: %v", err)
	}
}

// idle 出队出错后的退避等待
func (w *Worker) idle(ctx context.Context) {
	interval := w.cfg.IdleInterval
	if interval <= 0 {
		interval = time.Second
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
