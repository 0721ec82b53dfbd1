// Package document 文档生命周期服务：上传、查重、重新解析、主文档、删除
package document

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/TomerCohen95/tailorjob-sub001/internal/database"
	"github.com/TomerCohen95/tailorjob-sub001/internal/model"
	"github.com/TomerCohen95/tailorjob-sub001/internal/queue"
	"github.com/TomerCohen95/tailorjob-sub001/internal/storage"
)

// Service 文档服务
type Service struct {
	db      database.DatabaseInterface
	storage storage.StorageInterface
	queue   queue.Client
}

// NewService 创建文档服务
func NewService(db database.DatabaseInterface, st storage.StorageInterface, q queue.Client) *Service {
	return &Service{db: db, storage: st, queue: q}
}

// UploadResult 上传结果
type UploadResult struct {
	Document  *model.Document `json:"document"`
	Duplicate bool            `json:"duplicate"`
	Message   string          `json:"message,omitempty"`
}

// Upload 上传文档。字节级相同的文档（同一用户）不会重复落库：
// 处于uploaded或error状态时重新入队，其余状态仅提示已存在
func (s *Service) Upload(ctx context.Context, ownerID, filename, mimeType string, data []byte) (*UploadResult, error) {
	if ownerID == "" || filename == "" {
		return nil, model.NewInvalidInputError("owner_id与filename均为必填")
	}
	if len(data) == 0 {
		return nil, model.NewInvalidInputError("文件内容为空")
	}

	sum := sha256.Sum256(data)
	contentHash := hex.EncodeToString(sum[:])

	existing, err := s.db.FindDocumentByHash(ctx, ownerID, contentHash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.handleDuplicate(ctx, existing)
	}

	docID := uuid.New().String()
	objectPath := fmt.Sprintf("documents/%s/%s/%s", ownerID, docID, filename)

	if err := s.storage.UploadDocument(ctx, objectPath, bytes.NewReader(data), int64(len(data)), mimeType); err != nil {
		return nil, model.NewInfraError("storage", "UploadDocument", "上传文档字节失败", err)
	}

	record := &database.DocumentRecord{
		ID:               docID,
		OwnerID:          ownerID,
		OriginalFilename: filename,
		ObjectPath:       objectPath,
		FileSize:         int64(len(data)),
		MimeType:         mimeType,
		ContentHash:      contentHash,
		Status:           string(model.StatusUploaded),
	}
	if err := s.db.CreateDocument(ctx, record); err != nil {
		return nil, err
	}

	// 新上传的文档成为当前主文档
	if err := s.db.SetPrimaryDocument(ctx, ownerID, docID); err != nil {
		log.Printf("设置主文档失败: %v", err)
	} else {
		record.IsPrimary = true
	}

	s.enqueueParse(ctx, record)

	return &UploadResult{Document: record.ToModel()}, nil
}

// handleDuplicate 处理重复上传：不重复建档，必要时重新入队
func (s *Service) handleDuplicate(ctx context.Context, existing *database.DocumentRecord) (*UploadResult, error) {
	status := model.DocumentStatus(existing.Status)
	switch status {
	case model.StatusUploaded, model.StatusError:
		s.enqueueParse(ctx, existing)
		return &UploadResult{
			Document:  existing.ToModel(),
			Duplicate: true,
			Message:   "相同文档已存在，已重新投递解析任务",
		}, nil
	case model.StatusParsing:
		return &UploadResult{
			Document:  existing.ToModel(),
			Duplicate: true,
			Message:   "相同文档正在解析中",
		}, nil
	default:
		return &UploadResult{
			Document:  existing.ToModel(),
			Duplicate: true,
			Message:   "相同文档已解析完成",
		}, nil
	}
}

// enqueueParse 投递解析任务，broker降级时仅告警
func (s *Service) enqueueParse(ctx context.Context, doc *database.DocumentRecord) {
	job := &queue.ParseJob{
		ID:         uuid.New().String(),
		DocumentID: doc.ID,
		OwnerID:    doc.OwnerID,
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		log.Printf("投递解析任务失败: document_id=%s err=%v", doc.ID, err)
	}
}

// Reparse 重新解析：error/parsed回到parsing的唯一入口，重置状态并重新入队
func (s *Service) Reparse(ctx context.Context, documentID string) (*model.Document, error) {
	doc, err := s.db.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if err := s.db.UpdateDocumentStatus(ctx, documentID, model.StatusParsing, "", true); err != nil {
		return nil, err
	}

	s.enqueueParse(ctx, doc)

	doc.Status = string(model.StatusParsing)
	doc.ErrorReason = ""
	return doc.ToModel(), nil
}

// Get 获取文档，parsed状态时附带解析产物
func (s *Service) Get(ctx context.Context, documentID string) (*model.Document, *model.Sections, error) {
	doc, err := s.db.GetDocument(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}

	var sections *model.Sections
	if model.DocumentStatus(doc.Status) == model.StatusParsed {
		record, err := s.db.GetSectionsByDocumentID(ctx, documentID)
		if err == nil {
			sections = record.ToModel()
		} else if !model.IsErrorType(err, model.ErrCodeNotFound) {
			return nil, nil, err
		}
	}

	return doc.ToModel(), sections, nil
}

// GetStatus 查询文档状态
func (s *Service) GetStatus(ctx context.Context, documentID string) (*model.Document, error) {
	doc, err := s.db.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return doc.ToModel(), nil
}

// List 列出某用户的全部文档
func (s *Service) List(ctx context.Context, ownerID string) ([]*model.Document, error) {
	if ownerID == "" {
		return nil, model.NewInvalidInputError("owner_id为必填")
	}

	records, err := s.db.ListDocuments(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	docs := make([]*model.Document, 0, len(records))
	for _, r := range records {
		docs = append(docs, r.ToModel())
	}
	return docs, nil
}

// Delete 删除文档：对象存储尽力删除，数据库记录与关联数据一并删除
func (s *Service) Delete(ctx context.Context, documentID string) error {
	doc, err := s.db.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	if err := s.storage.DeleteDocument(ctx, doc.ObjectPath); err != nil {
		log.Printf("删除对象失败（继续删除记录）: %v", err)
	}

	return s.db.DeleteDocument(ctx, documentID)
}

// SetPrimary 设置主文档，同一用户同一时刻只有一个
func (s *Service) SetPrimary(ctx context.Context, ownerID, documentID string) error {
	if ownerID == "" || documentID == "" {
		return model.NewInvalidInputError("owner_id与document_id均为必填")
	}
	return s.db.SetPrimaryDocument(ctx, ownerID, documentID)
}
