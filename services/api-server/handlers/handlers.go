// Package handlers API请求处理器：绑定、校验、委托给领域服务
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/TomerCohen95/tailorjob-sub001/internal/analysis"
	"github.com/TomerCohen95/tailorjob-sub001/internal/database"
	"github.com/TomerCohen95/tailorjob-sub001/internal/document"
	"github.com/TomerCohen95/tailorjob-sub001/internal/model"
	"github.com/TomerCohen95/tailorjob-sub001/internal/report"
	"github.com/TomerCohen95/tailorjob-sub001/internal/tailor"
)

// Handlers API处理器集合
type Handlers struct {
	documents *document.Service
	analysis  *analysis.Service
	tailorer  tailor.Tailorer
	db        database.DatabaseInterface
	upgrader  websocket.Upgrader
}

// NewHandlers 创建处理器集合
func NewHandlers(documents *document.Service, analysisSvc *analysis.Service, tailorer tailor.Tailorer, db database.DatabaseInterface) *Handlers {
	return &Handlers{
		documents: documents,
		analysis:  analysisSvc,
		tailorer:  tailorer,
		db:        db,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// statusCodeForError 错误码到HTTP状态码的映射
func statusCodeForError(err error) int {
	switch {
	case model.IsErrorType(err, model.ErrCodeNotFound):
		return http.StatusNotFound
	case model.IsErrorType(err, model.ErrCodeInvalidInput):
		return http.StatusBadRequest
	case model.IsErrorType(err, model.ErrCodeDuplicate):
		return http.StatusConflict
	case model.IsErrorType(err, model.ErrCodeInvalidTransition):
		return http.StatusConflict
	case model.IsErrorType(err, model.ErrCodeTransientInfra):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusCodeForError(err), gin.H{"error": err.Error()})
}

// Health 健康检查
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now()})
}

// Ready 就绪检查：数据库可达才算就绪
func (h *Handlers) Ready(c *gin.Context) {
	if err := h.db.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// UploadDocument 上传文档（multipart表单：file + owner_id）
func (h *Handlers) UploadDocument(c *gin.Context) {
	ownerID := c.PostForm("owner_id")
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner_id为必填"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少file字段"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("打开上传文件失败: %v", err)})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("读取上传文件失败: %v", err)})
		return
	}

	result, err := h.documents.Upload(c.Request.Context(), ownerID, fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// ListDocuments 列出某用户的文档
func (h *Handlers) ListDocuments(c *gin.Context) {
	ownerID := c.Query("owner_id")
	docs, err := h.documents.List(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs, "total": len(docs)})
}

// GetDocument 获取文档详情，已解析时附带区块
func (h *Handlers) GetDocument(c *gin.Context) {
	doc, sections, err := h.documents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": doc, "sections": sections})
}

// GetDocumentStatus 查询文档状态
func (h *Handlers) GetDocumentStatus(c *gin.Context) {
	doc, err := h.documents.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"document_id":  doc.ID,
		"status":       doc.Status,
		"error_reason": doc.ErrorReason,
		"parsed_at":    doc.ParsedAt,
	})
}

// ReparseDocument 重新解析
func (h *Handlers) ReparseDocument(c *gin.Context) {
	doc, err := h.documents.Reparse(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"document": doc})
}

// SetPrimaryRequest 设置主文档请求
type SetPrimaryRequest struct {
	OwnerID string `json:"owner_id" binding:"required"`
}

// SetPrimaryDocument 设置主文档
func (h *Handlers) SetPrimaryDocument(c *gin.Context) {
	var req SetPrimaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.documents.SetPrimary(c.Request.Context(), req.OwnerID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "主文档已更新"})
}

// DeleteDocument 删除文档
func (h *Handlers) DeleteDocument(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "文档已删除"})
}

// CreatePostingRequest 创建职位请求，description接受字符串或结构化对象
type CreatePostingRequest struct {
	Title       string                   `json:"title" binding:"required"`
	Company     string                   `json:"company"`
	Description model.PostingDescription `json:"description" binding:"required"`
}

// CreatePosting 创建职位
func (h *Handlers) CreatePosting(c *gin.Context) {
	var req CreatePostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Description.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "description不能为空"})
		return
	}

	// 结构化描述整体存JSON，纯文本直接存
	description := req.Description.Text
	if req.Description.Structured != nil {
		raw, err := json.Marshal(req.Description)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("序列化描述失败: %v", err)})
			return
		}
		description = string(raw)
	}

	record := &database.PostingRecord{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Company:     req.Company,
		Description: description,
	}
	if err := h.db.CreatePosting(c.Request.Context(), record); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"posting": record.ToModel()})
}

// GetPosting 获取职位
func (h *Handlers) GetPosting(c *gin.Context) {
	record, err := h.db.GetPosting(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posting": record.ToModel()})
}

// ListPostings 列出职位
func (h *Handlers) ListPostings(c *gin.Context) {
	records, err := h.db.ListPostings(c.Request.Context(), 50, 0)
	if err != nil {
		respondError(c, err)
		return
	}

	postings := make([]*model.Posting, 0, len(records))
	for _, r := range records {
		postings = append(postings, r.ToModel())
	}
	c.JSON(http.StatusOK, gin.H{"postings": postings, "total": len(postings)})
}

// AnalyzeMatchRequest 匹配分析请求
type AnalyzeMatchRequest struct {
	DocumentID   string `json:"document_id" binding:"required"`
	PostingID    string `json:"posting_id" binding:"required"`
	ForceRefresh bool   `json:"force_refresh"`
}

// AnalyzeMatch 发起匹配分析
func (h *Handlers) AnalyzeMatch(c *gin.Context) {
	var req AnalyzeMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.analysis.AnalyzeMatch(c.Request.Context(), req.DocumentID, req.PostingID, req.ForceRefresh)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// GetMatch 读取已有匹配结果
func (h *Handlers) GetMatch(c *gin.Context) {
	result, err := h.analysis.GetMatch(c.Request.Context(), c.Param("documentId"), c.Param("postingId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// InvalidateMatch 作废匹配结果
func (h *Handlers) InvalidateMatch(c *gin.Context) {
	if err := h.analysis.InvalidateMatch(c.Request.Context(), c.Param("documentId"), c.Param("postingId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "匹配结果已作废"})
}

// MatchReport 导出匹配报告xlsx
func (h *Handlers) MatchReport(c *gin.Context) {
	documentID := c.Param("documentId")
	postingID := c.Param("postingId")

	result, err := h.analysis.GetMatch(c.Request.Context(), documentID, postingID)
	if err != nil {
		respondError(c, err)
		return
	}

	var posting *model.Posting
	if record, err := h.db.GetPosting(c.Request.Context(), postingID); err == nil {
		posting = record.ToModel()
	}

	workbook, err := report.BuildWorkbook(result, posting)
	if err != nil {
		respondError(c, err)
		return
	}
	defer workbook.Close()

	filename := fmt.Sprintf("match-%s-%s.xlsx", documentID, postingID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := workbook.Write(c.Writer); err != nil {
		log.Printf("写出报告失败: %v", err)
	}
}

// TailorCV 生成定制版简历：要求文档已解析且匹配分析已存在
func (h *Handlers) TailorCV(c *gin.Context) {
	documentID := c.Param("documentId")
	postingID := c.Param("postingId")

	match, err := h.analysis.GetMatch(c.Request.Context(), documentID, postingID)
	if err != nil {
		if model.IsErrorType(err, model.ErrCodeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "匹配分析不存在，请先发起分析"})
			return
		}
		respondError(c, err)
		return
	}

	_, sections, err := h.documents.Get(c.Request.Context(), documentID)
	if err != nil {
		respondError(c, err)
		return
	}
	if sections == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "文档尚未解析完成"})
		return
	}

	postingRec, err := h.db.GetPosting(c.Request.Context(), postingID)
	if err != nil {
		respondError(c, err)
		return
	}

	tailored, err := h.tailorer.Tailor(c.Request.Context(), sections, postingRec.ToModel(), match)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tailored_cv": tailored})
}

// DocumentEvents 文档状态websocket推送：轮询状态变化，终态后关闭
func (h *Handlers) DocumentEvents(c *gin.Context) {
	documentID := c.Param("id")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket升级失败: %v", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var lastStatus model.DocumentStatus
	for {
		doc, err := h.documents.GetStatus(c.Request.Context(), documentID)
		if err != nil {
			conn.WriteJSON(gin.H{"error": err.Error()})
			return
		}

		if doc.Status != lastStatus {
			lastStatus = doc.Status
			if err := conn.WriteJSON(gin.H{
				"document_id":  doc.ID,
				"status":       doc.Status,
				"error_reason": doc.ErrorReason,
			}); err != nil {
				return // 客户端断开
			}
		}

		if doc.Status.IsTerminal() {
			return
		}

		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// Stats 文档状态统计
func (h *Handlers) Stats(c *gin.Context) {
	counts, err := h.db.CountDocumentsByStatus(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents_by_status": counts})
}
