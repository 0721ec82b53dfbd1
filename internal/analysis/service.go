// Package analysis 匹配分析编排：缓存 -> 画像抽取 -> 确定性匹配 -> 整体评分 -> 落库
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/TomerCohen95/tailorjob-sub001/internal/cache"
	"github.com/TomerCohen95/tailorjob-sub001/internal/database"
	"github.com/TomerCohen95/tailorjob-sub001/internal/extractor"
	"github.com/TomerCohen95/tailorjob-sub001/internal/matcher"
	"github.com/TomerCohen95/tailorjob-sub001/internal/model"
	"github.com/TomerCohen95/tailorjob-sub001/internal/scorer"
)

// Service 匹配分析服务
type Service struct {
	db        database.DatabaseInterface
	cache     cache.ResultCache
	extractor extractor.ProfileExtractor
	scorer    scorer.Scorer
	ttl       time.Duration
	inflight  *keyLock
}

// NewService 创建分析服务
func NewService(db database.DatabaseInterface, resultCache cache.ResultCache, ext extractor.ProfileExtractor, sc scorer.Scorer, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Service{
		db:        db,
		cache:     resultCache,
		extractor: ext,
		scorer:    sc,
		ttl:       ttl,
		inflight:  newKeyLock(),
	}
}

// AnalyzeMatch 分析文档与职位的匹配度。
// force为true时跳过缓存读取，重算并覆盖
func (s *Service) AnalyzeMatch(ctx context.Context, documentID, postingID string, force bool) (*model.MatchResult, error) {
	if documentID == "" || postingID == "" {
		return nil, model.NewInvalidInputError("document_id与posting_id均为必填")
	}

	if !force {
		if cached, err := s.cache.Get(ctx, documentID, postingID); err == nil && cached != nil && cached.IsCurrentVersion() {
			return cached, nil
		} else if err != nil {
			log.Printf("读缓存失败，继续计算: %v", err)
		}
	}

	// 同一对的并发请求只算一次
	key := documentID + ":" + postingID
	s.inflight.Lock(key)
	defer s.inflight.Unlock(key)

	// 拿到锁后再查一次，前一个持锁者可能刚写入
	if !force {
		if cached, err := s.cache.Get(ctx, documentID, postingID); err == nil && cached != nil && cached.IsCurrentVersion() {
			return cached, nil
		}
	}

	result, err := s.compute(ctx, documentID, postingID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Put(ctx, result); err != nil {
		log.Printf("写缓存失败，结果仍然有效: %v", err)
	}

	record, err := database.NewMatchRecord(uuid.New().String(), result)
	if err != nil {
		log.Printf("构造匹配记录失败: %v", err)
	} else if err := s.db.UpsertMatchRecord(ctx, record); err != nil {
		log.Printf("匹配记录落库失败: %v", err)
	}

	return result, nil
}

// compute 执行一次完整的匹配计算
func (s *Service) compute(ctx context.Context, documentID, postingID string) (*model.MatchResult, error) {
	doc, err := s.db.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if model.DocumentStatus(doc.Status) != model.StatusParsed {
		return nil, model.NewInvalidInputError(fmt.Sprintf("文档尚未解析完成: status=%s", doc.Status))
	}

	sections, err := s.db.GetSectionsByDocumentID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	postingRec, err := s.db.GetPosting(ctx, postingID)
	if err != nil {
		return nil, err
	}
	posting := postingRec.ToModel()

	candidate, err := s.extractor.ExtractProfile(ctx, sections.ToModel().RawText())
	if err != nil {
		return nil, fmt.Errorf("抽取候选画像失败: %w", err)
	}

	required, err := s.extractor.ExtractPostingProfile(ctx, posting)
	if err != nil {
		return nil, fmt.Errorf("抽取职位要求画像失败: %w", err)
	}

	breakdown := matcher.Match(required, candidate)

	result, err := s.scorer.Score(ctx, breakdown, required, candidate)
	if err != nil {
		return nil, err
	}

	result.DocumentID = documentID
	result.PostingID = postingID
	result.ExpiresAt = result.ComputedAt.Add(s.ttl)
	return result, nil
}

// GetMatch 读取已有的匹配结果：先缓存，再回落到数据库的未过期记录。
// 与AnalyzeMatch一样，旧版本算法的缓存条目不对外返回
func (s *Service) GetMatch(ctx context.Context, documentID, postingID string) (*model.MatchResult, error) {
	if cached, err := s.cache.Get(ctx, documentID, postingID); err == nil && cached != nil && cached.IsCurrentVersion() {
		return cached, nil
	}

	record, err := s.db.GetLiveMatchRecord(ctx, documentID, postingID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, model.NewNotFoundError("匹配结果不存在或已过期")
	}

	var result model.MatchResult
	if err := json.Unmarshal(record.Analysis, &result); err != nil {
		return nil, fmt.Errorf("解析落库的分析载荷失败: %w", err)
	}
	return &result, nil
}

// InvalidateMatch 作废一对文档-职位的匹配结果：缓存与落库一并删除
func (s *Service) InvalidateMatch(ctx context.Context, documentID, postingID string) error {
	if documentID == "" || postingID == "" {
		return model.NewInvalidInputError("document_id与posting_id均为必填")
	}

	if err := s.cache.Invalidate(ctx, documentID, postingID); err != nil {
		return err
	}
	return s.db.DeleteMatchRecord(ctx, documentID, postingID)
}
