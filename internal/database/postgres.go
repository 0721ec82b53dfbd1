// Package database PostgreSQL存储层
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/TomerCohen95/tailorjob-sub001/internal/config"
	"github.com/TomerCohen95/tailorjob-sub001/internal/model"
)

// DatabaseInterface 数据库接口
type DatabaseInterface interface {
	CreateTables(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Close() error

	// 文档
	CreateDocument(ctx context.Context, doc *DocumentRecord) error
	GetDocument(ctx context.Context, documentID string) (*DocumentRecord, error)
	ListDocuments(ctx context.Context, ownerID string) ([]*DocumentRecord, error)
	DeleteDocument(ctx context.Context, documentID string) error
	FindDocumentByHash(ctx context.Context, ownerID, contentHash string) (*DocumentRecord, error)
	UpdateDocumentStatus(ctx context.Context, documentID string, status model.DocumentStatus, reason string, reparse bool) error
	SetPrimaryDocument(ctx context.Context, ownerID, documentID string) error
	CountDocumentsByStatus(ctx context.Context) (map[string]int64, error)

	// 解析产物
	GetSectionsByDocumentID(ctx context.Context, documentID string) (*SectionRecord, error)
	SaveParsedSections(ctx context.Context, sections *SectionRecord) error

	// 职位
	CreatePosting(ctx context.Context, posting *PostingRecord) error
	GetPosting(ctx context.Context, postingID string) (*PostingRecord, error)
	ListPostings(ctx context.Context, limit, offset int) ([]*PostingRecord, error)

	// 匹配结果
	UpsertMatchRecord(ctx context.Context, record *MatchRecord) error
	GetLiveMatchRecord(ctx context.Context, documentID, postingID string) (*MatchRecord, error)
	DeleteMatchRecord(ctx context.Context, documentID, postingID string) error
}

// PostgreSQLDB PostgreSQL数据库
type PostgreSQLDB struct {
	db *gorm.DB
}

// NewPostgreSQLDB 创建PostgreSQL数据库连接
func NewPostgreSQLDB(cfg config.DatabaseConfig) (*PostgreSQLDB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取数据库连接池失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库ping失败: %w", err)
	}

	return &PostgreSQLDB{db: db}, nil
}

// CreateTables 创建表结构
func (p *PostgreSQLDB) CreateTables(ctx context.Context) error {
	err := p.db.WithContext(ctx).AutoMigrate(
		&DocumentRecord{},
		&SectionRecord{},
		&PostingRecord{},
		&MatchRecord{},
	)
	if err != nil {
		return fmt.Errorf("自动迁移失败: %w", err)
	}
	return nil
}

// HealthCheck 数据库连通性检查
func (p *PostgreSQLDB) HealthCheck(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return fmt.Errorf("获取数据库连接池失败: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭数据库连接
func (p *PostgreSQLDB) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateDocument 创建文档记录
func (p *PostgreSQLDB) CreateDocument(ctx context.Context, doc *DocumentRecord) error {
	if err := p.db.WithContext(ctx).Create(doc).Error; err != nil {
		log.Printf("[SQL ERROR] CreateDocument failed: %v", err)
		return fmt.Errorf("创建文档记录失败: %w", err)
	}
	return nil
}

// GetDocument 获取文档记录
func (p *PostgreSQLDB) GetDocument(ctx context.Context, documentID string) (*DocumentRecord, error) {
	var doc DocumentRecord
	err := p.db.WithContext(ctx).First(&doc, "id = ?", documentID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, model.NewNotFoundError(fmt.Sprintf("文档不存在: %s", documentID))
		}
		return nil, fmt.Errorf("获取文档失败: %w", err)
	}
	return &doc, nil
}

// ListDocuments 列出某用户的全部文档
func (p *PostgreSQLDB) ListDocuments(ctx context.Context, ownerID string) ([]*DocumentRecord, error) {
	var docs []*DocumentRecord
	err := p.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("列出文档失败: %w", err)
	}
	return docs, nil
}

// DeleteDocument 删除文档及其解析产物
func (p *PostgreSQLDB) DeleteDocument(ctx context.Context, documentID string) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&SectionRecord{}, "document_id = ?", documentID).Error; err != nil {
			return fmt.Errorf("删除解析产物失败: %w", err)
		}
		if err := tx.Delete(&MatchRecord{}, "document_id = ?", documentID).Error; err != nil {
			return fmt.Errorf("删除匹配记录失败: %w", err)
		}
		if err := tx.Delete(&DocumentRecord{}, "id = ?", documentID).Error; err != nil {
			return fmt.Errorf("删除文档失败: %w", err)
		}
		return nil
	})
}

// FindDocumentByHash 按内容哈希查重，未命中返回(nil, nil)
func (p *PostgreSQLDB) FindDocumentByHash(ctx context.Context, ownerID, contentHash string) (*DocumentRecord, error) {
	var doc DocumentRecord
	err := p.db.WithContext(ctx).
		First(&doc, "owner_id = ? AND content_hash = ?", ownerID, contentHash).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("按哈希查找文档失败: %w", err)
	}
	return &doc, nil
}

// UpdateDocumentStatus 更新文档状态，迁移必须被状态机允许。
// 在事务内读当前状态再写，避免并发下的非法迁移
func (p *PostgreSQLDB) UpdateDocumentStatus(ctx context.Context, documentID string, status model.DocumentStatus, reason string, reparse bool) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc DocumentRecord
		if err := tx.First(&doc, "id = ?", documentID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return model.NewNotFoundError(fmt.Sprintf("文档不存在: %s", documentID))
			}
			return fmt.Errorf("获取文档失败: %w", err)
		}

		// 同状态重复设置是幂等no-op，reparse重置后worker再置parsing时走这里
		if model.DocumentStatus(doc.Status) == status {
			return nil
		}

		if err := model.ValidateTransition(model.DocumentStatus(doc.Status), status, reparse); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"status":       string(status),
			"error_reason": reason,
		}
		if status != model.StatusError {
			updates["error_reason"] = ""
		}
		if err := tx.Model(&DocumentRecord{}).Where("id = ?", documentID).Updates(updates).Error; err != nil {
			return fmt.Errorf("更新文档状态失败: %w", err)
		}
		return nil
	})
}

// SetPrimaryDocument 设置主文档：同一用户下先全部取消再置一个，单事务保证唯一
func (p *PostgreSQLDB) SetPrimaryDocument(ctx context.Context, ownerID, documentID string) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc DocumentRecord
		if err := tx.First(&doc, "id = ? AND owner_id = ?", documentID, ownerID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return model.NewNotFoundError(fmt.Sprintf("文档不存在: %s", documentID))
			}
			return fmt.Errorf("获取文档失败: %w", err)
		}

		if err := tx.Model(&DocumentRecord{}).
			Where("owner_id = ? AND is_primary = true", ownerID).
			Update("is_primary", false).Error; err != nil {
			return fmt.Errorf("取消原主文档失败: %w", err)
		}

		if err := tx.Model(&DocumentRecord{}).
			Where("id = ?", documentID).
			Update("is_primary", true).Error; err != nil {
			return fmt.Errorf("设置主文档失败: %w", err)
		}
		return nil
	})
}

// CountDocumentsByStatus 按状态统计文档数量
func (p *PostgreSQLDB) CountDocumentsByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := p.db.WithContext(ctx).
		Model(&DocumentRecord{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("统计文档失败: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// GetSectionsByDocumentID 获取解析产物
func (p *PostgreSQLDB) GetSectionsByDocumentID(ctx context.Context, documentID string) (*SectionRecord, error) {
	var section SectionRecord
	err := p.db.WithContext(ctx).First(&section, "document_id = ?", documentID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, model.NewNotFoundError(fmt.Sprintf("文档无解析产物: %s", documentID))
		}
		return nil, fmt.Errorf("获取解析产物失败: %w", err)
	}
	return &section, nil
}

// SaveParsedSections 保存解析产物并把文档置为parsed，单事务完成。
// 先查后写：重复解析更新同一条记录，任何时刻每个文档至多一条
func (p *PostgreSQLDB) SaveParsedSections(ctx context.Context, sections *SectionRecord) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing SectionRecord
		err := tx.First(&existing, "document_id = ?", sections.DocumentID).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			if err := tx.Create(sections).Error; err != nil {
				return fmt.Errorf("创建解析产物失败: %w", err)
			}
		case err != nil:
			return fmt.Errorf("检查解析产物失败: %w", err)
		default:
			sections.CreatedAt = existing.CreatedAt
			if err := tx.Model(&SectionRecord{}).
				Where("document_id = ?", sections.DocumentID).
				Updates(map[string]interface{}{
					"summary":        sections.Summary,
					"skills":         sections.Skills,
					"experience":     sections.Experience,
					"education":      sections.Education,
					"certifications": sections.Certifications,
					"metadata":       sections.Metadata,
				}).Error; err != nil {
				return fmt.Errorf("更新解析产物失败: %w", err)
			}
		}

		now := time.Now()
		if err := tx.Model(&DocumentRecord{}).
			Where("id = ?", sections.DocumentID).
			Updates(map[string]interface{}{
				"status":       string(model.StatusParsed),
				"error_reason": "",
				"parsed_at":    &now,
			}).Error; err != nil {
			return fmt.Errorf("更新文档状态失败: %w", err)
		}
		return nil
	})
}

// CreatePosting 创建职位
func (p *PostgreSQLDB) CreatePosting(ctx context.Context, posting *PostingRecord) error {
	if err := p.db.WithContext(ctx).Create(posting).Error; err != nil {
		return fmt.Errorf("创建职位失败: %w", err)
	}
	return nil
}

// GetPosting 获取职位
func (p *PostgreSQLDB) GetPosting(ctx context.Context, postingID string) (*PostingRecord, error) {
	var posting PostingRecord
	err := p.db.WithContext(ctx).First(&posting, "id = ?", postingID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, model.NewNotFoundError(fmt.Sprintf("职位不存在: %s", postingID))
		}
		return nil, fmt.Errorf("获取职位失败: %w", err)
	}
	return &posting, nil
}

// ListPostings 列出职位
func (p *PostgreSQLDB) ListPostings(ctx context.Context, limit, offset int) ([]*PostingRecord, error) {
	var postings []*PostingRecord
	err := p.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&postings).Error
	if err != nil {
		return nil, fmt.Errorf("列出职位失败: %w", err)
	}
	return postings, nil
}

// UpsertMatchRecord 写入匹配结果，(document_id, posting_id)上后写覆盖
func (p *PostgreSQLDB) UpsertMatchRecord(ctx context.Context, record *MatchRecord) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&MatchRecord{},
			"document_id = ? AND posting_id = ?", record.DocumentID, record.PostingID).Error; err != nil {
			return fmt.Errorf("清理旧匹配记录失败: %w", err)
		}
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("写入匹配记录失败: %w", err)
		}
		return nil
	})
}

// GetLiveMatchRecord 获取未过期的匹配记录，没有或已过期返回(nil, nil)
func (p *PostgreSQLDB) GetLiveMatchRecord(ctx context.Context, documentID, postingID string) (*MatchRecord, error) {
	var record MatchRecord
	err := p.db.WithContext(ctx).
		First(&record, "document_id = ? AND posting_id = ? AND expires_at > ?",
			documentID, postingID, time.Now()).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("获取匹配记录失败: %w", err)
	}
	return &record, nil
}

// DeleteMatchRecord 删除匹配记录
func (p *PostgreSQLDB) DeleteMatchRecord(ctx context.Context, documentID, postingID string) error {
	err := p.db.WithContext(ctx).
		Delete(&MatchRecord{}, "document_id = ? AND posting_id = ?", documentID, postingID).Error
	if err != nil {
		return fmt.Errorf("删除匹配记录失败: %w", err)
	}
	return nil
}

// NewMatchRecord 从领域结果构造落库记录
func NewMatchRecord(id string, result *model.MatchResult) (*MatchRecord, error) {
	analysis, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("序列化分析载荷失败: %w", err)
	}

	return &MatchRecord{
		ID:                 id,
		DocumentID:         result.DocumentID,
		PostingID:          result.PostingID,
		OverallScore:       result.OverallScore,
		SkillsScore:        result.SkillsScore,
		ExperienceScore:    result.ExperienceScore,
		QualificationScore: result.QualificationScore,
		Analysis:           analysis,
		MatcherVersion:     result.MatcherVersion,
		CreatedAt:          result.ComputedAt,
		ExpiresAt:          result.ExpiresAt,
	}, nil
}
