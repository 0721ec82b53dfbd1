package database

import (
	"time"

	"gorm.io/datatypes"

	"github.com/TomerCohen95/tailorjob-sub001/internal/model"
)

// DocumentRecord 文档表
type DocumentRecord struct {
	ID               string     `gorm:"primaryKey;type:uuid" json:"id"`
	OwnerID          string     `gorm:"index;not null;uniqueIndex:idx_owner_hash" json:"owner_id"`
	OriginalFilename string     `gorm:"not null" json:"original_filename"`
	ObjectPath       string     `gorm:"not null" json:"object_path"`
	FileSize         int64      `json:"file_size"`
	MimeType         string     `json:"mime_type"`
	ContentHash      string     `gorm:"not null;uniqueIndex:idx_owner_hash" json:"content_hash"`
	Status           string     `gorm:"not null;default:uploaded;index" json:"status"`
	ErrorReason      string     `json:"error_reason,omitempty"`
	IsPrimary        bool       `gorm:"default:false" json:"is_primary"`
	ParsedAt         *time.Time `json:"parsed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName 表名
func (DocumentRecord) TableName() string {
	return "documents"
}

// ToModel 转为领域视图
func (d *DocumentRecord) ToModel() *model.Document {
	return &model.Document{
		ID:               d.ID,
		OwnerID:          d.OwnerID,
		OriginalFilename: d.OriginalFilename,
		FileSize:         d.FileSize,
		MimeType:         d.MimeType,
		Status:           model.DocumentStatus(d.Status),
		ErrorReason:      d.ErrorReason,
		IsPrimary:        d.IsPrimary,
		ParsedAt:         d.ParsedAt,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

// SectionRecord 解析产物表，按document_id一对一
type SectionRecord struct {
	DocumentID     string         `gorm:"primaryKey;type:uuid" json:"document_id"`
	Summary        string         `gorm:"type:text" json:"summary"`
	Skills         string         `gorm:"type:text" json:"skills"`
	Experience     string         `gorm:"type:text" json:"experience"`
	Education      string         `gorm:"type:text" json:"education"`
	Certifications string         `gorm:"type:text" json:"certifications"`
	Metadata       datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// TableName 表名
func (SectionRecord) TableName() string {
	return "document_sections"
}

// ToModel 转为领域视图
func (s *SectionRecord) ToModel() *model.Sections {
	return &model.Sections{
		DocumentID:     s.DocumentID,
		Summary:        s.Summary,
		Skills:         s.Skills,
		Experience:     s.Experience,
		Education:      s.Education,
		Certifications: s.Certifications,
		UpdatedAt:      s.UpdatedAt,
	}
}

// PostingRecord 职位表。description列可能是纯文本或JSON
type PostingRecord struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Company     string    `json:"company"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 表名
func (PostingRecord) TableName() string {
	return "postings"
}

// ToModel 转为领域视图，description做双形态解析
func (p *PostingRecord) ToModel() *model.Posting {
	return &model.Posting{
		ID:          p.ID,
		Title:       p.Title,
		Company:     p.Company,
		Description: model.ParseDescription(p.Description),
		CreatedAt:   p.CreatedAt,
	}
}

// MatchRecord 匹配结果表，(document_id, posting_id)唯一
type MatchRecord struct {
	ID                 string         `gorm:"primaryKey;type:uuid" json:"id"`
	DocumentID         string         `gorm:"not null;uniqueIndex:idx_doc_posting" json:"document_id"`
	PostingID          string         `gorm:"not null;uniqueIndex:idx_doc_posting" json:"posting_id"`
	OverallScore       float64        `json:"overall_score"`
	SkillsScore        float64        `json:"skills_score"`
	ExperienceScore    float64        `json:"experience_score"`
	QualificationScore float64        `json:"qualification_score"`
	Analysis           datatypes.JSON `json:"analysis"`
	MatcherVersion     string         `gorm:"index" json:"matcher_version"`
	CreatedAt          time.Time      `json:"created_at"`
	ExpiresAt          time.Time      `gorm:"index" json:"expires_at"`
}

// TableName 表名
func (MatchRecord) TableName() string {
	return "match_records"
}
