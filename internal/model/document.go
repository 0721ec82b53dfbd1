package model

import "time"

// DocumentStatus 文档解析状态
type DocumentStatus string

// 文档状态常量
const (
	StatusUploaded DocumentStatus = "uploaded"
	StatusParsing  DocumentStatus = "parsing"
	StatusParsed   DocumentStatus = "parsed"
	StatusError    DocumentStatus = "error"
)

// IsValid 检查状态值是否合法
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusUploaded, StatusParsing, StatusParsed, StatusError:
		return true
	}
	return false
}

// IsTerminal 终态：parsed与error。error仅可通过显式reparse回到parsing
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusParsed || s == StatusError
}

// allowedTransitions 状态机：uploaded -> parsing -> parsed|error，
// error -> parsing（仅reparse），parsed -> parsing（仅reparse）
var allowedTransitions = map[DocumentStatus][]DocumentStatus{
	StatusUploaded: {StatusParsing},
	StatusParsing:  {StatusParsed, StatusError},
	StatusError:    {StatusParsing},
	StatusParsed:   {StatusParsing},
}

// CanTransition 检查状态迁移是否被状态机允许。
// reparse为true时放行error/parsed回到parsing的迁移
func CanTransition(from, to DocumentStatus, reparse bool) bool {
	if (from == StatusError || from == StatusParsed) && to == StatusParsing && !reparse {
		return false
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition 校验迁移，不允许时返回TransitionError
func ValidateTransition(from, to DocumentStatus, reparse bool) error {
	if !CanTransition(from, to, reparse) {
		return NewTransitionError(from, to)
	}
	return nil
}

// Document 文档视图（API层返回）
type Document struct {
	ID               string         `json:"id"`
	OwnerID          string         `json:"owner_id"`
	OriginalFilename string         `json:"original_filename"`
	FileSize         int64          `json:"file_size"`
	MimeType         string         `json:"mime_type"`
	Status           DocumentStatus `json:"status"`
	ErrorReason      string         `json:"error_reason,omitempty"`
	IsPrimary        bool           `json:"is_primary"`
	ParsedAt         *time.Time     `json:"parsed_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Sections 解析产物：按区块切分的简历文本
type Sections struct {
	DocumentID     string    `json:"document_id"`
	Summary        string    `json:"summary"`
	Skills         string    `json:"skills"`
	Experience     string    `json:"experience"`
	Education      string    `json:"education"`
	Certifications string    `json:"certifications"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RawText 拼出送入画像抽取的完整文本
func (s *Sections) RawText() string {
	out := ""
	for _, part := range []string{s.Summary, s.Skills, s.Experience, s.Education, s.Certifications} {
		if part == "" {
			continue
		}
		if out != "" {
			out += "\n\n"
		}
		out += part
	}
	return out
}
