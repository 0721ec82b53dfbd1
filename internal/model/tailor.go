package model

import "time"

// TailoredCV 针对特定职位重写后的简历内容。
// 只重排与改写表述，不得新增原简历里没有的事实
type TailoredCV struct {
	DocumentID string `json:"document_id"`
	PostingID  string `json:"posting_id"`

	Summary           string   `json:"summary"`
	Skills            []string `json:"skills"`
	ExperienceBullets []string `json:"experience_bullets"`
	Education         string   `json:"education,omitempty"`
	Certifications    []string `json:"certifications,omitempty"`

	// Emphasis 本次改写强调了哪些方向，给前端展示改动理由
	Emphasis []string `json:"emphasis,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// IsEmpty 改写结果没有任何实质内容
func (t *TailoredCV) IsEmpty() bool {
	return t.Summary == "" && len(t.Skills) == 0 && len(t.ExperienceBullets) == 0
}
