package model

import "time"

// MatcherVersion 匹配算法版本，打在每个结果上。
// 缓存与落库的结果携带旧版本号时可识别并重算
const MatcherVersion = "5.0"

// CategoryMatch 单个技能分类的确定性匹配结果
type CategoryMatch struct {
	Matched []string `json:"matched"`
	Missing []string `json:"missing"`
	Score   float64  `json:"score"` // 0-100覆盖率
}

// MatchBreakdown 确定性匹配的完整拆解
type MatchBreakdown struct {
	Categories         map[string]CategoryMatch `json:"categories"`
	SkillsScore        float64                  `json:"skills_score"`
	ExperienceScore    float64                  `json:"experience_score"`
	QualificationScore float64                  `json:"qualification_score"`

	MatchedSkills []string `json:"matched_skills"`
	MissingSkills []string `json:"missing_skills"`
}

// 领域契合度取值
const (
	DomainFitSame     = "SAME"
	DomainFitAdjacent = "ADJACENT"
	DomainFitMismatch = "MISMATCH"
)

// Narrative 整体评估产出的叙述性分析
type Narrative struct {
	Strengths       []string `json:"strengths"`
	Gaps            []string `json:"gaps"`
	Recommendations []string `json:"recommendations"`
	DomainFit       string   `json:"domain_fit"`    // SAME|ADJACENT|MISMATCH
	GapSeverity     string   `json:"gap_severity"`  // low|medium|high
	Summary         string   `json:"summary"`
}

// MatchResult 一次完整匹配分析的结果
type MatchResult struct {
	DocumentID string `json:"document_id"`
	PostingID  string `json:"posting_id"`

	OverallScore       float64 `json:"overall_score"`
	SkillsScore        float64 `json:"skills_score"`
	ExperienceScore    float64 `json:"experience_score"`
	QualificationScore float64 `json:"qualification_score"`

	Breakdown MatchBreakdown `json:"breakdown"`
	Narrative Narrative      `json:"narrative"`

	MatcherVersion string    `json:"matcher_version"`
	ComputedAt     time.Time `json:"computed_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// IsExpired 结果是否已过期（过期视同未缓存）
func (r *MatchResult) IsExpired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !r.ExpiresAt.After(now)
}

// IsCurrentVersion 是否由当前版本的匹配器产出
func (r *MatchResult) IsCurrentVersion() bool {
	return r.MatcherVersion == MatcherVersion
}
