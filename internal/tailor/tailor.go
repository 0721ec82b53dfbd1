// Package tailor 简历定制：依据匹配分析把简历内容向目标职位倾斜。
// 单次补全调用，不自动重试；输入是已完成的分析信号而非原始猜测
package tailor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/TomerCohen95/tailorjob-sub001/internal/llm"
	"github.com/TomerCohen95/tailorjob-sub001/internal/model"
)

// Tailorer 简历定制接口
type Tailorer interface {
	// Tailor 基于解析产物、目标职位与匹配分析生成定制版简历内容
	Tailor(ctx context.Context, sections *model.Sections, posting *model.Posting, match *model.MatchResult) (*model.TailoredCV, error)
}

type tailorer struct {
	client llm.Client
}

// New 创建简历定制器
func New(client llm.Client) Tailorer {
	return &tailorer{client: client}
}

const tailorSystemPrompt = `You are an expert CV writer. Tailor the given CV content to maximize fit for the target job, using the provided match analysis. Respond with a single JSON object and nothing else, using this schema:
{
  "summary": "rewritten professional summary emphasizing relevant experience",
  "skills": ["all existing skills, reordered by relevance to the job"],
  "experience_bullets": ["rewritten experience bullets, most relevant first"],
  "education": "education entries, kept as-is",
  "certifications": ["all certifications, kept as-is"],
  "emphasis": ["what was emphasized or reordered and why"]
}
CRITICAL RULES:
- Do NOT add skills or experience not present in the original CV.
- Do NOT remove experience or education entries.
- Keep all factual information accurate; improve emphasis and presentation only.`

// tailorInput 喂给补全的结构化输入：区块原文 + 职位 + 已算好的分析信号
type tailorInput struct {
	JobTitle        string   `json:"job_title"`
	JobCompany      string   `json:"job_company,omitempty"`
	JobDescription  string   `json:"job_description"`
	CVSummary       string   `json:"cv_summary"`
	CVSkills        string   `json:"cv_skills"`
	CVExperience    string   `json:"cv_experience"`
	CVEducation     string   `json:"cv_education"`
	Certifications  string   `json:"cv_certifications"`
	Strengths       []string `json:"strengths"`
	Gaps            []string `json:"gaps"`
	Recommendations []string `json:"recommendations"`
	MissingSkills   []string `json:"missing_skills"`
	DomainFit       string   `json:"domain_fit"`
}

// Tailor 生成定制版简历内容
func (t *tailorer) Tailor(ctx context.Context, sections *model.Sections, posting *model.Posting, match *model.MatchResult) (*model.TailoredCV, error) {
	if sections == nil || strings.TrimSpace(sections.RawText()) == "" {
		return nil, model.NewInvalidInputError("简历解析产物为空，无法定制")
	}
	if posting == nil || posting.Description.IsEmpty() {
		return nil, model.NewInvalidInputError("职位描述为空，无法定制")
	}
	if match == nil {
		return nil, model.NewInvalidInputError("缺少匹配分析结果")
	}

	input := tailorInput{
		JobTitle:        posting.Title,
		JobCompany:      posting.Company,
		JobDescription:  posting.Description.Text,
		CVSummary:       sections.Summary,
		CVSkills:        sections.Skills,
		CVExperience:    sections.Experience,
		CVEducation:     sections.Education,
		Certifications:  sections.Certifications,
		Strengths:       match.Narrative.Strengths,
		Gaps:            match.Narrative.Gaps,
		Recommendations: match.Narrative.Recommendations,
		MissingSkills:   match.Breakdown.MissingSkills,
		DomainFit:       match.Narrative.DomainFit,
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("序列化定制输入失败: %w", err)
	}

	raw, err := t.client.CompleteJSON(ctx, tailorSystemPrompt, string(payload))
	if err != nil {
		return nil, model.NewExtractionError(sections.DocumentID, "定制补全调用失败", err)
	}

	var result model.TailoredCV
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &result); err != nil {
		return nil, model.NewExtractionError(sections.DocumentID, "模型响应不是合法定制结果", err)
	}
	if result.IsEmpty() {
		return nil, model.NewExtractionError(sections.DocumentID, "模型返回了空的定制结果", nil)
	}

	result.DocumentID = sections.DocumentID
	result.PostingID = posting.ID
	result.GeneratedAt = time.Now()
	return &result, nil
}
