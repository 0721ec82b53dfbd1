// Package extractor 画像抽取：原始文本 -> 结构化技能画像。
// 单次补全调用，不自动重试；失败直接上抛由调用方决定
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/TomerCohen95/tailorjob-sub001/internal/llm"
	"github.com/TomerCohen95/tailorjob-sub001/internal/model"
	"github.com/TomerCohen95/tailorjob-sub001/internal/normalizer"
)

// ProfileExtractor 画像抽取接口
type ProfileExtractor interface {
	// ExtractProfile 从简历文本抽取候选画像
	ExtractProfile(ctx context.Context, rawText string) (*model.Profile, error)
	// ExtractPostingProfile 从职位描述抽取要求画像。
	// 描述已带结构化要求时跳过补全调用
	ExtractPostingProfile(ctx context.Context, posting *model.Posting) (*model.Profile, error)
}

type extractor struct {
	client llm.Client
}

// New 创建画像抽取器
func New(client llm.Client) ProfileExtractor {
	return &extractor{client: client}
}

const extractSystemPrompt = `You are a technical recruiter assistant. Extract a structured skill profile from the given text. Respond with a single JSON object and nothing else, using this schema:
{
  "languages": ["programming languages"],
  "frameworks": ["frameworks and libraries"],
  "databases": ["databases and data stores"],
  "cloud": ["cloud platforms and services"],
  "devops": ["devops and infrastructure tools"],
  "qualifications": ["degrees and certifications"],
  "years_experience": 0,
  "seniority": "junior|mid|senior|lead",
  "domains": ["business domains worked in"]
}
Unknown fields must be empty lists, 0 or "". Do not invent skills that are not in the text.`

// ExtractProfile 从简历文本抽取候选画像
func (e *extractor) ExtractProfile(ctx context.Context, rawText string) (*model.Profile, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, model.NewInvalidInputError("抽取文本为空")
	}

	raw, err := e.client.CompleteJSON(ctx, extractSystemPrompt, rawText)
	if err != nil {
		return nil, model.NewExtractionError("", "补全调用失败", err)
	}

	profile, err := parseProfile(raw)
	if err != nil {
		return nil, model.NewExtractionError("", "模型响应不是合法画像", err)
	}

	return normalizer.NormalizeProfile(profile), nil
}

// ExtractPostingProfile 从职位描述抽取要求画像
func (e *extractor) ExtractPostingProfile(ctx context.Context, posting *model.Posting) (*model.Profile, error) {
	if posting == nil || posting.Description.IsEmpty() {
		return nil, model.NewInvalidInputError("职位描述为空")
	}

	// 结构化形态直接用，不再花一次补全
	if s := posting.Description.Structured; s != nil {
		return normalizer.NormalizeProfile(s), nil
	}

	text := posting.Description.Text
	if posting.Title != "" {
		text = fmt.Sprintf("Job title: %s\nCompany: %s\n\n%s", posting.Title, posting.Company, text)
	}

	raw, err := e.client.CompleteJSON(ctx, extractSystemPrompt, text)
	if err != nil {
		return nil, model.NewExtractionError("", "补全调用失败", err)
	}

	profile, err := parseProfile(raw)
	if err != nil {
		return nil, model.NewExtractionError("", "模型响应不是合法画像", err)
	}

	return normalizer.NormalizeProfile(profile), nil
}

// parseProfile 容错解析模型输出：剥离围栏，忽略未知字段
func parseProfile(raw string) (*model.Profile, error) {
	cleaned := llm.ExtractJSON(raw)
	var profile model.Profile
	if err := json.Unmarshal([]byte(cleaned), &profile); err != nil {
		return nil, fmt.Errorf("解析画像JSON失败: %w", err)
	}
	return &profile, nil
}
