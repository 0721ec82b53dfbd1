package extractor

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/TomerCohen95/tailorjob-sub001/internal/llm"
	"github.com/TomerCohen95/tailorjob-sub001/internal/model"
)

// SectionExtractor 把原始简历文本切分为结构化区块
type SectionExtractor interface {
	ExtractSections(ctx context.Context, documentID string, rawText string) (*model.Sections, error)
}

type sectionExtractor struct {
	client llm.Client
}

// NewSectionExtractor 创建区块抽取器
func NewSectionExtractor(client llm.Client) SectionExtractor {
	return &sectionExtractor{client: client}
}

const sectionSystemPrompt = `You are a resume parsing assistant. Split the given resume text into sections. Respond with a single JSON object and nothing else:
{
  "summary": "professional summary or objective",
  "skills": "all technical and soft skills as written",
  "experience": "work experience entries as written",
  "education": "education entries as written",
  "certifications": "certifications as written"
}
Copy text from the resume verbatim into each section. Missing sections must be empty strings.`

// ExtractSections 单次补全调用切分区块，不自动重试
func (e *sectionExtractor) ExtractSections(ctx context.Context, documentID string, rawText string) (*model.Sections, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, model.NewExtractionError(documentID, "文档内容为空", nil)
	}

	raw, err := e.client.CompleteJSON(ctx, sectionSystemPrompt, rawText)
	if err != nil {
		return nil, model.NewExtractionError(documentID, "补全调用失败", err)
	}

	var sections model.Sections
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &sections); err != nil {
		return nil, model.NewExtractionError(documentID, "模型响应不是合法区块", err)
	}

	sections.DocumentID = documentID
	if sections.RawText() == "" {
		return nil, model.NewExtractionError(documentID, "模型未能切分出任何区块", nil)
	}
	return &sections, nil
}
