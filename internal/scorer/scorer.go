// Package scorer 整体评分：确定性拆解的加权合成 + 一次叙述性评估。
// 叙述只解释结果，绝不改写确定性分数
package scorer

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/TomerCohen95/tailorjob-sub001/internal/config"
	"github.com/TomerCohen95/tailorjob-sub001/internal/llm"
	"github.com/TomerCohen95/tailorjob-sub001/internal/model"
)

// Scorer 整体评分接口
type Scorer interface {
	Score(ctx context.Context, breakdown model.MatchBreakdown, required, candidate *model.Profile) (*model.MatchResult, error)
}

type holisticScorer struct {
	client  llm.Client
	weights config.MatchConfig
}

// New 创建整体评分器
func New(client llm.Client, weights config.MatchConfig) Scorer {
	return &holisticScorer{client: client, weights: weights}
}

const narrativeSystemPrompt = `You are a technical recruiter assistant. Given deterministic match signals between a job posting and a candidate, write a short qualitative assessment. Respond with a single JSON object:
{
  "strengths": ["..."],
  "gaps": ["..."],
  "recommendations": ["..."],
  "domain_fit": "SAME|ADJACENT|MISMATCH",
  "gap_severity": "low|medium|high",
  "summary": "one paragraph"
}
Base the assessment only on the provided signals. Do not invent numbers.`

// Score 合成总分并产出叙述。补全失败时整个评分失败，调用方不得缓存
func (s *holisticScorer) Score(ctx context.Context, breakdown model.MatchBreakdown, required, candidate *model.Profile) (*model.MatchResult, error) {
	overall := s.weights.SkillsWeight*breakdown.SkillsScore +
		s.weights.ExperienceWeight*breakdown.ExperienceScore +
		s.weights.QualificationWeight*breakdown.QualificationScore
	overall = math.Round(overall*10) / 10

	narrative, err := s.narrate(ctx, breakdown, required, candidate)
	if err != nil {
		return nil, fmt.Errorf("叙述性评估失败: %w", err)
	}

	return &model.MatchResult{
		OverallScore:       overall,
		SkillsScore:        breakdown.SkillsScore,
		ExperienceScore:    breakdown.ExperienceScore,
		QualificationScore: breakdown.QualificationScore,
		Breakdown:          breakdown,
		Narrative:          *narrative,
		MatcherVersion:     model.MatcherVersion,
		ComputedAt:         time.Now(),
	}, nil
}

// narrate 一次补全调用，把确定性信号转成叙述
func (s *holisticScorer) narrate(ctx context.Context, breakdown model.MatchBreakdown, required, candidate *model.Profile) (*model.Narrative, error) {
	signals := map[string]interface{}{
		"skills_score":        breakdown.SkillsScore,
		"experience_score":    breakdown.ExperienceScore,
		"qualification_score": breakdown.QualificationScore,
		"matched_skills":      breakdown.MatchedSkills,
		"missing_skills":      breakdown.MissingSkills,
		"required_seniority":  required.Seniority,
		"candidate_seniority": candidate.Seniority,
		"required_years":      required.YearsExperience,
		"candidate_years":     candidate.YearsExperience,
		"required_domains":    required.Domains,
		"candidate_domains":   candidate.Domains,
	}
	payload, err := json.Marshal(signals)
	if err != nil {
		return nil, fmt.Errorf("序列化信号失败: %w", err)
	}

	raw, err := s.client.CompleteJSON(ctx, narrativeSystemPrompt, string(payload))
	if err != nil {
		return nil, err
	}

	var narrative model.Narrative
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &narrative); err != nil {
		return nil, fmt.Errorf("解析叙述JSON失败: %w", err)
	}

	narrative.DomainFit = normalizeDomainFit(narrative.DomainFit)
	return &narrative, nil
}

// normalizeDomainFit 约束领域契合度取值，未知值落到MISMATCH
func normalizeDomainFit(fit string) string {
	switch strings.ToUpper(strings.TrimSpace(fit)) {
	case model.DomainFitSame:
		return model.DomainFitSame
	case model.DomainFitAdjacent:
		return model.DomainFitAdjacent
	default:
		return model.DomainFitMismatch
	}
}
