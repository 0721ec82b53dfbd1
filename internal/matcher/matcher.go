// Package matcher 确定性匹配：集合运算与固定规则，无I/O、无随机性。
// 同样的输入永远产出同样的拆解结果
package matcher

import (
	"math"
	"sort"

	"github.com/TomerCohen95/tailorjob-sub001/internal/model"
)

// Match 对规范化后的要求画像与候选画像做确定性匹配。
// nil或缺失的列表按空集合处理，永不出错
func Match(required, candidate *model.Profile) model.MatchBreakdown {
	if required == nil {
		required = &model.Profile{}
	}
	if candidate == nil {
		candidate = &model.Profile{}
	}

	breakdown := model.MatchBreakdown{
		Categories: make(map[string]model.CategoryMatch, len(model.SkillCategories)),
	}

	var allRequired, allCandidate []string
	for _, category := range model.SkillCategories {
		req := required.CategorySkills(category)
		cand := candidate.CategorySkills(category)
		allRequired = append(allRequired, req...)
		allCandidate = append(allCandidate, cand...)

		matched, missing := intersect(req, cand)
		breakdown.Categories[category] = model.CategoryMatch{
			Matched: matched,
			Missing: missing,
			Score:   CoverageScore(req, cand),
		}
	}

	// 候选技能跨分类生效：职位把docker归为devops而候选归为tools时仍可命中
	breakdown.MatchedSkills, breakdown.MissingSkills = intersect(allRequired, allCandidate)
	breakdown.SkillsScore = CoverageScore(allRequired, allCandidate)
	breakdown.ExperienceScore = ExperienceScore(required, candidate)
	breakdown.QualificationScore = CoverageScore(required.Qualifications, candidate.Qualifications)

	return breakdown
}

// CoverageScore 覆盖率评分：100 * |required ∩ candidate| / |required|。
// 无要求时视为完全覆盖，返回100
func CoverageScore(required, candidate []string) float64 {
	reqSet := toSet(required)
	if len(reqSet) == 0 {
		return 100
	}

	candSet := toSet(candidate)
	hits := 0
	for skill := range reqSet {
		if _, ok := candSet[skill]; ok {
			hits++
		}
	}
	return 100 * float64(hits) / float64(len(reqSet))
}

// GapScore 经验年限差距的基础分。gap = 候选年限 - 要求年限
func GapScore(gap float64) float64 {
	switch {
	case gap >= 0:
		return 40
	case gap >= -2:
		return 30
	case gap >= -4:
		return 20
	default:
		return 10
	}
}

// ExperienceScore 经验评分：年限差距基础分 + 级别匹配加分 + 领域重叠加分，上限100
func ExperienceScore(required, candidate *model.Profile) float64 {
	score := GapScore(candidate.YearsExperience - required.YearsExperience)

	if required.Seniority != "" && required.Seniority == candidate.Seniority {
		score += 30
	} else {
		score += 15
	}

	score += math.Round(domainOverlap(required.Domains, candidate.Domains) * 30)

	if score > 100 {
		score = 100
	}
	return score
}

// domainOverlap 领域重叠比例：|req ∩ cand| / |req|，无要求领域时为0
func domainOverlap(required, candidate []string) float64 {
	reqSet := toSet(required)
	if len(reqSet) == 0 {
		return 0
	}
	candSet := toSet(candidate)
	hits := 0
	for d := range reqSet {
		if _, ok := candSet[d]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(reqSet))
}

// intersect 返回required中被candidate覆盖与未覆盖的两个有序列表
func intersect(required, candidate []string) (matched, missing []string) {
	candSet := toSet(candidate)
	seen := make(map[string]struct{}, len(required))
	for _, skill := range required {
		if skill == "" {
			continue
		}
		if _, dup := seen[skill]; dup {
			continue
		}
		seen[skill] = struct{}{}
		if _, ok := candSet[skill]; ok {
			matched = append(matched, skill)
		} else {
			missing = append(missing, skill)
		}
	}
	sort.Strings(matched)
	sort.Strings(missing)
	return matched, missing
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item == "" {
			continue
		}
		set[item] = struct{}{}
	}
	return set
}
