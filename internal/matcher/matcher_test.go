package matcher

import (
	"reflect"
	"testing"

	"github.com/TomerCohen95/tailorjob-sub001/internal/model"
)

func TestCoverageScore(t *testing.T) {
	tests := []struct {
		name      string
		required  []string
		candidate []string
		want      float64
	}{
		{"full coverage", []string{"python", "go"}, []string{"go", "python", "rust"}, 100},
		{"half coverage", []string{"python", "kubernetes"}, []string{"python", "react"}, 50},
		{"no coverage", []string{"java"}, []string{"python"}, 0},
		{"vacuous requirement", nil, []string{"python"}, 100},
		{"empty requirement empty candidate", nil, nil, 100},
		{"duplicates in requirement count once", []string{"go", "go"}, []string{"go"}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoverageScore(tt.required, tt.candidate); got != tt.want {
				t.Errorf("CoverageScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGapScoreBoundaries(t *testing.T) {
	tests := []struct {
		gap  float64
		want float64
	}{
		{0, 40},
		{3, 40},
		{-2, 30},
		{-1, 30},
		{-3, 20},
		{-4, 20},
		{-5, 10},
		{-10, 10},
	}

	for _, tt := range tests {
		if got := GapScore(tt.gap); got != tt.want {
			t.Errorf("GapScore(%v) = %v, want %v", tt.gap, got, tt.want)
		}
	}
}

func TestExperienceScore(t *testing.T) {
	required := &model.Profile{YearsExperience: 5, Seniority: "senior", Domains: []string{"fintech", "payments"}}

	exact := &model.Profile{YearsExperience: 6, Seniority: "senior", Domains: []string{"fintech", "payments"}}
	if got := ExperienceScore(required, exact); got != 100 {
		t.Errorf("exact match score = %v, want 100", got)
	}

	// gap 0, 级别不同+15, 领域重叠一半+15
	partial := &model.Profile{YearsExperience: 5, Seniority: "mid", Domains: []string{"fintech"}}
	if got := ExperienceScore(required, partial); got != 70 {
		t.Errorf("partial match score = %v, want 70", got)
	}

	// gap -5基础10, 级别不同+15, 无领域重叠
	weak := &model.Profile{YearsExperience: 0, Seniority: "junior"}
	if got := ExperienceScore(required, weak); got != 25 {
		t.Errorf("weak match score = %v, want 25", got)
	}
}

func TestExperienceScoreCap(t *testing.T) {
	required := &model.Profile{YearsExperience: 1, Seniority: "senior", Domains: []string{"saas"}}
	candidate := &model.Profile{YearsExperience: 15, Seniority: "senior", Domains: []string{"saas"}}
	if got := ExperienceScore(required, candidate); got != 100 {
		t.Errorf("score must cap at 100, got %v", got)
	}
}

func TestMatchCategories(t *testing.T) {
	required := &model.Profile{
		Languages: []string{"python", "kubernetes"},
	}
	candidate := &model.Profile{
		Languages: []string{"python", "react"},
	}

	breakdown := Match(required, candidate)

	langs := breakdown.Categories["languages"]
	if !reflect.DeepEqual(langs.Matched, []string{"python"}) {
		t.Errorf("matched = %v, want [python]", langs.Matched)
	}
	if !reflect.DeepEqual(langs.Missing, []string{"kubernetes"}) {
		t.Errorf("missing = %v, want [kubernetes]", langs.Missing)
	}
	if langs.Score != 50 {
		t.Errorf("languages score = %v, want 50", langs.Score)
	}
	if breakdown.SkillsScore != 50 {
		t.Errorf("skills score = %v, want 50", breakdown.SkillsScore)
	}
}

func TestMatchCrossCategoryHit(t *testing.T) {
	required := &model.Profile{DevOps: []string{"docker"}}
	candidate := &model.Profile{Frameworks: []string{"docker"}}

	breakdown := Match(required, candidate)
	if breakdown.SkillsScore != 100 {
		t.Errorf("cross-category skill should count globally, score = %v", breakdown.SkillsScore)
	}
	// 分类内仍然记为缺失
	if breakdown.Categories["devops"].Score != 0 {
		t.Errorf("per-category score should miss, got %v", breakdown.Categories["devops"].Score)
	}
}

func TestMatchNilProfiles(t *testing.T) {
	breakdown := Match(nil, nil)
	if breakdown.SkillsScore != 100 || breakdown.QualificationScore != 100 {
		t.Errorf("vacuous match should fully cover: %+v", breakdown)
	}
	if len(breakdown.Categories) != len(model.SkillCategories) {
		t.Error("all categories must be present even when empty")
	}
}

func TestMatchDeterministic(t *testing.T) {
	required := &model.Profile{Languages: []string{"go", "python"}, Databases: []string{"postgresql"}}
	candidate := &model.Profile{Languages: []string{"python"}, Databases: []string{"postgresql", "redis"}}

	first := Match(required, candidate)
	second := Match(required, candidate)
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs must produce identical breakdowns")
	}
}
