// Package report 匹配报告导出：把一次匹配分析写成xlsx工作簿
package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/TomerCohen95/tailorjob-sub001/internal/model"
)

// BuildWorkbook 生成匹配报告工作簿：总览、技能明细、叙述分析三个sheet
func BuildWorkbook(result *model.MatchResult, posting *model.Posting) (*excelize.File, error) {
	if result == nil {
		return nil, fmt.Errorf("匹配结果为空")
	}

	f := excelize.NewFile()

	if err := writeOverview(f, result, posting); err != nil {
		return nil, err
	}
	if err := writeSkills(f, result); err != nil {
		return nil, err
	}
	if err := writeNarrative(f, result); err != nil {
		return nil, err
	}

	return f, nil
}

func writeOverview(f *excelize.File, result *model.MatchResult, posting *model.Posting) error {
	const sheet = "Overview"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("重命名总览sheet失败: %w", err)
	}

	rows := [][]interface{}{
		{"Document ID", result.DocumentID},
		{"Posting ID", result.PostingID},
		{"Overall Score", result.OverallScore},
		{"Skills Score", result.SkillsScore},
		{"Experience Score", result.ExperienceScore},
		{"Qualification Score", result.QualificationScore},
		{"Domain Fit", result.Narrative.DomainFit},
		{"Gap Severity", result.Narrative.GapSeverity},
		{"Matcher Version", result.MatcherVersion},
		{"Computed At", result.ComputedAt.Format("2006-01-02 15:04:05")},
	}
	if posting != nil {
		rows = append(rows,
			[]interface{}{"Posting Title", posting.Title},
			[]interface{}{"Company", posting.Company},
		)
	}

	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("写总览行失败: %w", err)
		}
	}
	return nil
}

func writeSkills(f *excelize.File, result *model.MatchResult) error {
	const sheet = "Skills"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("创建技能sheet失败: %w", err)
	}

	header := []interface{}{"Category", "Score", "Matched", "Missing"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("写技能表头失败: %w", err)
	}

	row := 2
	for _, category := range model.SkillCategories {
		cm, ok := result.Breakdown.Categories[category]
		if !ok {
			continue
		}
		values := []interface{}{
			category,
			cm.Score,
			strings.Join(cm.Matched, ", "),
			strings.Join(cm.Missing, ", "),
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return fmt.Errorf("写技能行失败: %w", err)
		}
		row++
	}
	return nil
}

func writeNarrative(f *excelize.File, result *model.MatchResult) error {
	const sheet = "Analysis"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("创建分析sheet失败: %w", err)
	}

	sections := []struct {
		title string
		items []string
	}{
		{"Strengths", result.Narrative.Strengths},
		{"Gaps", result.Narrative.Gaps},
		{"Recommendations", result.Narrative.Recommendations},
	}

	row := 1
	for _, section := range sections {
		if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", row), section.title); err != nil {
			return fmt.Errorf("写分析标题失败: %w", err)
		}
		row++
		for _, item := range section.items {
			if err := f.SetCellValue(sheet, fmt.Sprintf("B%d", row), item); err != nil {
				return fmt.Errorf("写分析条目失败: %w", err)
			}
			row++
		}
		row++
	}

	if result.Narrative.Summary != "" {
		if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Summary"); err != nil {
			return fmt.Errorf("写总结标题失败: %w", err)
		}
		if err := f.SetCellValue(sheet, fmt.Sprintf("B%d", row+1), result.Narrative.Summary); err != nil {
			return fmt.Errorf("写总结失败: %w", err)
		}
	}
	return nil
}
