// Package normalizer 技能名称规范化：消除同义漂移（React.js/ReactJS/react）。
// 规范名取完整写法，缩写与别名映射到完整名
package normalizer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/TomerCohen95/tailorjob-sub001/internal/model"
)

// synonyms 别名 -> 规范名映射表。
// 规范名自身不得出现在键中映射到别处，保证幂等
var synonyms = map[string]string{
	// 语言
	"golang":  "go",
	"go lang": "go",
	"js":      "javascript",
	"ts":      "typescript",
	"node":    "nodejs",
	"node.js": "nodejs",
	"c++":     "cpp",
	"c#":      "csharp",
	".net":    "dotnet",

	// 前端框架
	"react.js":   "react",
	"reactjs":    "react",
	"react js":   "react",
	"angular.js": "angular",
	"angularjs":  "angular",
	"angular js": "angular",
	"vue.js":     "vue",
	"vuejs":      "vue",
	"vue js":     "vue",
	"next.js":    "nextjs",

	// 后端框架
	"express.js":  "express",
	"expressjs":   "express",
	"spring boot": "spring",
	"springboot":  "spring",

	// 云平台
	"aws":                   "amazon web services",
	"gcp":                   "google cloud",
	"google cloud platform": "google cloud",
	"azure cloud services":  "azure",
	"microsoft azure":       "azure",

	// 数据库
	"postgres":             "postgresql",
	"mongo":                "mongodb",
	"mssql":                "sql server",
	"microsoft sql server": "sql server",

	// DevOps
	"k8s": "kubernetes",

	// 大数据
	"spark":  "apache spark",
	"athena": "aws athena",
	"drill":  "apache drill",
	"kafka":  "apache kafka",
}

// versionSuffix 匹配尾部版本号："python 3"、"java 11"、"vue 2.7"、"python 3+"
var versionSuffix = regexp.MustCompile(`\s+v?\d+(\.\d+)*\+?$`)

// Normalize 规范化单个技能名。小写、去空白、去尾部版本号、查别名表。
// 幂等：Normalize(Normalize(x)) == Normalize(x)
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	s = versionSuffix.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	if canonical, ok := synonyms[s]; ok {
		return canonical
	}
	return s
}

// NormalizeSet 规范化技能列表：逐个规范化后去重、排序。
// 空串被丢弃，nil输入返回nil
func NormalizeSet(raw []string) []string {
	if raw == nil {
		return nil
	}

	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, r := range raw {
		n := Normalize(r)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// NormalizeProfile 规范化画像的全部技能分类与资质，返回新副本
func NormalizeProfile(p *model.Profile) *model.Profile {
	if p == nil {
		return nil
	}

	out := *p
	for _, category := range model.SkillCategories {
		out.SetCategorySkills(category, NormalizeSet(p.CategorySkills(category)))
	}
	out.Qualifications = NormalizeSet(p.Qualifications)
	out.Domains = NormalizeSet(p.Domains)
	out.Seniority = strings.ToLower(strings.TrimSpace(p.Seniority))
	return &out
}
