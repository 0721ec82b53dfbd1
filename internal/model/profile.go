package model

// Profile 技能画像：从简历或职位描述抽取出的结构化要求/能力
type Profile struct {
	Languages      []string `json:"languages"`
	Frameworks     []string `json:"frameworks"`
	Databases      []string `json:"databases"`
	Cloud          []string `json:"cloud"`
	DevOps         []string `json:"devops"`
	Qualifications []string `json:"qualifications"`

	// 经验信号
	YearsExperience float64  `json:"years_experience"`
	Seniority       string   `json:"seniority"` // junior/mid/senior/lead等自由文本
	Domains         []string `json:"domains"`
}

// SkillCategories 固定的技能分类顺序，匹配与报表输出均按此遍历
var SkillCategories = []string{"languages", "frameworks", "databases", "cloud", "devops"}

// CategorySkills 按分类名取对应技能列表，未知分类返回nil
func (p *Profile) CategorySkills(category string) []string {
	if p == nil {
		return nil
	}
	switch category {
	case "languages":
		return p.Languages
	case "frameworks":
		return p.Frameworks
	case "databases":
		return p.Databases
	case "cloud":
		return p.Cloud
	case "devops":
		return p.DevOps
	}
	return nil
}

// SetCategorySkills 按分类名写回技能列表
func (p *Profile) SetCategorySkills(category string, skills []string) {
	switch category {
	case "languages":
		p.Languages = skills
	case "frameworks":
		p.Frameworks = skills
	case "databases":
		p.Databases = skills
	case "cloud":
		p.Cloud = skills
	case "devops":
		p.DevOps = skills
	}
}

// AllSkills 汇总全部分类的技能（不去重）
func (p *Profile) AllSkills() []string {
	var all []string
	for _, c := range SkillCategories {
		all = append(all, p.CategorySkills(c)...)
	}
	return all
}
