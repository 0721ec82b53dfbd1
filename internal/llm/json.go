package llm

import "strings"

// ExtractJSON 清理模型响应中的markdown围栏，返回裸JSON文本。
// 即使要求json_object格式，部分模型仍会包```json围栏
func ExtractJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	// 围栏之外还有说明文字时，截取首个花括号到最后一个花括号
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
