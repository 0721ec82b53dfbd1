package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Posting 职位
type Posting struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Company     string             `json:"company"`
	Description PostingDescription `json:"description"`
	CreatedAt   time.Time          `json:"created_at"`
}

// PostingDescription 职位描述的双形态载体：
// 纯文本，或已带结构化要求列表的JSON对象。
// 两种输入形态解码到同一类型，下游不再分支
type PostingDescription struct {
	Text       string   `json:"text,omitempty"`
	Structured *Profile `json:"structured,omitempty"`
}

// UnmarshalJSON 同时接受字符串与对象两种JSON形态
func (d *PostingDescription) UnmarshalJSON(data []byte) error {
	// 字符串形态
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		d.Text = text
		d.Structured = nil
		return nil
	}

	// 对象形态
	type alias PostingDescription
	var obj alias
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*d = PostingDescription(obj)
	return nil
}

// MarshalJSON 有结构化要求时输出对象，否则输出纯字符串
func (d PostingDescription) MarshalJSON() ([]byte, error) {
	if d.Structured == nil {
		return json.Marshal(d.Text)
	}
	type alias PostingDescription
	return json.Marshal(alias(d))
}

// IsEmpty 既无文本也无结构化要求
func (d PostingDescription) IsEmpty() bool {
	return strings.TrimSpace(d.Text) == "" && d.Structured == nil
}

// ParseDescription 兼容历史数据：description列里可能直接存着JSON。
// 识别不出的JSON对象（键不是text/structured的历史格式）按原文保留，
// 解析失败同样按原文保留，任何分支都不丢内容
func ParseDescription(raw string) PostingDescription {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "\"") {
		var d PostingDescription
		if err := json.Unmarshal([]byte(trimmed), &d); err == nil {
			return d
		}
	}
	if strings.HasPrefix(trimmed, "{") {
		var d PostingDescription
		if err := json.Unmarshal([]byte(trimmed), &d); err == nil && !d.IsEmpty() {
			return d
		}
	}
	return PostingDescription{Text: raw}
}
