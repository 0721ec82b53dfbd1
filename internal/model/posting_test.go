package model

import (
	"encoding/json"
	"testing"
)

func TestPostingDescriptionUnmarshalString(t *testing.T) {
	var d PostingDescription
	if err := json.Unmarshal([]byte(`"We need a Go engineer"`), &d); err != nil {
		t.Fatalf("unmarshal string form: %v", err)
	}
	if d.Text != "We need a Go engineer" || d.Structured != nil {
		t.Errorf("unexpected result: %+v", d)
	}
}

func TestPostingDescriptionUnmarshalObject(t *testing.T) {
	raw := `{"text":"backend role","structured":{"languages":["python","kubernetes"],"years_experience":3}}`
	var d PostingDescription
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("unmarshal object form: %v", err)
	}
	if d.Structured == nil {
		t.Fatal("expected structured requirements")
	}
	if len(d.Structured.Languages) != 2 || d.Structured.YearsExperience != 3 {
		t.Errorf("unexpected structured profile: %+v", d.Structured)
	}
}

func TestPostingDescriptionMarshalRoundTrip(t *testing.T) {
	d := PostingDescription{Text: "plain"}
	out, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"plain"` {
		t.Errorf("plain text should marshal as string, got %s", out)
	}
}

func TestParseDescriptionLegacyJSON(t *testing.T) {
	d := ParseDescription(`{"text":"stored as json"}`)
	if d.Text != "stored as json" {
		t.Errorf("expected legacy JSON column to decode, got %+v", d)
	}

	d = ParseDescription("just text")
	if d.Text != "just text" || d.Structured != nil {
		t.Errorf("expected raw text passthrough, got %+v", d)
	}
}

func TestParseDescriptionUnrecognizedObjectKeepsRaw(t *testing.T) {
	// 历史数据里存在键不是text/structured的JSON对象，内容不能丢
	raw := `{"requirements_matrix":[{"skill":"go","level":"senior"}],"summary":"backend role"}`
	d := ParseDescription(raw)
	if d.IsEmpty() {
		t.Fatal("unrecognized JSON object must not decode to an empty description")
	}
	if d.Text != raw {
		t.Errorf("expected raw content preserved as text, got %+v", d)
	}
}

func TestParseDescriptionMalformedJSONKeepsRaw(t *testing.T) {
	raw := `{"text": truncated`
	d := ParseDescription(raw)
	if d.Text != raw {
		t.Errorf("expected malformed JSON preserved as text, got %+v", d)
	}
}
