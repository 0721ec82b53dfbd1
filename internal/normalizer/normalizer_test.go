package normalizer

import (
	"reflect"
	"testing"

	"github.com/TomerCohen95/tailorjob-sub001/internal/model"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"K8s", "kubernetes"},
		{"JS", "javascript"},
		{"Golang", "go"},
		{"Postgres", "postgresql"},
		{"AWS", "amazon web services"},
		{"  Python 3  ", "python"},
		{"python 3+", "python"},
		{"Java 11", "java"},
		{"Vue.js 2", "vue"},
		{"React.JS", "react"},
		{"Node", "nodejs"},
		{"unknown-skill", "unknown-skill"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.raw); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"K8s", "AWS", "Python 3", "react.js", "Spring Boot", "random"}
	for _, raw := range inputs {
		once := Normalize(raw)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", raw, once, twice)
		}
	}
}

func TestNormalizeSetDedupAndSort(t *testing.T) {
	got := NormalizeSet([]string{"K8s", "kubernetes", "JS", "", "aws"})
	want := []string{"amazon web services", "javascript", "kubernetes"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeSet = %v, want %v", got, want)
	}

	if NormalizeSet(nil) != nil {
		t.Error("NormalizeSet(nil) should stay nil")
	}
}

func TestNormalizeProfileDoesNotMutateInput(t *testing.T) {
	p := &model.Profile{
		Languages: []string{"Golang", "JS"},
		Cloud:     []string{"AWS"},
		Seniority: "Senior",
	}
	out := NormalizeProfile(p)

	if !reflect.DeepEqual(out.Languages, []string{"go", "javascript"}) {
		t.Errorf("languages = %v", out.Languages)
	}
	if out.Seniority != "senior" {
		t.Errorf("seniority = %q", out.Seniority)
	}
	if p.Languages[0] != "Golang" {
		t.Error("input profile must not be mutated")
	}
}
