package tailor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/TomerCohen95/tailorjob-sub001/internal/model"
)

// MockLLMClient 模拟补全客户端
type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt)
	return args.String(0), args.Error(1)
}

func testSections() *model.Sections {
	return &model.Sections{
		DocumentID: "doc-1",
		Summary:    "Backend engineer with 5 years in Go services",
		Skills:     "go, postgresql, kubernetes",
		Experience: "Built payment pipeline at Acme",
	}
}

func testPosting() *model.Posting {
	return &model.Posting{
		ID:          "post-1",
		Title:       "Senior Backend Engineer",
		Description: model.PostingDescription{Text: "go and kubernetes heavy role"},
	}
}

func testMatch() *model.MatchResult {
	return &model.MatchResult{
		DocumentID: "doc-1", PostingID: "post-1",
		OverallScore:   68,
		MatcherVersion: model.MatcherVersion,
		Breakdown:      model.MatchBreakdown{MissingSkills: []string{"terraform"}},
		Narrative: model.Narrative{
			Strengths:       []string{"strong go background"},
			Recommendations: []string{"surface kubernetes work earlier"},
			DomainFit:       model.DomainFitSame,
		},
	}
}

func TestTailorBuildsResult(t *testing.T) {
	client := new(MockLLMClient)
	client.On("CompleteJSON", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"summary":"Go-focused backend engineer","skills":["go","kubernetes","postgresql"],"experience_bullets":["Built payment pipeline at Acme"],"emphasis":["kubernetes moved up"]}`, nil)

	result, err := New(client).Tailor(context.Background(), testSections(), testPosting(), testMatch())
	require.NoError(t, err)
	assert.Equal(t, "doc-1", result.DocumentID)
	assert.Equal(t, "post-1", result.PostingID)
	assert.Equal(t, "Go-focused backend engineer", result.Summary)
	assert.Equal(t, []string{"go", "kubernetes", "postgresql"}, result.Skills)
	assert.False(t, result.GeneratedAt.IsZero())
}

func TestTailorFeedsAnalysisSignals(t *testing.T) {
	client := new(MockLLMClient)
	client.On("CompleteJSON", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"summary":"s","skills":["go"],"experience_bullets":["e"]}`, nil)

	_, err := New(client).Tailor(context.Background(), testSections(), testPosting(), testMatch())
	require.NoError(t, err)

	// 补全输入里要带已算好的分析信号，而不是让模型重新猜
	payload := client.Calls[0].Arguments.String(2)
	assert.Contains(t, payload, "strong go background")
	assert.Contains(t, payload, "terraform")
	assert.Contains(t, payload, model.DomainFitSame)
}

func TestTailorEmptySectionsRejectedBeforeCall(t *testing.T) {
	client := new(MockLLMClient)

	_, err := New(client).Tailor(context.Background(), &model.Sections{DocumentID: "doc-1"}, testPosting(), testMatch())
	require.Error(t, err)
	assert.True(t, model.IsErrorType(err, model.ErrCodeInvalidInput))
	client.AssertNotCalled(t, "CompleteJSON")
}

func TestTailorMissingMatchRejectedBeforeCall(t *testing.T) {
	client := new(MockLLMClient)

	_, err := New(client).Tailor(context.Background(), testSections(), testPosting(), nil)
	require.Error(t, err)
	assert.True(t, model.IsErrorType(err, model.ErrCodeInvalidInput))
	client.AssertNotCalled(t, "CompleteJSON")
}

func TestTailorCompletionFailureNoRetry(t *testing.T) {
	client := new(MockLLMClient)
	client.On("CompleteJSON", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("model down"))

	_, err := New(client).Tailor(context.Background(), testSections(), testPosting(), testMatch())
	require.Error(t, err)
	assert.True(t, model.IsErrorType(err, model.ErrCodeExtraction))
	client.AssertNumberOfCalls(t, "CompleteJSON", 1)
}

func TestTailorEmptyModelOutputRejected(t *testing.T) {
	client := new(MockLLMClient)
	client.On("CompleteJSON", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"summary":"","skills":[],"experience_bullets":[]}`, nil)

	_, err := New(client).Tailor(context.Background(), testSections(), testPosting(), testMatch())
	require.Error(t, err)
	assert.True(t, model.IsErrorType(err, model.ErrCodeExtraction))
}

func TestTailorStripsFence(t *testing.T) {
	client := new(MockLLMClient)
	client.On("CompleteJSON", mock.Anything, mock.Anything, mock.Anything).
		Return("```json\n{\"summary\":\"s\",\"skills\":[\"go\"],\"experience_bullets\":[\"e\"]}\n```", nil)

	result, err := New(client).Tailor(context.Background(), testSections(), testPosting(), testMatch())
	require.NoError(t, err)
	assert.Equal(t, "s", result.Summary)
}
