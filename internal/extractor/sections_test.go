package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/TomerCohen95/tailorjob-sub001/internal/model"
)

func TestExtractSections(t *testing.T) {
	client := new(MockLLMClient)
	client.On("CompleteJSON", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"summary":"engineer","skills":"python, go","experience":"5 years at X","education":"BSc","certifications":""}`, nil)

	sections, err := NewSectionExtractor(client).ExtractSections(context.Background(), "doc-1", "resume text")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", sections.DocumentID)
	assert.Equal(t, "python, go", sections.Skills)
	assert.Equal(t, "BSc", sections.Education)
}

func TestExtractSectionsEmptyDocument(t *testing.T) {
	client := new(MockLLMClient)

	_, err := NewSectionExtractor(client).ExtractSections(context.Background(), "doc-1", "  ")
	require.Error(t, err)
	assert.True(t, model.IsErrorType(err, model.ErrCodeExtraction))
	client.AssertNotCalled(t, "CompleteJSON")
}

func TestExtractSectionsCompletionFailureNoRetry(t *testing.T) {
	client := new(MockLLMClient)
	client.On("CompleteJSON", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("model down"))

	_, err := NewSectionExtractor(client).ExtractSections(context.Background(), "doc-1", "text")
	require.Error(t, err)
	assert.True(t, model.IsErrorType(err, model.ErrCodeExtraction))
	client.AssertNumberOfCalls(t, "CompleteJSON", 1)
}

func TestExtractSectionsAllEmptyRejected(t *testing.T) {
	client := new(MockLLMClient)
	client.On("CompleteJSON", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"summary":"","skills":"","experience":"","education":"","certifications":""}`, nil)

	_, err := NewSectionExtractor(client).ExtractSections(context.Background(), "doc-1", "text")
	require.Error(t, err)
	assert.True(t, model.IsErrorType(err, model.ErrCodeExtraction))
}
