package worker

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/TomerCohen95/tailorjob-sub001/internal/config"
	"github.com/TomerCohen95/tailorjob-sub001/internal/database"
	"github.com/TomerCohen95/tailorjob-sub001/internal/model"
	"github.com/TomerCohen95/tailorjob-sub001/internal/queue"
	"github.com/TomerCohen95/tailorjob-sub001/internal/storage"
)

// scriptedQueue 按脚本吐任务的队列替身，吐完后取消worker的context
type scriptedQueue struct {
	mu       sync.Mutex
	jobs     []*queue.ParseJob
	cancel   context.CancelFunc
	statuses map[string]string
}

func newScriptedQueue(cancel context.CancelFunc, jobs ...*queue.ParseJob) *scriptedQueue {
	return &scriptedQueue{jobs: jobs, cancel: cancel, statuses: make(map[string]string)}
}

func (s *scriptedQueue) Enqueue(ctx context.Context, job *queue.ParseJob) error { return nil }

func (s *scriptedQueue) DequeueBlocking(ctx context.Context) (*queue.ParseJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.jobs) == 0 {
		s.cancel()
		return nil, nil
	}
	job := s.jobs[0]
	s.jobs = s.jobs[1:]
	return job, nil
}

func (s *scriptedQueue) GetJob(ctx context.Context, jobID string) (*queue.ParseJob, error) {
	return nil, errors.New("not implemented")
}

func (s *scriptedQueue) UpdateJobStatus(ctx context.Context, jobID, status, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[jobID] = status
	return nil
}

func (s *scriptedQueue) Close() {}

func (s *scriptedQueue) statusOf(jobID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[jobID]
}

// MockDatabase 模拟数据库（仅worker用到的方法有行为，其余满足接口）
type MockDatabase struct {
	mock.Mock
}

func (m *MockDatabase) CreateTables(ctx context.Context) error { return nil }
func (m *MockDatabase) HealthCheck(ctx context.Context) error  { return nil }
func (m *MockDatabase) Close() error                           { return nil }

func (m *MockDatabase) CreateDocument(ctx context.Context, doc *database.DocumentRecord) error {
	return nil
}

func (m *MockDatabase) GetDocument(ctx context.Context, documentID string) (*database.DocumentRecord, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.DocumentRecord), args.Error(1)
}

func (m *MockDatabase) ListDocuments(ctx context.Context, ownerID string) ([]*database.DocumentRecord, error) {
	return nil, nil
}
func (m *MockDatabase) DeleteDocument(ctx context.Context, documentID string) error { return nil }
func (m *MockDatabase) FindDocumentByHash(ctx context.Context, ownerID, contentHash string) (*database.DocumentRecord, error) {
	return nil, nil
}

func (m *MockDatabase) UpdateDocumentStatus(ctx context.Context, documentID string, status model.DocumentStatus, reason string, reparse bool) error {
	return m.Called(ctx, documentID, status, reason, reparse).Error(0)
}

func (m *MockDatabase) SetPrimaryDocument(ctx context.Context, ownerID, documentID string) error {
	return nil
}
func (m *MockDatabase) CountDocumentsByStatus(ctx context.Context) (map[string]int64, error) {
	return nil, nil
}
func (m *MockDatabase) GetSectionsByDocumentID(ctx context.Context, documentID string) (*database.SectionRecord, error) {
	return nil, nil
}

func (m *MockDatabase) SaveParsedSections(ctx context.Context, sections *database.SectionRecord) error {
	return m.Called(ctx, sections).Error(0)
}

func (m *MockDatabase) CreatePosting(ctx context.Context, posting *database.PostingRecord) error {
	return nil
}
func (m *MockDatabase) GetPosting(ctx context.Context, postingID string) (*database.PostingRecord, error) {
	return nil, nil
}
func (m *MockDatabase) ListPostings(ctx context.Context, limit, offset int) ([]*database.PostingRecord, error) {
	return nil, nil
}
func (m *MockDatabase) UpsertMatchRecord(ctx context.Context, record *database.MatchRecord) error {
	return nil
}
func (m *MockDatabase) GetLiveMatchRecord(ctx context.Context, documentID, postingID string) (*database.MatchRecord, error) {
	return nil, nil
}
func (m *MockDatabase) DeleteMatchRecord(ctx context.Context, documentID, postingID string) error {
	return nil
}

// MockStorage 模拟对象存储
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) EnsureBucket(ctx context.Context) error { return nil }

func (m *MockStorage) UploadDocument(ctx context.Context, objectPath string, reader io.Reader, size int64, contentType string) error {
	return nil
}

func (m *MockStorage) DownloadDocument(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	args := m.Called(ctx, objectPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockStorage) DeleteDocument(ctx context.Context, objectPath string) error { return nil }
func (m *MockStorage) StatDocument(ctx context.Context, objectPath string) (*storage.ObjectInfo, error) {
	return nil, nil
}

// MockSectionExtractor 模拟区块抽取器
type MockSectionExtractor struct {
	mock.Mock
}

func (m *MockSectionExtractor) ExtractSections(ctx context.Context, documentID string, rawText string) (*model.Sections, error) {
	args := m.Called(ctx, documentID, rawText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Sections), args.Error(1)
}

var testCfg = config.WorkerConfig{
	QueueName:    "queue:parse",
	DequeueWait:  10 * time.Millisecond,
	IdleInterval: 5 * time.Millisecond,
}

func docRecord(id string) *database.DocumentRecord {
	return &database.DocumentRecord{ID: id, OwnerID: "user-1", ObjectPath: "documents/u/" + id + "/cv.txt", Status: "uploaded"}
}

func body(text string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(text))
}

func TestWorkerProcessesJobSuccessfully(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := newScriptedQueue(cancel, &queue.ParseJob{ID: "j1", DocumentID: "doc-1"})

	db := new(MockDatabase)
	st := new(MockStorage)
	se := new(MockSectionExtractor)

	db.On("UpdateDocumentStatus", mock.Anything, "doc-1", model.StatusParsing, "", true).Return(nil)
	db.On("GetDocument", mock.Anything, "doc-1").Return(docRecord("doc-1"), nil)
	st.On("DownloadDocument", mock.Anything, "documents/u/doc-1/cv.txt").Return(body("resume text"), nil)
	se.On("ExtractSections", mock.Anything, "doc-1", "resume text").
		Return(&model.Sections{DocumentID: "doc-1", Skills: "python"}, nil)
	db.On("SaveParsedSections", mock.Anything, mock.MatchedBy(func(r *database.SectionRecord) bool {
		return r.DocumentID == "doc-1" && r.Skills == "python"
	})).Return(nil)

	err := New(testCfg, db, q, st, se).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	db.AssertExpectations(t)
	assert.Equal(t, "completed", q.statusOf("j1"))
}

func TestWorkerJobFailureDoesNotStopLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := newScriptedQueue(cancel,
		&queue.ParseJob{ID: "j1", DocumentID: "doc-bad"},
		&queue.ParseJob{ID: "j2", DocumentID: "doc-good"},
	)

	db := new(MockDatabase)
	st := new(MockStorage)
	se := new(MockSectionExtractor)

	db.On("UpdateDocumentStatus", mock.Anything, mock.Anything, model.StatusParsing, "", true).Return(nil)
	db.On("GetDocument", mock.Anything, "doc-bad").Return(docRecord("doc-bad"), nil)
	db.On("GetDocument", mock.Anything, "doc-good").Return(docRecord("doc-good"), nil)
	st.On("DownloadDocument", mock.Anything, mock.Anything).Return(body("text"), nil)

	se.On("ExtractSections", mock.Anything, "doc-bad", mock.Anything).
		Return(nil, model.NewExtractionError("doc-bad", "模型响应不是合法区块", nil))
	se.On("ExtractSections", mock.Anything, "doc-good", mock.Anything).
		Return(&model.Sections{DocumentID: "doc-good", Skills: "go"}, nil)

	db.On("UpdateDocumentStatus", mock.Anything, "doc-bad", model.StatusError, mock.Anything, false).Return(nil)
	db.On("SaveParsedSections", mock.Anything, mock.MatchedBy(func(r *database.SectionRecord) bool {
		return r.DocumentID == "doc-good"
	})).Return(nil)

	_ = New(testCfg, db, q, st, se).Run(ctx)

	// 失败任务收敛到error，后续任务照常处理
	db.AssertCalled(t, "UpdateDocumentStatus", mock.Anything, "doc-bad", model.StatusError, mock.Anything, false)
	db.AssertCalled(t, "SaveParsedSections", mock.Anything, mock.Anything)
	assert.Equal(t, "failed", q.statusOf("j1"))
	assert.Equal(t, "completed", q.statusOf("j2"))
}

func TestWorkerCancellationLeavesNoPartialSections(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := newScriptedQueue(cancel, &queue.ParseJob{ID: "j1", DocumentID: "doc-1"})

	db := new(MockDatabase)
	st := new(MockStorage)
	se := new(MockSectionExtractor)

	db.On("UpdateDocumentStatus", mock.Anything, "doc-1", model.StatusParsing, "", true).Return(nil)
	db.On("GetDocument", mock.Anything, "doc-1").Return(docRecord("doc-1"), nil)
	st.On("DownloadDocument", mock.Anything, mock.Anything).Return(body("text"), nil)

	// 抽取过程中worker被叫停
	se.On("ExtractSections", mock.Anything, "doc-1", mock.Anything).
		Run(func(args mock.Arguments) { cancel() }).
		Return(nil, context.Canceled)

	db.On("UpdateDocumentStatus", mock.Anything, "doc-1", model.StatusError, mock.Anything, false).Return(nil)

	err := New(testCfg, db, q, st, se).Run(ctx)
	assert.Error(t, err)

	// 取消收敛到error终态，且没有半写的解析产物
	db.AssertCalled(t, "UpdateDocumentStatus", mock.Anything, "doc-1", model.StatusError, mock.Anything, false)
	db.AssertNotCalled(t, "SaveParsedSections", mock.Anything, mock.Anything)
	assert.Equal(t, "failed", q.statusOf("j1"))
}

func TestWorkerIdleLoopOnEmptyQueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	// 无任务：出队立即吐空并触发退出
	q := newScriptedQueue(cancel)

	db := new(MockDatabase)
	st := new(MockStorage)
	se := new(MockSectionExtractor)

	err := New(testCfg, db, q, st, se).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	db.AssertNotCalled(t, "UpdateDocumentStatus")
}
