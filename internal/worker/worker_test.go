package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/botmesh/botmesh-core/internal/core/domain"
	"github.com/botmesh/botmesh-core/internal/core/ports/driven/mocks"
)

// fakeIngestion records ProcessDocument calls and returns a scripted error.
type fakeIngestion struct {
	mu    sync.Mutex
	calls []ingestCall
	err   error
}

type ingestCall struct {
	documentID string
	data       []byte
	fileType   domain.FileType
}

func (f *fakeIngestion) ProcessDocument(ctx context.Context, documentID string, data []byte, fileType domain.FileType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ingestCall{documentID, data, fileType})
	return f.err
}

func (f *fakeIngestion) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type workerFixture struct {
	worker    *Worker
	queue     *mocks.MockTaskQueue
	documents *mocks.MockDocumentStore
	chunks    *mocks.MockChunkStore
	ingestion *fakeIngestion
	files     map[string][]byte
}

func createTestWorker(t *testing.T) *workerFixture {
	t.Helper()

	f := &workerFixture{
		queue:     mocks.NewMockTaskQueue(),
		documents: mocks.NewMockDocumentStore(),
		chunks:    mocks.NewMockChunkStore(),
		ingestion: &fakeIngestion{},
		files:     map[string][]byte{},
	}
	f.worker = NewWorker(WorkerConfig{
		TaskQueue:     f.queue,
		Ingestion:     f.ingestion,
		DocumentStore: f.documents,
		ChunkStore:    f.chunks,
		ReadFile: func(path string) ([]byte, error) {
			data, ok := f.files[path]
			if !ok {
				return nil, fmt.Errorf("no such file: %s", path)
			}
			return data, nil
		},
		Concurrency:    1,
		DequeueTimeout: 1,
	})
	return f
}

func (f *workerFixture) saveDocument(t *testing.T) *domain.Document {
	t.Helper()
	doc := &domain.Document{
		ID:          "doc-1",
		CompanyID:   "company-1",
		BotID:       "bot-1",
		Filename:    "guide.txt",
		FileType:    domain.FileTypeText,
		StoragePath: "/uploads/doc-1",
		Status:      domain.DocumentStatusPending,
	}
	if err := f.documents.Save(context.Background(), doc); err != nil {
		t.Fatalf("save document: %v", err)
	}
	f.files[doc.StoragePath] = []byte("uploaded document content")
	return doc
}

// waitFor polls until the condition holds or the deadline passes
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func ackCount(q *mocks.MockTaskQueue) func() bool {
	return func() bool { return q.AckedCount() > 0 }
}

// TestNewWorker_Defaults verifies config defaulting
func TestNewWorker_Defaults(t *testing.T) {
	w := NewWorker(WorkerConfig{TaskQueue: mocks.NewMockTaskQueue()})
	if w.concurrency != 1 {
		t.Errorf("expected default concurrency 1, got %d", w.concurrency)
	}
	if w.dequeueTimeout != 5 {
		t.Errorf("expected default dequeue timeout 5, got %d", w.dequeueTimeout)
	}
	if w.logger == nil {
		t.Error("expected non-nil logger")
	}
}

// TestWorker_IngestTask verifies a document task flows through the pipeline
// with the stored bytes and is acked.
func TestWorker_IngestTask(t *testing.T) {
	f := createTestWorker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	doc := f.saveDocument(t)
	task := domain.NewIngestDocumentTask(doc.CompanyID, doc.ID, doc.FileType)
	if err := f.queue.Enqueue(ctx, task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := f.worker.Start(ctx); err != nil {
		t.Fatalf("start worker: %v", err)
	}
	defer f.worker.Stop()

	waitFor(t, ackCount(f.queue))

	if f.ingestion.callCount() != 1 {
		t.Fatalf("expected 1 ingestion call, got %d", f.ingestion.callCount())
	}
	call := f.ingestion.calls[0]
	if call.documentID != "doc-1" {
		t.Errorf("unexpected document id %s", call.documentID)
	}
	if string(call.data) != "uploaded document content" {
		t.Errorf("expected stored bytes to reach the pipeline, got %q", call.data)
	}
	if call.fileType != domain.FileTypeText {
		t.Errorf("unexpected file type %s", call.fileType)
	}
}

// TestWorker_IngestFailureNacks verifies a pipeline error nacks the task
func TestWorker_IngestFailureNacks(t *testing.T) {
	f := createTestWorker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.ingestion.err = errors.New("embedding outage")
	doc := f.saveDocument(t)
	_ = f.queue.Enqueue(ctx, domain.NewIngestDocumentTask(doc.CompanyID, doc.ID, doc.FileType))

	if err := f.worker.Start(ctx); err != nil {
		t.Fatalf("start worker: %v", err)
	}
	defer f.worker.Stop()

	waitFor(t, func() bool { return f.queue.NackedCount() > 0 })

	if f.queue.AckedCount() != 0 {
		t.Error("expected no ack for a failed task")
	}
}

// TestWorker_MissingFileNacks verifies an unreadable upload nacks without
// invoking the pipeline.
func TestWorker_MissingFileNacks(t *testing.T) {
	f := createTestWorker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	doc := f.saveDocument(t)
	delete(f.files, doc.StoragePath)
	_ = f.queue.Enqueue(ctx, domain.NewIngestDocumentTask(doc.CompanyID, doc.ID, doc.FileType))

	if err := f.worker.Start(ctx); err != nil {
		t.Fatalf("start worker: %v", err)
	}
	defer f.worker.Stop()

	waitFor(t, func() bool { return f.queue.NackedCount() > 0 })

	if f.ingestion.callCount() != 0 {
		t.Error("expected no ingestion call for a missing file")
	}
}

// TestWorker_TenantMismatchNacks verifies a task stamped with the wrong
// company cannot ingest another tenant's document.
func TestWorker_TenantMismatchNacks(t *testing.T) {
	f := createTestWorker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	doc := f.saveDocument(t)
	_ = f.queue.Enqueue(ctx, domain.NewIngestDocumentTask("company-2", doc.ID, doc.FileType))

	if err := f.worker.Start(ctx); err != nil {
		t.Fatalf("start worker: %v", err)
	}
	defer f.worker.Stop()

	waitFor(t, func() bool { return f.queue.NackedCount() > 0 })

	if f.ingestion.callCount() != 0 {
		t.Error("expected no ingestion call for a cross-tenant task")
	}
}

// TestWorker_DeleteChunksTask verifies chunk cleanup tasks are handled
func TestWorker_DeleteChunksTask(t *testing.T) {
	f := createTestWorker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_ = f.chunks.SaveBatch(ctx, []*domain.Chunk{
		{ID: "c1", CompanyID: "company-1", BotID: "bot-1", DocumentID: "doc-1", Text: "a", Index: 0},
	})
	_ = f.queue.Enqueue(ctx, domain.NewDeleteChunksTask("company-1", "doc-1"))

	if err := f.worker.Start(ctx); err != nil {
		t.Fatalf("start worker: %v", err)
	}
	defer f.worker.Stop()

	waitFor(t, ackCount(f.queue))

	if count, _ := f.chunks.CountByDocument(ctx, "company-1", "doc-1"); count != 0 {
		t.Errorf("expected chunks removed, %d remain", count)
	}
}

// TestWorker_UnknownTaskTypeNacks verifies unrecognized tasks are nacked
func TestWorker_UnknownTaskTypeNacks(t *testing.T) {
	f := createTestWorker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_ = f.queue.Enqueue(ctx, domain.NewTask(domain.TaskType("mystery"), "company-1", nil))

	if err := f.worker.Start(ctx); err != nil {
		t.Fatalf("start worker: %v", err)
	}
	defer f.worker.Stop()

	waitFor(t, func() bool { return f.queue.NackedCount() > 0 })
}

// TestWorker_Health verifies run state and queue reachability reporting
func TestWorker_Health(t *testing.T) {
	f := createTestWorker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	health := f.worker.Health(ctx)
	if health.Running {
		t.Error("expected not running before Start")
	}
	if !health.QueueHealth {
		t.Error("expected healthy queue")
	}

	if err := f.worker.Start(ctx); err != nil {
		t.Fatalf("start worker: %v", err)
	}
	health = f.worker.Health(ctx)
	if !health.Running {
		t.Error("expected running after Start")
	}
	f.worker.Stop()

	health = f.worker.Health(ctx)
	if health.Running {
		t.Error("expected not running after Stop")
	}
}
