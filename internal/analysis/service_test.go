package analysis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/resumelens/resumelens/internal/extract"
	"github.com/resumelens/resumelens/internal/metrics"
	"github.com/resumelens/resumelens/internal/model"
	"github.com/resumelens/resumelens/internal/repository"
	"github.com/resumelens/resumelens/internal/upload"
)

type fakeCredentials struct {
	key *model.ProviderKey
	err error
}

func (f *fakeCredentials) GetProviderKey(ctx context.Context, userID, serviceName string) (*model.ProviderKey, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.key, nil
}

type fakeStore struct {
	created *model.Analysis
	err     error
}

func (f *fakeStore) CreateAnalysis(ctx context.Context, a *model.Analysis) error {
	if f.err != nil {
		return f.err
	}
	f.created = a
	return nil
}

type fakeCompleter struct {
	reply  string
	err    error
	called bool
	apiKey string
	prompt string
}

func (f *fakeCompleter) Complete(ctx context.Context, apiKey, prompt string) (string, error) {
	f.called = true
	f.apiKey = apiKey
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeFiles struct {
	data []byte
	err  error
}

func (f *fakeFiles) Read(storageName string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDocument() *upload.Document {
	return &upload.Document{
		StorageName:  "resume-1700000000000000000-000000001.txt",
		OriginalName: "resume.txt",
		MimeType:     "application/pdf",
		Size:         42,
	}
}

func newTestService(creds *fakeCredentials, store *fakeStore, completer *fakeCompleter, files *fakeFiles) *Service {
	return NewService(creds, store, completer, extract.NewRegistry(), files, testLogger(), metrics.NewInMemory())
}

func TestAnalyze_Success(t *testing.T) {
	creds := &fakeCredentials{key: &model.ProviderKey{UserID: "user-1", ServiceName: model.ServiceOpenRouter, APIKey: "sk-or-abc"}}
	store := &fakeStore{}
	completer := &fakeCompleter{reply: "```json\n" + validResultJSON + "\n```"}
	files := &fakeFiles{data: []byte("senior engineer resume text")}

	svc := newTestService(creds, store, completer, files)

	record, err := svc.Analyze(context.Background(), "user-1", testDocument())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if record.Score != 88 {
		t.Errorf("expected score 88, got %d", record.Score)
	}
	if record.Fallback {
		t.Error("parsed result must not be flagged as fallback")
	}
	if record.UserID != "user-1" {
		t.Errorf("unexpected user id: %s", record.UserID)
	}
	if record.ID == "" {
		t.Error("record must get a generated id")
	}
	if record.CreatedAt.IsZero() {
		t.Error("record must get a creation time")
	}
	if store.created == nil || store.created.ID != record.ID {
		t.Error("record must be persisted")
	}
	if completer.apiKey != "sk-or-abc" {
		t.Errorf("completion must use the user's key, got %q", completer.apiKey)
	}
	if !strings.Contains(completer.prompt, "senior engineer resume text") {
		t.Error("prompt must contain the extracted resume text")
	}
}

func TestAnalyze_MissingCredential(t *testing.T) {
	creds := &fakeCredentials{err: repository.ErrProviderKeyNotFound}
	store := &fakeStore{}
	completer := &fakeCompleter{reply: validResultJSON}
	files := &fakeFiles{data: []byte("text")}

	svc := newTestService(creds, store, completer, files)

	_, err := svc.Analyze(context.Background(), "user-1", testDocument())
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if completer.called {
		t.Error("no upstream call may happen without a credential")
	}
	if store.created != nil {
		t.Error("nothing may be persisted without a credential")
	}
}

func TestAnalyze_UnparsableReplyUsesFallback(t *testing.T) {
	creds := &fakeCredentials{key: &model.ProviderKey{APIKey: "sk-or-abc"}}
	store := &fakeStore{}
	completer := &fakeCompleter{reply: "Looks like a decent resume to me!"}
	files := &fakeFiles{data: []byte("text")}

	rec := metrics.NewInMemory()
	svc := NewService(creds, store, completer, extract.NewRegistry(), files, testLogger(), rec)

	record, err := svc.Analyze(context.Background(), "user-1", testDocument())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	want := model.FallbackResult()
	if record.Score != want.Score {
		t.Errorf("expected fallback score %d, got %d", want.Score, record.Score)
	}
	if !record.Fallback {
		t.Error("fallback record must be flagged")
	}
	if record.Result.Summary != want.Summary {
		t.Errorf("unexpected summary: %q", record.Result.Summary)
	}
	if store.created == nil {
		t.Fatal("fallback record must still be persisted")
	}
	if got := rec.Snapshot().AnalysesFallback; got != 1 {
		t.Errorf("expected 1 fallback metric, got %d", got)
	}
}

func TestAnalyze_UpstreamError(t *testing.T) {
	upstreamErr := errors.New("completion provider request failed")
	creds := &fakeCredentials{key: &model.ProviderKey{APIKey: "sk-or-abc"}}
	store := &fakeStore{}
	completer := &fakeCompleter{err: upstreamErr}
	files := &fakeFiles{data: []byte("text")}

	rec := metrics.NewInMemory()
	svc := NewService(creds, store, completer, extract.NewRegistry(), files, testLogger(), rec)

	_, err := svc.Analyze(context.Background(), "user-1", testDocument())
	if !errors.Is(err, upstreamErr) {
		t.Fatalf("expected wrapped upstream error, got %v", err)
	}
	if store.created != nil {
		t.Error("nothing may be persisted on upstream failure")
	}
	if got := rec.Snapshot().UpstreamErrors; got != 1 {
		t.Errorf("expected 1 upstream error metric, got %d", got)
	}
}

func TestAnalyze_StorageError(t *testing.T) {
	creds := &fakeCredentials{key: &model.ProviderKey{APIKey: "sk-or-abc"}}
	store := &fakeStore{err: errors.New("connection refused")}
	completer := &fakeCompleter{reply: validResultJSON}
	files := &fakeFiles{data: []byte("text")}

	svc := newTestService(creds, store, completer, files)

	_, err := svc.Analyze(context.Background(), "user-1", testDocument())
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestAnalyze_ExtractionFailureDegradesToPlaceholder(t *testing.T) {
	creds := &fakeCredentials{key: &model.ProviderKey{APIKey: "sk-or-abc"}}
	store := &fakeStore{}
	completer := &fakeCompleter{reply: validResultJSON}
	// Corrupt bytes under a .pdf name make the extractor fail
	files := &fakeFiles{data: []byte("not a pdf")}

	svc := newTestService(creds, store, completer, files)

	doc := testDocument()
	doc.OriginalName = "resume.pdf"

	record, err := svc.Analyze(context.Background(), "user-1", doc)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !strings.Contains(completer.prompt, extract.PlaceholderText) {
		t.Error("prompt must carry the placeholder text when extraction fails")
	}
	if record.Score != 88 {
		t.Errorf("expected upstream result to be used, got score %d", record.Score)
	}
}

func TestAnalyze_FileReadError(t *testing.T) {
	creds := &fakeCredentials{key: &model.ProviderKey{APIKey: "sk-or-abc"}}
	store := &fakeStore{}
	completer := &fakeCompleter{reply: validResultJSON}
	files := &fakeFiles{err: errors.New("no such file")}

	svc := newTestService(creds, store, completer, files)

	_, err := svc.Analyze(context.Background(), "user-1", testDocument())
	if err == nil {
		t.Fatal("expected error when the stored file cannot be read")
	}
	if completer.called {
		t.Error("no upstream call may happen when the file is unreadable")
	}
}
