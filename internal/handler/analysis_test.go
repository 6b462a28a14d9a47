package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/resumelens/resumelens/internal/analysis"
	"github.com/resumelens/resumelens/internal/auth"
	"github.com/resumelens/resumelens/internal/metrics"
	"github.com/resumelens/resumelens/internal/model"
	"github.com/resumelens/resumelens/internal/provider"
	"github.com/resumelens/resumelens/internal/repository"
	"github.com/resumelens/resumelens/internal/upload"
)

type fakeIntake struct {
	doc *upload.Document
	err error
}

func (f *fakeIntake) Accept(r io.Reader, originalName, mimeType string) (*upload.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	io.Copy(io.Discard, r)
	return f.doc, nil
}

type fakeAnalyzer struct {
	record *model.Analysis
	err    error
	userID string
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, userID string, doc *upload.Document) (*model.Analysis, error) {
	f.userID = userID
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

type fakeRecords struct {
	summaries []*model.AnalysisSummary
	record    *model.Analysis
	getErr    error
	keyword   string
}

func (f *fakeRecords) ListAnalysesByUser(ctx context.Context, userID, keyword string) ([]*model.AnalysisSummary, error) {
	f.keyword = keyword
	return f.summaries, nil
}

func (f *fakeRecords) GetAnalysisForUser(ctx context.Context, id, userID string) (*model.Analysis, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.record, nil
}

type fakeRecordCache struct {
	records map[string]*model.Analysis
	sets    int
}

func (f *fakeRecordCache) GetAnalysis(ctx context.Context, id string) (*model.Analysis, error) {
	return f.records[id], nil
}

func (f *fakeRecordCache) SetAnalysis(ctx context.Context, record *model.Analysis) error {
	f.sets++
	if f.records == nil {
		f.records = make(map[string]*model.Analysis)
	}
	f.records[record.ID] = record
	return nil
}

func sampleRecord() *model.Analysis {
	return &model.Analysis{
		ID:           "01HXYZ",
		UserID:       "user-1",
		StorageName:  "resume-1-000000001.pdf",
		OriginalName: "resume.pdf",
		Result:       model.FallbackResult(),
		Score:        75,
		CreatedAt:    time.Now().UTC(),
	}
}

func multipartBody(t *testing.T, field, filename, mime, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	header.Set("Content-Type", mime)

	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	part.Write([]byte(content))
	mw.Close()

	return &buf, mw.FormDataContentType()
}

func createRequest(t *testing.T, body *bytes.Buffer, contentType string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", body)
	req.Header.Set("Content-Type", contentType)
	ctx := auth.ContextWithAuth(req.Context(), &model.AuthContext{UserID: "user-1", Email: "a@b.com"})
	return req.WithContext(ctx)
}

func TestAnalysisHandler_Create(t *testing.T) {
	record := sampleRecord()
	intake := &fakeIntake{doc: &upload.Document{StorageName: record.StorageName, OriginalName: "resume.pdf"}}
	analyzer := &fakeAnalyzer{record: record}
	cache := &fakeRecordCache{}
	h := NewAnalysisHandler(intake, analyzer, &fakeRecords{}, cache, discardLogger(), metrics.NewInMemory())

	body, contentType := multipartBody(t, "resume", "resume.pdf", "application/pdf", "%PDF-1.4 content")
	rec := httptest.NewRecorder()

	h.Create(rec, createRequest(t, body, contentType))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Message  string               `json:"message"`
		ID       string               `json:"id"`
		Analysis model.AnalysisResult `json:"analysis"`
		Score    int                  `json:"score"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Message != "Resume analyzed successfully" {
		t.Errorf("unexpected message: %q", resp.Message)
	}
	if resp.ID != record.ID {
		t.Errorf("expected record id, got %q", resp.ID)
	}
	if resp.Score != 75 {
		t.Errorf("unexpected score: %d", resp.Score)
	}
	if analyzer.userID != "user-1" {
		t.Errorf("analysis must run for the caller, got %q", analyzer.userID)
	}
	if cache.sets != 1 {
		t.Errorf("new record must be cached, got %d writes", cache.sets)
	}
}

func TestAnalysisHandler_CreateIgnoresOtherFields(t *testing.T) {
	record := sampleRecord()
	intake := &fakeIntake{doc: &upload.Document{StorageName: record.StorageName}}
	h := NewAnalysisHandler(intake, &fakeAnalyzer{record: record}, &fakeRecords{}, nil, discardLogger(), nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("note", "please review")
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="resume"; filename="resume.pdf"`)
	header.Set("Content-Type", "application/pdf")
	part, _ := mw.CreatePart(header)
	part.Write([]byte("%PDF-1.4"))
	mw.Close()

	rec := httptest.NewRecorder()
	h.Create(rec, createRequest(t, &buf, mw.FormDataContentType()))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAnalysisHandler_CreateMissingFile(t *testing.T) {
	h := NewAnalysisHandler(&fakeIntake{}, &fakeAnalyzer{}, &fakeRecords{}, nil, discardLogger(), nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("note", "no file here")
	mw.Close()

	rec := httptest.NewRecorder()
	h.Create(rec, createRequest(t, &buf, mw.FormDataContentType()))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestAnalysisHandler_CreateErrorMapping(t *testing.T) {
	testCases := []struct {
		name       string
		intakeErr  error
		analyzeErr error
		wantStatus int
		wantCode   string
	}{
		{"unsupported type", upload.ErrUnsupportedType, nil, http.StatusUnsupportedMediaType, "UNSUPPORTED_TYPE"},
		{"payload too large", upload.ErrPayloadTooLarge, nil, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"},
		{"empty file", upload.ErrEmptyFile, nil, http.StatusBadRequest, "EMPTY_FILE"},
		{"missing provider key", nil, analysis.ErrMissingCredential, http.StatusBadRequest, "MISSING_PROVIDER_KEY"},
		{"upstream failure", nil, fmt.Errorf("completion: %w", provider.ErrUpstream), http.StatusBadGateway, "UPSTREAM_ERROR"},
		{"storage failure", nil, fmt.Errorf("%w: disk full", analysis.ErrStorage), http.StatusInternalServerError, "STORAGE_ERROR"},
		{"unknown failure", nil, errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			intake := &fakeIntake{doc: &upload.Document{StorageName: "x"}, err: tc.intakeErr}
			analyzer := &fakeAnalyzer{record: sampleRecord(), err: tc.analyzeErr}
			h := NewAnalysisHandler(intake, analyzer, &fakeRecords{}, nil, discardLogger(), nil)

			body, contentType := multipartBody(t, "resume", "resume.pdf", "application/pdf", "%PDF-1.4")
			rec := httptest.NewRecorder()

			h.Create(rec, createRequest(t, body, contentType))

			if rec.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}
			var resp struct {
				Code string `json:"code"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Code != tc.wantCode {
				t.Errorf("expected code %s, got %s", tc.wantCode, resp.Code)
			}
		})
	}
}

func TestAnalysisHandler_List(t *testing.T) {
	records := &fakeRecords{summaries: []*model.AnalysisSummary{
		{ID: "01B", OriginalName: "v2.pdf", Score: 90, CreatedAt: time.Now().UTC()},
		{ID: "01A", OriginalName: "v1.pdf", Score: 70, CreatedAt: time.Now().UTC().Add(-time.Hour)},
	}}
	h := NewAnalysisHandler(&fakeIntake{}, &fakeAnalyzer{}, records, nil, discardLogger(), nil)

	req := authedRequest(http.MethodGet, "/api/v1/analyses?keyword=Go", "")
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if records.keyword != "Go" {
		t.Errorf("keyword filter must be passed through, got %q", records.keyword)
	}

	var resp struct {
		Data []model.AnalysisSummary `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Errorf("expected 2 summaries, got %d", len(resp.Data))
	}
}

func TestAnalysisHandler_ListEmptyIsArray(t *testing.T) {
	h := NewAnalysisHandler(&fakeIntake{}, &fakeAnalyzer{}, &fakeRecords{}, nil, discardLogger(), nil)

	req := authedRequest(http.MethodGet, "/api/v1/analyses", "")
	rec := httptest.NewRecorder()

	h.List(rec, req)

	var resp struct {
		Data []any `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data == nil {
		t.Error("data must be an empty array, not null")
	}
}

func getRequest(id string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+id, nil)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	ctx := auth.ContextWithAuth(req.Context(), &model.AuthContext{UserID: "user-1", Email: "a@b.com"})
	return req.WithContext(ctx)
}

func TestAnalysisHandler_Get(t *testing.T) {
	record := sampleRecord()
	records := &fakeRecords{record: record}
	cache := &fakeRecordCache{}
	h := NewAnalysisHandler(&fakeIntake{}, &fakeAnalyzer{}, records, cache, discardLogger(), nil)

	rec := httptest.NewRecorder()
	h.Get(rec, getRequest(record.ID))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if cache.sets != 1 {
		t.Error("record must be backfilled into the cache")
	}
}

func TestAnalysisHandler_GetServedFromCache(t *testing.T) {
	record := sampleRecord()
	records := &fakeRecords{getErr: errors.New("db must not be hit")}
	cache := &fakeRecordCache{records: map[string]*model.Analysis{record.ID: record}}
	rec0 := metrics.NewInMemory()
	h := NewAnalysisHandler(&fakeIntake{}, &fakeAnalyzer{}, records, cache, discardLogger(), rec0)

	rec := httptest.NewRecorder()
	h.Get(rec, getRequest(record.ID))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec0.Snapshot().AnalysisCacheHits; got != 1 {
		t.Errorf("expected 1 cache hit, got %d", got)
	}
}

func TestAnalysisHandler_GetCachedRecordOfOtherUserIsNotFound(t *testing.T) {
	record := sampleRecord()
	record.UserID = "someone-else"
	cache := &fakeRecordCache{records: map[string]*model.Analysis{record.ID: record}}
	h := NewAnalysisHandler(&fakeIntake{}, &fakeAnalyzer{}, &fakeRecords{getErr: repository.ErrAnalysisNotFound}, cache, discardLogger(), nil)

	rec := httptest.NewRecorder()
	h.Get(rec, getRequest(record.ID))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for another user's cached record, got %d", rec.Code)
	}
}

func TestAnalysisHandler_GetNotFound(t *testing.T) {
	h := NewAnalysisHandler(&fakeIntake{}, &fakeAnalyzer{}, &fakeRecords{getErr: repository.ErrAnalysisNotFound}, nil, discardLogger(), nil)

	rec := httptest.NewRecorder()
	h.Get(rec, getRequest("01MISSING"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
	var resp struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != "ANALYSIS_NOT_FOUND" {
		t.Errorf("unexpected code: %s", resp.Code)
	}
}
