package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/resumelens/resumelens/internal/analysis"
	"github.com/resumelens/resumelens/internal/auth"
	"github.com/resumelens/resumelens/internal/handler/dto"
	"github.com/resumelens/resumelens/internal/metrics"
	"github.com/resumelens/resumelens/internal/model"
	"github.com/resumelens/resumelens/internal/provider"
	"github.com/resumelens/resumelens/internal/repository"
	"github.com/resumelens/resumelens/internal/upload"
)

// uploadFieldName is the multipart form field carrying the resume file.
const uploadFieldName = "resume"

// Intake accepts an uploaded document stream.
type Intake interface {
	Accept(r io.Reader, originalName, mimeType string) (*upload.Document, error)
}

// Analyzer runs the evaluation pipeline for an accepted upload.
type Analyzer interface {
	Analyze(ctx context.Context, userID string, doc *upload.Document) (*model.Analysis, error)
}

// RecordSource reads persisted analysis records.
type RecordSource interface {
	ListAnalysesByUser(ctx context.Context, userID, keyword string) ([]*model.AnalysisSummary, error)
	GetAnalysisForUser(ctx context.Context, id, userID string) (*model.Analysis, error)
}

// RecordCache is an optional read-through cache for single records.
type RecordCache interface {
	GetAnalysis(ctx context.Context, id string) (*model.Analysis, error)
	SetAnalysis(ctx context.Context, record *model.Analysis) error
}

// AnalysisHandler handles resume analysis endpoints.
type AnalysisHandler struct {
	intake  Intake
	svc     Analyzer
	records RecordSource
	cache   RecordCache
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewAnalysisHandler creates a new AnalysisHandler. cache may be nil.
func NewAnalysisHandler(intake Intake, svc Analyzer, records RecordSource, cache RecordCache, logger *slog.Logger, recorder metrics.Recorder) *AnalysisHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AnalysisHandler{
		intake:  intake,
		svc:     svc,
		records: records,
		cache:   cache,
		logger:  logger,
		metrics: recorder,
	}
}

// Create handles POST /api/v1/analyses. The resume arrives as a
// multipart upload and is streamed to storage; the size ceiling is
// enforced during the copy, not after buffering the whole payload.
func (h *AnalysisHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_MULTIPART", "Request must be multipart/form-data")
		return
	}

	doc, err := h.acceptUpload(mr)
	if err != nil {
		h.handleUploadError(w, err)
		return
	}
	h.metrics.IncUploadAccepted()

	record, err := h.svc.Analyze(r.Context(), userID, doc)
	if err != nil {
		h.handleAnalysisError(w, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.SetAnalysis(r.Context(), record); err != nil {
			h.logger.Warn("analysis cache write failed", "analysis_id", record.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusCreated, dto.CreateAnalysisResponse{
		Message:          "Resume analyzed successfully",
		AnalysisResponse: dto.ToAnalysisResponse(record),
	})
}

// acceptUpload scans the multipart stream for the resume field and
// hands it to the intake store.
func (h *AnalysisHandler) acceptUpload(mr *multipart.Reader) (*upload.Document, error) {
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, errMissingFile
		}
		if err != nil {
			return nil, errMalformedUpload
		}

		if part.FormName() != uploadFieldName {
			part.Close()
			continue
		}

		doc, err := h.intake.Accept(part, part.FileName(), part.Header.Get("Content-Type"))
		part.Close()
		return doc, err
	}
}

var (
	errMissingFile     = errors.New("no resume file in request")
	errMalformedUpload = errors.New("malformed multipart request")
)

func (h *AnalysisHandler) handleUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errMissingFile):
		writeError(w, http.StatusBadRequest, "MISSING_FILE", "A resume file is required in the 'resume' field")
	case errors.Is(err, errMalformedUpload):
		writeError(w, http.StatusBadRequest, "INVALID_MULTIPART", "Malformed multipart request")
	case errors.Is(err, upload.ErrUnsupportedType):
		h.metrics.IncUploadRejected("type")
		writeError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_TYPE", "Only PDF, DOC, and DOCX files are allowed")
	case errors.Is(err, upload.ErrPayloadTooLarge):
		h.metrics.IncUploadRejected("size")
		writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "File exceeds the maximum allowed size of 5MB")
	case errors.Is(err, upload.ErrEmptyFile):
		h.metrics.IncUploadRejected("empty")
		writeError(w, http.StatusBadRequest, "EMPTY_FILE", "Uploaded file is empty")
	default:
		h.logger.Error("upload intake failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

func (h *AnalysisHandler) handleAnalysisError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, analysis.ErrMissingCredential):
		writeError(w, http.StatusBadRequest, "MISSING_PROVIDER_KEY", "OpenRouter API key not found. Add it in your settings.")
	case errors.Is(err, provider.ErrUpstream):
		writeError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Failed to analyze resume with AI service")
	case errors.Is(err, analysis.ErrStorage):
		h.logger.Error("analysis persistence failed", "error", err)
		writeError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to save analysis results")
	default:
		h.logger.Error("analysis failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process resume")
	}
}

// List handles GET /api/v1/analyses. An optional keyword query filters
// the history to analyses that detected that keyword.
func (h *AnalysisHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	keyword := r.URL.Query().Get("keyword")

	summaries, err := h.records.ListAnalysesByUser(r.Context(), userID, keyword)
	if err != nil {
		h.logger.Error("analysis list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	if summaries == nil {
		summaries = []*model.AnalysisSummary{}
	}

	writeJSON(w, http.StatusOK, dto.AnalysisListResponse{Data: summaries})
}

// Get handles GET /api/v1/analyses/{id}. Records owned by another user
// are reported as not found. The cache is keyed by record id alone, so
// ownership is re-checked on every cached read.
func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Analysis ID is required")
		return
	}

	if h.cache != nil {
		if cached, err := h.cache.GetAnalysis(r.Context(), id); err == nil && cached != nil {
			if cached.UserID != userID {
				writeError(w, http.StatusNotFound, "ANALYSIS_NOT_FOUND", "Analysis not found")
				return
			}
			h.metrics.IncAnalysisCacheHit()
			writeJSON(w, http.StatusOK, dto.ToAnalysisResponse(cached))
			return
		}
		h.metrics.IncAnalysisCacheMiss()
	}

	record, err := h.records.GetAnalysisForUser(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAnalysisNotFound) {
			writeError(w, http.StatusNotFound, "ANALYSIS_NOT_FOUND", "Analysis not found")
			return
		}
		h.logger.Error("analysis lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	if h.cache != nil {
		if err := h.cache.SetAnalysis(r.Context(), record); err != nil {
			h.logger.Warn("analysis cache write failed", "analysis_id", record.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, dto.ToAnalysisResponse(record))
}
