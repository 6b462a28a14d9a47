// Package analysis orchestrates resume evaluation: credential lookup,
// text extraction, the upstream completion call, reply parsing, and
// persistence of the resulting record.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/resumelens/resumelens/internal/extract"
	"github.com/resumelens/resumelens/internal/metrics"
	"github.com/resumelens/resumelens/internal/model"
	"github.com/resumelens/resumelens/internal/repository"
	"github.com/resumelens/resumelens/internal/upload"
)

// Service errors.
var (
	// ErrMissingCredential indicates the user has not registered an API key
	// for the completion service.
	ErrMissingCredential = errors.New("no provider key registered")
	// ErrStorage indicates the evaluation succeeded but the record could
	// not be persisted. No partial record exists.
	ErrStorage = errors.New("failed to save analysis")
)

// CredentialSource resolves per-user provider API keys.
type CredentialSource interface {
	GetProviderKey(ctx context.Context, userID, serviceName string) (*model.ProviderKey, error)
}

// Store persists completed analysis records.
type Store interface {
	CreateAnalysis(ctx context.Context, a *model.Analysis) error
}

// Completer produces a model reply for a prompt using the caller's key.
type Completer interface {
	Complete(ctx context.Context, apiKey, prompt string) (string, error)
}

// Extractor converts a stored document into plain text.
type Extractor interface {
	Extract(filename string, data []byte) (extract.Result, error)
}

// FileSource reads previously stored document bytes.
type FileSource interface {
	Read(storageName string) ([]byte, error)
}

// Service runs the analysis pipeline.
type Service struct {
	credentials CredentialSource
	store       Store
	completer   Completer
	extractor   Extractor
	files       FileSource
	logger      *slog.Logger
	metrics     metrics.Recorder
}

// NewService creates an analysis Service.
func NewService(credentials CredentialSource, store Store, completer Completer, extractor Extractor, files FileSource, logger *slog.Logger, recorder metrics.Recorder) *Service {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Service{
		credentials: credentials,
		store:       store,
		completer:   completer,
		extractor:   extractor,
		files:       files,
		logger:      logger.With("component", "analysis.service"),
		metrics:     recorder,
	}
}

// Analyze evaluates an accepted upload for a user and persists the
// outcome. The credential is resolved before any upstream work so a
// missing key costs nothing. An unparsable model reply degrades to the
// fixed fallback result rather than failing; upstream and storage
// failures are returned as errors and persist nothing.
func (s *Service) Analyze(ctx context.Context, userID string, doc *upload.Document) (*model.Analysis, error) {
	start := time.Now()

	key, err := s.credentials.GetProviderKey(ctx, userID, model.ServiceOpenRouter)
	if err != nil {
		if errors.Is(err, repository.ErrProviderKeyNotFound) {
			return nil, ErrMissingCredential
		}
		return nil, fmt.Errorf("resolve provider key: %w", err)
	}

	data, err := s.files.Read(doc.StorageName)
	if err != nil {
		return nil, fmt.Errorf("read stored document: %w", err)
	}

	text, err := s.extractor.Extract(doc.OriginalName, data)
	if err != nil {
		// Degrade rather than fail: the evaluation proceeds with the
		// placeholder so a corrupt document still yields a record.
		s.logger.Warn("text extraction failed",
			"original_name", doc.OriginalName,
			"error", err,
		)
		text = extract.Result{Text: extract.PlaceholderText, Placeholder: true}
	}
	if text.Placeholder {
		s.logger.Warn("analyzing with placeholder text",
			"original_name", doc.OriginalName,
		)
	}

	reply, err := s.completer.Complete(ctx, key.APIKey, BuildPrompt(text.Text))
	if err != nil {
		s.metrics.IncUpstreamError()
		return nil, fmt.Errorf("completion: %w", err)
	}

	fallback := false
	result, err := ParseResult(reply)
	if err != nil {
		s.logger.Warn("model reply unparsable, using fallback result",
			"user_id", userID,
			"original_name", doc.OriginalName,
		)
		result = model.FallbackResult()
		fallback = true
		s.metrics.IncAnalysisFallback()
	}

	record := &model.Analysis{
		ID:           ulid.Make().String(),
		UserID:       userID,
		StorageName:  doc.StorageName,
		OriginalName: doc.OriginalName,
		Result:       result,
		Score:        result.Score,
		Fallback:     fallback,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.CreateAnalysis(ctx, record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	s.metrics.IncAnalysisCompleted()
	s.metrics.ObserveAnalyzeDuration(time.Since(start))

	s.logger.Info("analysis completed",
		"analysis_id", record.ID,
		"user_id", userID,
		"score", record.Score,
		"fallback", fallback,
	)

	return record, nil
}
