package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/resumelens/resumelens/internal/model"
)

// ErrAnalysisNotFound indicates the record does not exist or is owned by a
// different user. The two cases are indistinguishable on purpose.
var ErrAnalysisNotFound = errors.New("analysis not found")

// CreateAnalysis inserts a new analysis record. Records are insert-once;
// no update path exists.
func (r *Repository) CreateAnalysis(ctx context.Context, a *model.Analysis) error {
	result, err := json.Marshal(a.Result)
	if err != nil {
		return fmt.Errorf("failed to serialize analysis result: %w", err)
	}

	query := `
		INSERT INTO analyses (id, user_id, storage_name, original_name, result, score, keywords_found, fallback, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.pool.Exec(ctx, query,
		a.ID,
		a.UserID,
		a.StorageName,
		a.OriginalName,
		result,
		a.Score,
		pq.Array(a.Result.Keywords.Found),
		a.Fallback,
		a.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}

	return nil
}

// ListAnalysesByUser retrieves abbreviated records for a user, newest
// first (ties broken by id descending). When keyword is non-empty only
// analyses that detected that keyword are returned.
func (r *Repository) ListAnalysesByUser(ctx context.Context, userID, keyword string) ([]*model.AnalysisSummary, error) {
	query := `
		SELECT id, original_name, score, created_at
		FROM analyses
		WHERE user_id = $1
		AND ($2 = '' OR $2 = ANY(keywords_found))
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, userID, keyword)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var summaries []*model.AnalysisSummary
	for rows.Next() {
		var s model.AnalysisSummary
		if err := rows.Scan(&s.ID, &s.OriginalName, &s.Score, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis summary: %w", err)
		}
		summaries = append(summaries, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analyses: %w", err)
	}

	return summaries, nil
}

// GetAnalysisForUser retrieves a full record scoped to its owner. A record
// owned by a different user yields ErrAnalysisNotFound, not a forbidden
// error, to avoid leaking record existence.
func (r *Repository) GetAnalysisForUser(ctx context.Context, id, userID string) (*model.Analysis, error) {
	query := `
		SELECT id, user_id, storage_name, original_name, result, score, fallback, created_at
		FROM analyses
		WHERE id = $1 AND user_id = $2
	`

	var a model.Analysis
	var result []byte
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&a.ID,
		&a.UserID,
		&a.StorageName,
		&a.OriginalName,
		&result,
		&a.Score,
		&a.Fallback,
		&a.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAnalysisNotFound
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	if err := json.Unmarshal(result, &a.Result); err != nil {
		return nil, fmt.Errorf("failed to deserialize analysis result: %w", err)
	}

	return &a, nil
}
