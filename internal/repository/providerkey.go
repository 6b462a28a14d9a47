package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/resumelens/resumelens/internal/model"
)

// ErrProviderKeyNotFound indicates no key is stored for the
// (user, service) pair. Callers decide whether absence is fatal.
var ErrProviderKeyNotFound = errors.New("provider key not found")

// UpsertProviderKey stores or replaces the secret for a (user, service)
// pair in a single atomic statement. Concurrent upserts for the same pair
// cannot produce duplicate rows; the last writer wins.
func (r *Repository) UpsertProviderKey(ctx context.Context, key *model.ProviderKey) error {
	query := `
		INSERT INTO provider_keys (id, user_id, service_name, api_key, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, service_name)
		DO UPDATE SET api_key = EXCLUDED.api_key
	`

	_, err := r.pool.Exec(ctx, query,
		key.ID,
		key.UserID,
		key.ServiceName,
		key.APIKey,
		key.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert provider key: %w", err)
	}

	return nil
}

// GetProviderKey retrieves the stored key for a (user, service) pair.
// Keys are never read across users.
func (r *Repository) GetProviderKey(ctx context.Context, userID, serviceName string) (*model.ProviderKey, error) {
	query := `
		SELECT id, user_id, service_name, api_key, created_at
		FROM provider_keys
		WHERE user_id = $1 AND service_name = $2
	`

	var key model.ProviderKey
	err := r.pool.QueryRow(ctx, query, userID, serviceName).Scan(
		&key.ID,
		&key.UserID,
		&key.ServiceName,
		&key.APIKey,
		&key.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProviderKeyNotFound
		}
		return nil, fmt.Errorf("failed to get provider key: %w", err)
	}

	return &key, nil
}

// ListProviderKeys retrieves all provider keys for a user.
func (r *Repository) ListProviderKeys(ctx context.Context, userID string) ([]*model.ProviderKey, error) {
	query := `
		SELECT id, user_id, service_name, api_key, created_at
		FROM provider_keys
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list provider keys: %w", err)
	}
	defer rows.Close()

	var keys []*model.ProviderKey
	for rows.Next() {
		var key model.ProviderKey
		if err := rows.Scan(&key.ID, &key.UserID, &key.ServiceName, &key.APIKey, &key.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan provider key: %w", err)
		}
		keys = append(keys, &key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating provider keys: %w", err)
	}

	return keys, nil
}
