package model

import "time"

// ServiceOpenRouter is the service name under which the OpenRouter
// credential is stored. The analysis pipeline looks up this key.
const ServiceOpenRouter = "openrouter"

// ProviderKey is a per-user secret for an external AI provider.
// At most one key exists per (user, service) pair; saving again replaces
// the stored secret.
type ProviderKey struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ServiceName string    `json:"service_name"`
	APIKey      string    `json:"-"` // Never serialize
	CreatedAt   time.Time `json:"created_at"`
}

// ProviderKeyResponse is the listing shape for stored provider keys.
// Secrets are write-only at the API surface, so the value is omitted.
type ProviderKeyResponse struct {
	ServiceName string    `json:"service_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToResponse converts a ProviderKey to its listing shape.
func (k *ProviderKey) ToResponse() ProviderKeyResponse {
	return ProviderKeyResponse{
		ServiceName: k.ServiceName,
		CreatedAt:   k.CreatedAt,
	}
}
