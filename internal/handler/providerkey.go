package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/resumelens/resumelens/internal/auth"
	"github.com/resumelens/resumelens/internal/handler/dto"
	"github.com/resumelens/resumelens/internal/model"
)

// ProviderKeyStore is the persistence surface for provider credentials.
type ProviderKeyStore interface {
	UpsertProviderKey(ctx context.Context, key *model.ProviderKey) error
	ListProviderKeys(ctx context.Context, userID string) ([]*model.ProviderKey, error)
}

// supportedServices lists the completion services keys may be stored for.
var supportedServices = map[string]bool{
	model.ServiceOpenRouter: true,
}

// ProviderKeyHandler manages per-user provider API keys. Keys are
// write-only: they can be saved and their existence listed, but the
// secret itself is never returned.
type ProviderKeyHandler struct {
	keys   ProviderKeyStore
	logger *slog.Logger
}

// NewProviderKeyHandler creates a new ProviderKeyHandler.
func NewProviderKeyHandler(keys ProviderKeyStore, logger *slog.Logger) *ProviderKeyHandler {
	return &ProviderKeyHandler{
		keys:   keys,
		logger: logger,
	}
}

// Save handles POST /api/v1/provider-keys. Saving for a service the user
// already registered replaces the stored secret.
func (h *ProviderKeyHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req dto.SaveProviderKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	service := strings.ToLower(strings.TrimSpace(req.ServiceName))
	if service == "" {
		service = model.ServiceOpenRouter
	}
	if !supportedServices[service] {
		writeError(w, http.StatusBadRequest, "UNSUPPORTED_SERVICE", "Unknown service name")
		return
	}
	if strings.TrimSpace(req.APIKey) == "" {
		writeError(w, http.StatusBadRequest, "MISSING_API_KEY", "API key is required")
		return
	}

	userID := auth.UserIDFromContext(r.Context())

	key := &model.ProviderKey{
		ID:          ulid.Make().String(),
		UserID:      userID,
		ServiceName: service,
		APIKey:      strings.TrimSpace(req.APIKey),
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.keys.UpsertProviderKey(r.Context(), key); err != nil {
		h.logger.Error("provider key upsert failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	h.logger.Info("provider_key_saved", "user_id", userID, "service", service)

	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/v1/provider-keys. The response names the
// services with stored keys but never includes the secrets.
func (h *ProviderKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	keys, err := h.keys.ListProviderKeys(r.Context(), userID)
	if err != nil {
		h.logger.Error("provider key list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	data := make([]model.ProviderKeyResponse, 0, len(keys))
	for _, key := range keys {
		data = append(data, key.ToResponse())
	}

	writeJSON(w, http.StatusOK, dto.ProviderKeyListResponse{Data: data})
}
