// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/resumelens/resumelens/internal/model"
)

// RegisterRequest represents the request body for creating an account.
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// LoginRequest represents the request body for signing in.
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me,omitempty"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse carries a session token and the authenticated user.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// SaveProviderKeyRequest represents the request body for storing an API key.
type SaveProviderKeyRequest struct {
	ServiceName string `json:"service_name,omitempty"`
	APIKey      string `json:"api_key"`
}

// ProviderKeyListResponse lists registered services. Secrets are
// write-only and never appear here.
type ProviderKeyListResponse struct {
	Data []model.ProviderKeyResponse `json:"data"`
}

// AnalysisResponse represents a full analysis record in API responses.
type AnalysisResponse struct {
	ID           string               `json:"id"`
	OriginalName string               `json:"original_name"`
	Analysis     model.AnalysisResult `json:"analysis"`
	Score        int                  `json:"score"`
	CreatedAt    time.Time            `json:"created_at"`
}

// CreateAnalysisResponse is the response for a completed evaluation.
type CreateAnalysisResponse struct {
	Message string `json:"message"`
	AnalysisResponse
}

// AnalysisListResponse lists a user's analysis history, newest first.
type AnalysisListResponse struct {
	Data []*model.AnalysisSummary `json:"data"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToUserResponse converts a User model to UserResponse DTO.
func ToUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

// ToAnalysisResponse converts an Analysis model to AnalysisResponse DTO.
func ToAnalysisResponse(record *model.Analysis) AnalysisResponse {
	return AnalysisResponse{
		ID:           record.ID,
		OriginalName: record.OriginalName,
		Analysis:     record.Result,
		Score:        record.Score,
		CreatedAt:    record.CreatedAt,
	}
}
