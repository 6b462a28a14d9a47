// Command bootstrap-user creates a development user and optionally
// stores an OpenRouter API key for it. Intended for local setup only.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/resumelens/resumelens/internal/auth"
	"github.com/resumelens/resumelens/internal/model"
	"github.com/resumelens/resumelens/internal/repository"
)

type output struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	KeySet  bool   `json:"provider_key_set"`
	Service string `json:"service,omitempty"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		email       = flag.String("email", "dev@resumelens.local", "User email")
		password    = flag.String("password", "devpass1", "User password")
		apiKey      = flag.String("openrouter-key", os.Getenv("OPENROUTER_API_KEY"), "OpenRouter API key to store for the user")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	userID, err := ensureUser(ctx, repo, *email, *password)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	out := output{UserID: userID, Email: *email}

	if *apiKey != "" {
		key := &model.ProviderKey{
			ID:          ulid.Make().String(),
			UserID:      userID,
			ServiceName: model.ServiceOpenRouter,
			APIKey:      *apiKey,
			CreatedAt:   time.Now().UTC(),
		}
		if err := repo.UpsertProviderKey(ctx, key); err != nil {
			fmt.Fprintln(os.Stderr, "store provider key:", err)
			os.Exit(1)
		}
		out.KeySet = true
		out.Service = model.ServiceOpenRouter
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintln(os.Stderr, "encode output:", err)
			os.Exit(1)
		}
	default:
		fmt.Printf("user_id: %s\n", out.UserID)
		fmt.Printf("email:   %s\n", out.Email)
		if out.KeySet {
			fmt.Printf("stored %s key\n", out.Service)
		}
	}
}

// ensureUser creates the user if it does not exist and returns its id.
// An existing user with the same email is reused as-is.
func ensureUser(ctx context.Context, repo *repository.Repository, email, password string) (string, error) {
	if existing, err := repo.GetUserByEmail(ctx, email); err == nil {
		return existing.ID, nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := repo.CreateUser(ctx, user); err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	return user.ID, nil
}
