package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClient_Complete(t *testing.T) {
	var gotAuth, gotModel, gotPrompt string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotModel = req.Model
		if len(req.Messages) == 1 {
			gotPrompt = req.Messages[0].Content
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"model reply"}}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "openai/gpt-3.5-turbo", 5*time.Second)
	reply, err := client.Complete(context.Background(), "sk-or-test", "evaluate this resume")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if reply != "model reply" {
		t.Errorf("expected model reply, got %q", reply)
	}
	if gotAuth != "Bearer sk-or-test" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotModel != "openai/gpt-3.5-turbo" {
		t.Errorf("unexpected model: %q", gotModel)
	}
	if gotPrompt != "evaluate this resume" {
		t.Errorf("unexpected prompt: %q", gotPrompt)
	}
}

func TestClient_CompleteUpstreamErrors(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "upstream exploded", http.StatusInternalServerError)
			},
		},
		{
			name: "auth rejected",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "bad key", http.StatusUnauthorized)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"choices":[]}`))
			},
		},
		{
			name: "empty message content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":""}}]}`))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			client := NewClient(srv.URL, "", 5*time.Second)
			_, err := client.Complete(context.Background(), "sk-or-test", "prompt")
			if !errors.Is(err, ErrUpstream) {
				t.Errorf("expected ErrUpstream, got %v", err)
			}
		})
	}
}

func TestClient_CompleteTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 50*time.Millisecond)
	_, err := client.Complete(context.Background(), "sk-or-test", "prompt")
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("expected ErrUpstream on timeout, got %v", err)
	}
}

func TestClient_CompleteContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient(srv.URL, "", 5*time.Second)
	_, err := client.Complete(ctx, "sk-or-test", "prompt")
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("expected ErrUpstream on cancelled context, got %v", err)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient("", "", 0)
	if client.url != DefaultURL {
		t.Errorf("expected default URL, got %q", client.url)
	}
	if client.model != DefaultModel {
		t.Errorf("expected default model, got %q", client.model)
	}
	if !strings.HasPrefix(client.url, "https://openrouter.ai/") {
		t.Errorf("default URL must point at openrouter: %q", client.url)
	}
}
