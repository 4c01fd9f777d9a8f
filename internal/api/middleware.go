package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/terra-clan/curriculum-engine/internal/models"
)

// ClientStore resolves API keys to clients. A nil client with a nil error
// means the key is unknown.
type ClientStore interface {
	GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error)
}

// usageRecorder is implemented by stores that track key usage
type usageRecorder interface {
	UpdateClientLastUsed(ctx context.Context, apiKey string) error
}

// StaticClients is a ClientStore backed by configured keys. Entries are
// either "name:key" or a bare key; every static client has all permissions.
type StaticClients map[string]*models.ApiClient

// NewStaticClients builds a store from API_KEYS entries. It returns nil when
// no keys are configured.
func NewStaticClients(entries []string) StaticClients {
	if len(entries) == 0 {
		return nil
	}

	clients := make(StaticClients, len(entries))
	for i, entry := range entries {
		name, key, ok := strings.Cut(entry, ":")
		if !ok {
			key = entry
			name = fmt.Sprintf("static-%d", i+1)
		}
		if key == "" {
			continue
		}
		clients[key] = &models.ApiClient{Name: name, ApiKey: key, Permissions: []string{"*"}}
	}
	return clients
}

// GetClientByApiKey implements ClientStore
func (s StaticClients) GetClientByApiKey(_ context.Context, apiKey string) (*models.ApiClient, error) {
	client, ok := s[apiKey]
	if !ok {
		return nil, nil
	}
	return client, nil
}

// AuthMiddleware handles API key authentication
type AuthMiddleware struct {
	clients ClientStore
}

// NewAuthMiddleware creates new auth middleware
func NewAuthMiddleware(clients ClientStore) *AuthMiddleware {
	return &AuthMiddleware{clients: clients}
}

// Authenticate verifies the API key from the Authorization header
// ("Bearer key" or a raw key) or the X-API-Key header
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := extractAPIKey(r)
		if apiKey == "" {
			writeAuthError(w, http.StatusUnauthorized, "missing api key", "provide Authorization header with Bearer token or X-API-Key header")
			return
		}

		client, err := m.clients.GetClientByApiKey(r.Context(), apiKey)
		if err != nil {
			slog.Error("failed to lookup api client", "error", err, "key_prefix", maskKey(apiKey))
			writeAuthError(w, http.StatusInternalServerError, "authentication error", "internal server error")
			return
		}

		if client == nil {
			slog.Warn("invalid api key attempt", "key_prefix", maskKey(apiKey), "remote_addr", r.RemoteAddr)
			writeAuthError(w, http.StatusUnauthorized, "invalid api key", "the provided api key is not valid")
			return
		}

		if recorder, ok := m.clients.(usageRecorder); ok {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := recorder.UpdateClientLastUsed(ctx, apiKey); err != nil {
					slog.Error("failed to update client last_used_at", "error", err, "client", client.Name)
				}
			}()
		}

		slog.Debug("authenticated request", "client", client.Name, "key_prefix", client.MaskedApiKey())

		ctx := ContextWithClient(r.Context(), client)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission returns middleware that checks for specific permission
func (m *AuthMiddleware) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := ClientFromContext(r.Context())
			if client == nil {
				writeAuthError(w, http.StatusUnauthorized, "not authenticated", "authentication required")
				return
			}

			if !client.HasPermission(permission) {
				slog.Warn("permission denied",
					"client", client.Name,
					"required", permission,
					"has", client.Permissions,
				)
				writeAuthError(w, http.StatusForbidden, "permission denied",
					"client does not have required permission: "+permission)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractAPIKey(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if key, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			return key
		}
		return authHeader
	}

	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	// browsers cannot set headers on websocket upgrades
	return r.URL.Query().Get("api_key")
}

// maskKey returns first 8 chars of key for safe logging
func maskKey(key string) string {
	if len(key) < 8 {
		return "***"
	}
	return key[:8] + "..."
}

// AuthError represents an authentication error response
type AuthError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(AuthError{
		Error:   code,
		Message: message,
	})
}
