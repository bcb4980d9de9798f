package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/finlay-davidson/flog-it/internal/listing/domain"
)

// RemoteVerifier asks the hosted auth service who a token belongs to.
type RemoteVerifier struct {
	userURL string
	apiKey  string
	client  *http.Client
}

type remoteUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func NewRemoteVerifier(baseURL, apiKey string, client *http.Client) *RemoteVerifier {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &RemoteVerifier{
		userURL: strings.TrimRight(baseURL, "/") + "/auth/v1/user",
		apiKey:  apiKey,
		client:  client,
	}
}

func (v *RemoteVerifier) Verify(ctx context.Context, token string) (domain.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userURL, nil)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if v.apiKey != "" {
		req.Header.Set("apikey", v.apiKey)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("auth service request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.Identity{}, ErrInvalidToken
	case resp.StatusCode != http.StatusOK:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Identity{}, fmt.Errorf("auth service returned %d: %s", resp.StatusCode, string(raw))
	}

	var user remoteUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return domain.Identity{}, fmt.Errorf("failed to decode auth response: %w", err)
	}
	if user.ID == "" {
		return domain.Identity{}, ErrInvalidToken
	}
	return domain.Identity{UserID: user.ID, Email: user.Email}, nil
}
