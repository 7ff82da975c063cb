package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoToken is returned by Load when no token has been persisted yet.
var ErrNoToken = errors.New("store: no token saved")

// DefaultTokenFile is the token file name used when none is configured.
const DefaultTokenFile = "hh_token.json"

// Token is the persisted OAuth credential pair.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// TokenStore persists the OAuth token as a JSON file, rewritten in full on
// every mutation.
type TokenStore struct {
	backend Backend
	name    string
}

// NewTokenStore creates a token store on the given backend. An empty name
// falls back to DefaultTokenFile.
func NewTokenStore(backend Backend, name string) *TokenStore {
	if name == "" {
		name = DefaultTokenFile
	}
	return &TokenStore{backend: backend, name: name}
}

// Load reads the persisted token. Returns ErrNoToken when none exists.
func (s *TokenStore) Load(ctx context.Context) (*Token, error) {
	data, err := s.backend.Read(ctx, s.name)
	if errors.Is(err, ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, err
	}

	var t Token
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("store: decode token: %w", err)
	}
	if t.AccessToken == "" {
		return nil, ErrNoToken
	}
	return &t, nil
}

// Save persists the token.
func (s *TokenStore) Save(ctx context.Context, t *Token) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode token: %w", err)
	}
	return s.backend.Write(ctx, s.name, data)
}
