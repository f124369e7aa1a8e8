package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"uigen/internal/infra"
	"uigen/internal/sqlinline"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Store keeps model provider API keys in the integration_tokens table.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Token returns the stored key for provider, or "" when none is stored.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// Resolve prefers the key from the environment and falls back to the stored one.
func (s *Store) Resolve(ctx context.Context, provider, fromEnv string) (string, error) {
	if key := strings.TrimSpace(fromEnv); key != "" {
		return key, nil
	}
	if s == nil || s.sql == nil {
		return "", nil
	}
	return s.Token(ctx, provider)
}

func (s *Store) SetToken(ctx context.Context, provider, key string, props map[string]any) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !Supported(provider) {
		return fmt.Errorf("unsupported provider %q", provider)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%s api key is required", provider)
	}
	if props == nil {
		props = map[string]any{}
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, key, raw)
	return err
}

func (s *Store) DeleteToken(ctx context.Context, provider string) error {
	_, err := s.sql.Exec(ctx, sqlinline.QDeleteIntegrationToken, strings.ToLower(strings.TrimSpace(provider)))
	return err
}

// TokenInfo describes a stored key without exposing it.
type TokenInfo struct {
	Provider  string
	Source    string
	Suffix    string
	UpdatedAt time.Time
}

// List reports every stored key, ordered by provider.
func (s *Store) List(ctx context.Context) ([]TokenInfo, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QListIntegrationTokens)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TokenInfo
	for rows.Next() {
		var info TokenInfo
		if err := rows.Scan(&info.Provider, &info.Source, &info.Suffix, &info.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Supported reports whether provider names a model provider that takes an API key.
func Supported(provider string) bool {
	return provider == ProviderGemini || provider == ProviderOpenAI
}
