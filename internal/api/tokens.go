package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/j-veylop/usage-dashboard-tui/internal/models"
)

const (
	tokensPath = "/api/token/"
	// tokenListSize is the largest page the token endpoint serves.
	tokenListSize = "100"
)

// ListTokens returns the caller's API tokens for the filter dropdown.
// The endpoint answers either with a paginated object or a bare array.
func (c *Client) ListTokens(ctx context.Context) ([]models.TokenOption, error) {
	query := url.Values{}
	query.Set("p", "1")
	query.Set("size", tokenListSize)

	var raw json.RawMessage
	if err := c.get(ctx, tokensPath, query, &raw); err != nil {
		return nil, err
	}
	return decodeTokens(raw)
}

func decodeTokens(raw json.RawMessage) ([]models.TokenOption, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return []models.TokenOption{}, nil
	}

	var tokens []models.TokenOption
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &tokens); err != nil {
			return nil, fmt.Errorf("failed to parse token list: %w", err)
		}
	} else {
		var paged struct {
			Items []models.TokenOption `json:"items"`
		}
		if err := json.Unmarshal(raw, &paged); err != nil {
			return nil, fmt.Errorf("failed to parse token list: %w", err)
		}
		tokens = paged.Items
	}

	if tokens == nil {
		tokens = []models.TokenOption{}
	}
	return tokens, nil
}
