// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fallback

import (
	"fmt"
	"strings"

	"github.com/pdiddy/imrad-graph/pkg/types"
)

// NewBackend builds the configured backend. Provider "" or "none" returns
// nil: the pipeline then skips escalation entirely, which is valid: the
// fallback is a recall improvement, never required for correctness.
func NewBackend(cfg types.FallbackConfig) (Backend, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "none":
		return nil, nil

	case "claude":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("fallback provider claude requires an API key")
		}
		return &ClaudeBackend{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		}, nil

	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("fallback provider openai requires an API key")
		}
		return NewOpenAIBackend(cfg.APIKey, cfg.Model, cfg.BaseURL), nil

	default:
		return nil, fmt.Errorf("unsupported fallback provider: %s", cfg.Provider)
	}
}
