package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// WebSearcher runs one web query and returns pre-formatted results.
type WebSearcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// WebSearchTool exposes web search to the content and marketing agents.
func WebSearchTool(searcher WebSearcher) Tool {
	return &webSearchTool{searcher: searcher}
}

type webSearchTool struct {
	searcher WebSearcher
}

func (t *webSearchTool) Name() string { return "search_web" }

func (t *webSearchTool) JSONSchema() map[string]any {
	return map[string]any{
		"description": "Busca informações na web (ex: fatos, notícias, tendências de mercado, concorrentes).",
		"parameters": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string", "description": "A query de busca."},
			},
			"required": []string{"query"},
		},
	}
}

func (t *webSearchTool) Call(ctx context.Context, raw json.RawMessage) (any, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("parse search_web arguments: %w", err)
	}
	if args.Query == "" {
		return nil, fmt.Errorf("search_web: query is required")
	}
	return t.searcher.Search(ctx, args.Query)
}
