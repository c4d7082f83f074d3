package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const serperURL = "https://google.serper.dev/search"

// Client queries the Serper.dev search API and formats the organic results
// for consumption by the model.
type Client struct {
	apiKey     string
	httpClient *http.Client
	endpoint   string
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   serperURL,
	}
}

type organicResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

type searchResponse struct {
	Organic []organicResult `json:"organic"`
}

// Search runs one query and returns the top-3 organic results as a single
// formatted string, one block per result separated by a divider.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("web search not configured")
	}
	payload, _ := json.Marshal(map[string]string{"q": query})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Warn().Int("status", resp.StatusCode).Str("query", query).Msg("search_api_error")
		return "", fmt.Errorf("search API status %d: %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}
	log.Debug().Str("query", query).Int("organic", len(parsed.Organic)).Msg("search_ok")
	return FormatResults(parsed.Organic), nil
}

// FormatResults renders up to three organic results in the fixed
// "Fonte / Título / Resumo" layout the agents expect.
func FormatResults(organic []organicResult) string {
	if len(organic) == 0 {
		return "Nenhum resultado encontrado."
	}
	if len(organic) > 3 {
		organic = organic[:3]
	}
	blocks := make([]string, 0, len(organic))
	for _, item := range organic {
		title := item.Title
		if title == "" {
			title = "Sem título"
		}
		snippet := item.Snippet
		if snippet == "" {
			snippet = "Sem descrição"
		}
		link := item.Link
		if link == "" {
			link = "#"
		}
		blocks = append(blocks, fmt.Sprintf("Fonte: %s\nTítulo: %s\nResumo: %s", link, title, snippet))
	}
	return strings.Join(blocks, "\n\n---\n\n")
}
