package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Konaiko01/ZetaonAI/internal/config"
	"github.com/Konaiko01/ZetaonAI/internal/store"
)

// Client talks to the Evolution API: sending texts, listing group
// participants and downloading encrypted media payloads.
type Client struct {
	baseURL    string
	apiKey     string
	instance   string
	httpClient *http.Client
	// sendDelay paces multi-part replies; overridable in tests.
	sendDelay func() time.Duration
}

func NewClient(cfg config.EvolutionConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		instance:   cfg.Instance,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		sendDelay: func() time.Duration {
			return 2*time.Second + rand.N(time.Second)
		},
	}
}

// SendMessage delivers text to the chat. Long replies are split on blank
// lines and sent as sequential messages with a short randomized pause, the
// way a person would type them.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	if chatID == "" || strings.TrimSpace(text) == "" {
		return fmt.Errorf("send message: empty chat id or text")
	}

	endpoint := fmt.Sprintf("%s/message/sendText/%s", c.baseURL, url.PathEscape(c.instance))
	parts := splitReply(text)
	for i, part := range parts {
		payload, _ := json.Marshal(map[string]any{
			"number": chatID,
			"text":   part,
			"delay":  3000,
		})
		if err := c.post(ctx, endpoint, payload, nil); err != nil {
			return fmt.Errorf("send message part %d/%d: %w", i+1, len(parts), err)
		}
		log.Info().Str("chat", chatID).Int("part", i+1).Int("parts", len(parts)).Msg("message_sent")

		if i < len(parts)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.sendDelay()):
			}
		}
	}
	return nil
}

// GetGroupParticipants fetches the current member list of a group. The gate
// treats a listing failure as an empty group, so errors surface but callers
// may downgrade them.
func (c *Client) GetGroupParticipants(ctx context.Context, groupID string) ([]store.Member, error) {
	endpoint := fmt.Sprintf("%s/group/participants/%s?groupJid=%s",
		c.baseURL, url.PathEscape(c.instance), url.QueryEscape(groupID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build participants request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch participants for %s: %w", groupID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch participants for %s: status %d", groupID, resp.StatusCode)
	}

	var parsed struct {
		Participants []store.Member `json:"participants"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode participants for %s: %w", groupID, err)
	}
	log.Debug().Str("group", groupID).Int("participants", len(parsed.Participants)).Msg("group_participants_fetched")
	return parsed.Participants, nil
}

// DownloadMedia fetches the encrypted media blob from the provider CDN.
func (c *Client) DownloadMedia(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build media request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download media: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read media body: %w", err)
	}
	log.Debug().Int("bytes", len(data)).Msg("media_downloaded")
	return data, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)
}

// splitReply breaks a reply on blank lines, dropping empty chunks.
func splitReply(text string) []string {
	raw := strings.Split(text, "\n\n")
	out := make([]string, 0, len(raw))
	for _, part := range raw {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{strings.TrimSpace(text)}
	}
	return out
}
