package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/Konaiko01/ZetaonAI/internal/llm"
)

// PGContexts persists per-user conversation history as one JSONB row per user.
type PGContexts struct {
	pool *pgxpool.Pool
}

func NewPGContexts(pool *pgxpool.Pool) *PGContexts {
	return &PGContexts{pool: pool}
}

// Read returns the last limit messages for the user with orphan-tool repair
// applied. An unknown user yields an empty history, not an error.
func (s *PGContexts) Read(ctx context.Context, user string, limit int) ([]llm.Message, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT history FROM user_contexts WHERE phone = $1`, user,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read context for %s: %w", user, err)
	}

	var history []llm.Message
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("decode context for %s: %w", user, err)
	}

	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	history = repairWindow(history)

	log.Debug().Str("user", user).Int("messages", len(history)).Msg("context_read")
	return history, nil
}

// Save replaces the stored history for the user, creating the row on first save.
func (s *PGContexts) Save(ctx context.Context, user string, history []llm.Message) error {
	raw, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encode context for %s: %w", user, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO user_contexts (phone, history, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (phone) DO UPDATE SET history = EXCLUDED.history, updated_at = now()`,
		user, raw,
	)
	if err != nil {
		return fmt.Errorf("save context for %s: %w", user, err)
	}
	log.Debug().Str("user", user).Int("messages", len(history)).Msg("context_saved")
	return nil
}

// repairWindow drops leading tool messages whose triggering assistant
// tool_calls entry fell outside the trimmed window. Chat providers reject a
// request whose first message is a tool reply with no matching assistant
// tool_calls, so every window returned from Read must start clean.
func repairWindow(history []llm.Message) []llm.Message {
	known := make(map[string]struct{})
	start := 0
	for i, m := range history {
		if m.Role == "assistant" {
			for _, tc := range m.ToolCalls {
				known[tc.ID] = struct{}{}
			}
			continue
		}
		if m.Role != "tool" {
			continue
		}
		if _, ok := known[m.ToolID]; !ok && i == start {
			start = i + 1
		}
	}
	return history[start:]
}
