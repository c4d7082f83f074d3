package agent

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Konaiko01/ZetaonAI/internal/calendar"
	"github.com/Konaiko01/ZetaonAI/internal/llm"
)

// datetimeToken is replaced with the current wall-clock time (assistant
// timezone) when the system prompt is materialized.
const datetimeToken = "{{CURRENT_DATETIME}}"

// apologyMessage is the single user-visible text for any terminal failure
// inside a turn.
const apologyMessage = "Desculpe, ocorreu um erro ao processar sua solicitação. Pode tentar novamente?"

// Engine runs the tool-call loop for one specialist agent: call the model,
// execute requested tools, feed results back, repeat until the model yields
// text or a safety bound trips.
type Engine struct {
	LLM           llm.Provider
	DefaultModel  string
	MaxIterations int
	TurnDeadline  time.Duration
	// Now is swappable in tests; defaults to time.Now.
	Now func() time.Time
}

// Run produces an updated history ending in an assistant message with
// non-empty text. Bound violations (iteration cap, turn deadline) synthesize
// an apology instead of failing; unexpected provider errors propagate so the
// orchestrator can translate them.
func (e *Engine) Run(ctx context.Context, desc Descriptor, history []llm.Message) ([]llm.Message, error) {
	if e.TurnDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.TurnDeadline)
		defer cancel()
	}

	msgs := e.materialize(desc, history)
	model := desc.Model
	if model == "" {
		model = e.DefaultModel
	}

	var schemas []llm.ToolSchema
	if desc.Tools != nil {
		schemas = desc.Tools.Schemas()
	}

	maxIter := e.MaxIterations
	if maxIter <= 0 {
		maxIter = 6
	}

	for step := 0; step < maxIter; step++ {
		log.Debug().Str("agent", desc.ID).Int("step", step).Int("history", len(msgs)).Msg("agent_step_start")

		msg, err := e.LLM.Chat(ctx, msgs, schemas, model)
		if err != nil {
			if isDeadline(ctx, err) {
				log.Warn().Str("agent", desc.ID).Int("step", step).Msg("agent_turn_deadline")
				return append(msgs, apology()), nil
			}
			log.Error().Err(err).Str("agent", desc.ID).Int("step", step).Msg("agent_step_error")
			return msgs, err
		}

		msg.ToolCalls = ensureToolCallIDs(msg.ToolCalls)
		msgs = append(msgs, msg)

		if len(msg.ToolCalls) == 0 {
			if strings.TrimSpace(msg.Content) == "" {
				// The model yielded nothing at all; do not leave the turn silent.
				msgs[len(msgs)-1] = apology()
			}
			log.Info().Str("agent", desc.ID).Int("step", step).Int("final_len", len(msg.Content)).Msg("agent_final")
			return msgs, nil
		}

		log.Info().Str("agent", desc.ID).Int("step", step).Int("tool_calls", len(msg.ToolCalls)).Msg("agent_tool_calls")
		msgs = e.dispatchTools(ctx, desc, msgs, msg.ToolCalls)
	}

	log.Warn().Str("agent", desc.ID).Int("max_iterations", maxIter).Msg("agent_tool_loop_exhausted")
	return append(msgs, apology()), nil
}

// materialize strips any stored system message and prepends this agent's
// instructions with the datetime token substituted.
func (e *Engine) materialize(desc Descriptor, history []llm.Message) []llm.Message {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	current := now().In(calendar.Location()).Format(time.RFC3339)
	instructions := strings.ReplaceAll(desc.Instructions, datetimeToken, current)

	out := make([]llm.Message, 0, len(history)+1)
	out = append(out, llm.Message{Role: "system", Content: instructions})
	out = append(out, llm.StripSystem(history)...)
	return out
}

// dispatchTools executes every requested call in order and appends one tool
// message per call. Failures are already encoded into the payload by the
// registry, so the model sees them and can recover.
func (e *Engine) dispatchTools(ctx context.Context, desc Descriptor, msgs []llm.Message, calls []llm.ToolCall) []llm.Message {
	for _, call := range calls {
		var payload []byte
		if desc.Tools == nil {
			payload = []byte(`{"error":"tool not found"}`)
		} else {
			var err error
			payload, err = desc.Tools.Dispatch(ctx, call.Name, call.Args)
			if err != nil {
				// Dispatch only errors on internal registry faults; still feed
				// something back so the pairing invariant holds.
				payload = []byte(`{"error":"internal tool dispatch failure"}`)
				log.Error().Err(err).Str("agent", desc.ID).Str("tool", call.Name).Msg("tool_dispatch_error")
			}
		}
		log.Debug().Str("agent", desc.ID).Str("tool", call.Name).Str("id", call.ID).Msg("tool_dispatched")
		msgs = append(msgs, llm.Message{Role: "tool", ToolID: call.ID, Content: string(payload)})
	}
	return msgs
}

// ensureToolCallIDs fills in ids for providers that omit them, so result
// pairing never breaks.
func ensureToolCallIDs(calls []llm.ToolCall) []llm.ToolCall {
	for i := range calls {
		if strings.TrimSpace(calls[i].ID) == "" {
			calls[i].ID = "call_" + uuid.NewString()
		}
	}
	return calls
}

func apology() llm.Message {
	return llm.Message{Role: "assistant", Content: apologyMessage}
}

func isDeadline(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil
}
