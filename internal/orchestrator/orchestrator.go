package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Konaiko01/ZetaonAI/internal/agent"
	"github.com/Konaiko01/ZetaonAI/internal/llm"
)

// routeToolName is the single function the router model may call.
const routeToolName = "route_to_agent"

// ContextStore is the conversation-history surface the orchestrator needs.
type ContextStore interface {
	Read(ctx context.Context, user string, limit int) ([]llm.Message, error)
	Save(ctx context.Context, user string, history []llm.Message) error
}

// ReplySender emits the final assistant text to the chat provider.
type ReplySender interface {
	Send(ctx context.Context, user, text string) error
}

// Orchestrator runs one turn: a routing LLM call that either answers
// trivially or picks a specialist, then the specialist's tool loop, then
// persistence and reply emission. It turns context-store and provider errors
// into the user-visible apology; the engine synthesizes the same apology
// itself when a turn bound (deadline, iteration cap) trips.
type Orchestrator struct {
	provider     llm.Provider
	registry     *agent.Registry
	engine       *agent.Engine
	contexts     ContextStore
	sender       ReplySender
	historyLimit int
	routerModel  string
	routerPrompt string
	routerSchema []llm.ToolSchema
}

func New(provider llm.Provider, registry *agent.Registry, engine *agent.Engine, contexts ContextStore, sender ReplySender, historyLimit int, routerModel string) *Orchestrator {
	return &Orchestrator{
		provider:     provider,
		registry:     registry,
		engine:       engine,
		contexts:     contexts,
		sender:       sender,
		historyLimit: historyLimit,
		routerModel:  routerModel,
		routerPrompt: buildRouterPrompt(registry),
		routerSchema: buildRouterSchema(registry),
	}
}

// HandleTurn processes one debounced utterance for one user.
func (o *Orchestrator) HandleTurn(ctx context.Context, user, utterance string) error {
	if strings.TrimSpace(utterance) == "" {
		log.Debug().Str("user", user).Msg("turn_skipped_empty_utterance")
		return nil
	}

	history, err := o.contexts.Read(ctx, user, o.historyLimit)
	if err != nil {
		log.Error().Err(err).Str("user", user).Msg("turn_context_read_error")
		o.apologize(ctx, user, append(history, llm.Message{Role: "user", Content: utterance}))
		return err
	}

	preRouter := append(history, llm.Message{Role: "user", Content: utterance})

	updated, err := o.dispatch(ctx, user, preRouter)
	if err != nil {
		log.Error().Err(err).Str("user", user).Msg("turn_dispatch_error")
		o.apologize(ctx, user, preRouter)
		return err
	}

	if err := o.contexts.Save(ctx, user, updated); err != nil {
		// The reply was produced; losing one history write is better than
		// leaving the user without an answer.
		log.Error().Err(err).Str("user", user).Msg("turn_context_save_error")
	}

	o.emitReply(ctx, user, updated)
	return nil
}

// dispatch runs the router stage and, when routed, the specialist stage on
// the unmodified pre-router history.
func (o *Orchestrator) dispatch(ctx context.Context, user string, preRouter []llm.Message) ([]llm.Message, error) {
	routerMsgs := make([]llm.Message, 0, len(preRouter)+1)
	routerMsgs = append(routerMsgs, llm.Message{Role: "system", Content: o.routerPrompt})
	routerMsgs = append(routerMsgs, llm.StripSystem(preRouter)...)

	decision, err := o.provider.Chat(ctx, routerMsgs, o.routerSchema, o.routerModel)
	if err != nil {
		return nil, fmt.Errorf("router call: %w", err)
	}

	if id, routed := routedAgentID(decision); routed {
		desc, ok := o.registry.Get(id)
		if !ok {
			log.Error().Str("user", user).Str("agent", id).Msg("router_unknown_agent")
			desc = o.registry.Fallback()
		}
		log.Info().Str("user", user).Str("agent", desc.ID).Msg("turn_routed")
		return o.engine.Run(ctx, desc, preRouter)
	}

	if text := strings.TrimSpace(decision.Content); text != "" {
		log.Info().Str("user", user).Msg("turn_trivial_reply")
		return append(preRouter, llm.Message{Role: "assistant", Content: text}), nil
	}

	log.Warn().Str("user", user).Msg("router_empty_decision")
	return o.engine.Run(ctx, o.registry.Fallback(), preRouter)
}

// emitReply walks the history from the tail for the first assistant text and
// hands it to the sender. Failures are logged, never retried.
func (o *Orchestrator) emitReply(ctx context.Context, user string, history []llm.Message) {
	text := llm.LastAssistantText(history)
	if text == "" {
		log.Error().Str("user", user).Msg("turn_no_final_reply")
		return
	}
	if err := o.sender.Send(ctx, user, text); err != nil {
		log.Error().Err(err).Str("user", user).Msg("reply_send_error")
		return
	}
	log.Info().Str("user", user).Int("chars", len(text)).Msg("reply_sent")
}

// apologize persists and sends the single terminal-failure apology.
func (o *Orchestrator) apologize(ctx context.Context, user string, history []llm.Message) {
	updated := append(history, llm.Message{
		Role:    "assistant",
		Content: "Desculpe, ocorreu um erro ao processar sua solicitação. Pode tentar novamente?",
	})
	if err := o.contexts.Save(ctx, user, updated); err != nil {
		log.Error().Err(err).Str("user", user).Msg("apology_save_error")
	}
	if err := o.sender.Send(ctx, user, updated[len(updated)-1].Content); err != nil {
		log.Error().Err(err).Str("user", user).Msg("apology_send_error")
	}
}

func routedAgentID(decision llm.Message) (string, bool) {
	for _, tc := range decision.ToolCalls {
		if tc.Name != routeToolName {
			continue
		}
		var args struct {
			AgentID string `json:"agent_id"`
		}
		if err := json.Unmarshal(tc.Args, &args); err != nil {
			log.Warn().Err(err).Msg("router_arguments_unparseable")
			return "", false
		}
		return strings.TrimSpace(args.AgentID), true
	}
	return "", false
}

func buildRouterSchema(registry *agent.Registry) []llm.ToolSchema {
	ids := registry.IDs()
	enum := make([]any, len(ids))
	for i, id := range ids {
		enum[i] = id
	}
	return []llm.ToolSchema{{
		Name:        routeToolName,
		Description: "Encaminha a mensagem do usuário para o agente especialista indicado.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"agent_id": map[string]any{
					"type":        "string",
					"description": "O agente especialista que deve processar a mensagem.",
					"enum":        enum,
				},
			},
			"required": []string{"agent_id"},
		},
	}}
}

func buildRouterPrompt(registry *agent.Registry) string {
	var b strings.Builder
	b.WriteString(`# Identidade
- **Nome**: Agente Organizador
- **Função**: Orquestrador de agentes IA.
- **Tarefa**: Analisar a intenção da mensagem mais recente do usuário e decidir o destino.

# Decisão
- Se a mensagem for trivial (saudação, agradecimento, confirmação curta), responda você mesmo com um texto curto e amigável, SEM chamar ferramenta.
- Caso contrário, chame a ferramenta route_to_agent com o agente especialista mais adequado. Você NUNCA responde perguntas de conteúdo você mesmo.

# Agentes Especialistas
`)
	for _, d := range registry.All() {
		fmt.Fprintf(&b, "- %s: %s\n", d.ID, d.Description)
	}
	b.WriteString(`
# Regras
- Agenda, calendário, marcar, reunião, evento, disponibilidade → agent_agendamento.
- Escrever, pesquisar, criar post, explicar um tópico, buscar na web → agent_conteudo.
- Vendas, anúncios, tráfego pago, SDR/BDR, growth, prospecção → agent_marketing.
- Perguntas gerais, conselhos ou qualquer outro caso → agent_mentor.`)
	return b.String()
}
