package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Konaiko01/ZetaonAI/internal/llm"
)

func TestAdaptMessagesRoles(t *testing.T) {
	msgs := []llm.Message{
		{Role: "system", Content: "instruções"},
		{Role: "user", Content: "oi"},
		{Role: "assistant", Content: "olá"},
		{Role: "assistant", ToolCalls: []llm.ToolCall{{ID: "c1", Name: "search_web", Args: json.RawMessage(`{"query":"ia"}`)}}},
		{Role: "tool", ToolID: "c1", Content: `"resultado"`},
	}

	out := AdaptMessages(msgs)
	require.Len(t, out, 5)

	require.NotNil(t, out[0].OfSystem)
	require.NotNil(t, out[1].OfUser)
	require.NotNil(t, out[2].OfAssistant)

	asst := out[3].OfAssistant
	require.NotNil(t, asst)
	require.Len(t, asst.ToolCalls, 1)
	require.Equal(t, "c1", asst.ToolCalls[0].OfFunction.ID)
	require.Equal(t, "search_web", asst.ToolCalls[0].OfFunction.Function.Name)

	tool := out[4].OfTool
	require.NotNil(t, tool)
	require.Equal(t, "c1", tool.ToolCallID)
}

func TestAdaptMessagesEmptyUserContent(t *testing.T) {
	out := AdaptMessages([]llm.Message{{Role: "user"}})
	require.Len(t, out, 1)
	require.NotNil(t, out[0].OfUser)
}

func TestAdaptSchemas(t *testing.T) {
	schemas := []llm.ToolSchema{{
		Name:        "get_calendar_events",
		Description: "Busca eventos na agenda.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"start_date": map[string]any{"type": "string"},
			},
			"required": []string{"start_date"},
		},
	}}

	out := AdaptSchemas(schemas)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].OfFunction)
	require.Equal(t, "get_calendar_events", out[0].OfFunction.Function.Name)
}
