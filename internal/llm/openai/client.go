package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/rs/zerolog/log"

	"github.com/Konaiko01/ZetaonAI/internal/config"
	"github.com/Konaiko01/ZetaonAI/internal/llm"
)

// Client implements llm.Provider and llm.Transcriber on the OpenAI API.
type Client struct {
	sdk             sdk.Client
	model           string
	transcribeModel string
}

func New(c config.OpenAIConfig) *Client {
	opts := []option.RequestOption{option.WithAPIKey(c.APIKey)}
	if c.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(c.BaseURL))
	}
	return &Client{
		sdk:             sdk.NewClient(opts...),
		model:           c.Model,
		transcribeModel: c.TranscribeModel,
	}
}

// Chat sends one chat-completion request and converts the first choice back
// into the portable message form, tool calls included.
func (c *Client) Chat(ctx context.Context, msgs []llm.Message, tools []llm.ToolSchema, model string) (llm.Message, error) {
	effectiveModel := model
	if effectiveModel == "" {
		effectiveModel = c.model
	}

	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(effectiveModel),
		Messages: AdaptMessages(msgs),
	}
	// Include tools only when provided to avoid sending an empty array.
	if len(tools) > 0 {
		params.Tools = AdaptSchemas(tools)
	}

	start := time.Now()
	comp, err := c.sdk.Chat.Completions.New(ctx, params)
	dur := time.Since(start)
	if err != nil {
		log.Error().Err(err).Str("model", effectiveModel).Int("tools", len(tools)).Dur("duration", dur).Msg("chat_completion_error")
		return llm.Message{}, fmt.Errorf("chat completion: %w", err)
	}
	log.Debug().
		Str("model", effectiveModel).
		Int("messages", len(msgs)).
		Int("tools", len(tools)).
		Dur("duration", dur).
		Int("prompt_tokens", int(comp.Usage.PromptTokens)).
		Int("completion_tokens", int(comp.Usage.CompletionTokens)).
		Msg("chat_completion_ok")

	if len(comp.Choices) == 0 {
		return llm.Message{Role: "assistant"}, nil
	}

	msg := comp.Choices[0].Message
	out := llm.Message{Role: "assistant", Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		switch v := tc.AsAny().(type) {
		case sdk.ChatCompletionMessageFunctionToolCall:
			// Calls whose arguments are blank, "{}" or "null" are dropped
			// rather than dispatched.
			if isEmptyArgs(v.Function.Arguments) {
				log.Warn().Str("tool", v.Function.Name).Str("id", v.ID).Msg("skipping_tool_call_empty_arguments")
				continue
			}
			out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
				ID:   v.ID,
				Name: v.Function.Name,
				Args: json.RawMessage(v.Function.Arguments),
			})
		}
	}
	return out, nil
}

// Transcribe sends decrypted audio bytes to the transcription endpoint.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	filename := "audio." + extensionFor(mimeType)

	start := time.Now()
	resp, err := c.sdk.Audio.Transcriptions.New(ctx, sdk.AudioTranscriptionNewParams{
		Model: sdk.AudioModel(c.transcribeModel),
		File:  sdk.File(bytes.NewReader(audio), filename, mimeType),
	})
	if err != nil {
		log.Error().Err(err).Str("mime", mimeType).Int("bytes", len(audio)).Msg("transcription_error")
		return "", fmt.Errorf("transcribe audio: %w", err)
	}
	log.Debug().Dur("duration", time.Since(start)).Int("chars", len(resp.Text)).Msg("transcription_ok")
	return strings.TrimSpace(resp.Text), nil
}

func isEmptyArgs(args string) bool {
	trimmed := strings.TrimSpace(args)
	return trimmed == "" || trimmed == "{}" || trimmed == "null"
}

func extensionFor(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "ogg"):
		return "ogg"
	case strings.Contains(mimeType, "mp4"), strings.Contains(mimeType, "m4a"):
		return "m4a"
	case strings.Contains(mimeType, "mpeg"), strings.Contains(mimeType, "mp3"):
		return "mp3"
	case strings.Contains(mimeType, "wav"):
		return "wav"
	default:
		return "bin"
	}
}
