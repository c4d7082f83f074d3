package whatsapp

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Konaiko01/ZetaonAI/internal/llm"
)

// Kind classifies one inbound webhook event.
type Kind int

const (
	KindIgnore Kind = iota
	KindText
	KindAudio
)

// Inbound is the normalized form of one webhook event: a plain utterance
// plus the identities the pipeline needs downstream.
type Inbound struct {
	Kind      Kind
	Utterance string
	// UserKey partitions all per-conversation state.
	UserKey string
	// ChatID is where the reply goes; AuthID is who gets authorized.
	ChatID string
	AuthID string
}

// MediaDownloader fetches the encrypted payload behind a media URL.
type MediaDownloader interface {
	DownloadMedia(ctx context.Context, mediaURL string) ([]byte, error)
}

// Normalizer classifies provider payloads into ignore/text/audio and turns
// audio into a transcript.
type Normalizer struct {
	downloader  MediaDownloader
	transcriber llm.Transcriber
	ownJID      string
}

func NewNormalizer(downloader MediaDownloader, transcriber llm.Transcriber, ownJID string) *Normalizer {
	return &Normalizer{downloader: downloader, transcriber: transcriber, ownJID: ownJID}
}

// Normalize resolves one webhook envelope. Unsupported payloads come back as
// KindIgnore with no error so the controller can answer 200 and move on.
func (n *Normalizer) Normalize(ctx context.Context, env WebhookEnvelope) (Inbound, error) {
	key := env.Data.Key
	out := Inbound{
		Kind:    KindIgnore,
		UserKey: key.UserKey(),
		ChatID:  key.ChatID(),
		AuthID:  key.AuthID(),
	}

	// Outbound echoes of our own messages come back through the webhook.
	if key.FromMe || (n.ownJID != "" && key.AuthID() == n.ownJID) {
		log.Debug().Str("chat", key.ChatID()).Msg("message_ignored_own_echo")
		return out, nil
	}
	msg := env.Data.Message
	if msg == nil {
		return out, nil
	}

	if text := textOf(msg); text != "" {
		out.Kind = KindText
		out.Utterance = text
		log.Debug().Str("user", out.UserKey).Msg("message_classified_text")
		return out, nil
	}

	if audio := msg.AudioMessage; audio != nil && audio.URL != "" {
		transcript, err := n.transcribeAudio(ctx, audio)
		if err != nil {
			return out, err
		}
		out.Kind = KindAudio
		out.Utterance = transcript
		log.Debug().Str("user", out.UserKey).Int("chars", len(transcript)).Msg("message_classified_audio")
		return out, nil
	}

	log.Debug().Str("user", out.UserKey).Msg("message_ignored_unsupported")
	return out, nil
}

func (n *Normalizer) transcribeAudio(ctx context.Context, audio *AudioMessage) (string, error) {
	ciphertext, err := n.downloader.DownloadMedia(ctx, audio.URL)
	if err != nil {
		return "", fmt.Errorf("fetch audio: %w", err)
	}
	plain, err := DecryptMedia(ciphertext, audio.MediaKey, audio.Mimetype)
	if err != nil {
		return "", fmt.Errorf("decrypt audio: %w", err)
	}
	transcript, err := n.transcriber.Transcribe(ctx, plain, audio.Mimetype)
	if err != nil {
		return "", fmt.Errorf("transcribe audio: %w", err)
	}
	return transcript, nil
}

func textOf(msg *MessagePayload) string {
	if msg.Conversation != "" {
		return strings.TrimSpace(msg.Conversation)
	}
	if msg.ExtendedTextMessage != nil {
		return strings.TrimSpace(msg.ExtendedTextMessage.Text)
	}
	return ""
}
