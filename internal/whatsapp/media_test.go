package whatsapp

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeDownloader struct {
	payload []byte
	err     error
}

func (f *fakeDownloader) DownloadMedia(ctx context.Context, mediaURL string) ([]byte, error) {
	return f.payload, f.err
}

type fakeTranscriber struct {
	text string
	err  error
	got  []byte
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	f.got = audio
	return f.text, f.err
}

func textEnvelope(text string) WebhookEnvelope {
	return WebhookEnvelope{Data: WebhookData{
		Key:     MessageKey{RemoteJid: "5511999999999@s.whatsapp.net"},
		Message: &MessagePayload{Conversation: text},
	}}
}

func TestNormalizePlainText(t *testing.T) {
	n := NewNormalizer(&fakeDownloader{}, &fakeTranscriber{}, "")

	out, err := n.Normalize(context.Background(), textEnvelope("Me fale sobre o futuro da IA"))
	require.NoError(t, err)
	require.Equal(t, KindText, out.Kind)
	require.Equal(t, "Me fale sobre o futuro da IA", out.Utterance)
	require.Equal(t, "5511999999999", out.UserKey)
	require.Equal(t, "5511999999999@s.whatsapp.net", out.ChatID)
	require.Equal(t, "5511999999999@s.whatsapp.net", out.AuthID)
}

func TestNormalizeExtendedText(t *testing.T) {
	env := WebhookEnvelope{Data: WebhookData{
		Key:     MessageKey{RemoteJid: "5511999999999@s.whatsapp.net"},
		Message: &MessagePayload{ExtendedTextMessage: &ExtendedText{Text: "  oi  "}},
	}}
	n := NewNormalizer(&fakeDownloader{}, &fakeTranscriber{}, "")

	out, err := n.Normalize(context.Background(), env)
	require.NoError(t, err)
	require.Equal(t, KindText, out.Kind)
	require.Equal(t, "oi", out.Utterance)
}

func TestNormalizeIgnoresOwnEcho(t *testing.T) {
	env := textEnvelope("eco")
	env.Data.Key.FromMe = true
	n := NewNormalizer(&fakeDownloader{}, &fakeTranscriber{}, "")

	out, err := n.Normalize(context.Background(), env)
	require.NoError(t, err)
	require.Equal(t, KindIgnore, out.Kind)
}

func TestNormalizeIgnoresUnsupported(t *testing.T) {
	env := WebhookEnvelope{Data: WebhookData{
		Key:     MessageKey{RemoteJid: "5511999999999@s.whatsapp.net"},
		Message: &MessagePayload{},
	}}
	n := NewNormalizer(&fakeDownloader{}, &fakeTranscriber{}, "")

	out, err := n.Normalize(context.Background(), env)
	require.NoError(t, err)
	require.Equal(t, KindIgnore, out.Kind)
}

func TestNormalizeGroupIdentities(t *testing.T) {
	env := WebhookEnvelope{Data: WebhookData{
		Key: MessageKey{
			RemoteJid:   "120363424101109821@g.us",
			Participant: "18945184641119@lid",
		},
		Message: &MessagePayload{Conversation: "oi grupo"},
	}}
	n := NewNormalizer(&fakeDownloader{}, &fakeTranscriber{}, "")

	out, err := n.Normalize(context.Background(), env)
	require.NoError(t, err)
	require.Equal(t, "120363424101109821@g.us", out.ChatID)
	require.Equal(t, "18945184641119@lid", out.AuthID)
	require.Equal(t, "120363424101109821", out.UserKey)
}

func TestNormalizeAudioDecryptsAndTranscribes(t *testing.T) {
	mediaKey := make([]byte, 32)
	_, err := rand.Read(mediaKey)
	require.NoError(t, err)

	plain := []byte("opus payload")
	payload := encryptMedia(t, plain, mediaKey, "audio/ogg")

	dl := &fakeDownloader{payload: payload}
	tr := &fakeTranscriber{text: "liste meus eventos de amanhã"}
	n := NewNormalizer(dl, tr, "")

	env := WebhookEnvelope{Data: WebhookData{
		Key: MessageKey{RemoteJid: "5511999999999@s.whatsapp.net"},
		Message: &MessagePayload{AudioMessage: &AudioMessage{
			URL:      "https://cdn.example/enc",
			MediaKey: base64.StdEncoding.EncodeToString(mediaKey),
			Mimetype: "audio/ogg",
		}},
	}}

	out, err := n.Normalize(context.Background(), env)
	require.NoError(t, err)
	require.Equal(t, KindAudio, out.Kind)
	require.Equal(t, "liste meus eventos de amanhã", out.Utterance)
	require.Equal(t, plain, tr.got)
}
