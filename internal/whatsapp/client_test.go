package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Konaiko01/ZetaonAI/internal/config"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(config.EvolutionConfig{
		BaseURL:  srv.URL,
		APIKey:   "evo-key",
		Instance: "default",
	})
	c.sendDelay = func() time.Duration { return 0 }
	return c, srv
}

func TestSendMessageSingle(t *testing.T) {
	var got map[string]any
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/message/sendText/default", r.URL.Path)
		require.Equal(t, "evo-key", r.Header.Get("apikey"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{}`))
	}))

	err := c.SendMessage(context.Background(), "5511999999999@s.whatsapp.net", "Olá!")
	require.NoError(t, err)
	require.Equal(t, "5511999999999@s.whatsapp.net", got["number"])
	require.Equal(t, "Olá!", got["text"])
}

func TestSendMessageChunksOnBlankLines(t *testing.T) {
	var texts []string
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		texts = append(texts, body["text"].(string))
		w.Write([]byte(`{}`))
	}))

	err := c.SendMessage(context.Background(), "5511999999999@s.whatsapp.net", "primeira parte\n\nsegunda parte")
	require.NoError(t, err)
	require.Equal(t, []string{"primeira parte", "segunda parte"}, texts)
}

func TestSendMessageEmpty(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))
	require.Error(t, c.SendMessage(context.Background(), "chat", "   "))
}

func TestSendMessageProviderFailure(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "instance offline", http.StatusServiceUnavailable)
	}))
	require.Error(t, c.SendMessage(context.Background(), "chat@s.whatsapp.net", "oi"))
}

func TestGetGroupParticipants(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/group/participants/default", r.URL.Path)
		require.Equal(t, "120363424101109821@g.us", r.URL.Query().Get("groupJid"))
		w.Write([]byte(`{"participants":[{"id":"5511999999999@s.whatsapp.net","admin":"admin"},{"id":"5511888888888@s.whatsapp.net","lid":"18945184641119@lid"}]}`))
	}))

	members, err := c.GetGroupParticipants(context.Background(), "120363424101109821@g.us")
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.Equal(t, "5511999999999@s.whatsapp.net", members[0].ID)
	require.Equal(t, "18945184641119@lid", members[1].AltID)
}

func TestGetGroupParticipantsFailure(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	_, err := c.GetGroupParticipants(context.Background(), "grupo@g.us")
	require.Error(t, err)
}

func TestSplitReply(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, splitReply("a\n\nb"))
	require.Equal(t, []string{"só uma"}, splitReply("só uma"))
	require.Equal(t, []string{"a"}, splitReply("\n\na\n\n"))
}
