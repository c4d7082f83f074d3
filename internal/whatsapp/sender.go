package whatsapp

import (
	"context"
	"fmt"
	"sync"
)

// Sender maps UserKeys back to provider chat identities and delivers one
// reply message. The webhook controller records the mapping on every
// accepted inbound, so by the time a turn produces a reply the chat id for
// its user is always known.
type Sender struct {
	client *Client

	mu    sync.RWMutex
	chats map[string]string
}

func NewSender(client *Client) *Sender {
	return &Sender{client: client, chats: make(map[string]string)}
}

// Track records the chat identity replies for user should go to.
func (s *Sender) Track(user, chatID string) {
	if user == "" || chatID == "" {
		return
	}
	s.mu.Lock()
	s.chats[user] = chatID
	s.mu.Unlock()
}

// Send delivers text to the user's chat.
func (s *Sender) Send(ctx context.Context, user, text string) error {
	s.mu.RLock()
	chatID := s.chats[user]
	s.mu.RUnlock()
	if chatID == "" {
		return fmt.Errorf("no chat identity known for user %s", user)
	}
	return s.client.SendMessage(ctx, chatID, text)
}
