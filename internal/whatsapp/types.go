package whatsapp

import "strings"

// WebhookEnvelope is the JSON body the Evolution API posts for each inbound
// message event.
type WebhookEnvelope struct {
	Data WebhookData `json:"data"`
}

type WebhookData struct {
	Key     MessageKey      `json:"key"`
	Message *MessagePayload `json:"message,omitempty"`
	Status  string          `json:"status,omitempty"`
}

// MessageKey identifies the conversation and the sender. In group chats
// RemoteJid is the group id and Participant the actual sender; in direct
// chats RemoteJid is the sender itself.
type MessageKey struct {
	RemoteJid     string `json:"remoteJid"`
	RemoteJidAlt  string `json:"remoteJidAlt,omitempty"`
	Participant   string `json:"participant,omitempty"`
	ParticipantPn string `json:"participantPn,omitempty"`
	FromMe        bool   `json:"fromMe"`
}

type MessagePayload struct {
	Conversation        string        `json:"conversation,omitempty"`
	ExtendedTextMessage *ExtendedText `json:"extendedTextMessage,omitempty"`
	AudioMessage        *AudioMessage `json:"audioMessage,omitempty"`
}

type ExtendedText struct {
	Text string `json:"text"`
}

type AudioMessage struct {
	URL      string `json:"url"`
	MediaKey string `json:"mediaKey"`
	Mimetype string `json:"mimetype"`
}

// IsGroup reports whether the conversation is a group chat.
func (k MessageKey) IsGroup() bool {
	return strings.HasSuffix(k.RemoteJid, "@g.us")
}

// ChatID is the identity replies are addressed to: the group in group chats,
// the sender in direct chats.
func (k MessageKey) ChatID() string {
	return k.RemoteJid
}

// AuthID is the identity the authorization gate evaluates. Group replies go
// to the group, but permission is decided per participant.
func (k MessageKey) AuthID() string {
	if k.IsGroup() {
		if k.Participant != "" {
			return k.Participant
		}
		return k.ParticipantPn
	}
	if k.RemoteJid != "" {
		return k.RemoteJid
	}
	return k.RemoteJidAlt
}

// UserKey is the canonical per-conversation partitioning key: the number
// part of the chat id.
func (k MessageKey) UserKey() string {
	jid := k.ChatID()
	if i := strings.IndexByte(jid, '@'); i >= 0 {
		return jid[:i]
	}
	return jid
}
