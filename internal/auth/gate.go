package auth

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Konaiko01/ZetaonAI/internal/store"
)

// GroupCache is the snapshot store the gate reads through.
type GroupCache interface {
	GetMembers(ctx context.Context, group string) ([]store.Member, error)
	PutMembers(ctx context.Context, group, name string, members []store.Member, ttl time.Duration) error
}

// ParticipantLister fetches live membership from the chat provider on a
// cache miss.
type ParticipantLister interface {
	GetGroupParticipants(ctx context.Context, groupID string) ([]store.Member, error)
}

// Gate decides whether a sender identity may use the assistant: permitted iff
// the identity belongs to at least one authorized group.
type Gate struct {
	cache  GroupCache
	chat   ParticipantLister
	groups []string
	ttl    time.Duration
}

func NewGate(cache GroupCache, chat ParticipantLister, authorizedGroups []string, ttl time.Duration) *Gate {
	return &Gate{cache: cache, chat: chat, groups: authorizedGroups, ttl: ttl}
}

// Permit checks the sender against each authorized group in order,
// refreshing expired snapshots from the provider. A group that cannot be
// listed contributes no members; it never fails the whole decision.
func (g *Gate) Permit(ctx context.Context, senderID string) bool {
	if senderID == "" {
		return false
	}
	for _, group := range g.groups {
		members, err := g.cache.GetMembers(ctx, group)
		if err != nil {
			log.Error().Err(err).Str("group", group).Msg("group_cache_read_error")
		}
		if len(members) == 0 {
			members = g.refresh(ctx, group)
		}
		if store.MembersContain(members, senderID) {
			log.Info().Str("sender", senderID).Str("group", group).Msg("sender_authorized")
			return true
		}
	}
	log.Warn().Str("sender", senderID).Int("groups", len(g.groups)).Msg("sender_denied")
	return false
}

func (g *Gate) refresh(ctx context.Context, group string) []store.Member {
	members, err := g.chat.GetGroupParticipants(ctx, group)
	if err != nil {
		log.Warn().Err(err).Str("group", group).Msg("group_participants_fetch_error")
		return nil
	}
	if len(members) == 0 {
		return nil
	}
	if err := g.cache.PutMembers(ctx, group, "Grupo "+group, members, g.ttl); err != nil {
		// A failed write only costs a refetch next time.
		log.Warn().Err(err).Str("group", group).Msg("group_cache_write_error")
	}
	return members
}
