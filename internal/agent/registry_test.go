package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Konaiko01/ZetaonAI/internal/calendar"
	"github.com/Konaiko01/ZetaonAI/internal/store"
)

func TestNewRegistryRequiresFallback(t *testing.T) {
	_, err := NewRegistry(Descriptor{ID: "agent_conteudo"})
	require.Error(t, err)
	require.Contains(t, err.Error(), FallbackID)
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(
		Descriptor{ID: FallbackID},
		Descriptor{ID: FallbackID},
	)
	require.Error(t, err)
}

func TestRegistryLookup(t *testing.T) {
	r, err := NewRegistry(
		Descriptor{ID: FallbackID},
		Descriptor{ID: "agent_conteudo"},
	)
	require.NoError(t, err)

	d, ok := r.Get("agent_conteudo")
	require.True(t, ok)
	require.Equal(t, "agent_conteudo", d.ID)

	_, ok = r.Get("agent_inexistente")
	require.False(t, ok)

	require.Equal(t, FallbackID, r.Fallback().ID)
	require.Equal(t, []string{"agent_conteudo", FallbackID}, r.IDs())
}

type nopCalendar struct{}

func (nopCalendar) ListEvents(ctx context.Context, startISO, endISO string) ([]calendar.Event, error) {
	return nil, nil
}
func (nopCalendar) CreateEvent(ctx context.Context, summary, startISO, endISO string) (*calendar.Event, error) {
	return nil, nil
}
func (nopCalendar) PatchEvent(ctx context.Context, id string, patch calendar.Patch) (*calendar.Event, error) {
	return nil, nil
}
func (nopCalendar) DeleteEvent(ctx context.Context, id string) error { return nil }

type nopSearcher struct{}

func (nopSearcher) Search(ctx context.Context, query string) (string, error) { return "", nil }

type nopLeads struct{}

func (nopLeads) FindLeads(ctx context.Context, sector, role, region string, limit int) ([]store.Lead, error) {
	return nil, nil
}

func TestSpecialistsComposition(t *testing.T) {
	descs := Specialists(nopCalendar{}, nopSearcher{}, nopLeads{})
	r, err := NewRegistry(descs...)
	require.NoError(t, err)

	sched, ok := r.Get("agent_agendamento")
	require.True(t, ok)
	require.Len(t, sched.Tools.Schemas(), 4)

	content, ok := r.Get("agent_conteudo")
	require.True(t, ok)
	require.Len(t, content.Tools.Schemas(), 1)

	marketing, ok := r.Get("agent_marketing")
	require.True(t, ok)
	require.Len(t, marketing.Tools.Schemas(), 2)

	mentor := r.Fallback()
	require.Nil(t, mentor.Tools)
	require.Contains(t, mentor.Instructions, "Mentor")
}
