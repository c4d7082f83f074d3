package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Member is one group participant as reported by the chat provider.
// ID is the primary identity; AltID carries the provider's secondary
// addressing id when present (group senders may show up under either).
type Member struct {
	ID    string `json:"id"`
	AltID string `json:"lid,omitempty"`
	Admin string `json:"admin,omitempty"`
}

// PGGroups is the time-bounded group-membership snapshot store. Snapshots are
// replaced wholesale on refresh; expired rows read as empty.
type PGGroups struct {
	pool *pgxpool.Pool
}

func NewPGGroups(pool *pgxpool.Pool) *PGGroups {
	return &PGGroups{pool: pool}
}

// GetMembers returns the members of group if a live snapshot exists,
// otherwise an empty slice.
func (s *PGGroups) GetMembers(ctx context.Context, group string) ([]Member, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT members FROM group_members WHERE group_id = $1 AND expires_at > now()`, group,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read group snapshot %s: %w", group, err)
	}

	var members []Member
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, fmt.Errorf("decode group snapshot %s: %w", group, err)
	}
	return members, nil
}

// PutMembers writes a fresh snapshot for group that expires after ttl.
func (s *PGGroups) PutMembers(ctx context.Context, group, name string, members []Member, ttl time.Duration) error {
	raw, err := json.Marshal(members)
	if err != nil {
		return fmt.Errorf("encode group snapshot %s: %w", group, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO group_members (group_id, group_name, members, member_count, captured_at, expires_at)
		 VALUES ($1, $2, $3, $4, now(), now() + make_interval(secs => $5))
		 ON CONFLICT (group_id) DO UPDATE SET
		   group_name = EXCLUDED.group_name,
		   members = EXCLUDED.members,
		   member_count = EXCLUDED.member_count,
		   captured_at = EXCLUDED.captured_at,
		   expires_at = EXCLUDED.expires_at`,
		group, name, raw, len(members), ttl.Seconds(),
	)
	if err != nil {
		return fmt.Errorf("save group snapshot %s: %w", group, err)
	}
	log.Debug().Str("group", group).Int("members", len(members)).Dur("ttl", ttl).Msg("group_snapshot_saved")
	return nil
}

// IsMember reports whether id matches any member of group by exact comparison
// against the primary and secondary ids of a live snapshot.
func (s *PGGroups) IsMember(ctx context.Context, group, id string) (bool, error) {
	members, err := s.GetMembers(ctx, group)
	if err != nil {
		return false, err
	}
	return MembersContain(members, id), nil
}

// MembersContain checks id against each member's primary and secondary ids.
func MembersContain(members []Member, id string) bool {
	if id == "" {
		return false
	}
	for _, m := range members {
		if m.ID == id || (m.AltID != "" && m.AltID == id) {
			return true
		}
	}
	return false
}
