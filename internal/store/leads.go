package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Lead is one row of the internal B2B prospect base.
type Lead struct {
	Company string `json:"company"`
	Contact string `json:"contact"`
	Role    string `json:"role"`
	Sector  string `json:"sector"`
	Region  string `json:"region"`
	Email   string `json:"email,omitempty"`
}

// PGLeads queries the internal prospect base for the marketing agent.
type PGLeads struct {
	pool *pgxpool.Pool
}

func NewPGLeads(pool *pgxpool.Pool) *PGLeads {
	return &PGLeads{pool: pool}
}

// FindLeads filters by sector (required) and optionally role and region,
// matching case-insensitively.
func (s *PGLeads) FindLeads(ctx context.Context, sector, role, region string, limit int) ([]Lead, error) {
	if limit <= 0 {
		limit = 10
	}

	query := strings.Builder{}
	query.WriteString(`SELECT company, contact, role, sector, region, COALESCE(email, '')
		FROM leads WHERE sector ILIKE $1`)
	args := []any{sector}
	if role != "" {
		args = append(args, role)
		fmt.Fprintf(&query, " AND role ILIKE $%d", len(args))
	}
	if region != "" {
		args = append(args, "%"+region+"%")
		fmt.Fprintf(&query, " AND region ILIKE $%d", len(args))
	}
	args = append(args, limit)
	fmt.Fprintf(&query, " ORDER BY company LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		var l Lead
		if err := rows.Scan(&l.Company, &l.Contact, &l.Role, &l.Sector, &l.Region, &l.Email); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return leads, nil
}
