package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Konaiko01/ZetaonAI/internal/store"
)

// LeadFinder searches the internal B2B prospect base.
type LeadFinder interface {
	FindLeads(ctx context.Context, sector, role, region string, limit int) ([]store.Lead, error)
}

// ProspectLeadsTool exposes lead prospecting to the marketing agent.
func ProspectLeadsTool(finder LeadFinder) Tool {
	return &prospectLeadsTool{finder: finder}
}

type prospectLeadsTool struct {
	finder LeadFinder
}

func (t *prospectLeadsTool) Name() string { return "prospect_leads_b2b" }

func (t *prospectLeadsTool) JSONSchema() map[string]any {
	return map[string]any{
		"description": "Busca leads B2B em uma base de dados interna com base em critérios.",
		"parameters": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"sector": map[string]any{"type": "string", "description": "Setor da empresa (ex: 'tecnologia', 'saude')."},
				"role":   map[string]any{"type": "string", "description": "Cargo do decisor (ex: 'CTO', 'CEO')."},
				"region": map[string]any{"type": "string", "description": "Região (ex: 'São Paulo')."},
			},
			"required": []string{"sector"},
		},
	}
}

func (t *prospectLeadsTool) Call(ctx context.Context, raw json.RawMessage) (any, error) {
	var args struct {
		Sector string `json:"sector"`
		Role   string `json:"role"`
		Region string `json:"region"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("parse prospect_leads_b2b arguments: %w", err)
	}
	if args.Sector == "" {
		return nil, fmt.Errorf("prospect_leads_b2b: sector is required")
	}
	leads, err := t.finder.FindLeads(ctx, args.Sector, args.Role, args.Region, 10)
	if err != nil {
		return nil, err
	}
	return map[string]any{"count": len(leads), "leads": leads}, nil
}
