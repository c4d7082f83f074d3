package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Konaiko01/ZetaonAI/internal/calendar"
)

// CalendarService is the calendar surface the scheduling tools dispatch to.
type CalendarService interface {
	ListEvents(ctx context.Context, startISO, endISO string) ([]calendar.Event, error)
	CreateEvent(ctx context.Context, summary, startISO, endISO string) (*calendar.Event, error)
	PatchEvent(ctx context.Context, id string, patch calendar.Patch) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// CalendarTools builds the four scheduling tools over one calendar service.
func CalendarTools(svc CalendarService) []Tool {
	return []Tool{
		&listEventsTool{svc: svc},
		&createEventTool{svc: svc},
		&updateEventTool{svc: svc},
		&deleteEventTool{svc: svc},
	}
}

type listEventsTool struct{ svc CalendarService }

func (t *listEventsTool) Name() string { return "get_calendar_events" }

func (t *listEventsTool) JSONSchema() map[string]any {
	return map[string]any{
		"description": "Busca eventos na agenda dentro de um período.",
		"parameters": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"start_date": map[string]any{
					"type":        "string",
					"description": "Data e hora de início no formato ISO (YYYY-MM-DDTHH:MM:SS-03:00)",
				},
				"end_date": map[string]any{
					"type":        "string",
					"description": "Data e hora de fim no formato ISO (YYYY-MM-DDTHH:MM:SS-03:00)",
				},
			},
			"required": []string{"start_date", "end_date"},
		},
	}
}

func (t *listEventsTool) Call(ctx context.Context, raw json.RawMessage) (any, error) {
	var args struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("parse get_calendar_events arguments: %w", err)
	}
	events, err := t.svc.ListEvents(ctx, args.StartDate, args.EndDate)
	if err != nil {
		return nil, err
	}
	return map[string]any{"count": len(events), "events": events}, nil
}

type createEventTool struct{ svc CalendarService }

func (t *createEventTool) Name() string { return "create_calendar_event" }

func (t *createEventTool) JSONSchema() map[string]any {
	return map[string]any{
		"description": "Cria um novo evento na agenda.",
		"parameters": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"summary": map[string]any{"type": "string", "description": "O título do evento."},
				"start_time": map[string]any{
					"type":        "string",
					"description": "Data e hora de início no formato ISO (YYYY-MM-DDTHH:MM:SS-03:00)",
				},
				"end_time": map[string]any{
					"type":        "string",
					"description": "Data e hora de fim no formato ISO (YYYY-MM-DDTHH:MM:SS-03:00)",
				},
			},
			"required": []string{"summary", "start_time", "end_time"},
		},
	}
}

func (t *createEventTool) Call(ctx context.Context, raw json.RawMessage) (any, error) {
	var args struct {
		Summary   string `json:"summary"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("parse create_calendar_event arguments: %w", err)
	}
	created, err := t.svc.CreateEvent(ctx, args.Summary, args.StartTime, args.EndTime)
	if err != nil {
		return nil, err
	}
	return map[string]any{"created": true, "event": created}, nil
}

type updateEventTool struct{ svc CalendarService }

func (t *updateEventTool) Name() string { return "update_calendar_event" }

func (t *updateEventTool) JSONSchema() map[string]any {
	return map[string]any{
		"description": "Atualiza um evento existente na agenda. Informe apenas os campos a alterar.",
		"parameters": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"event_id":   map[string]any{"type": "string", "description": "ID interno do evento."},
				"summary":    map[string]any{"type": "string", "description": "Novo título."},
				"start_time": map[string]any{"type": "string", "description": "Novo início no formato ISO."},
				"end_time":   map[string]any{"type": "string", "description": "Novo fim no formato ISO."},
			},
			"required": []string{"event_id"},
		},
	}
}

func (t *updateEventTool) Call(ctx context.Context, raw json.RawMessage) (any, error) {
	var args struct {
		EventID   string `json:"event_id"`
		Summary   string `json:"summary"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("parse update_calendar_event arguments: %w", err)
	}
	if args.EventID == "" {
		return nil, fmt.Errorf("update_calendar_event: event_id is required")
	}
	updated, err := t.svc.PatchEvent(ctx, args.EventID, calendar.Patch{
		Summary: args.Summary,
		Start:   args.StartTime,
		End:     args.EndTime,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"updated": true, "event": updated}, nil
}

type deleteEventTool struct{ svc CalendarService }

func (t *deleteEventTool) Name() string { return "delete_calendar_event" }

func (t *deleteEventTool) JSONSchema() map[string]any {
	return map[string]any{
		"description": "Remove um evento da agenda pelo ID.",
		"parameters": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"event_id": map[string]any{"type": "string", "description": "ID interno do evento."},
			},
			"required": []string{"event_id"},
		},
	}
}

func (t *deleteEventTool) Call(ctx context.Context, raw json.RawMessage) (any, error) {
	var args struct {
		EventID string `json:"event_id"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("parse delete_calendar_event arguments: %w", err)
	}
	if args.EventID == "" {
		return nil, fmt.Errorf("delete_calendar_event: event_id is required")
	}
	if err := t.svc.DeleteEvent(ctx, args.EventID); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": true}, nil
}
