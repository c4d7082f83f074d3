package calendar

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by Unavailable for every operation.
var ErrNotConfigured = errors.New("calendar integration not configured")

// Unavailable stands in when no Google credentials are configured. Tool
// failures surface as result payloads, so the scheduling agent can tell the
// user the agenda is offline instead of the process refusing to start.
type Unavailable struct{}

func (Unavailable) ListEvents(ctx context.Context, startISO, endISO string) ([]Event, error) {
	return nil, ErrNotConfigured
}

func (Unavailable) CreateEvent(ctx context.Context, summary, startISO, endISO string) (*Event, error) {
	return nil, ErrNotConfigured
}

func (Unavailable) PatchEvent(ctx context.Context, id string, patch Patch) (*Event, error) {
	return nil, ErrNotConfigured
}

func (Unavailable) DeleteEvent(ctx context.Context, id string) error {
	return ErrNotConfigured
}
