package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/Konaiko01/ZetaonAI/internal/debounce"
	"github.com/Konaiko01/ZetaonAI/internal/whatsapp"
)

// Normalizer classifies one inbound webhook event.
type Normalizer interface {
	Normalize(ctx context.Context, env whatsapp.WebhookEnvelope) (whatsapp.Inbound, error)
}

// Gate decides whether a sender identity may proceed.
type Gate interface {
	Permit(ctx context.Context, senderID string) bool
}

// Enqueuer buffers one accepted fragment.
type Enqueuer interface {
	Enqueue(ctx context.Context, user, fragment string) error
}

// ChatTracker records the user→chat mapping used for replies.
type ChatTracker interface {
	Track(user, chatID string)
}

// Server exposes the webhook endpoint over echo.
type Server struct {
	echo       *echo.Echo
	normalizer Normalizer
	gate       Gate
	enqueuer   Enqueuer
	tracker    ChatTracker
}

func NewServer(normalizer Normalizer, gate Gate, enqueuer Enqueuer, tracker ChatTracker) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:       e,
		normalizer: normalizer,
		gate:       gate,
		enqueuer:   enqueuer,
		tracker:    tracker,
	}
	e.POST("/v1/webhooks/evolution", s.handleWebhook)
	e.GET("/healthz", s.handleHealth)
	return s
}

// Handler returns the underlying http.Handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Start runs the HTTP server until Shutdown.
func (s *Server) Start(addr string) error {
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWebhook(c echo.Context) error {
	var env whatsapp.WebhookEnvelope
	if err := c.Bind(&env); err != nil {
		log.Warn().Err(err).Msg("webhook_malformed_body")
		return c.JSON(http.StatusBadRequest, map[string]string{"status": "error", "detail": "invalid payload"})
	}

	ctx := c.Request().Context()
	inbound, err := s.normalizer.Normalize(ctx, env)
	if err != nil {
		log.Error().Err(err).Msg("webhook_normalize_error")
		return c.JSON(http.StatusInternalServerError, map[string]string{"status": "error", "detail": "failed to process message"})
	}

	if inbound.Kind == whatsapp.KindIgnore || inbound.Utterance == "" {
		return c.JSON(http.StatusOK, map[string]string{"status": "received_ignored"})
	}

	if !s.gate.Permit(ctx, inbound.AuthID) {
		return c.JSON(http.StatusForbidden, map[string]string{"status": "unauthorized"})
	}

	s.tracker.Track(inbound.UserKey, inbound.ChatID)

	if err := s.enqueuer.Enqueue(ctx, inbound.UserKey, inbound.Utterance); err != nil {
		if errors.Is(err, debounce.ErrShuttingDown) {
			return c.JSON(http.StatusOK, map[string]string{"status": "received_ignored", "detail": "shutting down"})
		}
		log.Error().Err(err).Str("user", inbound.UserKey).Msg("webhook_enqueue_error")
		return c.JSON(http.StatusInternalServerError, map[string]string{"status": "error", "detail": "failed to queue message"})
	}

	log.Info().Str("user", inbound.UserKey).Msg("webhook_fragment_queued")
	return c.JSON(http.StatusOK, map[string]string{"status": "received_queued"})
}
