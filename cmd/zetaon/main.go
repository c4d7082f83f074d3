package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Konaiko01/ZetaonAI/internal/agent"
	"github.com/Konaiko01/ZetaonAI/internal/auth"
	"github.com/Konaiko01/ZetaonAI/internal/calendar"
	"github.com/Konaiko01/ZetaonAI/internal/config"
	"github.com/Konaiko01/ZetaonAI/internal/debounce"
	"github.com/Konaiko01/ZetaonAI/internal/httpapi"
	"github.com/Konaiko01/ZetaonAI/internal/logging"
	llmopenai "github.com/Konaiko01/ZetaonAI/internal/llm/openai"
	"github.com/Konaiko01/ZetaonAI/internal/orchestrator"
	"github.com/Konaiko01/ZetaonAI/internal/search"
	"github.com/Konaiko01/ZetaonAI/internal/store"
	"github.com/Konaiko01/ZetaonAI/internal/tools"
	"github.com/Konaiko01/ZetaonAI/internal/whatsapp"
)

const shutdownGrace = 15 * time.Second

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config_load_failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("gateway_exit_error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	// Leaves first: backing stores and provider clients.
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return err
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return err
	}
	log.Info().Msg("redis_connected")

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	if err := store.EnsureSchema(ctx, pool); err != nil {
		return err
	}
	log.Info().Msg("postgres_connected")

	fragments := store.NewRedisFragments(redisClient)
	contexts := store.NewPGContexts(pool)
	groups := store.NewPGGroups(pool)
	leads := store.NewPGLeads(pool)

	evo := whatsapp.NewClient(cfg.Evolution)
	sender := whatsapp.NewSender(evo)
	llmClient := llmopenai.New(cfg.OpenAI)
	searcher := search.NewClient(cfg.SerperKey)

	var calSvc tools.CalendarService
	if cfg.Calendar.CredentialsFile != "" {
		gc, err := calendar.New(ctx, cfg.Calendar.CredentialsFile, cfg.Calendar.CalendarID)
		if err != nil {
			return err
		}
		calSvc = gc
	} else {
		log.Warn().Msg("calendar_credentials_missing_running_without_agenda")
		calSvc = calendar.Unavailable{}
	}

	// Compose inward: agents, orchestrator, debouncer, webhook server.
	registry, err := agent.NewRegistry(agent.Specialists(calSvc, searcher, leads)...)
	if err != nil {
		return err
	}

	engine := &agent.Engine{
		LLM:           llmClient,
		DefaultModel:  cfg.OpenAI.Model,
		MaxIterations: cfg.MaxToolIterations,
		TurnDeadline:  cfg.TurnDeadline,
	}
	orch := orchestrator.New(llmClient, registry, engine, contexts, sender, cfg.HistoryLimit, cfg.OpenAI.Model)
	debouncer := debounce.New(fragments, orch.HandleTurn, cfg.QuietPeriod, cfg.MaxConcurrentTurns)

	gate := auth.NewGate(groups, evo, cfg.AuthorizedGroupIDs, cfg.GroupCacheTTL)
	normalizer := whatsapp.NewNormalizer(evo, llmClient, cfg.Evolution.OwnJID)
	server := httpapi.NewServer(normalizer, gate, debouncer, sender)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("gateway_listening")
		return server.Start(cfg.HTTPAddr)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("gateway_shutting_down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		debouncer.Shutdown(shutdownCtx)
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
