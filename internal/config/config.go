package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// OpenAIConfig carries credentials for the LLM provider.
type OpenAIConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	TranscribeModel string
}

// EvolutionConfig carries the chat-provider (Evolution API) connection data.
type EvolutionConfig struct {
	BaseURL  string
	APIKey   string
	Instance string
	// OwnJID is this agent's own WhatsApp account id, used to drop
	// outbound echoes delivered back through the webhook.
	OwnJID string
}

// CalendarConfig points at the Google Calendar service-account credentials.
type CalendarConfig struct {
	CredentialsFile string
	CalendarID      string
}

type Config struct {
	HTTPAddr    string
	RedisURL    string
	PostgresURL string

	OpenAI    OpenAIConfig
	Evolution EvolutionConfig
	Calendar  CalendarConfig
	SerperKey string

	QuietPeriod        time.Duration
	HistoryLimit       int
	GroupCacheTTL      time.Duration
	AuthorizedGroupIDs []string
	MaxConcurrentTurns int64
	TurnDeadline       time.Duration
	MaxToolIterations  int
}

// Load reads configuration from environment variables, loading .env first if
// present. Missing required credentials are reported together so a broken
// deployment fails fast with one actionable error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:    firstNonEmpty(strings.TrimSpace(os.Getenv("HTTP_ADDR")), ":8000"),
		RedisURL:    strings.TrimSpace(os.Getenv("REDIS_URL")),
		PostgresURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		OpenAI: OpenAIConfig{
			APIKey:          strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			BaseURL:         strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
			Model:           firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_MODEL")), "gpt-4.1-mini"),
			TranscribeModel: firstNonEmpty(strings.TrimSpace(os.Getenv("TRANSCRIBE_MODEL")), "whisper-1"),
		},
		Evolution: EvolutionConfig{
			BaseURL:  strings.TrimSpace(os.Getenv("EVOLUTION_BASE_URL")),
			APIKey:   strings.TrimSpace(os.Getenv("EVOLUTION_API_KEY")),
			Instance: firstNonEmpty(strings.TrimSpace(os.Getenv("EVOLUTION_INSTANCE")), "default"),
			OwnJID:   strings.TrimSpace(os.Getenv("EVOLUTION_OWN_JID")),
		},
		Calendar: CalendarConfig{
			CredentialsFile: strings.TrimSpace(os.Getenv("GOOGLE_CREDENTIALS_FILE")),
			CalendarID:      firstNonEmpty(strings.TrimSpace(os.Getenv("GOOGLE_CALENDAR_ID")), "primary"),
		},
		SerperKey: strings.TrimSpace(os.Getenv("SERPER_API_KEY")),

		QuietPeriod:        time.Duration(intFromEnv("QUIET_PERIOD_SECONDS", 8)) * time.Second,
		HistoryLimit:       intFromEnv("HISTORY_LIMIT", 10),
		GroupCacheTTL:      time.Duration(intFromEnv("GROUP_CACHE_TTL_MINUTES", 60)) * time.Minute,
		AuthorizedGroupIDs: splitCSV(os.Getenv("AUTHORIZED_GROUP_IDS")),
		MaxConcurrentTurns: int64(intFromEnv("MAX_CONCURRENT_TURNS", 5)),
		TurnDeadline:       time.Duration(intFromEnv("TURN_DEADLINE_SECONDS", 60)) * time.Second,
		MaxToolIterations:  intFromEnv("MAX_TOOL_ITERATIONS", 6),
	}

	var errs []error
	if cfg.OpenAI.APIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}
	if cfg.RedisURL == "" {
		errs = append(errs, errors.New("REDIS_URL is required"))
	}
	if cfg.PostgresURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if cfg.Evolution.BaseURL == "" || cfg.Evolution.APIKey == "" {
		errs = append(errs, errors.New("EVOLUTION_BASE_URL and EVOLUTION_API_KEY are required"))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if cfg.QuietPeriod <= 0 {
		return nil, fmt.Errorf("QUIET_PERIOD_SECONDS must be positive")
	}
	if cfg.MaxToolIterations <= 0 {
		cfg.MaxToolIterations = 6
	}
	if cfg.MaxConcurrentTurns <= 0 {
		cfg.MaxConcurrentTurns = 5
	}
	return cfg, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
