package openai

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cardsnap/cardsnap/internal/secrets"
)

// Config for the OpenAI-compatible client.
type Config struct {
	APIKeyName  string        // secret name resolved through the credential store
	BaseURL     string        // default https://api.openai.com/v1
	Model       string        // e.g., "gpt-4o-mini"
	Temperature float32       // 0..2
	Timeout     time.Duration // connect+receive deadline
	MaxTextLen  int           // pre-call raw-text bound
}

type Client struct {
	cfg     Config
	secrets secrets.Store
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(cfg Config, store secrets.Store, logger *slog.Logger) *Client {
	if cfg.APIKeyName == "" {
		cfg.APIKeyName = "OPENAI_API_KEY"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxTextLen <= 0 {
		cfg.MaxTextLen = 10000
	}
	if store == nil {
		store = secrets.EnvStore{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:     cfg,
		secrets: store,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

func (c *Client) apiKey() (string, bool) {
	return c.secrets.GetSecret(c.cfg.APIKeyName)
}
