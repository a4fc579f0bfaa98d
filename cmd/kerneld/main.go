// Command kerneld is the agent orchestration kernel's daemon: it loads
// configuration, wires an LLM provider and the Agent Runtime onto an HTTP
// server, and serves the `/agents...` surface until it receives a
// termination signal.
//
// Usage:
//
//	kerneld serve --env .env
//	kerneld version
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	kernel "github.com/sandboxkernel/kernel"
	"github.com/sandboxkernel/kernel/internal/agentkernel"
	"github.com/sandboxkernel/kernel/internal/config"
	"github.com/sandboxkernel/kernel/internal/httpserver"
	"github.com/sandboxkernel/kernel/internal/llm"
	"github.com/sandboxkernel/kernel/internal/logging"
	"github.com/sandboxkernel/kernel/internal/observability"
)

// CLI defines the kerneld command-line interface.
type CLI struct {
	Serve   ServeCmd   `cmd:"" help:"Start the agent orchestration kernel's HTTP server."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// VersionCmd prints the build's version metadata.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(kernel.GetVersion().String())
	return nil
}

// ServeCmd starts the HTTP server.
type ServeCmd struct {
	EnvFile string `name:"env" help:"Path to a .env file with credentials." default:".env"`
}

func (c *ServeCmd) Run() error {
	cfg, err := config.Load(c.EnvFile)
	if err != nil {
		return fmt.Errorf("kerneld: load config: %w", err)
	}

	logging.Init(logging.ParseLevel(cfg.LogLevel), os.Stderr)
	slog.Info("starting kerneld", "host", cfg.Host, "port", cfg.Port, "llm_provider", cfg.LLMProvider)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := observability.InitGlobalTracer(ctx, observability.TracerConfig{
		Enabled:      cfg.TracingEnabled,
		EndpointURL:  cfg.TracingEndpoint,
		SamplingRate: 1.0,
		ServiceName:  "kerneld",
	})
	if err != nil {
		return fmt.Errorf("kerneld: init tracer: %w", err)
	}
	if shutdowner, ok := tp.(interface{ Shutdown(context.Context) error }); ok {
		defer shutdowner.Shutdown(context.Background())
	}

	metrics, err := observability.NewMetrics(observability.MetricsConfig{Enabled: cfg.MetricsEnabled})
	if err != nil {
		return fmt.Errorf("kerneld: init metrics: %w", err)
	}

	provider, err := buildProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("kerneld: build llm provider: %w", err)
	}
	defer provider.Close()

	runtime := agentkernel.New()
	srv := httpserver.New(cfg, runtime, provider, metrics)

	watchCredentials(ctx, cfg, c.EnvFile)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("kerneld: serve: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("kerneld: shutdown: %w", err)
		}
	}
	return nil
}

// buildProvider constructs the single configured LLM provider. The
// kernel supports three pluggable backends; which one is active is a
// deployment choice, not a per-request one — agents share the provider
// the daemon was started with.
func buildProvider(ctx context.Context, cfg *config.Config) (llm.Provider, error) {
	switch cfg.LLMProvider {
	case "anthropic":
		return llm.NewAnthropicProvider(llm.AnthropicConfig{
			APIKey:      cfg.AnthropicAPIKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		})
	case "openai":
		return llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		})
	case "gemini":
		return llm.NewGeminiProvider(ctx, llm.GeminiConfig{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q (want anthropic, openai, or gemini)", cfg.LLMProvider)
	}
}

// watchCredentials reloads ANTHROPIC_API_KEY/OPENAI_API_KEY/
// GEMINI_API_KEY/search credentials from envFile into cfg without a
// restart. New search credentials apply to agents created afterwards; the
// LLM provider keeps the API key it was built with, and the provider
// choice and sandbox/browser URLs stay fixed for the process lifetime.
func watchCredentials(ctx context.Context, cfg *config.Config, envFile string) {
	changes, err := config.WatchCredentials(ctx, envFile)
	if err != nil {
		slog.Warn("credential hot-reload disabled", "error", err)
		return
	}
	go func() {
		for range changes {
			reloaded, err := config.Load(envFile)
			if err != nil {
				slog.Error("failed to reload credentials", "error", err)
				continue
			}
			cfg.AnthropicAPIKey = reloaded.AnthropicAPIKey
			cfg.OpenAIAPIKey = reloaded.OpenAIAPIKey
			cfg.GeminiAPIKey = reloaded.GeminiAPIKey
			cfg.GoogleSearchAPIKey = reloaded.GoogleSearchAPIKey
			cfg.GoogleSearchEngineID = reloaded.GoogleSearchEngineID
			slog.Info("reloaded credentials from env file")
		}
	}()
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("kerneld"),
		kong.Description("Agent orchestration kernel daemon."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(); err != nil {
		slog.Error("kerneld failed", "error", err)
		os.Exit(1)
	}
}
