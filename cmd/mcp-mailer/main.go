// Package main is the entry point for the mailer MCP server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/shineum/mcp-mailer-lite/internal/batch"
	"github.com/shineum/mcp-mailer-lite/internal/compose"
	"github.com/shineum/mcp-mailer-lite/internal/config"
	"github.com/shineum/mcp-mailer-lite/internal/enhance"
	"github.com/shineum/mcp-mailer-lite/internal/provider"
	"github.com/shineum/mcp-mailer-lite/internal/provider/ses"
	"github.com/shineum/mcp-mailer-lite/internal/provider/smtp"
	"github.com/shineum/mcp-mailer-lite/internal/provider/stdout"
	"github.com/shineum/mcp-mailer-lite/internal/staging"
	"github.com/shineum/mcp-mailer-lite/internal/tools"
)

const (
	serverName    = "mcp-mailer-lite"
	serverVersion = "1.0.0"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	flag.Parse()

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	setupLogger(cfg.Logging.Level)

	// Select email delivery provider
	prov := selectProvider(cfg)

	// Select the enhancement backend (model-backed or fallback only)
	enhancer := selectEnhancer(cfg)

	store := staging.New(cfg.Staging.Dir)

	orch := batch.New(batch.Config{
		Sender: compose.Identity{
			Address: cfg.SenderAddress(),
			Name:    cfg.SMTP.SenderName,
		},
		CredentialsConfigured: credentialsConfigured(cfg, prov),
		StagingRoot:           cfg.Staging.Dir,
	}, enhancer, prov)

	mcpServer := server.NewMCPServer(serverName, serverVersion,
		server.WithToolCapabilities(true),
	)
	tools.NewHandlers(orch, store).Register(mcpServer)

	slog.Info("starting mcp-mailer-lite",
		"provider", prov.Name(),
		"sender", cfg.SenderAddress(),
		"staging_dir", cfg.Staging.Dir,
		"gemini_enabled", cfg.GeminiConfigured(),
	)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		slog.Info("received signal, initiating shutdown", "signal", sig)
		cancel()
	}()

	// Serve the MCP protocol over stdio (blocks until context is cancelled)
	stdioServer := server.NewStdioServer(mcpServer)
	if err := stdioServer.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("mcp-mailer-lite stopped")
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level. Logs go to stderr; stdout carries the MCP protocol.
func setupLogger(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// selectProvider chooses the email delivery backend based on configuration.
// If the PROVIDER env var is set, it takes precedence.
// Otherwise, it falls back to auto-detection (SMTP if configured, then SES,
// else stdout).
func selectProvider(cfg *config.Config) provider.Provider {
	switch cfg.Provider {
	case "smtp":
		if !cfg.SMTPConfigured() {
			slog.Error("SMTP provider selected but SMTP_EMAIL and SMTP_PASSWORD are required")
			os.Exit(1)
		}
		slog.Info("using SMTP provider",
			"host", cfg.SMTP.Host,
			"port", cfg.SMTP.Port,
			"sender", cfg.SMTP.Email,
		)
		return newSMTPProvider(cfg)

	case "ses":
		if !cfg.SESConfigured() {
			slog.Error("SES provider selected but SES_REGION and SES_SENDER are required")
			os.Exit(1)
		}
		slog.Info("using AWS SES provider",
			"region", cfg.SES.Region,
			"sender", cfg.SES.Sender,
		)
		return newSESProvider(cfg)

	case "stdout":
		slog.Info("using stdout provider")
		return stdout.New()

	case "":
		// Auto-detection fallback
		if cfg.SMTPConfigured() {
			slog.Info("using SMTP provider (auto-detected)",
				"host", cfg.SMTP.Host,
				"sender", cfg.SMTP.Email,
			)
			return newSMTPProvider(cfg)
		}
		if cfg.SESConfigured() {
			slog.Info("using AWS SES provider (auto-detected)",
				"region", cfg.SES.Region,
				"sender", cfg.SES.Sender,
			)
			return newSESProvider(cfg)
		}
		slog.Info("no provider configured, using stdout provider")
		return stdout.New()

	default:
		slog.Error("unknown provider", "provider", cfg.Provider)
		os.Exit(1)
		return nil
	}
}

func newSMTPProvider(cfg *config.Config) provider.Provider {
	return smtp.New(smtp.ProviderConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Email,
		Password: cfg.SMTP.Password,
	})
}

func newSESProvider(cfg *config.Config) provider.Provider {
	p, err := ses.New(context.Background(), ses.ProviderConfig{
		Region:          cfg.SES.Region,
		AccessKeyID:     cfg.SES.AccessKeyID,
		SecretAccessKey: cfg.SES.SecretAccessKey,
		Sender:          cfg.SES.Sender,
		SenderName:      cfg.SMTP.SenderName,
	})
	if err != nil {
		slog.Error("failed to create SES provider", "error", err)
		os.Exit(1)
	}
	return p
}

// selectEnhancer builds the content enhancer. Without a Gemini API key the
// enhancer still works; it composes every email from the deterministic
// fallback template.
func selectEnhancer(cfg *config.Config) enhance.Enhancer {
	if !cfg.GeminiConfigured() {
		slog.Info("GEMINI_API_KEY not set, using fallback email composition")
		return enhance.NewModelEnhancer(nil)
	}

	slog.Info("using Gemini email enhancement", "model", cfg.Gemini.Model)
	return enhance.NewModelEnhancer(enhance.NewClient(enhance.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		BaseURL: cfg.Gemini.BaseURL,
	}))
}

// credentialsConfigured reports whether the selected provider has what it
// needs to actually deliver mail. The stdout provider never needs
// credentials.
func credentialsConfigured(cfg *config.Config, prov provider.Provider) bool {
	switch prov.Name() {
	case "smtp":
		return cfg.SMTPConfigured()
	case "ses":
		return cfg.SESConfigured()
	default:
		return true
	}
}
