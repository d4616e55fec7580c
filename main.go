package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"slack-mention-relay/config"
	"slack-mention-relay/handlers"
	"slack-mention-relay/logger"
	"slack-mention-relay/services"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logr.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Errorw("relay stopped", "error", err)
		os.Exit(1)
	}
}

func openDirectory(ctx context.Context, cfg config.DirectoryConfig) (services.Directory, error) {
	if cfg.IsRedis() {
		return services.OpenRedisDirectory(ctx, cfg.URL, cfg.Prefix)
	}
	return services.OpenGormDirectory(cfg.URL)
}

func run(ctx context.Context, cfg *config.Config, logr *zap.SugaredLogger) error {
	if cfg.Slack.SigningSecret == "" {
		logr.Warn("SLACK_SIGNING_SECRET is not set, Slack requests are not verified")
	}
	if cfg.GitHub.WebhookSecret == "" {
		logr.Warn("GITHUB_WEBHOOK_SECRET is not set, webhook payloads are not verified")
	}

	dir, err := openDirectory(ctx, cfg.Directory)
	if err != nil {
		return err
	}
	defer dir.Close()

	sessions := services.NewSessionRegistry(services.SlackSessionFactory, logr)
	teams, err := sessions.Replay(ctx, dir)
	if err != nil {
		return err
	}
	logr.Infow("bot sessions restored", "teams", teams)

	codeHost := services.NewGitHubClient(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret, cfg.PublicURL("/callback"), cfg.GitHub.EnterpriseURL)
	installer := &services.SlackOAuth{
		ClientID:     cfg.Slack.ClientID,
		ClientSecret: cfg.Slack.ClientSecret,
		RedirectURL:  cfg.PublicURL("/slack/oauth"),
		Scopes:       cfg.Slack.Scopes,
	}

	relay := &services.Relay{
		Dir:               dir,
		Sessions:          sessions,
		Dispatcher:        services.NewDispatcher(cfg.Delivery.Rate, cfg.Delivery.Burst, cfg.Delivery.Dedupe, logr),
		LookupConcurrency: cfg.Delivery.LookupConcurrency,
		Actions:           cfg.GitHub.NotifyActions,
		Log:               logr,
	}
	linker := services.NewLinker(dir, codeHost, logr)
	commands := services.NewCommandRouter(dir, codeHost, cfg.PublicURL, cfg.GitHub.WebhookSecret, logr)

	h := handlers.Handlers{
		Webhook:      handlers.NewWebhookHandler(relay, cfg.GitHub.WebhookSecret, logr),
		GitHubAuth:   handlers.NewGitHubAuthHandler(linker, logr),
		SlackEvents:  handlers.NewSlackEventsHandler(commands, dir, sessions, cfg.Slack.SigningSecret, logr),
		SlashCommand: handlers.NewSlashCommandHandler(commands, cfg.Slack.SigningSecret, logr),
		SlackInstall: handlers.NewSlackInstallHandler(installer, dir, sessions, logr),
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:    cfg.ServerAddr(),
		Handler: handlers.NewRouter(h, logr),
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Infow("listening", "addr", srv.Addr, "base_url", cfg.PublicURL(""))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	h.SlackEvents.Wait()
	linker.Wait()
	return nil
}
