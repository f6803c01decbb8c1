package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clafootix/internal/app"
	"clafootix/internal/config"
	transport "clafootix/internal/transport/http"
	"github.com/google/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the round server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), viper.GetString("config"), viper.GetString("port"))
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := buildBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	service := app.NewRoundService(b.store, b.oracle, cfg.RoundConfig())
	auth := transport.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if cfg.Auth.JWTSecret == "" {
		logger.Warning("auth.jwt_secret not set, trusting the userId query parameter")
	}

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     transport.NewRouter(service, auth),
		ReadTimeout: 15 * time.Second,
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go runJanitor(janitorCtx, service, config.TTLDuration(cfg.Server.IdleSession, defaultIdleSession))

	go func() {
		logger.Infof("starting clafootix on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server...")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

const defaultIdleSession = 10 * time.Minute

// runJanitor drops sessions nobody is watching and that have nothing left to settle.
func runJanitor(ctx context.Context, service *app.RoundService, maxIdle time.Duration) {
	if maxIdle <= 0 {
		logger.Warningf("invalid idle session timeout %s, using %s", maxIdle, defaultIdleSession)
		maxIdle = defaultIdleSession
	}
	ticker := time.NewTicker(maxIdle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if removed := service.CleanUpInactiveSessions(maxIdle); removed > 0 {
				logger.Infof("cleaned up %d inactive sessions", removed)
			}
		case <-ctx.Done():
			return
		}
	}
}
