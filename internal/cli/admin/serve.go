package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/matchd/internal/api/handlers"
	"github.com/cloo-solutions/matchd/internal/database"
	"github.com/cloo-solutions/matchd/internal/jobs"
	"github.com/cloo-solutions/matchd/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the matchd API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "", "Port to listen on (overrides MATCHD_PORT)")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().String("migrations", database.DefaultMigrationsSource, "Migration source URL")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if port, _ := cmd.Flags().GetString("port"); port != "" {
		a.cfg.Port = port
	}

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		source, _ := cmd.Flags().GetString("migrations")
		if err := database.Migrate(a.cfg.DatabaseURL, source, a.logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	exporter, err := a.exporter(ctx)
	if err != nil {
		return err
	}

	exportHandler := handlers.NewExportHandler(nil)
	if exporter != nil {
		exportHandler = handlers.NewExportHandler(exporter)
	} else {
		a.logger.Info("history export disabled: S3 settings not provided")
	}

	router := server.NewRouter(server.RouterConfig{
		Logger:         a.logger,
		MatchHandler:   handlers.NewMatchHandler(a.matches),
		ProfileHandler: handlers.NewProfileHandler(a.profiles),
		ExportHandler:  exportHandler,
	})

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if a.cfg.RescoreInterval > 0 {
		sweeper := jobs.NewRescoreSweeper(a.profiles, a.matches, a.logger.Named("sweeper"))
		worker := jobs.NewWorker(sweeper, a.cfg.RescoreInterval, a.logger.Named("sweeper"))
		go worker.Start(ctx)
		defer worker.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting server", zap.String("port", a.cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	a.logger.Info("server exited")
	return nil
}
