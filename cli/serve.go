package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"imageoptimize/config"
	"imageoptimize/failures"
	"imageoptimize/logger"
	"imageoptimize/models"
	"imageoptimize/routes"
	"imageoptimize/success"
)

func newServeCmd() *cobra.Command {
	var (
		queueInterval time.Duration
		maxRecordAge  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the background transform worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger.Info("Starting imageoptimize server initialization")

			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if path := config.GetVariantsFile(); path != "" {
				go func() {
					err := config.WatchVariantsFile(ctx, path, func(specs []models.VariantSpec) {
						if err := rt.field.SetVariants(specs); err != nil {
							logger.Errorf("Rejected variants from %s: %v", path, err)
						}
					})
					if err != nil {
						logger.Errorf("Failed to watch %s: %v", path, err)
					}
				}()
			}

			go transformWorker(ctx, rt, queueInterval)
			go cleanupRoutine(ctx, maxRecordAge)

			srv := &http.Server{
				Addr: config.GetListenAddr(),
				Handler: routes.NewRouter(&routes.App{
					Assets:     rt.assets,
					Field:      rt.field,
					Transforms: rt.transforms,
					JWTSecret:  []byte(config.GetJWTSecret()),
					ServeDir:   config.GetDirectServeBaseDir(),
				}),
				ReadHeaderTimeout: 10 * time.Second,
			}
			if config.GetJWTSecret() == "" {
				logger.Warn("IMAGEOPTIMIZE_JWT_SECRET is not set, uploads will be rejected")
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Infof("imageoptimize server listening on %s", srv.Addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().DurationVar(&queueInterval, "queue-interval", 5*time.Second, "how often queued transforms are generated")
	cmd.Flags().DurationVar(&maxRecordAge, "record-max-age", 30*24*time.Hour, "age after which success and failure records are removed")
	return cmd
}

// transformWorker generates queued transforms until ctx is done
func transformWorker(ctx context.Context, rt *runtime, interval time.Duration) {
	logger.Infof("Transform worker started - polling every %v", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Transform worker stopped due to context cancellation")
			return
		case <-ticker.C:
			if _, err := rt.transforms.ProcessPending(ctx); err != nil && ctx.Err() == nil {
				logger.Errorf("Queued transforms failed: %v", err)
			}
		}
	}
}

// cleanupRoutine periodically cleans up old success and failure records
func cleanupRoutine(ctx context.Context, maxAge time.Duration) {
	logger.Info("Cleanup routine started - will run every 24 hours")
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Cleanup routine stopped due to context cancellation")
			return
		case <-ticker.C:
			logger.Info("Running scheduled cleanup of old records")

			if n, err := success.CleanupOldRecords(maxAge); err != nil {
				logger.Errorf("Failed to cleanup old success records: %v", err)
			} else {
				logger.Infof("Removed %d success records older than %v", n, maxAge)
			}

			if n, err := failures.CleanupOldRecords(maxAge); err != nil {
				logger.Errorf("Failed to cleanup old failure records: %v", err)
			} else {
				logger.Infof("Removed %d failure records older than %v", n, maxAge)
			}
		}
	}
}
