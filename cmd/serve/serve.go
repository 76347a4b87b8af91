// Package serve implements the HTTP API command.
package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/farithjhg/agentic-ai-scraper-crawler/cmd/common"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/api"
)

// Command returns the serve command.
func Command(newDeps func() (*common.Deps, error)) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the crawl API over HTTP",
		Long: `Start an HTTP server exposing the crawler: POST /v1/scrape runs one
bounded crawl per request, GET /health reports liveness, and GET /metrics
exposes Prometheus metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := newDeps()
			if err != nil {
				return err
			}
			defer deps.Close()

			if addr == "" {
				addr = deps.Config.Server.Addr
			}
			return run(cmd.Context(), deps, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides configuration)")
	return cmd
}

func run(ctx context.Context, deps *common.Deps, addr string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(addr, deps.Engine, deps.Logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		deps.Logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), deps.Config.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
