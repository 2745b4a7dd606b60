package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okarpov/claimlens/internal/events"
	"github.com/okarpov/claimlens/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the verification HTTP server",
	Long: `Serve exposes verification over HTTP:
  POST /analyze                       verify a document
  GET  /analyses/{id}/claims          claims of a stored run
  GET  /analyses/{id}/verified-text   input with hallucinated sentences removed
  GET  /claims/{id}/evidence          evidence and citation checks for one claim
  GET  /stats/providers               provider success/failure counters
  GET  /healthz                       liveness probe
  GET  /metrics                       Prometheus metrics

Example:
  claimlens serve
  claimlens serve --addr :9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := buildApp(ctx, cfg, events.NopSink{}, true)
	if err != nil {
		return err
	}
	defer application.close()

	srv := server.New(cfg.Server.Addr, application.engine, application.registry, application.log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	fmt.Fprintf(os.Stderr, "claimlens listening on %s\n", cfg.Server.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
